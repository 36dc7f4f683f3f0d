package film

import (
	"math/rand"
	"sort"
)

// Bounds is a half-open pixel rectangle [MinX,MaxX) x [MinY,MaxY), matching
// the teacher's use of image.Rectangle for tile bounds without pulling in
// the image package here.
type Bounds struct {
	MinX, MinY, MaxX, MaxY int
}

func (b Bounds) Dx() int { return b.MaxX - b.MinX }
func (b Bounds) Dy() int { return b.MaxY - b.MinY }

// Tile is a rectangular region of the image plane, generalising the
// teacher's renderer.Tile with a per-tile deterministic RNG for
// reproducible sub-pixel jitter.
type Tile struct {
	ID              int
	Bounds          Bounds
	PassesCompleted int
	Random          *rand.Rand
}

// Order selects the traversal order tiles are submitted in, per spec.md
// §4.5 "Tile order is chosen from {linear, random, centre}".
type Order int

const (
	OrderLinear Order = iota
	OrderRandom
	OrderCentre
)

// BuildTiles partitions a width x height image into tileSize x tileSize
// tiles (the teacher's NewTileGrid ceiling-division scheme) and returns
// them in the requested order.
func BuildTiles(width, height, tileSize int, order Order, seed int64) []*Tile {
	if tileSize <= 0 {
		tileSize = 32
	}
	var tiles []*Tile
	id := 0
	tilesX := (width + tileSize - 1) / tileSize
	tilesY := (height + tileSize - 1) / tileSize

	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x0, y0 := tx*tileSize, ty*tileSize
			x1, y1 := min(x0+tileSize, width), min(y0+tileSize, height)
			bounds := Bounds{MinX: x0, MinY: y0, MaxX: x1, MaxY: y1}
			tiles = append(tiles, &Tile{
				ID:     id,
				Bounds: bounds,
				Random: rand.New(rand.NewSource(seed + int64(id) + 1)),
			})
			id++
		}
	}

	switch order {
	case OrderRandom:
		r := rand.New(rand.NewSource(seed))
		r.Shuffle(len(tiles), func(i, j int) { tiles[i], tiles[j] = tiles[j], tiles[i] })
	case OrderCentre:
		cx, cy := float64(width)/2, float64(height)/2
		sort.Slice(tiles, func(i, j int) bool {
			return tileDistSq(tiles[i].Bounds, cx, cy) < tileDistSq(tiles[j].Bounds, cx, cy)
		})
	}
	return tiles
}

func tileDistSq(b Bounds, cx, cy float64) float64 {
	tx := float64(b.MinX+b.MaxX) / 2
	ty := float64(b.MinY+b.MaxY) / 2
	dx, dy := tx-cx, ty-cy
	return dx*dx + dy*dy
}
