package film

import (
	"image"
	"image/color"
	"math"

	yafcolor "github.com/yafaray/yafacore/pkg/color"
)

// LayerCombined is the always-present beauty layer; additional named
// layers (spec.md §4.5 "drives layers") accumulate AOVs such as diffuse or
// normal passes alongside it.
const LayerCombined = "combined"

// PixelAccum is a single pixel's filter-weighted accumulator plus the
// unweighted per-channel running statistics adaptive sampling needs,
// generalising the teacher's renderer.PixelStats (ColorAccum/LuminanceAccum/
// LuminanceSqAccum/SampleCount) to a filtered splat and per-channel
// variance instead of luminance-only variance.
type PixelAccum struct {
	WeightedColor yafcolor.RGB // sum(weight * sample)
	WeightSum     float64

	ColorAccum   yafcolor.RGB // unweighted sum(sample), for variance
	ColorSqAccum yafcolor.RGB // unweighted sum(sample^2)
	SampleCount  int
}

// AddSample splats one sample at sub-pixel offset (dx, dy) from the pixel
// centre using filter f, and records it in the unweighted running
// statistics used for adaptive-resampling decisions.
func (p *PixelAccum) AddSample(c yafcolor.RGB, dx, dy float64, f Filter) {
	w := f.Weight(dx, dy)
	p.WeightedColor = p.WeightedColor.Add(c.Mul(w))
	p.WeightSum += w

	p.ColorAccum = p.ColorAccum.Add(c)
	p.ColorSqAccum = p.ColorSqAccum.Add(c.MulColor(c))
	p.SampleCount++
}

// Color returns the filter-normalised average colour for this pixel.
func (p *PixelAccum) Color() yafcolor.RGB {
	if p.WeightSum <= 0 {
		return yafcolor.Black
	}
	return p.WeightedColor.Div(p.WeightSum)
}

// Variance returns the unweighted per-channel sample variance, used by
// Film.ShouldResample (spec.md §4.5 "per-channel variance across prior
// samples").
func (p *PixelAccum) Variance() yafcolor.RGB {
	if p.SampleCount == 0 {
		return yafcolor.Black
	}
	n := float64(p.SampleCount)
	mean := p.ColorAccum.Div(n)
	meanSq := p.ColorSqAccum.Div(n)
	v := meanSq.Sub(mean.MulColor(mean))
	return yafcolor.RGB{R: math.Max(0, v.R), G: math.Max(0, v.G), B: math.Max(0, v.B)}
}

// DarkDetection selects whether AA_threshold is scaled down for dark
// pixels (spec.md §4.5 "dark-threshold scaling is applied when
// AA_dark_detection = linear").
type DarkDetection int

const (
	DarkDetectionNone DarkDetection = iota
	DarkDetectionLinear
)

// Film owns one or more named layer buffers over a fixed image rectangle
// and applies gamma correction only on Flush (spec.md §3 "Film — Owns
// layer buffers; per-tile additive; gamma/colour-space applied only on
// output").
type Film struct {
	Width, Height int
	Filter        Filter
	Gamma         float64

	layers map[string][][]PixelAccum
}

// New creates a Film with the combined layer pre-allocated.
func New(width, height int, filter Filter, gamma float64) *Film {
	if gamma <= 0 {
		gamma = 2.2
	}
	f := &Film{Width: width, Height: height, Filter: filter, Gamma: gamma, layers: make(map[string][][]PixelAccum)}
	f.layer(LayerCombined)
	return f
}

func (f *Film) layer(name string) [][]PixelAccum {
	l, ok := f.layers[name]
	if !ok {
		l = make([][]PixelAccum, f.Height)
		for y := range l {
			l[y] = make([]PixelAccum, f.Width)
		}
		f.layers[name] = l
	}
	return l
}

// AddSample records a sample in the named layer at pixel (px, py), weighted
// by Film.Filter at offset (dx, dy) from the pixel centre. The sample goes
// into that one pixel only; it is not splatted into neighbouring pixels
// inside the filter's footprint. Out-of-range pixels are silently dropped,
// matching the teacher's bounds checks in extractTileImage.
func (f *Film) AddSample(layer string, px, py int, dx, dy float64, c yafcolor.RGB) {
	if px < 0 || px >= f.Width || py < 0 || py >= f.Height {
		return
	}
	f.layer(layer)[py][px].AddSample(c, dx, dy, f.Filter)
}

// Pixel returns the accumulator at (px, py) in the named layer, nil if out
// of bounds.
func (f *Film) Pixel(layer string, px, py int) *PixelAccum {
	if px < 0 || px >= f.Width || py < 0 || py >= f.Height {
		return nil
	}
	return &f.layer(layer)[py][px]
}

// SetPixel overwrites a pixel's colour directly, bypassing the filter
// accumulator. SPPM's per-pass radiance estimate is already the full,
// normalised quantity (spec.md §4.4 step 4), so each pass replaces rather
// than blends with the previous one.
func (f *Film) SetPixel(layer string, px, py int, c yafcolor.RGB) {
	if px < 0 || px >= f.Width || py < 0 || py >= f.Height {
		return
	}
	p := &f.layer(layer)[py][px]
	p.WeightedColor = c
	p.WeightSum = 1
	p.SampleCount = 1
}

// ShouldResample implements spec.md §4.5's adaptive-AA gate: a pixel is
// resampled on pass i > 0 only if its per-channel variance exceeds
// threshold, with the threshold scaled down for dark pixels under linear
// dark detection.
func (f *Film) ShouldResample(px, py int, threshold float64, dark DarkDetection) bool {
	p := f.Pixel(LayerCombined, px, py)
	if p == nil || p.SampleCount == 0 {
		return true
	}
	v := p.Variance()
	effective := threshold
	if dark == DarkDetectionLinear {
		mean := p.ColorAccum.Div(float64(p.SampleCount)).Luminance()
		effective = threshold * math.Max(mean, 0.05)
	}
	return v.R > effective || v.G > effective || v.B > effective
}

// Flush renders the combined layer to an RGBA image, applying gamma
// correction only at this output boundary (spec.md §3's Film ownership
// rule). A render with zero samples in a pixel yields black, matching the
// teacher's PixelStats.GetColor zero-sample guard.
func (f *Film) Flush() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	layer := f.layer(LayerCombined)
	invGamma := 1 / f.Gamma
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := layer[y][x].Color()
			img.SetRGBA(x, y, toRGBA(c, invGamma))
		}
	}
	return img
}

func toRGBA(c yafcolor.RGB, invGamma float64) color.RGBA {
	c = c.Clamp(0, 1)
	r := math.Pow(c.R, invGamma)
	g := math.Pow(c.G, invGamma)
	b := math.Pow(c.B, invGamma)
	return color.RGBA{
		R: uint8(r*255 + 0.5),
		G: uint8(g*255 + 0.5),
		B: uint8(b*255 + 0.5),
		A: 255,
	}
}
