package film

import (
	"testing"

	"github.com/yafaray/yafacore/pkg/color"
)

func TestPixelAccumBoxFilterAverages(t *testing.T) {
	box := NewBoxFilter()
	var p PixelAccum
	p.AddSample(color.New(1, 0, 0), 0, 0, box)
	p.AddSample(color.New(0, 1, 0), 0, 0, box)

	got := p.Color()
	want := color.New(0.5, 0.5, 0)
	tolerance := 1e-9
	if absf(got.R-want.R) > tolerance || absf(got.G-want.G) > tolerance || absf(got.B-want.B) > tolerance {
		t.Errorf("Color() = %+v, want %+v", got, want)
	}
}

func TestPixelAccumZeroSamplesIsBlack(t *testing.T) {
	var p PixelAccum
	if !p.Color().IsBlack() {
		t.Errorf("Color() with zero samples = %+v, want black", p.Color())
	}
}

func TestFilmAddSampleOutOfBoundsDropped(t *testing.T) {
	f := New(4, 4, NewBoxFilter(), 2.2)
	f.AddSample(LayerCombined, -1, 0, 0, 0, color.White)
	f.AddSample(LayerCombined, 4, 0, 0, 0, color.White)
	if p := f.Pixel(LayerCombined, 0, 0); !p.Color().IsBlack() {
		t.Errorf("expected out-of-bounds samples to be dropped, pixel(0,0) = %+v", p.Color())
	}
}

func TestFilmFlushGammaCorrectsWhite(t *testing.T) {
	f := New(1, 1, NewBoxFilter(), 2.2)
	f.AddSample(LayerCombined, 0, 0, 0, 0, color.White)

	img := f.Flush()
	r, g, b, a := img.At(0, 0).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 || a>>8 != 255 {
		t.Errorf("expected pure white to stay white after gamma, got r=%d g=%d b=%d a=%d", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestFilmShouldResampleNoSamplesAlwaysTrue(t *testing.T) {
	f := New(2, 2, NewBoxFilter(), 2.2)
	if !f.ShouldResample(0, 0, 0.01, DarkDetectionNone) {
		t.Errorf("expected unsampled pixel to require resampling")
	}
}

func TestFilmShouldResampleConvergedPixel(t *testing.T) {
	f := New(1, 1, NewBoxFilter(), 2.2)
	for i := 0; i < 16; i++ {
		f.AddSample(LayerCombined, 0, 0, 0, 0, color.New(0.5, 0.5, 0.5))
	}
	if f.ShouldResample(0, 0, 0.01, DarkDetectionNone) {
		t.Errorf("expected constant-colour pixel with zero variance to not require resampling")
	}
}

func TestBuildTilesCoversWholeImage(t *testing.T) {
	tiles := BuildTiles(10, 10, 4, OrderLinear, 1)
	var covered int
	for _, tile := range tiles {
		covered += tile.Bounds.Dx() * tile.Bounds.Dy()
	}
	if covered != 100 {
		t.Errorf("tiles cover %d pixels, want 100", covered)
	}
}

func TestBuildTilesCentreOrderStartsNearCentre(t *testing.T) {
	tiles := BuildTiles(12, 12, 4, OrderCentre, 1)
	first := tiles[0].Bounds
	centreX, centreY := 6, 6
	if first.MinX > centreX || first.MaxX < centreX-4 || first.MinY > centreY || first.MaxY < centreY-4 {
		t.Errorf("expected first tile in centre order near the image centre, got %+v", first)
	}
}

func TestMitchellFilterPeaksAtZero(t *testing.T) {
	f := NewMitchellFilter(1.0/3, 1.0/3)
	at0 := f.Weight(0, 0)
	atEdge := f.Weight(f.Radius(), 0)
	if at0 <= atEdge {
		t.Errorf("expected Mitchell filter weight to decay from centre, got centre=%f edge=%f", at0, atEdge)
	}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
