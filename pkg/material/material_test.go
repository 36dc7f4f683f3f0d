package material

import (
	"math"
	"testing"

	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/vec3"
)

func flatSurfacePoint() geometry.SurfacePoint {
	return geometry.SurfacePoint{
		Position:  vec3.New(0, 0, 0),
		GeoNormal: vec3.New(0, 0, 1),
		Normal:    vec3.New(0, 0, 1),
	}
}

// S2 of spec.md §8: a Lambertian albedo 0.8 patch lit straight-on returns
// exactly albedo/pi at that one direction.
func TestLambertianEvalMatchesAnalyticAlbedoOverPi(t *testing.T) {
	m := &Lambertian{Albedo: color.New(0.8, 0.8, 0.8)}
	sp := flatSurfacePoint()
	wo := vec3.New(0, 0, 1)
	wi := vec3.New(0, 0, 1)
	f := m.Eval(sp, nil, wo, wi, All)
	want := 0.8 / math.Pi
	if math.Abs(f.R-want) > 1e-9 || math.Abs(f.G-want) > 1e-9 || math.Abs(f.B-want) > 1e-9 {
		t.Errorf("Eval = %+v, want ~%v per channel", f, want)
	}
}

func TestLambertianSampleStaysInUpperHemisphere(t *testing.T) {
	m := &Lambertian{Albedo: color.White}
	sp := flatSurfacePoint()
	wo := vec3.New(0, 0, 1)
	for i := 0; i < 50; i++ {
		u1 := float64(i) / 50
		u2 := float64(i*7%50) / 50
		wi, f, pdf, flags := m.Sample(sp, nil, wo, u1, u2, All)
		if pdf <= 0 {
			continue
		}
		if wi.Dot(sp.Normal) <= 0 {
			t.Fatalf("sampled wi=%v below the surface (normal=%v)", wi, sp.Normal)
		}
		if flags != FlagDiffuse {
			t.Errorf("sampledFlags = %v, want FlagDiffuse", flags)
		}
		if f.IsBlack() {
			t.Errorf("sample %d returned black throughput with pdf=%v", i, pdf)
		}
	}
}

// S4 of spec.md §8: a mirror reflects a straight-on ray straight back.
func TestMirrorSpecularReflectsAboutNormal(t *testing.T) {
	m := &Mirror{Reflectance: color.White}
	sp := flatSurfacePoint()
	wo := vec3.New(0, 0, 1) // looking straight at the surface from +Z
	refl, refr := m.Specular(sp, nil, wo)
	if refl == nil || refr != nil {
		t.Fatalf("mirror should return exactly one reflect ray, got reflect=%v refract=%v", refl, refr)
	}
	want := vec3.New(0, 0, 1)
	if refl.Dir.Sub(want).Length() > 1e-9 {
		t.Errorf("reflect dir = %v, want %v", refl.Dir, want)
	}
	if refl.Color != color.White {
		t.Errorf("reflect color = %v, want White (full reflectance)", refl.Color)
	}
}

func TestDielectricSplitsEnergyBetweenReflectAndRefract(t *testing.T) {
	m := &Dielectric{IOR: 1.5, Filter: color.White}
	sp := flatSurfacePoint()
	wo := vec3.New(0, 0, 1)
	refl, refr := m.Specular(sp, nil, wo)
	if refl == nil || refr == nil {
		t.Fatalf("a straight-on ray on glass should produce both a reflect and a refract ray, got reflect=%v refract=%v", refl, refr)
	}
	sum := refl.Color.R + refr.Color.R
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("Fresnel split should conserve energy, reflect+refract = %v, want 1", sum)
	}
}

func TestDielectricSampleDrawsDeltaBranches(t *testing.T) {
	m := &Dielectric{IOR: 1.5, AbbeNumber: 40, Filter: color.White}
	sp := flatSurfacePoint()
	wo := vec3.New(0, 0, 1)

	if _, _, pdf, _ := m.Sample(sp, nil, wo, 0.5, 0.5, FlagDiffuse|FlagGlossy); pdf != 0 {
		t.Errorf("Sample without the Specular flag should draw nothing, got pdf=%v", pdf)
	}

	var sawReflect, sawTransmit bool
	for i := 0; i < 20; i++ {
		u1 := (float64(i) + 0.5) / 20
		wi, f, pdf, sampled := m.Sample(sp, nil, wo, u1, 0.5, All)
		if pdf <= 0 || pdf > 1 {
			t.Fatalf("u1=%v: branch probability %v outside (0,1]", u1, pdf)
		}
		if f.IsBlack() {
			t.Fatalf("u1=%v: delta branch returned black throughput", u1)
		}
		switch {
		case sampled.Has(Specular | Reflect):
			sawReflect = true
			if wi.Dot(sp.Normal) <= 0 {
				t.Errorf("reflected direction %v fell below the surface", wi)
			}
		case sampled.Has(Specular | Transmit):
			sawTransmit = true
			if !sampled.Has(Dispersive) {
				t.Errorf("transmit branch of a dispersive glass should carry the Dispersive lobe, got %v", sampled)
			}
			if wi.Dot(sp.Normal) >= 0 {
				t.Errorf("refracted direction %v stayed above the surface", wi)
			}
		default:
			t.Fatalf("unexpected sampled flags %v", sampled)
		}
	}
	if !sawReflect || !sawTransmit {
		t.Errorf("expected both branches over the u1 sweep, reflect=%v transmit=%v", sawReflect, sawTransmit)
	}
}

func TestDielectricDispersionVariesIORAcrossWavelength(t *testing.T) {
	m := &Dielectric{IOR: 1.5, AbbeNumber: 40}
	blue := m.IORAt(0.05)
	red := m.IORAt(0.95)
	if blue <= red {
		t.Errorf("blue-end IOR (%v) should exceed red-end IOR (%v) for normal dispersion", blue, red)
	}
}

func TestBeerVolumeAttenuatesWithDistance(t *testing.T) {
	h := &BeerVolume{SigmaA: color.New(1, 1, 1)}
	r := geometry.Ray{Dir: vec3.New(0, 0, 1)}
	near := h.Transmittance(r, 1)
	far := h.Transmittance(r, 10)
	if far.R >= near.R {
		t.Errorf("transmittance should decrease with distance: near=%v far=%v", near, far)
	}
	if _, _, ok := h.Scatter(r, 0, 0, 0); ok {
		t.Errorf("Beer volume must never scatter")
	}
}

func TestVolumeSideMatchesNormalDotDirSign(t *testing.T) {
	n := vec3.New(0, 0, 1)
	entering := vec3.New(0, 0, -1) // ray travelling into the surface
	leaving := vec3.New(0, 0, 1)
	if !VolumeSide(n, entering) {
		t.Errorf("a ray moving against the normal should be classified as entering the inside")
	}
	if VolumeSide(n, leaving) {
		t.Errorf("a ray moving with the normal should not be classified as entering the inside")
	}
}
