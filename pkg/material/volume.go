package material

import (
	"math"

	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/vec3"
)

// BeerVolume is the exponential-absorption volume handler recovered from
// original_source/volume_handler_beer.cc (SPEC_FULL.md §5): pure
// absorption, no in-scattering, transmittance falls off as
// exp(-sigma_a * dist) per channel.
type BeerVolume struct {
	SigmaA color.RGB // absorption coefficient per unit distance, per channel
}

func (h *BeerVolume) Transmittance(r geometry.Ray, dist float64) color.RGB {
	return color.RGB{
		R: math.Exp(-h.SigmaA.R * dist),
		G: math.Exp(-h.SigmaA.G * dist),
		B: math.Exp(-h.SigmaA.B * dist),
	}
}

// Scatter never fires: Beer absorption has no in-scattering event, only
// attenuation, matching volume_handler_beer.cc's scatter() always
// returning false.
func (h *BeerVolume) Scatter(geometry.Ray, float64, float64, float64) (vec3.Vec3, color.RGB, bool) {
	return vec3.Vec3{}, color.Black, false
}

// SssVolume approximates a forward-scattering subsurface medium: isotropic
// absorption per BeerVolume plus a probability of an in-scatter event that
// redirects the ray/photon into a new uniform direction, weighted by the
// scattering albedo (SPEC_FULL.md §5, approximating original_source's
// dipole-diffusion Sss handler without the full diffusion-profile fit,
// which is out of scope per spec.md §1's material-node-graph exclusion).
type SssVolume struct {
	SigmaA color.RGB
	SigmaS color.RGB // scattering coefficient per channel
}

func (h *SssVolume) sigmaT() color.RGB { return h.SigmaA.Add(h.SigmaS) }

func (h *SssVolume) Transmittance(r geometry.Ray, dist float64) color.RGB {
	st := h.sigmaT()
	return color.RGB{
		R: math.Exp(-st.R * dist),
		G: math.Exp(-st.G * dist),
		B: math.Exp(-st.B * dist),
	}
}

func (h *SssVolume) Scatter(r geometry.Ray, u1, u2, u3 float64) (vec3.Vec3, color.RGB, bool) {
	st := h.sigmaT()
	albedo := color.RGB{R: safeDiv(h.SigmaS.R, st.R), G: safeDiv(h.SigmaS.G, st.G), B: safeDiv(h.SigmaS.B, st.B)}
	// Russian-roulette the scatter event on the mean albedo; a miss means
	// the photon/ray was absorbed.
	mean := (albedo.R + albedo.G + albedo.B) / 3
	if u3 >= mean {
		return vec3.Vec3{}, color.Black, false
	}
	t, b := vec3.Basis(r.Dir)
	z := 1 - 2*u1
	rad := math.Sqrt(math.Max(0, 1-z*z))
	phi := 2 * math.Pi * u2
	dir := t.Mul(rad * math.Cos(phi)).Add(b.Mul(rad * math.Sin(phi))).Add(r.Dir.Mul(z))
	return dir.Unit(), albedo.Div(mean), true
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
