// Package color implements the small RGB radiance/throughput type shared by
// materials, lights, photons and the film (spec.md's Rgb references
// throughout §8's testable scenarios). Spectral rendering is not modelled;
// a three-channel RGB approximation is used throughout, consistent with
// spec.md §1 treating colour-space conversion as an external concern — this
// package only provides the arithmetic, not gamma/colour-space transforms.
package color

import "math"

type RGB struct {
	R, G, B float64
}

func New(r, g, b float64) RGB { return RGB{r, g, b} }

var Black = RGB{}
var White = RGB{1, 1, 1}

func (c RGB) Add(o RGB) RGB { return RGB{c.R + o.R, c.G + o.G, c.B + o.B} }
func (c RGB) Sub(o RGB) RGB { return RGB{c.R - o.R, c.G - o.G, c.B - o.B} }
func (c RGB) Mul(s float64) RGB {
	return RGB{c.R * s, c.G * s, c.B * s}
}
func (c RGB) MulColor(o RGB) RGB { return RGB{c.R * o.R, c.G * o.G, c.B * o.B} }
func (c RGB) Div(s float64) RGB {
	if s == 0 {
		return Black
	}
	return c.Mul(1 / s)
}

// IsBlack reports whether every channel is exactly zero, the common
// fast-out check before tracing a contribution ray.
func (c RGB) IsBlack() bool { return c.R == 0 && c.G == 0 && c.B == 0 }

// IsFinite reports whether every channel is finite, used to drop corrupted
// samples per spec.md §7 ("NaN in BSDF sample... logged... sample dropped").
func (c RGB) IsFinite() bool {
	return !math.IsNaN(c.R) && !math.IsInf(c.R, 0) &&
		!math.IsNaN(c.G) && !math.IsInf(c.G, 0) &&
		!math.IsNaN(c.B) && !math.IsInf(c.B, 0)
}

// Luminance returns the Rec.709 perceptual luminance, used to weigh lights
// by power, to pick a Dielectric branch, and by the film's dark-pixel
// threshold.
func (c RGB) Luminance() float64 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

// Max returns the largest channel value.
func (c RGB) Max() float64 {
	m := c.R
	if c.G > m {
		m = c.G
	}
	if c.B > m {
		m = c.B
	}
	return m
}

// Clamp restricts every channel to [lo, hi].
func (c RGB) Clamp(lo, hi float64) RGB {
	return RGB{clamp(c.R, lo, hi), clamp(c.G, lo, hi), clamp(c.B, lo, hi)}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b RGB, t float64) RGB {
	return a.Mul(1 - t).Add(b.Mul(t))
}

// Wl2Rgb approximates the CIE-ish visible-spectrum-to-RGB mapping used to
// collapse a single sampled wavelength back into an RGB throughput
// multiplier after a dispersive bounce (spec.md §4.2 "Dispersive BSDF" and
// §4.3 "On the first dispersive scatter... multiply power by wl2rgb(λ)").
// lambda is normalized to [0,1] across the visible range (380-780nm).
func Wl2Rgb(lambda float64) RGB {
	nm := 380 + lambda*(780-380)
	var r, g, b float64
	switch {
	case nm < 440:
		r, g, b = -(nm-440)/(440-380), 0, 1
	case nm < 490:
		r, g, b = 0, (nm-440)/(490-440), 1
	case nm < 510:
		r, g, b = 0, 1, -(nm-510)/(510-490)
	case nm < 580:
		r, g, b = (nm-510)/(580-510), 1, 0
	case nm < 645:
		r, g, b = 1, -(nm-645)/(645-580), 0
	default:
		r, g, b = 1, 0, 0
	}
	// intensity falloff at the visible range edges
	var factor float64
	switch {
	case nm < 420:
		factor = 0.3 + 0.7*(nm-380)/(420-380)
	case nm < 700:
		factor = 1
	case nm <= 780:
		factor = 0.3 + 0.7*(780-nm)/(780-700)
	default:
		factor = 0
	}
	return RGB{r * factor, g * factor, b * factor}.Mul(3) // renormalize so the average over lambda is ~White
}
