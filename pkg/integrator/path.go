package integrator

import (
	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/control"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/lights"
	"github.com/yafaray/yafacore/pkg/material"
	"github.com/yafaray/yafacore/pkg/sampling"
	"github.com/yafaray/yafacore/pkg/scene"
	"github.com/yafaray/yafacore/pkg/vec3"
)

// Path is the Monte-Carlo direct-light + recursive integrator of spec.md
// §4.2: direct lighting at every hit with balance-heuristic MIS between
// light- and BSDF-sampling, followed by a recursive trace over
// specular/filter/glossy/dispersive bounces bounded by MaxDepth +
// AdditionalDepth and terminated by Russian roulette, grounded on the
// teacher's pkg/renderer/raytracer.go rayColorRecursive/direct-lighting
// split.
type Path struct{}

var _ Integrator = (*Path)(nil)

// Preprocess does nothing for the direct/recursive integrator: it needs no
// photon maps (spec.md §6 "preprocess(scene, renderControl) (may build
// photon maps)" -- "may").
func (p *Path) Preprocess(*scene.Snapshot, *control.RenderControl) error { return nil }

// minNonDeltaPdf is the non-delta light-sample pdf floor below which a
// sample is dropped rather than divided by (spec.md §4.2 "Non-delta light
// sample pdf below 1e-6 is dropped").
const minNonDeltaPdf = 1e-6

// russianRouletteSurvive is the fixed continuation probability applied past
// RussianRouletteMinBounces, matching the teacher's Russian-roulette
// termination in the recursive trace.
const russianRouletteSurvive = 0.85

func (p *Path) Integrate(snap *scene.Snapshot, r geometry.Ray, st State) Result {
	return p.trace(snap, r, st)
}

func (p *Path) trace(snap *scene.Snapshot, r geometry.Ray, st State) Result {
	if st.Cancel.Cancelled() {
		return Result{Color: color.Black, Alpha: 1}
	}

	hit, ok := snap.Accelerator.Intersect(r, geometry.Infinity)
	if !ok {
		if snap.Background != nil {
			return Result{Color: snap.Background.Eval(r), Alpha: 0}
		}
		return Result{Color: color.Black, Alpha: 0}
	}

	prim := hit.Primitive
	sp := prim.SurfaceData(r, hit)
	mat := snap.Materials[sp.Material]
	if mat == nil {
		return Result{Color: color.Black, Alpha: 1}
	}
	wo := r.Dir.Neg()
	data := mat.InitBSDF(sp)

	out := mat.Emit(sp, data, wo)
	out = out.Add(p.directLighting(snap, sp, mat, data, wo, st))
	out = out.Add(p.ambientOcclusion(snap, sp, mat, data, wo, st))

	maxDepth := snap.Sampling.MaxDepth + snap.Sampling.AdditionalDepth
	if maxDepth <= 0 {
		maxDepth = 5
	}
	if st.Depth < maxDepth {
		out = out.Add(p.recurse(snap, sp, mat, data, wo, st))
	}

	// Attenuate everything leaving this hit towards the ray origin by the
	// medium between them (spec.md §4.2 "Apply volume transmittance from
	// the side determined by sp.ng · ray.dir < 0 before accumulating").
	if vh := mat.VolumeHandler(material.VolumeSide(sp.GeoNormal, r.Dir)); vh != nil {
		out = out.MulColor(vh.Transmittance(r, hit.THit))
	}

	return Result{Color: out, Alpha: 1}
}

// directLighting implements spec.md §4.2's per-light direct contribution:
// delta lights add their single sample unconditionally (after a shadow
// test); area/solid-angle lights draw n_L stratified samples and combine
// the light- and BSDF-sampling strategies via the balance heuristic
// (w_L = p_L²/(p_L²+p_M²), w_M = p_M²/(p_L²+p_M²)).
func (p *Path) directLighting(snap *scene.Snapshot, sp geometry.SurfacePoint, mat material.Material, data material.BSDFData, wo vec3.Vec3, st State) color.RGB {
	total := color.Black
	nL := snap.Sampling.LightSamplesPerArea
	if nL <= 0 {
		nL = 1
	}

	for _, light := range snap.Lights {
		if light.IsDelta() {
			total = total.Add(p.sampleDeltaLight(snap, sp, mat, data, wo, light))
			continue
		}
		acc := color.Black
		for i := 0; i < nL; i++ {
			offset := sampling.StratifiedOffset(int(st.StreamIndex), nL, 0, i, 997)
			acc = acc.Add(p.sampleAreaLightMIS(snap, sp, mat, data, wo, light, offset))
		}
		total = total.Add(acc.Div(float64(nL)))
	}
	return total
}

func (p *Path) sampleDeltaLight(snap *scene.Snapshot, sp geometry.SurfacePoint, mat material.Material, data material.BSDFData, wo vec3.Vec3, light lights.Light) color.RGB {
	ill, ok := light.Illuminate(sp)
	if !ok || ill.Color.IsBlack() {
		return color.Black
	}
	cos := sp.Normal.Dot(ill.Wi)
	if cos <= 0 {
		return color.Black
	}
	filter, blocked := p.shadowFilter(snap, sp, ill.Wi, ill.Dist)
	if blocked {
		return color.Black
	}
	f := mat.Eval(sp, data, wo, ill.Wi, material.All)
	return f.MulColor(ill.Color).MulColor(filter).Mul(cos)
}

// sampleAreaLightMIS draws one light-sampling-strategy sample and one
// BSDF-sampling-strategy sample and combines them via the balance
// heuristic, per spec.md §4.2. The two strategies draw from distinct
// Halton dimensions at the same stream offset so they stay uncorrelated.
func (p *Path) sampleAreaLightMIS(snap *scene.Snapshot, sp geometry.SurfacePoint, mat material.Material, data material.BSDFData, wo vec3.Vec3, light lights.Light, offset uint64) color.RGB {
	out := color.Black
	u1, u2 := sampling.HaltonDim(2, offset), sampling.HaltonDim(3, offset)
	u3, u4 := sampling.HaltonDim(4, offset), sampling.HaltonDim(5, offset)

	// Light-sampling strategy.
	if ill, ok := light.IllumSample(sp, u1, u2); ok && !ill.Color.IsBlack() && ill.Pdf > minNonDeltaPdf {
		cos := sp.Normal.Dot(ill.Wi)
		if cos > 0 {
			if filter, blocked := p.shadowFilter(snap, sp, ill.Wi, ill.Dist); !blocked {
				f := mat.Eval(sp, data, wo, ill.Wi, material.All)
				if !f.IsBlack() {
					bsdfPdf := mat.Pdf(sp, data, wo, ill.Wi, material.All)
					weight := balanceWeight(ill.Pdf, bsdfPdf)
					out = out.Add(f.MulColor(ill.Color).MulColor(filter).Mul(cos * weight / ill.Pdf))
				}
			}
		}
	}

	// BSDF-sampling strategy, only when the light is intersectable (area
	// lights; delta lights never reach this function). Delta lobes are
	// excluded: a specular/filter chain cannot be weighted against an
	// area-measure light pdf and is handled by the recursive trace instead.
	wi, f, bsdfPdf, _ := mat.Sample(sp, data, wo, u3, u4, material.All&^(material.Specular|material.Filter))
	if bsdfPdf > 0 && !f.IsBlack() {
		cos := sp.Normal.Dot(wi)
		if cos > 0 {
			dist, lc, lightPdf, ok := light.Intersect(geometry.Ray{From: sp.Position, Dir: wi, TMin: 1e-4, TMax: geometry.Infinity}, geometry.Infinity)
			if ok && lightPdf > minNonDeltaPdf {
				if filter, blocked := p.shadowFilter(snap, sp, wi, dist); !blocked {
					weight := balanceWeight(bsdfPdf, lightPdf)
					out = out.Add(f.MulColor(lc).MulColor(filter).Mul(cos * weight / bsdfPdf))
				}
			}
		}
	}

	return out
}

// ambientOcclusion implements spec.md §4.2's optional AO layer: draw
// AOSamples cosine-hemisphere directions about the shading normal, shadow-test
// each against AODistance, and accumulate ao_color · surfCol · |cos|,
// averaged over the sample count. Disabled (a no-op) unless a scene opts in
// by setting Sampling.AOSamples > 0, matching the teacher's integrators'
// convention of folding optional layers behind a zero-valued config default.
func (p *Path) ambientOcclusion(snap *scene.Snapshot, sp geometry.SurfacePoint, mat material.Material, data material.BSDFData, wo vec3.Vec3, st State) color.RGB {
	n := snap.Sampling.AOSamples
	if n <= 0 {
		return color.Black
	}
	dist := snap.Sampling.AODistance
	if dist <= 0 {
		dist = geometry.Infinity
	}

	offs := uint64(n)*st.StreamIndex + 997
	total := color.Black
	for i := 0; i < n; i++ {
		u1, u2 := sampling.HaltonDim(2, offs+uint64(i)), sampling.HaltonDim(3, offs+uint64(i))
		wi := sampling.CosineHemisphere(sp.Normal, u1, u2)
		cos := sp.Normal.Dot(wi)
		if cos <= 0 {
			continue
		}
		if p.occluded(snap, sp, wi, dist) {
			continue
		}
		surfCol := mat.Eval(sp, data, wo, wi, material.FlagDiffuse|material.FlagGlossy)
		total = total.Add(snap.Sampling.AOColor.MulColor(surfCol).Mul(cos))
	}
	return total.Div(float64(n))
}

func balanceWeight(pA, pB float64) float64 {
	pA2, pB2 := pA*pA, pB*pB
	if pA2+pB2 <= 0 {
		return 0
	}
	return pA2 / (pA2 + pB2)
}

func (p *Path) occluded(snap *scene.Snapshot, sp geometry.SurfacePoint, wi vec3.Vec3, dist float64) bool {
	shadowRay := geometry.Ray{From: sp.Position, Dir: wi, TMin: 1e-4, TMax: dist}
	return snap.Accelerator.IntersectShadow(shadowRay, dist-1e-3, defaultOpacity(snap))
}

// shadowFilter shadow-tests the segment towards a light sample. With
// transparent shadows enabled it accumulates the transmission filter
// through non-opaque blockers up to ShadowDepth (spec.md §4.2
// "transparent-shadow filter applied if enabled"); otherwise any hit
// occludes fully.
func (p *Path) shadowFilter(snap *scene.Snapshot, sp geometry.SurfacePoint, wi vec3.Vec3, dist float64) (color.RGB, bool) {
	shadowRay := geometry.Ray{From: sp.Position, Dir: wi, TMin: 1e-4, TMax: dist}
	if snap.Sampling.TransparentShadows {
		depth := snap.Sampling.ShadowDepth
		if depth <= 0 {
			depth = 4
		}
		return snap.Accelerator.IntersectTransparentShadow(shadowRay, dist-1e-3, depth, defaultOpacity(snap))
	}
	blocked := snap.Accelerator.IntersectShadow(shadowRay, dist-1e-3, defaultOpacity(snap))
	return color.White, blocked
}

// defaultOpacity resolves a shadow-ray hit's material straight from
// Primitive.Material() rather than building a full SurfacePoint: every
// concrete Material.Alpha implementation in this package ignores its
// SurfacePoint argument, so this avoids needing the originating ray that
// accel.OpacityFunc's signature doesn't carry.
func defaultOpacity(snap *scene.Snapshot) func(prim geometry.Primitive, hit geometry.IntersectData) (bool, color.RGB) {
	return func(prim geometry.Primitive, hit geometry.IntersectData) (bool, color.RGB) {
		mat := snap.Materials[prim.Material()]
		if mat == nil {
			return true, color.Black
		}
		alpha := mat.Alpha(geometry.SurfacePoint{}, nil, vec3.Vec3{})
		if alpha >= 1 || !snap.Sampling.TransparentShadows {
			return true, color.Black
		}
		return false, color.White.Mul(1 - alpha)
	}
}

// dispersionSubSamples is dsam of spec.md §4.2's "Dispersive BSDF" split.
const dispersionSubSamples = 8

// recurse implements spec.md §4.2's "Recursive raytrace" step: analytic
// specular/filter rays (split per-wavelength when the material disperses
// and the path is still chromatic) followed by a sampled glossy/diffuse
// continuation, each weighted by the throughput the material returns.
func (p *Path) recurse(snap *scene.Snapshot, sp geometry.SurfacePoint, mat material.Material, data material.BSDFData, wo vec3.Vec3, st State) color.RGB {
	out := color.Black

	if disp, ok := mat.(material.DispersiveMaterial); ok && st.Chromatic && mat.Lobes().Has(material.Dispersive) {
		out = out.Add(p.traceDispersive(snap, sp, disp, wo, st))
	} else if refl, refr := mat.Specular(sp, data, wo); refl != nil || refr != nil {
		if refl != nil && !refl.Color.IsBlack() {
			out = out.Add(p.traceChild(snap, sp, refl.Dir, st).Color.MulColor(refl.Color))
		}
		if refr != nil && !refr.Color.IsBlack() {
			out = out.Add(p.traceChild(snap, sp, refr.Dir, st).Color.MulColor(refr.Color))
		}
	}

	lobes := mat.Lobes()
	if !lobes.Any(material.FlagDiffuse | material.FlagGlossy) {
		return out
	}

	if st.Depth >= snap.Sampling.RussianRouletteMinBounces && snap.Sampling.RussianRouletteMinBounces > 0 {
		if sampling.HaltonDim(1, st.StreamIndex+uint64(st.Depth)*9973) > russianRouletteSurvive {
			return out
		}
	}

	u1 := sampling.HaltonDim(4, st.StreamIndex+uint64(st.Depth)*131)
	u2 := sampling.HaltonDim(5, st.StreamIndex+uint64(st.Depth)*131)
	wi, f, pdf, _ := mat.Sample(sp, data, wo, u1, u2, material.FlagDiffuse|material.FlagGlossy)
	if pdf <= 0 || f.IsBlack() {
		return out
	}
	cos := sp.Normal.Dot(wi)
	if cos <= 0 {
		return out
	}
	weight := f.Mul(cos / pdf)
	if st.Depth >= snap.Sampling.RussianRouletteMinBounces && snap.Sampling.RussianRouletteMinBounces > 0 {
		weight = weight.Mul(1 / russianRouletteSurvive)
	}

	child := p.traceChild(snap, sp, wi, st)
	out = out.Add(child.Color.MulColor(weight))
	return out
}

// traceDispersive splits a chromatic specular chain into dsam sub-samples
// across the visible range at ((i + jitter) / dsam), traces each
// wavelength's reflect/refract pair with chromatic disabled for the child,
// and collapses every branch back to RGB via wl2rgb (spec.md §4.2
// "Dispersive BSDF").
func (p *Path) traceDispersive(snap *scene.Snapshot, sp geometry.SurfacePoint, mat material.DispersiveMaterial, wo vec3.Vec3, st State) color.RGB {
	childSt := st
	childSt.Chromatic = false
	acc := color.Black
	for i := 0; i < dispersionSubSamples; i++ {
		jitter := sampling.HaltonDim(6, st.StreamIndex+uint64(i)*31)
		lambda := (float64(i) + jitter) / dispersionSubSamples
		wl := color.Wl2Rgb(lambda)
		refl, refr := mat.SpecularDispersive(sp, wo, lambda)
		if refl != nil && !refl.Color.IsBlack() {
			acc = acc.Add(p.traceChild(snap, sp, refl.Dir, childSt).Color.MulColor(refl.Color).MulColor(wl))
		}
		if refr != nil && !refr.Color.IsBlack() {
			acc = acc.Add(p.traceChild(snap, sp, refr.Dir, childSt).Color.MulColor(refr.Color).MulColor(wl))
		}
	}
	return acc.Div(dispersionSubSamples)
}

func (p *Path) traceChild(snap *scene.Snapshot, sp geometry.SurfacePoint, dir vec3.Vec3, st State) Result {
	r := geometry.Ray{From: sp.Position, Dir: dir, TMin: 1e-4, TMax: geometry.Infinity}
	st.Depth++
	return p.trace(snap, r, st)
}
