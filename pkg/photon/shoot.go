package photon

import (
	"sync"

	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/control"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/lights"
	"github.com/yafaray/yafacore/pkg/material"
	"github.com/yafaray/yafacore/pkg/sampling"
)

// Accelerator is the subset of accel.Accelerator the shooting driver
// needs, kept as a local interface so this package doesn't have to import
// accel directly (spec.md presents the accelerator as a capability reached
// through its own three query methods, §2).
type Accelerator interface {
	Intersect(r geometry.Ray, tMax float64) (geometry.IntersectData, bool)
}

// Materials resolves a primitive's bound material id to its Material.
type Materials func(id geometry.MaterialID) material.Material

// pbStep is how many photons each shooting goroutine emits between
// cancellation polls and progress updates (spec.md §5 "polled... at every
// pb_step photons during emission").
const pbStep = 512

// Params configures one photon-shooting run (spec.md §4.3 contract).
type Params struct {
	NumPhotons int
	Threads    int
	CausDepth  int // max bounces deposited into the caustic map
	Bounces    int // max bounces deposited into the diffuse map

	Control *control.RenderControl // optional; nil never cancels
	Monitor control.Monitor        // optional progress sink
}

// Result holds the two maps a shooting run produces (spec.md §4.3 "caustic
// map"/"diffuse map (SPPM)").
type Result struct {
	Diffuse, Caustic *Map
}

// Shoot emits Params.NumPhotons photons from ls (power-proportional via
// PDF1D over totalEnergy, spec.md §4.3 step "Emission"), partitioned
// across Params.Threads goroutines with a low-discrepancy stream offset
// per thread (spec.md §4.3 "Parallelism").
func Shoot(accel Accelerator, materials Materials, ls []lights.Light, params Params) Result {
	if len(ls) == 0 || params.NumPhotons <= 0 {
		return Result{Diffuse: Build(nil, 0), Caustic: Build(nil, 0)}
	}
	pdf := lights.PowerDistribution(ls)
	threads := params.Threads
	if threads <= 0 {
		threads = 1
	}
	chunk := (params.NumPhotons + threads - 1) / threads

	var mu sync.Mutex
	var diffuse, caustic []Photon
	var wg sync.WaitGroup

	for t := 0; t < threads; t++ {
		start := t * chunk
		end := start + chunk
		if start >= params.NumPhotons {
			break
		}
		if end > params.NumPhotons {
			end = params.NumPhotons
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			localDiffuse, localCaustic := shootRange(accel, materials, ls, pdf, params, start, end)
			mu.Lock()
			diffuse = append(diffuse, localDiffuse...)
			caustic = append(caustic, localCaustic...)
			mu.Unlock()
		}(start, end)
	}
	wg.Wait()

	return Result{
		Diffuse: Build(diffuse, params.NumPhotons),
		Caustic: Build(caustic, params.NumPhotons),
	}
}

// shootRange emits photons [start,end) using a Halton stream offset by
// start so distinct threads draw distinct, deterministic sub-sequences
// (spec.md §4.3 "thread t uses a low-discrepancy stream offset by
// t*(N/T)").
func shootRange(accel Accelerator, materials Materials, ls []lights.Light, pdf *sampling.PDF1D, params Params, start, end int) (diffuse, caustic []Photon) {
	for i := start; i < end; i++ {
		if (i-start)%pbStep == 0 {
			if params.Control.Cancelled() {
				return diffuse, caustic
			}
			if params.Monitor != nil && i > start {
				params.Monitor.UpdateProgress(pbStep)
			}
		}

		idx := uint64(i + 1)
		sL := sampling.HaltonDim(0, idx)
		li, lightPdf, _ := pdf.DSample(sL)
		if li < 0 || li >= len(ls) {
			continue
		}
		light := ls[li]

		u1, u2 := sampling.HaltonDim(1, idx), sampling.HaltonDim(2, idx)
		u3, u4 := sampling.HaltonDim(3, idx), sampling.HaltonDim(4, idx)
		r, areaPdf, dirPdf, lc := light.EmitPhoton(u1, u2, u3, u4, 0)
		if lightPdf <= 0 || areaPdf <= 0 || dirPdf <= 0 {
			continue
		}
		power := lc.Mul(float64(len(ls)) / (lightPdf * areaPdf * dirPdf))
		if !power.IsFinite() {
			continue // spec.md §7 "photon emission producing NaN power is skipped"
		}

		d, c := bouncePhoton(accel, materials, r, power, params, idx)
		diffuse = append(diffuse, d...)
		caustic = append(caustic, c...)
	}
	return diffuse, caustic
}

// bouncePhoton walks a single photon path, depositing into the diffuse
// and/or caustic result slices per spec.md §4.3's deposit rules, and
// applying the dispersive wl2rgb collapse on the first dispersive bounce.
func bouncePhoton(accel Accelerator, materials Materials, r geometry.Ray, power color.RGB, params Params, streamIdx uint64) (diffuse, caustic []Photon) {
	causticPhoton := false
	directPhoton := true
	chromatic := true
	bounce := 0
	maxBounce := params.Bounces
	if params.CausDepth > maxBounce {
		maxBounce = params.CausDepth
	}

	for bounce < maxBounce {
		hit, ok := accel.Intersect(r, geometry.Infinity)
		if !ok {
			return diffuse, caustic
		}
		prim := hit.Primitive
		sp := prim.SurfaceData(r, hit)
		mat := materials(sp.Material)
		if mat == nil {
			return diffuse, caustic
		}
		wo := r.Dir.Neg()

		if vh := mat.VolumeHandler(material.VolumeSide(sp.GeoNormal, r.Dir)); vh != nil {
			power = power.MulColor(vh.Transmittance(r, hit.THit))
		}

		data := mat.InitBSDF(sp)
		lobes := mat.Lobes()
		isDiffuseHit := lobes.Has(material.FlagDiffuse)
		isGlossyHit := lobes.Has(material.FlagGlossy)

		photon := Photon{Pos: sp.Position, DirIn: r.Dir, Power: power, Time: r.Time}
		if causticPhoton && (isDiffuseHit || isGlossyHit) && bounce < params.CausDepth {
			caustic = append(caustic, photon)
		}
		if !directPhoton && !causticPhoton && isDiffuseHit && bounce < params.Bounces {
			diffuse = append(diffuse, photon)
		}

		// Diffuse is included alongside the caustic-chain lobes so a photon
		// can leave the direct state and feed the diffuse (SPPM) map;
		// without it every path would die at its first matte hit and the
		// "!direct && !caustic" deposit rule above could never fire.
		flags := material.All
		u1, u2 := sampling.HaltonDim(5+2*bounce, streamIdx), sampling.HaltonDim(6+2*bounce, streamIdx)
		wi, f, spdf, sampled := mat.Sample(sp, data, wo, u1, u2, flags)
		if spdf <= 0 || f.IsBlack() {
			return diffuse, caustic
		}
		// Delta lobes return their full branch throughput; only the
		// area-measure lobes take the projected-solid-angle cosine.
		w := 1 / spdf
		if !sampled.Any(material.Specular | material.Filter) {
			cos := wi.Dot(sp.Normal)
			if cos < 0 {
				cos = -cos
			}
			w = cos / spdf
		}
		power = power.MulColor(f).Mul(w)
		if !power.IsFinite() {
			return diffuse, caustic
		}

		if sampled&material.Dispersive != 0 && chromatic {
			lambda := sampling.HaltonDim(7+2*bounce, streamIdx)
			power = power.MulColor(color.Wl2Rgb(lambda))
			chromatic = false
		}

		wasDirectOrCaustic := directPhoton || causticPhoton
		causticPhoton = wasDirectOrCaustic && sampled&(material.Specular|material.FlagGlossy|material.Dispersive) != 0
		directPhoton = directPhoton && sampled&material.Filter != 0

		r = geometry.NewRay(sp.Position, wi)
		r.TMin = 1e-4
		bounce++
	}
	return diffuse, caustic
}
