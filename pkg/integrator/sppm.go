package integrator

import (
	"fmt"
	"math"
	"path/filepath"
	"sync"

	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/control"
	"github.com/yafaray/yafacore/pkg/geometry"
	"github.com/yafaray/yafacore/pkg/material"
	"github.com/yafaray/yafacore/pkg/photon"
	"github.com/yafaray/yafacore/pkg/rayerr"
	"github.com/yafaray/yafacore/pkg/scene"
	"github.com/yafaray/yafacore/pkg/vec3"
)

// sppmAlpha is the fixed progressive-refinement exponent of spec.md §4.4
// ("with alpha = 0.7").
const sppmAlpha = 0.7

// nMaxGather caps photons retrieved from the diffuse map per gather, per
// spec.md §4.4 step 2 ("up to n_max_gather = 1000").
const nMaxGather = 1000

// minDiffusePhotons is the non-fatal abort threshold of spec.md §4.4
// "Failure semantics" ("If diffuse map has < 50 photons after a pass,
// abort with a non-fatal warning").
const minDiffusePhotons = 50

// HitPoint is spec.md §3's per-pixel SPPM accumulator.
type HitPoint struct {
	R2            float64
	N             float64 // accumulated photon count, real-valued
	AccFlux       color.RGB
	ConstRadiance color.RGB
	Initialised   bool
}

// SPPM is the Stochastic Progressive Photon Mapping integrator of spec.md
// §4.4, grounded on the photon emission/bounce machinery of pkg/photon and
// on the teacher's per-pixel accumulator pattern in
// pkg/renderer/raytracer.go's PixelStats.
type SPPM struct {
	Photon        photon.Params
	InitialFactor float64 // multiplies R0; 0 defaults to 1
	IRE           bool    // pm_ire: probe the photon maps for the first-pass radius
	SearchNum     int     // IRE probe photon count; 0 defaults to 100
	ProbeRadius   float64 // IRE probe radius; 0 defaults to 1

	// PersistDir, when non-empty, makes each pass's photon maps resumable
	// (spec.md §4.3 "Persistence... may be reloaded from a persisted
	// file"): NextPass probes for a previously saved pass under this
	// directory before shooting, and saves what it shoots afterwards, so a
	// render interrupted mid-way through its photon passes picks back up
	// without re-shooting already-completed ones.
	PersistDir string

	hpMu        sync.Mutex // guards hitpoints map inserts; Driver.RunPass dispatches pixels across worker goroutines
	hitpoints   map[[2]int]*HitPoint
	diffuseMap  *photon.Map
	causticMap  *photon.Map
	totalPaths  int
	initialR2   float64
	passNum     int
	headerCache *photon.HeaderCache
	ctrl        *control.RenderControl
}

var _ Integrator = (*SPPM)(nil)

// NewSPPM builds an SPPM integrator with the given photon-shooting params.
func NewSPPM(params photon.Params) *SPPM {
	return &SPPM{
		Photon:        params,
		InitialFactor: 1,
		IRE:           true,
		SearchNum:     100,
		ProbeRadius:   1,
		hitpoints:     make(map[[2]int]*HitPoint),
	}
}

// Preprocess computes the initial per-pixel radius R0 from the scene
// bound (spec.md §4.4 "Initial radius") and shoots the first photon pass.
func (s *SPPM) Preprocess(snap *scene.Snapshot, ctrl *control.RenderControl) error {
	s.ctrl = ctrl
	ext := snap.Bound.Extent()
	l := (ext.X + ext.Y + ext.Z) / 3
	wh := (float64(snap.Sampling.Width) + float64(snap.Sampling.Height)) / 2
	if wh <= 0 {
		wh = 1
	}
	factor := s.InitialFactor
	if factor <= 0 {
		factor = 1
	}
	r0 := math.Min(1, l/wh*2) * factor
	s.initialR2 = r0 * r0
	return s.NextPass(snap)
}

// NextPass shoots one photon-mapping pass, rebuilding the diffuse and
// caustic maps (spec.md §4.4 "Per pass... 1. Photon pass"), reusing a
// persisted pass from PersistDir instead of re-shooting when one is found.
func (s *SPPM) NextPass(snap *scene.Snapshot) error {
	s.passNum++

	if s.PersistDir != "" {
		if diffuse, caustic, ok := s.loadPersistedPass(s.passNum); ok {
			s.diffuseMap = diffuse
			s.causticMap = caustic
			s.totalPaths += diffuse.NPaths()
			return nil
		}
	}

	materials := func(id geometry.MaterialID) material.Material {
		if int(id) < 0 || int(id) >= len(snap.Materials) {
			return nil
		}
		return snap.Materials[id]
	}
	params := s.Photon
	params.Control = s.ctrl
	result := photon.Shoot(snap.Accelerator, materials, snap.Lights, params)
	if s.ctrl.Cancelled() {
		return rayerr.New(rayerr.Cancelled, "sppm photon pass cancelled")
	}
	if result.Diffuse.NumPhotons() < minDiffusePhotons {
		// Non-fatal once a usable map exists: keep rendering from the prior
		// pass's state (spec.md §4.4 "Failure semantics"). Only a first pass
		// with nothing to fall back on aborts.
		if s.diffuseMap != nil {
			return nil
		}
		return rayerr.New(rayerr.DegenerateScene, "sppm photon pass produced too few diffuse photons")
	}
	s.diffuseMap = result.Diffuse
	s.causticMap = result.Caustic
	s.totalPaths += s.Photon.NumPhotons

	if s.PersistDir != "" {
		s.savePersistedPass(s.passNum)
	}
	return nil
}

// mapPaths returns the persisted diffuse/caustic map paths for pass under
// PersistDir.
func (s *SPPM) mapPaths(pass int) (diffusePath, causticPath string) {
	base := filepath.Join(s.PersistDir, fmt.Sprintf("pass%03d", pass))
	return base + "_diffuse.ypm", base + "_caustic.ypm"
}

// loadPersistedPass probes (and caches, via headerCache) the header of
// pass's persisted diffuse map before attempting a full Load, per spec.md
// §4.3's emitPhoton/persistence contract; a missing or corrupted diffuse
// map is treated as "no persisted pass" so the caller regenerates it
// (spec.md §7 "Loading a mismatched persisted map degrades to
// generate-and-save automatically"). The caustic map is optional: a scene
// with no caustic-casting lights may never have one to reload.
func (s *SPPM) loadPersistedPass(pass int) (diffuseMap, causticMap *photon.Map, ok bool) {
	if s.headerCache == nil {
		s.headerCache, _ = photon.NewHeaderCache(8)
	}
	diffusePath, causticPath := s.mapPaths(pass)

	if _, err := s.headerCache.HeaderOf(diffusePath); err != nil {
		return nil, nil, false
	}
	diffuse, err := photon.Load(diffusePath)
	if err != nil {
		s.headerCache.Invalidate(diffusePath)
		return nil, nil, false
	}

	var caustic *photon.Map
	if _, err := s.headerCache.HeaderOf(causticPath); err == nil {
		if c, err := photon.Load(causticPath); err == nil {
			caustic = c
		} else {
			s.headerCache.Invalidate(causticPath)
		}
	}
	return diffuse, caustic, true
}

// savePersistedPass writes pass's freshly shot maps under PersistDir so a
// later run's loadPersistedPass can resume from them.
func (s *SPPM) savePersistedPass(pass int) {
	diffusePath, causticPath := s.mapPaths(pass)
	if err := photon.Save(s.diffuseMap, diffusePath); err != nil {
		return
	}
	if s.causticMap != nil {
		_ = photon.Save(s.causticMap, causticPath)
	}
}

// hitPoint returns st's pixel's HitPoint, creating it on first touch. The
// map lookup/insert is mutex-guarded because distinct pixels across
// different tiles reach it concurrently from the render driver's worker
// pool (spec.md §5 "Shared state"); once returned, the HitPoint itself is
// safe to mutate without further locking since a single pixel is only ever
// owned by one in-flight eye sample at a time (natural tile partitioning).
func (s *SPPM) hitPoint(st State) *HitPoint {
	key := [2]int{st.PixelX, st.PixelY}
	s.hpMu.Lock()
	defer s.hpMu.Unlock()
	hp, ok := s.hitpoints[key]
	if !ok {
		hp = &HitPoint{R2: s.initialR2}
		s.hitpoints[key] = hp
	}
	return hp
}

// Integrate performs one eye-pass sample for st's pixel: trace to the
// first diffuse/glossy hit, gather from both photon maps, and apply the
// Hachisuka-Jensen progressive refinement (spec.md §4.4 step 3), returning
// the pixel's up-to-date radiance estimate (step 4).
func (s *SPPM) Integrate(snap *scene.Snapshot, r geometry.Ray, st State) Result {
	hp := s.hitPoint(st)

	constRadiance, flux, m := s.eyePass(snap, r, st, hp)
	hp.ConstRadiance = hp.ConstRadiance.Add(constRadiance)

	if m > 0 {
		g := math.Min((hp.N+sppmAlpha*m)/(hp.N+m), 1)
		hp.R2 *= g
		hp.N += sppmAlpha * m
		hp.AccFlux = hp.AccFlux.Add(flux).Mul(g)
	}

	// ConstRadiance accumulates an independent direct/emissive estimate per
	// pass, so the output averages it over the passes taken so far, while
	// the photon flux term is already normalised by the total photon count
	// (spec.md §4.4 step 4).
	radiance := hp.ConstRadiance
	if s.passNum > 0 {
		radiance = radiance.Div(float64(s.passNum))
	}
	if s.totalPaths > 0 && hp.R2 > 0 {
		radiance = radiance.Add(hp.AccFlux.Mul(1 / (math.Pi * hp.R2 * float64(s.totalPaths))))
	}
	return Result{Color: radiance, Alpha: 1}
}

// eyePass walks the eye ray to its first diffuse/glossy hit (recursing
// through specular/filter bounces, including a dispersive material's
// fixed-IOR specular rays, to find further hitpoints, spec.md §4.4 step
// 2), gathering photons and accumulating
// direct/emissive radiance along the way.
func (s *SPPM) eyePass(snap *scene.Snapshot, r geometry.Ray, st State, hp *HitPoint) (constRadiance color.RGB, flux color.RGB, m float64) {
	if st.Cancel.Cancelled() {
		return color.Black, color.Black, 0
	}

	hit, ok := snap.Accelerator.Intersect(r, geometry.Infinity)
	if !ok {
		if snap.Background != nil {
			return snap.Background.Eval(r), color.Black, 0
		}
		return color.Black, color.Black, 0
	}

	sp := hit.Primitive.SurfaceData(r, hit)
	mat := snap.Materials[sp.Material]
	if mat == nil {
		return color.Black, color.Black, 0
	}
	wo := r.Dir.Neg()
	data := mat.InitBSDF(sp)
	lobes := mat.Lobes()

	constRadiance = mat.Emit(sp, data, wo)

	if lobes.Any(material.FlagDiffuse | material.FlagGlossy) {
		if s.IRE && !hp.Initialised && s.diffuseMap != nil {
			s.initialRadiusEstimate(snap, sp, hp)
		}
		direct := (&Path{}).directLighting(snap, sp, mat, data, wo, st)
		constRadiance = constRadiance.Add(direct)

		gatherFlux, gatherM := s.gatherAt(sp, mat, data, wo, hp.R2)
		flux = flux.Add(gatherFlux)
		m += gatherM
		return constRadiance, flux, m
	}

	if st.Depth >= snap.Sampling.MaxDepth+snap.Sampling.AdditionalDepth {
		return constRadiance, flux, m
	}

	// Specular/filter/dispersive: recurse to find the next diffuse hitpoint
	// and fold its contribution in, weighted by the bounce's throughput.
	refl, refr := mat.Specular(sp, data, wo)
	childSt := st
	childSt.Depth++
	if refl != nil && !refl.Color.IsBlack() {
		childRay := geometry.Ray{From: sp.Position, Dir: refl.Dir, TMin: 1e-4, TMax: geometry.Infinity}
		cr, cf, cm := s.eyePass(snap, childRay, childSt, hp)
		constRadiance = constRadiance.Add(cr.MulColor(refl.Color))
		flux = flux.Add(cf.MulColor(refl.Color))
		m += cm
	}
	if refr != nil && !refr.Color.IsBlack() {
		childRay := geometry.Ray{From: sp.Position, Dir: refr.Dir, TMin: 1e-4, TMax: geometry.Infinity}
		cr, cf, cm := s.eyePass(snap, childRay, childSt, hp)
		constRadiance = constRadiance.Add(cr.MulColor(refr.Color))
		flux = flux.Add(cf.MulColor(refr.Color))
		m += cm
	}

	return constRadiance, flux, m
}

// initialRadiusEstimate implements spec.md §4.4's IRE: gather up to
// SearchNum photons at ProbeRadius^2 in both maps and, if at least one is
// found, shrink R^2 to the smaller of the two probe radii.
func (s *SPPM) initialRadiusEstimate(snap *scene.Snapshot, sp geometry.SurfacePoint, hp *HitPoint) {
	searchNum := s.SearchNum
	if searchNum <= 0 {
		searchNum = 100
	}
	probeR := s.ProbeRadius
	if probeR <= 0 {
		probeR = 1
	}
	probeR2 := probeR * probeR
	foundDiff, rDiff2 := s.diffuseMap.Gather(sp.Position, searchNum, probeR2)
	found := len(foundDiff) > 0
	best := rDiff2
	if s.causticMap != nil {
		foundCaus, rCaus2 := s.causticMap.Gather(sp.Position, searchNum, probeR2)
		if len(foundCaus) > 0 && rCaus2 < best {
			best = rCaus2
		}
		found = found || len(foundCaus) > 0
	}
	if found && best < hp.R2 {
		hp.R2 = best
	}
	hp.Initialised = true
}

// gatherAt accumulates the diffuse-map contribution (diffuse BSDF lobes
// only) and the caustic-map contribution (full BSDF) within radius^2 of
// sp, per spec.md §4.4 step 2's two gather bullets.
func (s *SPPM) gatherAt(sp geometry.SurfacePoint, mat material.Material, data material.BSDFData, wo vec3.Vec3, r2 float64) (color.RGB, float64) {
	flux := color.Black
	var m float64

	if s.diffuseMap != nil {
		found, _ := s.diffuseMap.Gather(sp.Position, nMaxGather, r2)
		for _, fp := range found {
			f := mat.Eval(sp, data, wo, fp.Photon.DirIn.Neg(), material.FlagDiffuse)
			if !f.IsBlack() {
				flux = flux.Add(f.MulColor(fp.Photon.Power))
			}
		}
		m += float64(len(found))
	}
	if s.causticMap != nil {
		found, _ := s.causticMap.Gather(sp.Position, nMaxGather, r2)
		for _, fp := range found {
			f := mat.Eval(sp, data, wo, fp.Photon.DirIn.Neg(), material.All)
			if !f.IsBlack() {
				flux = flux.Add(f.MulColor(fp.Photon.Power))
			}
		}
	}
	return flux, m
}
