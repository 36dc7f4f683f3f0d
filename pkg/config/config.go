// Package config implements the ParamMap contract of spec.md §6 ("Core
// consumes a ParamMap (string-keyed typed values)... unknown keys produce a
// warning") plus a TOML-encoded render profile, in the style of
// noisetorch-NoiseTorch's config.go (github.com/BurntSushi/toml,
// toml.DecodeFile / toml.NewEncoder.Encode).
package config

import (
	"bytes"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/yafaray/yafacore/pkg/logger"
)

// ParamMap is the string-keyed typed value bag spec.md §6 names as the
// core's configuration surface, populated either programmatically by a
// scene builder or decoded from a RenderProfile.
type ParamMap map[string]interface{}

func (p ParamMap) GetInt(key string, def int) int {
	if v, ok := p[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return def
}

func (p ParamMap) GetFloat(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return def
}

func (p ParamMap) GetString(key string, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

func (p ParamMap) GetBool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

// WarnUnknownKeys logs a warning for every key in p that is not listed in
// allowed, matching spec.md §6's "Unknown keys produce a warning" for each
// component's recognised-key set (accelerator, integrator, SPPM).
func WarnUnknownKeys(log logger.Logger, component string, p ParamMap, allowed []string) {
	recognised := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		recognised[k] = true
	}
	for k := range p {
		if !recognised[k] {
			log.Warnf("config: %s: unrecognised key %q", component, k)
		}
	}
}

// AcceleratorKeys, IntegratorKeys and SppmKeys list the recognised keys per
// component named in spec.md §6.
var (
	AcceleratorKeys = []string{"type", "depth", "leaf_size", "cost_ratio", "empty_bonus", "accelerator_threads"}
	IntegratorKeys  = []string{"raydepth", "shadowDepth", "transpShad", "AA_samples", "AA_inc_samples", "AA_passes", "AA_threshold", "AA_dark_detection", "do_AO", "AO_samples", "AO_distance", "AO_color"}
	SppmKeys        = []string{"num_photons", "num_passes", "bounces", "caus_depth", "times", "photon_radius", "search_num", "pm_ire", "threads_photons", "persist_dir"}
)

// AcceleratorConfig, IntegratorConfig and SppmConfig are typed render
// profile sections, decoded from / encoded to a TOML file the way
// noisetorch's config.go round-trips its config struct.
type AcceleratorConfig struct {
	Type               string  `toml:"type"`
	Depth              int     `toml:"depth"`
	LeafSize           int     `toml:"leaf_size"`
	CostRatio          float64 `toml:"cost_ratio"`
	EmptyBonus         float64 `toml:"empty_bonus"`
	AcceleratorThreads int     `toml:"accelerator_threads"`
}

type IntegratorConfig struct {
	RayDepth        int     `toml:"raydepth"`
	ShadowDepth     int     `toml:"shadowDepth"`
	TranspShad      bool    `toml:"transpShad"`
	AASamples       int     `toml:"AA_samples"`
	AAIncSamples    int     `toml:"AA_inc_samples"`
	AAPasses        int     `toml:"AA_passes"`
	AAThreshold     float64 `toml:"AA_threshold"`
	AADarkDetection string  `toml:"AA_dark_detection"`

	// Ambient occlusion (spec.md §4.2 "optional layer"): DoAO gates it
	// on, AOSamples is n_AO, AODistance is the shadow-ray ao_distance, and
	// AOColor is ao_color as [r,g,b].
	DoAO       bool       `toml:"do_AO"`
	AOSamples  int        `toml:"AO_samples"`
	AODistance float64    `toml:"AO_distance"`
	AOColor    [3]float64 `toml:"AO_color"`
}

type SppmConfig struct {
	NumPhotons     int     `toml:"num_photons"`
	NumPasses      int     `toml:"num_passes"`
	Bounces        int     `toml:"bounces"`
	CausDepth      int     `toml:"caus_depth"`
	Times          float64 `toml:"times"`
	PhotonRadius   float64 `toml:"photon_radius"`
	SearchNum      int     `toml:"search_num"`
	PmIre          bool    `toml:"pm_ire"`
	ThreadsPhotons int     `toml:"threads_photons"`
	// PersistDir, when set, is copied onto integrator.SPPM.PersistDir so
	// photon maps survive across runs (spec.md §4.3 persistence); the CLI's
	// -photon-cache-dir flag overrides this when both are given.
	PersistDir string `toml:"persist_dir"`
}

// RenderProfile is the root of a render.toml document.
type RenderProfile struct {
	Accelerator AcceleratorConfig `toml:"accelerator"`
	Integrator  IntegratorConfig  `toml:"integrator"`
	SPPM        SppmConfig        `toml:"sppm"`
}

// DefaultRenderProfile returns the defaults matching spec.md's named
// component formulas (accelerator defaults are recomputed per-build when
// Depth/LeafSize are <=0, see pkg/accel.Params).
func DefaultRenderProfile() RenderProfile {
	return RenderProfile{
		Accelerator: AcceleratorConfig{Type: "kdtree", CostRatio: 0.8, EmptyBonus: 0.33},
		Integrator:  IntegratorConfig{RayDepth: 5, ShadowDepth: 4, TranspShad: true, AASamples: 1, AAIncSamples: 1, AAPasses: 3, AAThreshold: 0.05, AADarkDetection: "linear", AOSamples: 8, AODistance: 1, AOColor: [3]float64{1, 1, 1}},
		SPPM:        SppmConfig{NumPhotons: 500000, NumPasses: 16, Bounces: 5, CausDepth: 10, Times: 1, PhotonRadius: 1, SearchNum: 100, PmIre: true, ThreadsPhotons: 1},
	}
}

// LoadRenderProfile decodes a TOML render profile from path.
func LoadRenderProfile(path string) (RenderProfile, error) {
	p := DefaultRenderProfile()
	_, err := toml.DecodeFile(path, &p)
	return p, err
}

// SaveRenderProfile encodes p as TOML and writes it to path.
func SaveRenderProfile(path string, p RenderProfile) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(&p); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// ToParamMap flattens the typed profile into the ParamMap surface the core
// consumes, namespaced per component as spec.md §6 lists them.
func (p RenderProfile) ToParamMap() map[string]ParamMap {
	return map[string]ParamMap{
		"accelerator": {
			"type":                p.Accelerator.Type,
			"depth":               p.Accelerator.Depth,
			"leaf_size":           p.Accelerator.LeafSize,
			"cost_ratio":          p.Accelerator.CostRatio,
			"empty_bonus":         p.Accelerator.EmptyBonus,
			"accelerator_threads": p.Accelerator.AcceleratorThreads,
		},
		"integrator": {
			"raydepth":          p.Integrator.RayDepth,
			"shadowDepth":       p.Integrator.ShadowDepth,
			"transpShad":        p.Integrator.TranspShad,
			"AA_samples":        p.Integrator.AASamples,
			"AA_inc_samples":    p.Integrator.AAIncSamples,
			"AA_passes":         p.Integrator.AAPasses,
			"AA_threshold":      p.Integrator.AAThreshold,
			"AA_dark_detection": p.Integrator.AADarkDetection,
			"do_AO":             p.Integrator.DoAO,
			"AO_samples":        p.Integrator.AOSamples,
			"AO_distance":       p.Integrator.AODistance,
			"AO_color":          p.Integrator.AOColor,
		},
		"sppm": {
			"num_photons":     p.SPPM.NumPhotons,
			"num_passes":      p.SPPM.NumPasses,
			"bounces":         p.SPPM.Bounces,
			"caus_depth":      p.SPPM.CausDepth,
			"times":           p.SPPM.Times,
			"photon_radius":   p.SPPM.PhotonRadius,
			"search_num":      p.SPPM.SearchNum,
			"pm_ire":          p.SPPM.PmIre,
			"threads_photons": p.SPPM.ThreadsPhotons,
			"persist_dir":     p.SPPM.PersistDir,
		},
	}
}
