package photon

import (
	"path/filepath"
	"testing"

	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/vec3"
)

func samplePhotons(n int) []Photon {
	ps := make([]Photon, n)
	for i := range ps {
		ps[i] = Photon{
			Pos:   vec3.New(float64(i), 0, 0),
			DirIn: vec3.New(0, 1, 0),
			Power: color.New(1, 1, 1),
		}
	}
	return ps
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := Build(samplePhotons(8), 1000)
	path := filepath.Join(t.TempDir(), "pass.ypm")

	if err := Save(m, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.NumPhotons() != m.NumPhotons() {
		t.Errorf("NumPhotons() = %d, want %d", loaded.NumPhotons(), m.NumPhotons())
	}
	if loaded.NPaths() != m.NPaths() {
		t.Errorf("NPaths() = %d, want %d", loaded.NPaths(), m.NPaths())
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.ypm")); err == nil {
		t.Errorf("expected an error loading a nonexistent photon map")
	}
}

func TestHeaderCacheMemoisesAndInvalidates(t *testing.T) {
	m := Build(samplePhotons(4), 500)
	path := filepath.Join(t.TempDir(), "pass.ypm")
	if err := Save(m, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	hc, err := NewHeaderCache(4)
	if err != nil {
		t.Fatalf("NewHeaderCache() error = %v", err)
	}

	h1, err := hc.HeaderOf(path)
	if err != nil {
		t.Fatalf("HeaderOf() error = %v", err)
	}
	if int(h1.NPhotons) != m.NumPhotons() {
		t.Errorf("header NPhotons = %d, want %d", h1.NPhotons, m.NumPhotons())
	}

	h2, err := hc.HeaderOf(path)
	if err != nil {
		t.Fatalf("HeaderOf() second call error = %v", err)
	}
	if h1 != h2 {
		t.Errorf("expected the cached header to match on a repeated probe, got %v vs %v", h1, h2)
	}

	hc.Invalidate(path)
	h3, err := hc.HeaderOf(path)
	if err != nil {
		t.Fatalf("HeaderOf() after Invalidate error = %v", err)
	}
	if h3 != h1 {
		t.Errorf("re-reading the same unmodified file should reproduce the same header, got %v vs %v", h3, h1)
	}
}

func TestHeaderCacheMissingFileErrors(t *testing.T) {
	hc, err := NewHeaderCache(4)
	if err != nil {
		t.Fatalf("NewHeaderCache() error = %v", err)
	}
	if _, err := hc.HeaderOf(filepath.Join(t.TempDir(), "missing.ypm")); err == nil {
		t.Errorf("expected an error probing a nonexistent file's header")
	}
}
