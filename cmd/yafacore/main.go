// Command yafacore is the CLI entrypoint: parse flags, build (or load) a
// scene, drive a progressive render, and save each pass's PNG, generalising
// the teacher's main.go Config/parseFlags/showHelp pattern.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"time"

	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/config"
	"github.com/yafaray/yafacore/pkg/film"
	"github.com/yafaray/yafacore/pkg/integrator"
	"github.com/yafaray/yafacore/pkg/logger"
	"github.com/yafaray/yafacore/pkg/photon"
	"github.com/yafaray/yafacore/pkg/rayerr"
	"github.com/yafaray/yafacore/pkg/renderer"
	"github.com/yafaray/yafacore/pkg/scene"
)

// Exit codes: 0 success, 1 init failure, 2 render failure, 3 cancelled.
const (
	exitInitFailure   = 1
	exitRenderFailure = 2
	exitCancelled     = 3
)

// cliConfig holds the command-line configuration, mirroring the teacher's
// main.Config.
type cliConfig struct {
	SceneType      string
	RenderProfile  string
	MaxPasses      int
	MaxSamples     int
	Workers        int
	IntegratorType string
	Verbose        bool
	Help           bool
	CPUProfile     string
	OutDir         string
	PhotonMapDir   string
}

func main() {
	cfg := parseFlags()
	if cfg.Help {
		showHelp()
		return
	}

	if cfg.CPUProfile != "" {
		f, err := os.Create(cfg.CPUProfile)
		if err != nil {
			fmt.Printf("could not create CPU profile: %v\n", err)
			os.Exit(exitInitFailure)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("could not start CPU profile: %v\n", err)
			os.Exit(exitInitFailure)
		}
		defer pprof.StopCPUProfile()
	}

	level := logger.LevelInfo
	if cfg.Verbose {
		level = logger.LevelDebug
	}
	log := logger.NewDefaultAt(level)

	profile := config.DefaultRenderProfile()
	if cfg.RenderProfile != "" {
		loaded, err := config.LoadRenderProfile(cfg.RenderProfile)
		if err != nil {
			fmt.Printf("error loading render profile %q: %v\n", cfg.RenderProfile, err)
			os.Exit(exitInitFailure)
		}
		profile = loaded
	}

	sceneObj, err := createScene(cfg.SceneType)
	if err != nil {
		fmt.Printf("error creating scene: %v\n", err)
		os.Exit(exitInitFailure)
	}
	applyProfile(sceneObj, profile)

	snap, err := sceneObj.Preprocess(log)
	if err != nil {
		fmt.Printf("error preprocessing scene: %v\n", err)
		os.Exit(exitInitFailure)
	}

	integ, err := selectIntegrator(cfg.IntegratorType, profile, cfg.PhotonMapDir)
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(exitInitFailure)
	}

	renderCfg := renderer.DefaultConfig()
	renderCfg.MaxPasses = cfg.MaxPasses
	renderCfg.AAThreshold = profile.Integrator.AAThreshold
	renderCfg.AASamples = profile.Integrator.AASamples
	renderCfg.AAMultiplier = 1 // linear growth so the per-pass budget tracks -max-samples predictably
	if remaining := cfg.MaxSamples - renderCfg.AASamples; remaining > 0 && cfg.MaxPasses > 1 {
		renderCfg.AAIncSamples = remaining / (cfg.MaxPasses - 1)
	}
	if renderCfg.AAIncSamples < 1 {
		renderCfg.AAIncSamples = 1
	}
	if profile.Integrator.AADarkDetection == "linear" {
		renderCfg.AADarkDetection = film.DarkDetectionLinear
	} else {
		renderCfg.AADarkDetection = film.DarkDetectionNone
	}

	driver, err := renderer.NewDriver(snap, integ, renderCfg, log)
	if err != nil {
		fmt.Printf("error starting renderer: %v\n", err)
		os.Exit(exitInitFailure)
	}

	outputDir := createOutputDir(cfg.OutDir, cfg.SceneType)
	timestamp := time.Now().Format("20060102_150405")

	fmt.Printf("Rendering %q with %s integrator (%d passes, up to %d samples/px)...\n",
		cfg.SceneType, cfg.IntegratorType, cfg.MaxPasses, cfg.MaxSamples)
	start := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	passChan, errChan := driver.RenderProgressive(ctx, cfg.Workers)
	var lastStats renderer.PassStats
	for passChan != nil || errChan != nil {
		select {
		case result, ok := <-passChan:
			if !ok {
				passChan = nil
				continue
			}
			filename := filepath.Join(outputDir, fmt.Sprintf("render_%s.png", timestamp))
			if !result.IsLast {
				filename = filepath.Join(outputDir, fmt.Sprintf("render_%s_pass_%02d.png", timestamp, result.PassNumber))
			}
			if err := saveImage(result.Image, filename); err != nil {
				fmt.Printf("error saving pass %d image: %v\n", result.PassNumber, err)
				os.Exit(exitRenderFailure)
			}
			lastStats = result.Stats
			fmt.Printf("pass %d done: %.1f samples/px avg\n", result.PassNumber, result.Stats.AverageSamples)
		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			if err != nil {
				if errors.Is(err, context.Canceled) || rayerr.Is(err, rayerr.Cancelled) {
					// flush whatever the completed tiles produced; a
					// cancelled render still leaves a valid partial image.
					partial := filepath.Join(outputDir, fmt.Sprintf("render_%s_partial.png", timestamp))
					if saveErr := saveImage(driver.Film().Flush(), partial); saveErr == nil {
						fmt.Printf("render cancelled; partial image saved to %s\n", partial)
					} else {
						fmt.Printf("render cancelled\n")
					}
					os.Exit(exitCancelled)
				}
				fmt.Printf("render error: %v\n", err)
				os.Exit(exitRenderFailure)
			}
		}
	}

	fmt.Printf("Render completed in %v (%.1f samples/px avg)\n", time.Since(start), lastStats.AverageSamples)
}

func parseFlags() cliConfig {
	cfg := cliConfig{}
	flag.StringVar(&cfg.SceneType, "scene", "default", "built-in scene name")
	flag.StringVar(&cfg.RenderProfile, "config", "", "path to a TOML render profile")
	flag.IntVar(&cfg.MaxPasses, "max-passes", 7, "maximum number of progressive passes")
	flag.IntVar(&cfg.MaxSamples, "max-samples", 64, "maximum samples per pixel")
	flag.IntVar(&cfg.Workers, "workers", 0, "number of parallel workers (0 = auto-detect CPU count)")
	flag.StringVar(&cfg.IntegratorType, "integrator", "path", "integrator: 'path' or 'sppm'")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "enable debug-level logging")
	flag.BoolVar(&cfg.Help, "help", false, "show help information")
	flag.StringVar(&cfg.CPUProfile, "cpuprofile", "", "write a CPU profile to file")
	flag.StringVar(&cfg.OutDir, "out", "output", "output directory root")
	flag.StringVar(&cfg.PhotonMapDir, "photon-cache-dir", "", "directory to persist/resume SPPM photon maps across passes (sppm integrator only)")
	flag.Parse()
	return cfg
}

func showHelp() {
	fmt.Println("yafacore: a CPU path/photon-mapping renderer")
	fmt.Println("Usage: yafacore [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Built-in scenes:")
	fmt.Println("  default - three spheres (diffuse/mirror/glass) over a ground sphere")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  yafacore --max-passes=5 --max-samples=128")
	fmt.Println("  yafacore --integrator=sppm --config=render.toml")
}

func createScene(sceneType string) (*scene.Scene, error) {
	switch sceneType {
	case "default", "":
		return scene.NewDefaultScene(), nil
	default:
		return nil, fmt.Errorf("unknown scene type: %s", sceneType)
	}
}

// applyProfile copies the subset of a RenderProfile that maps onto scene
// sampling knobs not already set by the scene builder (spec.md §6 "Core
// consumes a ParamMap").
func applyProfile(s *scene.Scene, p config.RenderProfile) {
	if p.Integrator.RayDepth > 0 {
		s.Sampling.MaxDepth = p.Integrator.RayDepth
	}
	if p.Integrator.ShadowDepth > 0 {
		s.Sampling.ShadowDepth = p.Integrator.ShadowDepth
	}
	s.Sampling.TransparentShadows = p.Integrator.TranspShad
	if p.Integrator.DoAO {
		s.Sampling.AOSamples = p.Integrator.AOSamples
		s.Sampling.AODistance = p.Integrator.AODistance
		c := p.Integrator.AOColor
		s.Sampling.AOColor = color.New(c[0], c[1], c[2])
	}
}

func selectIntegrator(name string, p config.RenderProfile, photonCacheDir string) (integrator.Integrator, error) {
	switch name {
	case "path", "":
		return &integrator.Path{}, nil
	case "sppm":
		sppm := integrator.NewSPPM(photon.Params{
			NumPhotons: p.SPPM.NumPhotons,
			Threads:    p.SPPM.ThreadsPhotons,
			CausDepth:  p.SPPM.CausDepth,
			Bounces:    p.SPPM.Bounces,
		})
		sppm.IRE = p.SPPM.PmIre
		if p.SPPM.SearchNum > 0 {
			sppm.SearchNum = p.SPPM.SearchNum
		}
		if p.SPPM.PhotonRadius > 0 {
			sppm.ProbeRadius = p.SPPM.PhotonRadius
		}
		if p.SPPM.Times > 0 {
			sppm.InitialFactor = p.SPPM.Times
		}
		dir := p.SPPM.PersistDir
		if photonCacheDir != "" {
			dir = photonCacheDir
		}
		if dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("creating photon cache dir: %w", err)
			}
			sppm.PersistDir = dir
		}
		return sppm, nil
	default:
		return nil, fmt.Errorf("unknown integrator type: %s", name)
	}
}

func createOutputDir(root, sceneType string) string {
	dir := filepath.Join(root, sceneType)
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Printf("error creating output directory: %v\n", err)
		os.Exit(exitInitFailure)
	}
	return dir
}

func saveImage(img *image.RGBA, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	return png.Encode(file, img)
}
