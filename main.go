// Runs a headless revolver simulation: bodies spawned around a heavy
// primary, pulled by gravity, absorbed on contact.
package main

import (
	"errors"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/quillaja/revolver/config"
	"github.com/quillaja/revolver/recorder"
	"github.com/quillaja/revolver/simulation"
	"github.com/quillaja/revolver/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	frames := flag.Int("frames", 0, "Frames to simulate (0 = use config)")
	outputDir := flag.String("out", "", "Output directory for frames.csv and the config snapshot")
	sqlitePath := flag.String("sqlite", "", "Record every frame to a new SQLite database")
	pngDir := flag.String("png", "", "Directory for rendered PNG frames")
	debug := flag.Bool("debug", false, "Log spawns and merges")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(*configPath, *frames, *outputDir, *sqlitePath, *pngDir, logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, frames int, outputDir, sqlitePath, pngDir string, logger *slog.Logger) (err error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if frames <= 0 {
		frames = cfg.Scenario.Frames
	}

	sim, err := simulation.New(cfg, simulation.WithLogger(logger))
	if err != nil {
		return err
	}

	out, err := telemetry.NewOutputManager(outputDir)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, out.Close()) }()
	if err := out.WriteConfig(cfg); err != nil {
		return err
	}

	stats := telemetry.NewCollector(sim.DT(), out, cfg.Telemetry.LogEvery, logger)
	sim.Observe(stats)

	var recorders []*recorder.Recorder
	defer func() {
		for _, r := range recorders {
			err = errors.Join(err, r.Close())
		}
	}()

	if sqlitePath != "" {
		db, err := recorder.OpenSQLite(sqlitePath)
		if err != nil {
			return err
		}
		// sqlite takes one writer at a time
		r := recorder.New("sqlite", db, 1, cfg.Recorder.Queue, 1, logger)
		recorders = append(recorders, r)
		sim.Observe(r)
	}
	if pngDir != "" {
		images, err := recorder.NewPNGSink(pngDir, cfg.Screen.Width, cfg.Screen.Height, cfg.Recorder.Fade)
		if err != nil {
			return err
		}
		workers := cfg.Recorder.Workers
		if cfg.Recorder.Fade < 255 {
			workers = 1 // trails need frames in order
		}
		r := recorder.New("png", images, workers, cfg.Recorder.Queue, cfg.Recorder.PNGEvery, logger)
		recorders = append(recorders, r)
		sim.Observe(r)
	}

	if cl := cfg.Scenario.Cloud; cl.Count > 0 {
		seed := cl.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		n := sim.SeedCloud(rand.New(rand.NewSource(seed)), simulation.CloudParams{
			Count:    cl.Count,
			Spread:   cl.Spread,
			MeanMass: cl.MeanMass,
			MassSD:   cl.MassSD,
			Damping:  cl.Damping,
		})
		logger.Info("cloud seeded", "bodies", n, "seed", seed)
	}

	script := append([]config.SpawnScript(nil), cfg.Scenario.Spawns...)
	sort.SliceStable(script, func(i, j int) bool { return script[i].Frame < script[j].Frame })

	logger.Info("starting simulation",
		"frames", frames,
		"dt", sim.DT(),
		"accumulator", cfg.Physics.Accumulator,
		"scripted_spawns", len(script),
	)

	start := time.Now()
	for i := 0; i < frames; i++ {
		next := int(sim.Frame()) + 1
		for len(script) > 0 && script[0].Frame <= next {
			s := script[0]
			script = script[1:]
			req := simulation.SpawnRequest{
				Pos:  mgl64.Vec2{s.X, s.Y},
				Vel:  mgl64.Vec3{s.VX, s.VY, 0},
				Mass: s.Mass,
			}
			if err := sim.RequestSpawn(req); err != nil {
				logger.Warn("scripted spawn skipped", "frame", s.Frame, "error", err)
			}
		}
		sim.StepFrame()
	}

	last := stats.Last()
	logger.Info("simulation finished",
		"frames", sim.Frame(),
		"live", last.Live,
		"merges", stats.TotalMerges(),
		"elapsed", time.Since(start).Truncate(time.Millisecond).String(),
	)
	return stats.Err()
}
