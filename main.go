package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"

	collision "github.com/esimov/ascii-particles/collision-box"
	"github.com/esimov/ascii-particles/config"
	"github.com/esimov/ascii-particles/detector"
	"github.com/esimov/ascii-particles/frame"
	"github.com/esimov/ascii-particles/http"
	"github.com/esimov/ascii-particles/record"
	"github.com/esimov/ascii-particles/runner"
	"github.com/esimov/ascii-particles/scene"
	"github.com/esimov/ascii-particles/terminal"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

const usage = `Usage: ascii-particles [flags] [count]

Bounces count particles off each other, the walls of the box and an obstacle
steered with the mouse. Flags override the values of the -config file.

`

var (
	configFile = flag.String("config", "", "INI style configuration file")
	dim        = flag.Int("dim", 2, "Number of box dimensions (1, 2 or 3)")
	size       = flag.Float64("size", 256, "Box size along every axis")
	radius     = flag.Float64("radius", 1, "Particle radius")
	obstacle   = flag.Float64("obstacle", 25, "Obstacle radius")
	red        = flag.Float64("r", 1, "Red component of the particle color, in [0, 1]")
	green      = flag.Float64("g", 1, "Green component of the particle color, in [0, 1]")
	blue       = flag.Float64("b", 1, "Blue component of the particle color, in [0, 1]")
	gravity    = flag.Float64("gravity", 0, "Gravity along the y axis")
	friction   = flag.Float64("friction", 0, "Friction removing a fraction of the velocity every step")
	speedRange = flag.Float64("speedrange", 4, "Initial velocity components are drawn from [-speedrange, speedrange]")
	stopped    = flag.Bool("stopped", false, "Start with all particles at rest")
	showFPS    = flag.Bool("fps", false, "Show the frame rate")
	backend    = flag.String("backend", "termbox", "Terminal backend: termbox or tcell")
	table      = flag.String("table", "", "Text table with the initial particles")
	serve      = flag.Bool("serve", false, "Stream the simulation to websocket clients instead of the terminal")
	steps      = flag.Int("steps", 0, "Run this many steps without a viewer and print the energy")
	chart      = flag.String("chart", "", "Write the energy chart of a -steps run to this PNG file")
	verbose    = flag.Bool("v", false, "Log every simulation step")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalln(err)
	}

	w, err := newWorld(cfg)
	if err != nil {
		log.Fatalln(err)
	}
	r := runner.New(w, cfg.Physics, frameRate(cfg))
	r.Verbose = *verbose

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.Tracker.Enabled() {
		tracker, err := detector.NewTracker(cfg.Tracker, w.Bounds())
		if err != nil {
			log.Fatalln(err)
		}
		go func() {
			if err := tracker.Run(ctx, r.SetTarget); err != nil {
				log.Println(err)
			}
		}()
	}

	switch {
	case cfg.Record.Steps > 0:
		err = runHeadless(cfg.Record, r)
	case *serve:
		err = http.InitServer(ctx, cfg.Server, r)
	default:
		err = runTerminal(ctx, cfg.Display, r)
	}
	if err != nil {
		log.Fatalln(err)
	}
}

// loadConfig reads the configuration file and applies the flags set on the
// command line on top of it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dim":
			cfg.Box.Dimension = *dim
		case "size":
			cfg.Box.Width, cfg.Box.Height, cfg.Box.Depth = *size, *size, *size
		case "radius":
			cfg.Box.ParticleRadius = *radius
		case "obstacle":
			cfg.Obstacle.Radius = *obstacle
		case "r":
			cfg.Display.Red = *red
		case "g":
			cfg.Display.Green = *green
		case "b":
			cfg.Display.Blue = *blue
		case "gravity":
			cfg.Physics.Gravity = *gravity
		case "friction":
			cfg.Physics.Friction = *friction
		case "speedrange":
			cfg.Particles.SpeedRange = *speedRange
		case "stopped":
			cfg.Particles.Stopped = *stopped
		case "fps":
			cfg.Display.FPS = *showFPS
		case "backend":
			cfg.Display.Backend = *backend
		case "table":
			cfg.Particles.Table = *table
		case "steps":
			cfg.Record.Steps = *steps
		case "chart":
			cfg.Record.Chart = *chart
		}
	})
	if flag.NArg() > 0 {
		count, err := strconv.Atoi(flag.Arg(0))
		if err != nil {
			return nil, errors.Errorf("invalid particle count %q", flag.Arg(0))
		}
		cfg.Particles.Count = count
	}
	return cfg, cfg.CheckInit()
}

// newWorld creates the collision box and its initial particles.
func newWorld(cfg *config.Config) (*collision.World, error) {
	bounds := collision.NewBox(mgl64.Vec3{}, mgl64.Vec3(cfg.Box.Max()))
	w, err := collision.New(bounds, cfg.Box.Dimension, cfg.Box.ParticleRadius, cfg.Obstacle.Radius)
	if err != nil {
		return nil, err
	}

	if cfg.Particles.Table != "" {
		rejected, err := scene.LoadTable(w, cfg.Particles.Table)
		if err != nil {
			return nil, err
		}
		if rejected > 0 {
			log.Printf("Skipped %d overlapping particles of %s", rejected, cfg.Particles.Table)
		}
		return w, nil
	}

	rng := rand.New(rand.NewSource(cfg.Particles.Seed))
	if n := scene.Populate(w, cfg.Particles, rng); n < cfg.Particles.Count {
		log.Printf("Could only add %d particles", n)
	}
	return w, nil
}

func frameRate(cfg *config.Config) int {
	if *serve {
		return cfg.Server.FrameRate
	}
	return cfg.Display.FrameRate
}

// runTerminal shows the simulation until the viewer quits.
func runTerminal(ctx context.Context, cfg config.DisplayConfig, r *runner.Runner) error {
	var (
		screen terminal.Screen
		err    error
	)
	if cfg.Backend == "tcell" {
		if screen, err = terminal.NewTcell(); err != nil {
			return err
		}
	} else {
		screen = terminal.NewTermbox()
	}
	term := terminal.New(screen, terminal.RGB(cfg.Red, cfg.Green, cfg.Blue), cfg.FPS, cfg.LogFile)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The viewer only ever needs the latest frame
	frames := make(chan *frame.Frame, 1)
	publish := func(f *frame.Frame) {
		select {
		case frames <- f:
		default:
			select {
			case <-frames:
			default:
			}
			frames <- f
		}
	}

	errc := make(chan error, 1)
	go func() { errc <- r.Run(ctx, publish) }()

	if err := term.Run(ctx, frames, r.SetTarget); err != nil {
		return err
	}
	cancel()
	return <-errc
}

// runHeadless steps the simulation without a viewer and prints the energy
// of every step.
func runHeadless(cfg config.RecordConfig, r *runner.Runner) error {
	samples, err := record.Run(r, cfg.Steps, cfg.TimeStep)
	if err != nil {
		return err
	}
	if err := record.WriteTable(os.Stdout, samples); err != nil {
		return err
	}
	if cfg.Chart != "" {
		return record.SaveChart(cfg.Chart, samples)
	}
	return nil
}
