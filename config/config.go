package config

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/gcfg.v1"
)

// BoxConfig describes the collision box.
type BoxConfig struct {
	Dimension            int
	Width, Height, Depth float64
	ParticleRadius       float64
}

// CheckInit validates the box section.
func (box *BoxConfig) CheckInit() error {
	if box.Dimension < 1 || box.Dimension > 3 {
		return errors.Errorf("Dimension of Box must be 1, 2 or 3, but is %d", box.Dimension)
	}
	sizes := []float64{box.Width, box.Height, box.Depth}
	for i := 0; i < box.Dimension; i++ {
		if sizes[i] <= 0 {
			return errors.Errorf("Box needs a positive extent along axis %d, but has %g", i, sizes[i])
		}
	}
	if box.ParticleRadius <= 0 {
		return errors.Errorf("Need to specify a positive ParticleRadius for Box, got %g", box.ParticleRadius)
	}
	return nil
}

// Max returns the upper box corner; the lower corner is the origin.
func (box *BoxConfig) Max() [3]float64 {
	m := [3]float64{box.Width, box.Height, box.Depth}
	for i := box.Dimension; i < 3; i++ {
		m[i] = 0
	}
	return m
}

type ObstacleConfig struct {
	Radius float64
}

func (o *ObstacleConfig) CheckInit() error {
	if o.Radius < 0 {
		return errors.Errorf("Obstacle given a negative radius, %g", o.Radius)
	}
	return nil
}

// ParticlesConfig controls the initial population.
type ParticlesConfig struct {
	Count      int
	SpeedRange float64
	Stopped    bool
	MaxTries   int
	Seed       int64
	// Table optionally names a text table with the initial particle states.
	Table string
}

func (p *ParticlesConfig) CheckInit() error {
	if p.Count < 0 {
		return errors.Errorf("Particle count must not be negative, but is %d", p.Count)
	} else if p.SpeedRange < 0 {
		return errors.Errorf("SpeedRange must not be negative, but is %g", p.SpeedRange)
	} else if p.MaxTries < 1 {
		return errors.Errorf("MaxTries must be at least 1, but is %d", p.MaxTries)
	}
	return nil
}

// PhysicsConfig holds the global forces and the frame pacing parameters.
type PhysicsConfig struct {
	Attenuation        float64
	CatchUpAttenuation float64
	MaxTimeStep        float64
	Gravity            float64
	Friction           float64
	Gravitation        bool
	EventBudget        int
	ObstacleLag        float64
}

func (p *PhysicsConfig) CheckInit() error {
	if p.Attenuation <= 0 || p.Attenuation > 1 {
		return errors.Errorf("Attenuation must be in range (0, 1], but is %g", p.Attenuation)
	} else if p.CatchUpAttenuation <= 0 || p.CatchUpAttenuation > 1 {
		return errors.Errorf("CatchUpAttenuation must be in range (0, 1], but is %g", p.CatchUpAttenuation)
	} else if p.MaxTimeStep <= 0 {
		return errors.Errorf("MaxTimeStep must be positive, but is %g", p.MaxTimeStep)
	} else if p.Friction < 0 || p.Friction > 1 {
		return errors.Errorf("Friction must be in range [0, 1], but is %g", p.Friction)
	} else if p.EventBudget < 0 {
		return errors.Errorf("EventBudget must not be negative, but is %d", p.EventBudget)
	} else if p.ObstacleLag <= 0 {
		return errors.Errorf("ObstacleLag must be positive, but is %g", p.ObstacleLag)
	}
	return nil
}

// DisplayConfig configures the terminal viewer.
type DisplayConfig struct {
	Backend          string
	FPS              bool
	Red, Green, Blue float64
	FrameRate        int
	LogFile          string
}

func (d *DisplayConfig) CheckInit() error {
	tmp := d.Backend
	d.Backend = strings.Trim(strings.ToLower(d.Backend), " ")
	if d.Backend != "termbox" && d.Backend != "tcell" {
		return errors.Errorf("Backend of Display must be one of [termbox | tcell]. '%s' is not recognized.", tmp)
	}
	for _, c := range []float64{d.Red, d.Green, d.Blue} {
		if c < 0 || c > 1 {
			return errors.Errorf("Display colors must be in range [0, 1], got %g", c)
		}
	}
	if d.FrameRate < 1 {
		return errors.Errorf("FrameRate of Display must be positive, but is %d", d.FrameRate)
	}
	return nil
}

// ServerConfig configures the websocket frame streaming server.
type ServerConfig struct {
	Address   string
	Prefix    string
	Root      string
	Format    string
	FrameRate int
}

func (s *ServerConfig) CheckInit() error {
	tmp := s.Format
	s.Format = strings.Trim(strings.ToLower(s.Format), " ")
	if s.Format != "json" && s.Format != "msgpack" {
		return errors.Errorf("Format of Server must be one of [json | msgpack]. '%s' is not recognized.", tmp)
	}
	if s.Address == "" {
		return errors.New("Need to specify an Address for Server")
	}
	if s.FrameRate < 1 {
		return errors.Errorf("FrameRate of Server must be positive, but is %d", s.FrameRate)
	}
	return nil
}

// RecordConfig configures the headless run.
type RecordConfig struct {
	Steps    int
	TimeStep float64
	Chart    string
}

func (r *RecordConfig) CheckInit() error {
	if r.Steps < 0 {
		return errors.Errorf("Steps must not be negative, but is %d", r.Steps)
	} else if r.TimeStep <= 0 {
		return errors.Errorf("TimeStep of Record must be positive, but is %g", r.TimeStep)
	}
	return nil
}

// TrackerConfig configures the face tracker driving the obstacle.
type TrackerConfig struct {
	Cascade  string
	Frames   string
	Interval int // milliseconds between frames
}

func (t *TrackerConfig) CheckInit() error {
	if (t.Cascade == "") != (t.Frames == "") {
		return errors.New("Tracker needs both a Cascade and a Frames directory")
	}
	if t.Interval < 1 {
		return errors.Errorf("Interval of Tracker must be positive, but is %d", t.Interval)
	}
	return nil
}

// Enabled reports whether face tracking was configured.
func (t *TrackerConfig) Enabled() bool { return t.Cascade != "" }

// Config is the full application configuration, one field per file section.
type Config struct {
	Box       BoxConfig
	Obstacle  ObstacleConfig
	Particles ParticlesConfig
	Physics   PhysicsConfig
	Display   DisplayConfig
	Server    ServerConfig
	Record    RecordConfig
	Tracker   TrackerConfig
}

// Default returns the configuration of the interactive demo.
func Default() *Config {
	return &Config{
		Box: BoxConfig{
			Dimension:      2,
			Width:          256,
			Height:         256,
			Depth:          256,
			ParticleRadius: 1,
		},
		Obstacle: ObstacleConfig{Radius: 25},
		Particles: ParticlesConfig{
			Count:      1000,
			SpeedRange: 4,
			MaxTries:   200,
			Seed:       1,
		},
		Physics: PhysicsConfig{
			Attenuation:        0.9,
			CatchUpAttenuation: 0.5,
			MaxTimeStep:        0.1,
			ObstacleLag:        0.1,
			EventBudget:        1000000,
		},
		Display: DisplayConfig{
			Backend:   "termbox",
			Red:       1,
			Green:     1,
			Blue:      1,
			FrameRate: 30,
			LogFile:   "debug.log",
		},
		Server: ServerConfig{
			Address:   "localhost:5000",
			Prefix:    "/",
			Root:      ".",
			Format:    "json",
			FrameRate: 30,
		},
		Record: RecordConfig{
			TimeStep: 0.05,
		},
		Tracker: TrackerConfig{Interval: 100},
	}
}

// Load reads the configuration file fname over the defaults. An empty file
// name yields the defaults.
func Load(fname string) (*Config, error) {
	c := Default()
	if fname != "" {
		if err := gcfg.ReadFileInto(c, fname); err != nil {
			return nil, errors.Wrapf(err, "reading config %s", fname)
		}
	}
	if err := c.CheckInit(); err != nil {
		return nil, err
	}
	return c, nil
}

// CheckInit validates every section.
func (c *Config) CheckInit() error {
	checks := []interface{ CheckInit() error }{
		&c.Box, &c.Obstacle, &c.Particles, &c.Physics,
		&c.Display, &c.Server, &c.Record, &c.Tracker,
	}
	for _, check := range checks {
		if err := check.CheckInit(); err != nil {
			return err
		}
	}
	return nil
}
