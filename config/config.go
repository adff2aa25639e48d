// Package config provides configuration loading and validation for the
// simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Mass policies for spawn requests whose mass is not positive.
const (
	PolicyReject = "reject" // refuse the request
	PolicyClamp  = "clamp"  // raise the mass to spawn.min_mass
	PolicyAccept = "accept" // pass it through unchanged
)

// Accumulator kinds.
const (
	AccPairwise = "pairwise"
	AccParallel = "parallel"
	AccOctree   = "octree"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Primary   PrimaryConfig   `yaml:"primary"`
	Body      BodyConfig      `yaml:"body"`
	Spawn     SpawnConfig     `yaml:"spawn"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Recorder  RecorderConfig  `yaml:"recorder"`
	Scenario  ScenarioConfig  `yaml:"scenario"`
}

// ScreenConfig is the size of the drawing surface in world units.
type ScreenConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// PhysicsConfig holds the integration and force constants.
type PhysicsConfig struct {
	Gravity     float64 `yaml:"gravity"`
	DT          float64 `yaml:"dt"`
	Epsilon     float64 `yaml:"epsilon"`     // substituted for zero squared distance
	Accumulator string  `yaml:"accumulator"` // pairwise, parallel or octree
	Workers     int     `yaml:"workers"`
	Theta       float64 `yaml:"theta"`
}

// PrimaryConfig places the central body. Zero x and y mean screen centre.
type PrimaryConfig struct {
	Mass   float64 `yaml:"mass"`
	Radius float64 `yaml:"radius"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Z      float64 `yaml:"z"`
}

// BodyConfig holds ordinary-body geometry.
type BodyConfig struct {
	BaseRadius float64 `yaml:"base_radius"`
	DepthScale float64 `yaml:"depth_scale"` // radius = base + z/scale
	StartDepth float64 `yaml:"start_depth"`
}

// SpawnConfig decides what happens to non-positive spawn masses.
type SpawnConfig struct {
	MassPolicy string  `yaml:"mass_policy"`
	MinMass    float64 `yaml:"min_mass"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	LogEvery int `yaml:"log_every"`
}

// RecorderConfig sizes the frame recording worker pool.
type RecorderConfig struct {
	Workers  int   `yaml:"workers"`
	Queue    int   `yaml:"queue"`
	PNGEvery int   `yaml:"png_every"` // record every Nth frame as an image
	Fade     uint8 `yaml:"fade"`
}

// ScenarioConfig is a scripted run for headless use.
type ScenarioConfig struct {
	Frames int           `yaml:"frames"`
	Spawns []SpawnScript `yaml:"spawns"`
	Cloud  CloudConfig   `yaml:"cloud"`
}

// CloudConfig seeds random orbiting bodies before the first frame.
type CloudConfig struct {
	Count    int     `yaml:"count"`
	Spread   float64 `yaml:"spread"`
	MeanMass float64 `yaml:"mean_mass"`
	MassSD   float64 `yaml:"mass_sd"`
	Damping  float64 `yaml:"damping"`
	Seed     int64   `yaml:"seed"` // 0 = time based
}

// SpawnScript queues one spawn before the given frame.
type SpawnScript struct {
	Frame int     `yaml:"frame"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	VX    float64 `yaml:"vx"`
	VY    float64 `yaml:"vy"`
	Mass  float64 `yaml:"mass"`
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports the first parameter that would break the simulation.
func (c *Config) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"physics.gravity", c.Physics.Gravity},
		{"physics.dt", c.Physics.DT},
		{"physics.epsilon", c.Physics.Epsilon},
		{"primary.mass", c.Primary.Mass},
		{"body.depth_scale", c.Body.DepthScale},
	}
	for _, p := range positive {
		if !(p.v > 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalid, p.name, p.v)
		}
	}
	if c.Primary.Radius < 0 || c.Body.BaseRadius < 0 {
		return fmt.Errorf("%w: radii must not be negative", ErrInvalid)
	}

	switch c.Physics.Accumulator {
	case AccPairwise, AccParallel:
	case AccOctree:
		if c.Physics.Theta < 0 {
			return fmt.Errorf("%w: physics.theta must not be negative", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown physics.accumulator %q", ErrInvalid, c.Physics.Accumulator)
	}

	switch c.Spawn.MassPolicy {
	case PolicyReject, PolicyAccept:
	case PolicyClamp:
		if !(c.Spawn.MinMass > 0) {
			return fmt.Errorf("%w: spawn.min_mass must be positive with the clamp policy", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown spawn.mass_policy %q", ErrInvalid, c.Spawn.MassPolicy)
	}

	if cl := c.Scenario.Cloud; cl.Count < 0 || cl.Spread < 0 || cl.MassSD < 0 {
		return fmt.Errorf("%w: scenario.cloud values must not be negative", ErrInvalid)
	}

	for i, s := range c.Scenario.Spawns {
		if s.Frame < 0 {
			return fmt.Errorf("%w: scenario.spawns[%d].frame is negative", ErrInvalid, i)
		}
	}
	return nil
}

// PrimaryPos is where the primary starts. Zero x or y means the centre of
// the screen on that axis.
func (c *Config) PrimaryPos() (x, y, z float64) {
	x, y, z = c.Primary.X, c.Primary.Y, c.Primary.Z
	if x == 0 {
		x = float64(c.Screen.Width) / 2
	}
	if y == 0 {
		y = float64(c.Screen.Height) / 2
	}
	return x, y, z
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
