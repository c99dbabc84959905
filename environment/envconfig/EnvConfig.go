// Package envconfig creates environments from declarative YAML
// configuration files, so experiment scripts and the command line
// share one way of describing an environment.
package envconfig

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/manipgym/manipgym/environment"
	"github.com/manipgym/manipgym/environment/tasks"
	"github.com/manipgym/manipgym/physics"
	"github.com/manipgym/manipgym/sensor"
)

// Config is the serializable description of an environment
type Config struct {
	Task        string `yaml:"task"`
	NumEnvs     int    `yaml:"num_envs"`
	ObsMode     string `yaml:"obs_mode"`
	RewardMode  string `yaml:"reward_mode"`
	RenderMode  string `yaml:"render_mode"`
	ControlMode string `yaml:"control_mode"`
	Backend     string `yaml:"backend"`

	Seed *uint64 `yaml:"seed"`

	// MaxEpisodeSteps is consumed by the TimeLimit wrapper when the
	// caller applies it; zero means no limit
	MaxEpisodeSteps int `yaml:"max_episode_steps"`

	ReconfigurationFreq int `yaml:"reconfiguration_freq"`

	Sim physics.SimConfig `yaml:"sim"`

	SensorOverrides map[string]sensor.Override `yaml:"sensor_overrides"`
	HumanOverrides  map[string]sensor.Override `yaml:"human_render_overrides"`
}

// Load reads a Config from a YAML file
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("envconfig: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("envconfig: parse %s: %w", path, err)
	}
	if c.Task == "" {
		return Config{}, fmt.Errorf("envconfig: %s names no task", path)
	}
	return c, nil
}

// Create constructs the configured environment
func (c Config) Create(logger *logrus.Logger) (*environment.Env, error) {
	task, err := tasks.New(c.Task)
	if err != nil {
		return nil, err
	}
	return environment.New(task, environment.Options{
		NumEnvs:                    c.NumEnvs,
		ObsMode:                    c.ObsMode,
		RewardMode:                 c.RewardMode,
		RenderMode:                 c.RenderMode,
		BackendName:                c.Backend,
		ControlMode:                c.ControlMode,
		SimConfig:                  c.Sim,
		SensorOverrides:            c.SensorOverrides,
		HumanRenderCameraOverrides: c.HumanOverrides,
		ReconfigurationFreq:        c.ReconfigurationFreq,
		Seed:                       c.Seed,
		Logger:                     logger,
	})
}
