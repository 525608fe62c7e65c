// Package config loads the unified application configuration from
// YAML, grounded on the teacher's mesh.LoadConfig/SaveConfig
// (config_loader.go): read-file, yaml.Unmarshal, validate required
// fields with fmt.Errorf rather than panicking.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RecognizerDefaults mirrors recognizer.Config's tunable fields so a
// YAML file can seed a Recognizer's options without this package
// importing the recognizer package (avoiding a dependency cycle, since
// cmd/objrecransac is the only place that needs both).
type RecognizerDefaults struct {
	VoxelSize                    float64 `yaml:"voxelSize"`
	PairWidth                    float64 `yaml:"pairWidth,omitempty"`
	PairWidthTolerance           float64 `yaml:"pairWidthTolerance,omitempty"`
	Visibility                   float64 `yaml:"visibility,omitempty"`
	RelativeNumOfIllegalPts      float64 `yaml:"relativeNumOfIllegalPts,omitempty"`
	IntersectionFraction         float64 `yaml:"intersectionFraction,omitempty"`
	MatchConfidenceThreshold     float64 `yaml:"matchConfidenceThreshold,omitempty"`
	UseICP                       bool    `yaml:"useIcp,omitempty"`
	FracOfPointsForICPRefinement float64 `yaml:"fracOfPointsForIcpRefinement,omitempty"`
	Workers                      int     `yaml:"workers,omitempty"`
}

// MQTTConfig holds MQTT publish settings, mirrored on the teacher's
// MQTTConfig (mesh/types.go).
type MQTTConfig struct {
	Broker        string `yaml:"broker"`
	PublishPrefix string `yaml:"publishPrefix"`
	ClientID      string `yaml:"clientId"`
	Username      string `yaml:"username,omitempty"`
	Password      string `yaml:"password,omitempty"`
}

// Config is the unified, YAML-loadable application configuration: the
// model library directory, recognizer defaults, and MQTT publish
// settings, unified the way the teacher's Config holds MQTT and
// Vacuums together.
type Config struct {
	ModelLibraryDir string             `yaml:"modelLibraryDir"`
	Recognizer      RecognizerDefaults `yaml:"recognizer"`
	MQTT            MQTTConfig         `yaml:"mqtt"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if cfg.ModelLibraryDir == "" {
		return nil, fmt.Errorf("modelLibraryDir is required")
	}
	if cfg.Recognizer.VoxelSize <= 0 {
		return nil, fmt.Errorf("recognizer.voxelSize must be positive")
	}

	return &cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
