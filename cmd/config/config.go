// Package config loads pgmold's optional project file (pgmold.yaml):
// default schema source, default ignore patterns, and a production-mode
// default. "pgmold config dump" is the only command that reads it.
package config

import (
	"fmt"

	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"
)

// Config is the pgmold.yaml project file shape.
type Config struct {
	Schema        string   `json:"schema,omitempty"`
	IgnorePattern []string `json:"ignore,omitempty"`
	ProductionMode bool    `json:"production_mode,omitempty"`
}

// Load reads pgmold.yaml from the current directory only; no other file
// name and no parent directory is tried. A missing file is not an error:
// Load returns the zero Config.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("pgmold")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("PGMOLD")
	v.AutomaticEnv()

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading pgmold.yaml: %w", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing pgmold.yaml: %w", err)
	}
	return cfg, nil
}

// Dump round-trips cfg back to YAML for "pgmold config dump"-style
// introspection, reusing the JSON tags already on Config.
func Dump(cfg Config) (string, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}
	return string(out), nil
}
