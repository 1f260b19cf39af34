package lts

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Config is the file form of the options.
//
//	tolerance: 1e-9
//	finalPolicy: any   # or "all"
type Config struct {
	Tolerance   float64 `yaml:"tolerance"`
	FinalPolicy string  `yaml:"finalPolicy"`
}

// LoadConfig decodes a YAML Config. Unknown keys are rejected.
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if _, err := parseFinalPolicy(cfg.FinalPolicy); err != nil {
		return Config{}, err
	}
	if cfg.Tolerance < 0 {
		return Config{}, fmt.Errorf("negative tolerance %v", cfg.Tolerance)
	}
	return cfg, nil
}

// Options converts the config into options; zero values keep the defaults.
func (c Config) Options() []Option {
	var opts []Option
	if c.Tolerance > 0 {
		opts = append(opts, WithTolerance(c.Tolerance))
	}
	if p, err := parseFinalPolicy(c.FinalPolicy); err == nil {
		opts = append(opts, WithFinalPolicy(p))
	}
	return opts
}

func parseFinalPolicy(s string) (FinalPolicy, error) {
	switch s {
	case "", "any":
		return FinalOnAny, nil
	case "all":
		return FinalOnAll, nil
	default:
		return FinalOnAny, fmt.Errorf("unknown final policy %q", s)
	}
}
