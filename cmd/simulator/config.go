package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the simulator's YAML configuration. Every field has a
// usable default so the file is optional.
type Config struct {
	Days                int     `yaml:"days"`
	DisasterProbability float64 `yaml:"disaster_probability"`
	HubID               int     `yaml:"hub_id"`

	Scenario    string `yaml:"scenario"`
	MetricsAddr string `yaml:"metrics_addr"`
	ReportPath  string `yaml:"report_path"`

	Seeds struct {
		Loads     int64 `yaml:"loads"`
		Requests  int64 `yaml:"requests"`
		Disasters int64 `yaml:"disasters"`
	} `yaml:"seeds"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

func defaultConfig() Config {
	var cfg Config
	cfg.Days = 5
	cfg.DisasterProbability = 0.2
	cfg.HubID = 1
	cfg.Scenario = "configs/scenario.json"
	cfg.Seeds.Loads = 1
	cfg.Seeds.Requests = 2
	cfg.Seeds.Disasters = 3
	return cfg
}

// loadConfig reads the YAML config at path, layering it over the
// defaults. A missing file is not an error when the path is the
// default one.
func loadConfig(path string, required bool) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}
