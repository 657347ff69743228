package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// thresholdsFile is the shape of an optional standalone thresholds override,
// kept separate from the main config so operators can version the alerting
// policy on its own.
type thresholdsFile struct {
	Quota      *ThresholdConfig           `yaml:"quota"`
	Reputation map[string]ThresholdConfig `yaml:"reputation"`
}

// applyThresholdsFile overlays thresholds from a YAML file onto the loaded
// configuration. Only the keys present in the file are replaced.
func applyThresholdsFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read thresholds file %s: %w", path, err)
	}

	var tf thresholdsFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return fmt.Errorf("parse thresholds file %s: %w", path, err)
	}

	if tf.Quota != nil {
		cfg.Monitor.QuotaThresholds = *tf.Quota
	}
	if len(tf.Reputation) > 0 {
		if cfg.Monitor.ReputationThresholds == nil {
			cfg.Monitor.ReputationThresholds = make(map[string]ThresholdConfig, len(tf.Reputation))
		}
		for name, t := range tf.Reputation {
			cfg.Monitor.ReputationThresholds[name] = t
		}
	}

	return nil
}
