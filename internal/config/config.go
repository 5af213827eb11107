// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

// Package config loads .yab.yaml, the project-level defaults §6
// describes for flags a user would otherwise have to repeat on every
// invocation (jobs, baseline name, regression threshold, cachegrind
// path). CLI flags always take precedence over a loaded value.
package config

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the subset of .yab.yaml the harness understands.
type Config struct {
	Jobs                int     `mapstructure:"jobs"`
	BaselineName        string  `mapstructure:"baseline"`
	RegressionThreshold float64 `mapstructure:"regression_threshold"`
	WarmUpInstructions  int64   `mapstructure:"warm_up_instructions"`
	CachegrindPath      string  `mapstructure:"cachegrind"`
	DenyRegressions     bool    `mapstructure:"deny_regressions"`
}

// Load reads configuration from path if non-empty, or else searches the
// current directory for .yab.yaml. A missing file at the default search
// path is not an error: Load returns a zero Config so every field falls
// back to its CLI flag default.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".yab")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if path == "" {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				return &Config{}, nil
			}
		}
		return nil, errors.Wrap(err, "reading yab config")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "parsing yab config")
	}
	return cfg, nil
}

// String renders cfg for --verbose startup logging.
func (c *Config) String() string {
	return fmt.Sprintf("jobs=%d baseline=%q threshold=%v warmup=%d cachegrind=%q deny_regressions=%v",
		c.Jobs, c.BaselineName, c.RegressionThreshold, c.WarmUpInstructions, c.CachegrindPath, c.DenyRegressions)
}
