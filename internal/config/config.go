// Copyright (c) 2023 Alexander Khudich
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the speedy YAML configuration.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alttagil/speedy-go/internal/log"
)

// DefaultFile is the configuration file looked up when no path is given.
const DefaultFile = "speedy.yaml"

const (
	EnvLogLevel    = "SPEEDY_LOG_LEVEL"
	EnvControlAddr = "SPEEDY_CONTROL_ADDR"
	EnvPresetFile  = "SPEEDY_PRESET_FILE"
)

// MaxFramesPerBuffer bounds the processing block size.
const MaxFramesPerBuffer = 1 << 16

// Config is the top-level configuration.
type Config struct {
	LogLevel   string        `yaml:"log_level"`
	PresetFile string        `yaml:"preset_file"`
	Params     ParamsConfig  `yaml:"params"`
	Audio      AudioConfig   `yaml:"audio"`
	Engine     EngineConfig  `yaml:"engine"`
	Control    ControlConfig `yaml:"control"`
}

// ParamsConfig holds the initial stretch parameters. A preset file or
// command line flags override them.
type ParamsConfig struct {
	Speed           float64 `yaml:"speed"`
	Pitch           float64 `yaml:"pitch"`
	Rate            float64 `yaml:"rate"`
	Volume          float64 `yaml:"volume"`
	Nonlinear       bool    `yaml:"nonlinear"`
	NonlinearFactor float64 `yaml:"nonlinear_factor"`
}

// AudioConfig holds block size settings for file and device streaming.
type AudioConfig struct {
	FramesPerBuffer int `yaml:"frames_per_buffer"`
}

// EngineConfig tunes the stretch engine and the adapter around it.
type EngineConfig struct {
	Quality    bool `yaml:"quality"`     // full-rate pitch search
	SinOverlap bool `yaml:"sin_overlap"` // sine cross-fade instead of linear
	// DrainFactor caps how many frames one buffer may drain, as a
	// multiple of its input frame count.
	DrainFactor int `yaml:"drain_factor"`
}

// ControlConfig configures the WebSocket control surface.
type ControlConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:   "info",
		PresetFile: "speedy.preset",
		Params: ParamsConfig{
			Speed:           1,
			Pitch:           1,
			Rate:            1,
			Volume:          1,
			NonlinearFactor: 1,
		},
		Audio: AudioConfig{
			FramesPerBuffer: 1024,
		},
		Engine: EngineConfig{
			DrainFactor: 4,
		},
		Control: ControlConfig{
			Address: "127.0.0.1:8765",
		},
	}
}

// LoadConfig reads the configuration at path. An empty path looks for
// DefaultFile in the working directory and falls back to Default when it
// does not exist. Environment overrides are applied last, then the result
// is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		log.Debugf("config: loaded %s", path)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.LogLevel = v
		log.Debugf("config: log_level overridden from env: %s", v)
	}
	if v, ok := os.LookupEnv(EnvControlAddr); ok {
		c.Control.Address = v
		log.Debugf("config: control.address overridden from env: %s", v)
	}
	if v, ok := os.LookupEnv(EnvPresetFile); ok {
		c.PresetFile = v
		log.Debugf("config: preset_file overridden from env: %s", v)
	}
}

// Validate checks ranges and cross-field requirements.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error, fatal", c.LogLevel))
	}

	for name, v := range map[string]float64{
		"speed":            c.Params.Speed,
		"pitch":            c.Params.Pitch,
		"rate":             c.Params.Rate,
		"volume":           c.Params.Volume,
		"nonlinear_factor": c.Params.NonlinearFactor,
	} {
		if !(v > 0) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("params.%s must be a positive number, got %v", name, v))
		}
	}

	if fpb := c.Audio.FramesPerBuffer; fpb < 1 || fpb > MaxFramesPerBuffer {
		errs = append(errs, fmt.Errorf("audio.frames_per_buffer must be in [1, %d], got %d", MaxFramesPerBuffer, fpb))
	}
	if c.Engine.DrainFactor < 1 {
		errs = append(errs, fmt.Errorf("engine.drain_factor must be at least 1, got %d", c.Engine.DrainFactor))
	}
	if c.Control.Enabled && !strings.Contains(c.Control.Address, ":") {
		errs = append(errs, fmt.Errorf("control.address %q appears invalid (missing port?)", c.Control.Address))
	}

	return errors.Join(errs...)
}
