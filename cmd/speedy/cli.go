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

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	speedy "github.com/alttagil/speedy-go"
	"github.com/alttagil/speedy-go/internal/config"
	"github.com/alttagil/speedy-go/internal/log"
)

// options holds the persistent flags and what PersistentPreRunE derives
// from them.
type options struct {
	configPath string
	presetPath string
	logLevel   string

	speed           float64
	pitch           float64
	rate            float64
	volume          float64
	nonlinear       bool
	nonlinearFactor float64

	cfg      *config.Config
	params   speedy.Params
	registry *speedy.Registry
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "speedy",
		Short:         "Change the speed and pitch of audio streams",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}
	root.SetHelpCommand(&cobra.Command{Hidden: true})

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "configuration file (default "+config.DefaultFile+" if present)")
	flags.StringVar(&opts.presetPath, "preset", "", "preset file (overrides preset_file from the configuration)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.Float64VarP(&opts.speed, "speed", "s", 1, "speed up factor, 2.0 means 2X faster")
	flags.Float64VarP(&opts.pitch, "pitch", "p", 1, "pitch scaling factor, 1.3 means 30% higher")
	flags.Float64VarP(&opts.rate, "rate", "r", 1, "playback rate, 2.0 means 2X faster and 2X pitch")
	flags.Float64VarP(&opts.volume, "volume", "v", 1, "volume scale factor, 2.0 means 2X louder")
	flags.BoolVar(&opts.nonlinear, "nonlinear", false, "vary the speed with the audio content")
	flags.Float64Var(&opts.nonlinearFactor, "nonlinear-factor", 1, "intensity of the nonlinear mode")

	root.AddCommand(newProcessCmd(opts), newPlayCmd(opts), newPresetCmd(opts))
	return root
}

// load resolves configuration and parameters. Later sources win: the
// configuration file, then the preset file, then explicit flags.
func (o *options) load(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	level, ok := log.ParseLevel(cfg.LogLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	log.SetLevel(level)

	if o.presetPath != "" {
		cfg.PresetFile = o.presetPath
	}
	o.cfg = cfg

	p := speedy.Params{
		Speed:           float32(cfg.Params.Speed),
		Pitch:           float32(cfg.Params.Pitch),
		Rate:            float32(cfg.Params.Rate),
		Volume:          float32(cfg.Params.Volume),
		Nonlinear:       cfg.Params.Nonlinear,
		NonlinearFactor: float32(cfg.Params.NonlinearFactor),
	}

	switch stored, err := loadPresetFile(cfg.PresetFile); {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		log.Warnf("ignoring preset %s: %v", cfg.PresetFile, err)
	default:
		p = stored
		log.Debugf("loaded preset %s: %v", cfg.PresetFile, p)
	}

	f := cmd.Flags()
	if f.Changed("speed") {
		p.Speed = float32(o.speed)
	}
	if f.Changed("pitch") {
		p.Pitch = float32(o.pitch)
	}
	if f.Changed("rate") {
		p.Rate = float32(o.rate)
	}
	if f.Changed("volume") {
		p.Volume = float32(o.volume)
	}
	if f.Changed("nonlinear") {
		p.Nonlinear = o.nonlinear
	}
	if f.Changed("nonlinear-factor") {
		p.NonlinearFactor = float32(o.nonlinearFactor)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	o.params = p

	o.registry = speedy.NewRegistry()
	engine := speedy.SonicOptions{Quality: cfg.Engine.Quality, SinOverlap: cfg.Engine.SinOverlap}
	return o.registry.Register(speedy.SpeedyFactory(
		speedy.WithEngine(engine.NewEngine),
		speedy.WithDrainFactor(cfg.Engine.DrainFactor),
	))
}

// openAdapter creates the adapter for the resolved parameters through
// the registry, the way a host restores a stored preset.
func (o *options) openAdapter() (*speedy.Adapter, error) {
	return o.registry.Open(o.params.Preset())
}

func loadPresetFile(path string) (speedy.Params, error) {
	if path == "" {
		return speedy.Params{}, fs.ErrNotExist
	}
	f, err := os.Open(path)
	if err != nil {
		return speedy.Params{}, err
	}
	defer f.Close()

	pr, err := speedy.ReadPreset(f)
	if err != nil {
		return speedy.Params{}, err
	}
	return speedy.ParsePreset(pr, speedy.SpeedyOwner)
}

// savePresetFile writes pr atomically next to path.
func savePresetFile(path string, pr speedy.Preset) error {
	if path == "" {
		return nil
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".speedy-preset-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := pr.WriteTo(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
