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
	"fmt"

	"github.com/spf13/cobra"

	speedy "github.com/alttagil/speedy-go"
)

func newPresetCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Inspect or update the stored preset",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the parameters that would be used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			p := opts.params
			fmt.Fprintf(out, "preset file:      %s\n", opts.cfg.PresetFile)
			fmt.Fprintf(out, "speed:            %g\n", p.Speed)
			fmt.Fprintf(out, "pitch:            %g\n", p.Pitch)
			fmt.Fprintf(out, "rate:             %g\n", p.Rate)
			fmt.Fprintf(out, "volume:           %g\n", p.Volume)
			fmt.Fprintf(out, "nonlinear:        %t\n", p.Nonlinear)
			fmt.Fprintf(out, "nonlinear factor: %g\n", p.NonlinearFactor)
			fmt.Fprintf(out, "default:          %t\n", p.IsDefault())
			fmt.Fprintf(out, "latency:          %.0f ms\n", 1000*speedy.EstimateLatency(p, !p.IsDefault()))
			return nil
		},
	}

	save := &cobra.Command{
		Use:   "save",
		Short: "Store the parameters given by flags and configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return savePreset(cmd, opts.cfg.PresetFile, opts.params)
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Store the default parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return savePreset(cmd, opts.cfg.PresetFile, speedy.DefaultParams())
		},
	}

	cmd.AddCommand(show, save, reset)
	return cmd
}

func savePreset(cmd *cobra.Command, path string, p speedy.Params) error {
	if path == "" {
		return fmt.Errorf("no preset file configured")
	}
	if err := savePresetFile(path, p.Preset()); err != nil {
		return fmt.Errorf("save preset: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %v to %s\n", p, path)
	return nil
}
