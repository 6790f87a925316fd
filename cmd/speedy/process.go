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
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/alttagil/speedy-go/internal/log"
)

func newProcessCmd(opts *options) *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Stretch a WAV file into a new 16-bit WAV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProcess(cmd, opts, in, out)
		},
	}
	cmd.Flags().StringVarP(&in, "input", "i", "", "input WAV file")
	cmd.Flags().StringVarP(&out, "output", "o", "out.wav", "output WAV file")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runProcess(cmd *cobra.Command, opts *options, in, out string) (err error) {
	ctx := cmd.Context()

	r, err := openWAV(in, opts.cfg.Audio.FramesPerBuffer)
	if err != nil {
		return err
	}
	defer r.Close()

	w, err := createWAV(out, r.format)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, w.Close())
	}()

	a, err := opts.openAdapter()
	if err != nil {
		return err
	}
	defer a.Close()

	log.Infof("processing %s (%v) with %v", in, r.format, a.Params())

	var elapsed time.Duration
	frames := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c, err := r.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("decode %s: %w", in, err)
		}
		frames += c.Frames()

		start := time.Now()
		a.Process(c)
		elapsed += time.Since(start)

		if err := w.write(c); err != nil {
			return fmt.Errorf("encode %s: %w", out, err)
		}
	}

	start := time.Now()
	tail := a.EndOfStream()
	elapsed += time.Since(start)
	if err := w.write(tail); err != nil {
		return fmt.Errorf("encode %s: %w", out, err)
	}

	log.Infof("wrote %s: %d frames in, %d frames out, processed in %v", out, frames, w.frames(), elapsed)
	return nil
}
