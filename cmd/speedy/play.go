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
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/spf13/cobra"

	speedy "github.com/alttagil/speedy-go"
	"github.com/alttagil/speedy-go/internal/control"
	"github.com/alttagil/speedy-go/internal/log"
)

func newPlayCmd(opts *options) *cobra.Command {
	var (
		in          string
		withControl bool
		addr        string
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Stretch a WAV file and play it on the default output device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("control") {
				opts.cfg.Control.Enabled = withControl
			}
			if addr != "" {
				opts.cfg.Control.Address = addr
			}
			return runPlay(cmd, opts, in)
		},
	}
	cmd.Flags().StringVarP(&in, "input", "i", "", "input WAV file")
	cmd.Flags().BoolVar(&withControl, "control", false, "serve the WebSocket control endpoint")
	cmd.Flags().StringVar(&addr, "control-addr", "", "control endpoint address (overrides the configuration)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runPlay(cmd *cobra.Command, opts *options, in string) error {
	ctx := cmd.Context()
	fpb := opts.cfg.Audio.FramesPerBuffer

	r, err := openWAV(in, fpb)
	if err != nil {
		return err
	}
	defer r.Close()

	a, err := opts.openAdapter()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	out, err := openOutput(r.format, fpb)
	if err != nil {
		return err
	}
	defer out.Close()

	var (
		srv    *control.Server
		events <-chan speedy.Event
	)
	if opts.cfg.Control.Enabled {
		srv = control.New(opts.cfg.Control.Address)
		if err := srv.Start(); err != nil {
			return err
		}
		defer srv.Close()
		events = srv.Events()
		srv.Broadcast(a.Params(), a.Latency())
	}

	saver := newPresetSaver(opts.cfg.PresetFile)
	defer saver.Close()

	persist := func(pr speedy.Preset) {
		saver.save(pr)
		if srv != nil {
			srv.Broadcast(a.Params(), a.Latency())
		}
	}

	log.Infof("playing %s (%v) with %v", in, r.format, a.Params())

	for ctx.Err() == nil {
		a.ApplyPending(events, persist)

		c, err := r.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("decode %s: %w", in, err)
		}

		a.Process(c)
		if err := out.play(c.Data); err != nil {
			return err
		}
	}

	if ctx.Err() != nil {
		log.Infof("interrupted")
		return nil
	}
	if tail := a.EndOfStream(); tail != nil {
		if err := out.play(tail.Data); err != nil {
			return err
		}
	}
	return out.finish()
}

// presetSaver writes presets to disk off the audio goroutine. Only the
// latest pending preset is kept.
type presetSaver struct {
	path    string
	pending chan speedy.Preset
	wg      sync.WaitGroup
}

func newPresetSaver(path string) *presetSaver {
	s := &presetSaver{path: path, pending: make(chan speedy.Preset, 1)}
	s.wg.Go(func() {
		for pr := range s.pending {
			if err := savePresetFile(s.path, pr); err != nil {
				log.Warnf("saving preset %s: %v", s.path, err)
			}
		}
	})
	return s
}

// save queues pr, replacing a preset that has not been written yet. It must
// not be called concurrently.
func (s *presetSaver) save(pr speedy.Preset) {
	select {
	case s.pending <- pr:
	default:
		select {
		case <-s.pending:
		default:
		}
		s.pending <- pr
	}
}

// Close writes the last queued preset and stops the saver.
func (s *presetSaver) Close() {
	close(s.pending)
	s.wg.Wait()
}

// output feeds variable-sized chunks to a blocking PortAudio stream with
// a fixed buffer size.
type output struct {
	stream  *portaudio.Stream
	buf     []float32
	pending []float32
}

func openOutput(f speedy.Format, framesPerBuffer int) (*output, error) {
	o := &output{buf: make([]float32, framesPerBuffer*f.Channels)}
	stream, err := portaudio.OpenDefaultStream(0, f.Channels, float64(f.SampleRate), framesPerBuffer, o.buf)
	if err != nil {
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start output stream: %w", err)
	}
	o.stream = stream
	return o, nil
}

func (o *output) play(samples []float32) error {
	o.pending = append(o.pending, samples...)
	for len(o.pending) >= len(o.buf) {
		copy(o.buf, o.pending)
		o.pending = append(o.pending[:0], o.pending[len(o.buf):]...)
		if err := o.write(); err != nil {
			return err
		}
	}
	return nil
}

// finish plays what is left, padded with silence.
func (o *output) finish() error {
	if len(o.pending) == 0 {
		return nil
	}
	n := copy(o.buf, o.pending)
	clear(o.buf[n:])
	o.pending = o.pending[:0]
	return o.write()
}

func (o *output) write() error {
	err := o.stream.Write()
	if errors.Is(err, portaudio.OutputUnderflowed) {
		log.Debugf("output underflow")
		return nil
	}
	return err
}

func (o *output) Close() error {
	return errors.Join(o.stream.Stop(), o.stream.Close())
}
