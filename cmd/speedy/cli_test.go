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
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	speedy "github.com/alttagil/speedy-go"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return out.String()
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "speedy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func writeSine(t *testing.T, path string, rate, channels, frames int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := wav.NewEncoder(f, rate, 16, channels, 1)

	data := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		v := int(12000 * math.Sin(2*math.Pi*200*float64(i)/float64(rate)))
		for c := 0; c < channels; c++ {
			data[i*channels+c] = v
		}
	}
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		SourceBitDepth: 16,
		Data:           data,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
}

func readFrames(t *testing.T, path string) (int, *audio.Format) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	buf, err := wav.NewDecoder(f).FullPCMBuffer()
	require.NoError(t, err)
	return len(buf.Data) / buf.Format.NumChannels, buf.Format
}

func TestParamsPrecedence(t *testing.T) {
	dir := t.TempDir()
	preset := filepath.Join(dir, "p.preset")
	cfg := writeConfig(t, dir, "preset_file: "+preset+"\nparams:\n  speed: 1.5\n  volume: 0.5\n")

	out := run(t, "--config", cfg, "preset", "show")
	assert.Contains(t, out, "speed:            1.5")
	assert.Contains(t, out, "volume:           0.5")

	run(t, "--config", cfg, "--speed", "2", "--nonlinear", "preset", "save")
	stored, err := loadPresetFile(preset)
	require.NoError(t, err)
	assert.Equal(t, float32(2), stored.Speed)
	assert.Equal(t, float32(0.5), stored.Volume)
	assert.True(t, stored.Nonlinear)

	out = run(t, "--config", cfg, "--pitch", "1.2", "preset", "show")
	assert.Contains(t, out, "speed:            2", "the preset overrides the configuration")
	assert.Contains(t, out, "pitch:            1.2", "flags override the preset")
	assert.Contains(t, out, "latency:          140 ms")

	run(t, "--config", cfg, "preset", "reset")
	stored, err = loadPresetFile(preset)
	require.NoError(t, err)
	assert.Equal(t, speedy.DefaultParams(), stored)
}

func TestForeignPresetIsIgnored(t *testing.T) {
	dir := t.TempDir()
	preset := filepath.Join(dir, "p.preset")
	pr := speedy.Params{Speed: 3, Pitch: 1, Rate: 1, Volume: 1, NonlinearFactor: 1}.Preset()
	pr.Owner[0]++
	require.NoError(t, savePresetFile(preset, pr))

	out := run(t, "--config", writeConfig(t, dir, "log_level: error\n"), "--preset", preset, "preset", "show")
	assert.Contains(t, out, "speed:            1\n")
}

func TestInvalidFlagsFail(t *testing.T) {
	cfg := writeConfig(t, t.TempDir(), "preset_file: \"\"\n")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", cfg, "--speed", "0", "preset", "show"})
	assert.ErrorIs(t, cmd.Execute(), speedy.ErrInvalidParams)
}

func TestProcess(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")
	writeSine(t, in, 16000, 2, 32000)
	cfg := writeConfig(t, dir, "preset_file: \"\"\naudio:\n  frames_per_buffer: 512\n")

	run(t, "--config", cfg, "--speed", "2", "process", "-i", in, "-o", out)

	frames, format := readFrames(t, out)
	assert.Equal(t, 2, format.NumChannels)
	assert.Equal(t, 16000, format.SampleRate)
	// Silence emitted while the engine fills up is part of the output.
	assert.Greater(t, frames, 15000)
	assert.Less(t, frames, 18000)
}

func TestProcessDefaultParamsCopiesAudio(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")
	writeSine(t, in, 8000, 1, 5000)
	cfg := writeConfig(t, dir, "preset_file: \"\"\n")

	run(t, "--config", cfg, "process", "-i", in, "-o", out)

	frames, _ := readFrames(t, out)
	assert.Equal(t, 5000, frames)
}

func TestPresetSaverKeepsLatest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speedy.preset")
	s := newPresetSaver(path)

	p := speedy.DefaultParams()
	for _, speed := range []float32{1.25, 1.5, 2} {
		p.Speed = speed
		s.save(p.Preset())
	}
	s.Close()

	stored, err := loadPresetFile(path)
	require.NoError(t, err)
	assert.Equal(t, float32(2), stored.Speed)
}

func TestOpenWAVRejectsFloat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "float.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := wav.NewEncoder(f, 44100, 32, 1, 3)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 44100},
		SourceBitDepth: 32,
		Data:           make([]int, 1000),
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	_, err = openWAV(path, 256)
	assert.ErrorContains(t, err, "only PCM")

	pcm := filepath.Join(t.TempDir(), "pcm.wav")
	writeSine(t, pcm, 44100, 1, 1000)
	r, err := openWAV(pcm, 256)
	require.NoError(t, err)
	require.NoError(t, r.Close())
}
