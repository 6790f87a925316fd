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

// Package log is a small leveled logger over the standard library logger.
// The level is global and can be changed at any time from any goroutine.
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
)

// Level is the severity of a log message.
type Level uint32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a case-insensitive level name to a Level. Unknown
// names yield LevelInfo and false.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO", "":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

var (
	level  atomic.Uint32
	logger = stdlog.New(os.Stderr, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds)
	exit   = os.Exit
)

func init() {
	SetLevel(LevelInfo)
}

// SetLevel sets the global level.
func SetLevel(l Level) {
	level.Store(uint32(l))
}

// GetLevel returns the global level.
func GetLevel() Level {
	return Level(level.Load())
}

// SetOutput redirects log output.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Enabled reports whether messages at l are currently written.
func Enabled(l Level) bool {
	return l >= GetLevel()
}

func output(l Level, msg string) {
	if Enabled(l) {
		// Pad so messages line up after the five-letter levels.
		_ = logger.Output(3, fmt.Sprintf("[%s]%s %s", l, strings.Repeat(" ", 5-len(l.String())), msg))
	}
}

func Debugf(format string, v ...any) { output(LevelDebug, fmt.Sprintf(format, v...)) }
func Infof(format string, v ...any)  { output(LevelInfo, fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...any)  { output(LevelWarn, fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...any) { output(LevelError, fmt.Sprintf(format, v...)) }

// Fatalf logs regardless of level and exits with status 1.
func Fatalf(format string, v ...any) {
	_ = logger.Output(2, fmt.Sprintf("[%s] %s", LevelFatal, fmt.Sprintf(format, v...)))
	exit(1)
}
