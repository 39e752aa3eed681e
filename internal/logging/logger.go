/*
 * Copyright 2025 SREDiag Authors
 * Copyright 2023 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package logging wraps zap with the levels and outputs used across viewembed.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvLogLevel overrides the configured level when set.
const EnvLogLevel = "VIEWEMBED_LOG_LEVEL"

// Logger wraps zap.Logger with a level that can be changed at runtime.
type Logger struct {
	*zap.Logger
	level zap.AtomicLevel
}

// Config defines logger configuration.
type Config struct {
	Level       string // "debug", "info", "warn", "error"
	Development bool
	// File is appended to in addition to Stdout; empty disables it.
	File   string
	Stdout bool
}

// DefaultConfig returns the logger configuration used by the controller.
func DefaultConfig() Config {
	return Config{
		Level:  "warn",
		File:   "viewembed.log",
		Stdout: false,
	}
}

// New creates a logger. Opening the log file is the only step that can fail
// for a valid level.
func New(cfg Config) (*Logger, error) {
	levelName := cfg.Level
	if env := os.Getenv(EnvLogLevel); env != "" {
		levelName = env
	}
	lvl, err := parseLevel(levelName)
	if err != nil {
		return nil, err
	}
	atom := zap.NewAtomicLevelAt(lvl)

	var sinks []zapcore.WriteSyncer
	if cfg.File != "" {
		if dir := filepath.Dir(cfg.File); dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		sinks = append(sinks, zapcore.Lock(f))
	}
	if cfg.Stdout {
		sinks = append(sinks, zapcore.Lock(os.Stdout))
	}
	if len(sinks) == 0 {
		return &Logger{Logger: zap.NewNop(), level: atom}, nil
	}

	var enc zapcore.Encoder
	if cfg.Development {
		enc = zapcore.NewConsoleEncoder(encoderConfig(true))
	} else {
		enc = zapcore.NewJSONEncoder(encoderConfig(false))
	}
	core := zapcore.NewCore(enc, zapcore.NewMultiWriteSyncer(sinks...), atom)
	opts := []zap.Option{zap.AddCaller(), zap.ErrorOutput(zapcore.Lock(os.Stderr))}
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return &Logger{Logger: zap.New(core, opts...), level: atom}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop(), level: zap.NewAtomicLevelAt(zapcore.InfoLevel)}
}

// Named returns a child logger sharing the same level.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name), level: l.level}
}

// SetLevel changes the level of this logger and every logger derived from it.
func (l *Logger) SetLevel(level zapcore.Level) {
	l.level.SetLevel(level)
}

// Level returns the current level.
func (l *Logger) Level() zapcore.Level {
	return l.level.Level()
}

// parseLevel converts string level to zapcore.Level.
func parseLevel(level string) (zapcore.Level, error) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}

// encoderConfig returns encoder configuration based on environment.
func encoderConfig(development bool) zapcore.EncoderConfig {
	if development {
		return zapcore.EncoderConfig{
			TimeKey:        "T",
			LevelKey:       "L",
			NameKey:        "N",
			CallerKey:      "C",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "M",
			StacktraceKey:  "S",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		}
	}
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}
