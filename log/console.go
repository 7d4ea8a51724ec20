/*
 * Copyright (c) "Graphwire"
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Level controls how much the Console logger emits.
type Level int

const (
	ERROR Level = iota
	WARNING
	INFO
	DEBUG
)

func (l Level) zerolog() zerolog.Level {
	switch l {
	case ERROR:
		return zerolog.ErrorLevel
	case WARNING:
		return zerolog.WarnLevel
	case INFO:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}

// Console is a Logger writing human-readable records to a terminal.
type Console struct {
	zl zerolog.Logger
}

// NewConsole returns a Console logger writing to stderr at the given level.
func NewConsole(level Level) *Console {
	return NewConsoleWriter(level, os.Stderr)
}

// NewConsoleWriter returns a Console logger writing to wr at the given level.
func NewConsoleWriter(level Level, wr io.Writer) *Console {
	zl := zerolog.New(zerolog.ConsoleWriter{Out: wr, TimeFormat: "15:04:05.000"}).
		Level(level.zerolog()).
		With().Timestamp().Logger()
	return &Console{zl: zl}
}

func (c *Console) Error(name string, id string, err error) {
	c.zl.Error().Str("name", name).Str("id", id).Err(err).Send()
}

func (c *Console) Errorf(name string, id string, msg string, args ...any) {
	c.zl.Error().Str("name", name).Str("id", id).Msgf(msg, args...)
}

func (c *Console) Warnf(name string, id string, msg string, args ...any) {
	c.zl.Warn().Str("name", name).Str("id", id).Msgf(msg, args...)
}

func (c *Console) Infof(name string, id string, msg string, args ...any) {
	c.zl.Info().Str("name", name).Str("id", id).Msgf(msg, args...)
}

func (c *Console) Debugf(name string, id string, msg string, args ...any) {
	c.zl.Debug().Str("name", name).Str("id", id).Msgf(msg, args...)
}
