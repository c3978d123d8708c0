/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log provides the slog setup shared by the editor core, the CLI and
// the UI host. Records carry app and version attributes; components add
// their own name and, for gesture logs, the gesture id.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gosceneeditor/internal/version"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger initialization. FromEnv fills it from
//   - GSE_LOG_LEVEL=debug|info|warn|error
//   - GSE_LOG_FORMAT=console|json
//   - GSE_LOG_FILE=<path> (JSON lines, rotated)
//   - GSE_LOG_SOURCE=true|false
type Options struct {
	Level      string
	Format     string // "console" or "json"
	AddSource  bool
	File       string
	MaxSizeMB  int // default 10
	MaxBackups int // default 3
	// Console overrides stderr; used by tests.
	Console io.Writer
}

// AppName is attached to every record as the "app" attribute.
const AppName = "gosceneeditor"

var (
	mu      sync.RWMutex
	current *slog.Logger
	// level is shared by every handler Init builds so SetLevel applies at once.
	level = new(slog.LevelVar)
)

// L returns the application logger, initializing it from the environment on
// first use.
func L() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l == nil {
		Init(FromEnv())
		mu.RLock()
		l = current
		mu.RUnlock()
	}
	return l
}

// Init replaces the application logger and slog's default.
func Init(opts Options) {
	level.Set(ParseLevel(opts.Level))
	var console io.Writer = os.Stderr
	if opts.Console != nil {
		console = opts.Console
	}

	hopts := &slog.HandlerOptions{Level: level, AddSource: opts.AddSource}
	var sinks fanout
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		sinks = append(sinks, slog.NewJSONHandler(console, hopts))
	} else {
		sinks = append(sinks, newConsoleHandler(console, hopts))
	}
	if file := strings.TrimSpace(opts.File); file != "" {
		sinks = append(sinks, slog.NewJSONHandler(rotating(file, opts), hopts))
	}

	var h slog.Handler = sinks
	if len(sinks) == 1 {
		h = sinks[0]
	}
	logger := slog.New(contextAttrs{next: h}).With(
		slog.String("app", AppName),
		slog.String("ver", version.String()),
	)

	mu.Lock()
	current = logger
	mu.Unlock()
	slog.SetDefault(logger)
}

func rotating(file string, opts Options) io.Writer {
	size, backups := opts.MaxSizeMB, opts.MaxBackups
	if size <= 0 {
		size = 10
	}
	if backups <= 0 {
		backups = 3
	}
	return &lj.Logger{Filename: file, MaxSize: size, MaxBackups: backups, MaxAge: 28, Compress: true}
}

// SetLevel changes the level of the running logger. Unknown names mean info.
func SetLevel(name string) slog.Level {
	l := ParseLevel(name)
	level.Set(l)
	return l
}

// Level reports the active level.
func Level() slog.Level { return level.Level() }

// FromEnv builds Options from GSE_LOG_* variables.
func FromEnv() Options {
	return Options{
		Level:     getenv("GSE_LOG_LEVEL", "info"),
		Format:    getenv("GSE_LOG_FORMAT", "console"),
		AddSource: strings.EqualFold(getenv("GSE_LOG_SOURCE", "false"), "true"),
		File:      os.Getenv("GSE_LOG_FILE"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ParseLevel maps debug, info, warn(ing) and error to slog levels.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// WithComponent returns a logger with the component attribute pre-set.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation annotates the logger with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

// WithGesture tags gesture-scoped records so one drag can be followed across
// adapters.
func WithGesture(l *slog.Logger, id string) *slog.Logger { return l.With(slog.String("gesture", id)) }

type editorKey struct{}

// WithEditor returns a context whose log records carry the editor id.
func WithEditor(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, editorKey{}, id)
}

// EditorFrom returns the editor id stored by WithEditor.
func EditorFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(editorKey{}).(string)
	return id, ok && id != ""
}
