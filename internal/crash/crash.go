/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report plus a snapshot of the
// scene being edited, then exits.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "gosceneeditor/internal/log"
	"gosceneeditor/internal/telemetry"
	"gosceneeditor/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Context describes what to save next to the report. A nil Context writes
// the report to the temp dir only.
type Context struct {
	// Dir receives the report; empty means os.TempDir().
	Dir string
	// Source names the scene file being edited, for the report header.
	Source string
	// Scene returns the current scene as JSON. It runs after the panic, so it
	// must not touch editor state that may be half updated.
	Scene func() ([]byte, error)
}

// Recover captures a panic, logs it with its stack, writes a report file and
// a scene snapshot, and exits with code 2.
//
// Usage: defer crash.Recover(cc)
func Recover(cc *Context) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	reportPath, err := writeReport(cc, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if cc != nil && cc.Scene != nil {
		if path, err := writeSceneSnapshot(cc, reportPath); err != nil {
			l.Error("scene snapshot failed", slog.Any("err", err))
		} else {
			l.Info("scene snapshot written", slog.String("path", path))
		}
	}

	_, _ = fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath)
	_, _ = fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

func reportDir(cc *Context) string {
	if cc == nil || cc.Dir == "" {
		return os.TempDir()
	}
	_ = os.MkdirAll(cc.Dir, 0o755)
	return cc.Dir
}

func writeReport(cc *Context, panicVal any, stack []byte) (string, error) {
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(reportDir(cc), fmt.Sprintf("crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Go Scene Editor Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if cc != nil && cc.Source != "" {
		_, _ = fmt.Fprintf(&buf, "Scene: %s\n", cc.Source)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, fmt.Errorf("write %s: %w", path, err)
	}
	// the report holds no scene content, so it may be uploaded (opt-in via env)
	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}

// writeSceneSnapshot stores the scene JSON as <report>.scene.json.
func writeSceneSnapshot(cc *Context, reportPath string) (string, error) {
	data, err := cc.Scene()
	if err != nil {
		return "", fmt.Errorf("snapshot scene: %w", err)
	}
	path := reportPath + ".scene.json"
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
