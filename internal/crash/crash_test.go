/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteReportCreatesFileInTemp(t *testing.T) {
	path, err := writeReport(nil, "boom", []byte("stacktrace"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	t.Cleanup(func() { _ = os.Remove(path) })
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "Go Scene Editor Crash Report") {
		t.Fatalf("report header missing")
	}
	if !strings.Contains(s, "Panic: boom") || strings.Contains(s, "Scene:") {
		t.Fatalf("unexpected report content: %s", s)
	}
}

func TestWriteReportCreatesFileInDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "crashes")
	path, err := writeReport(&Context{Dir: dir, Source: "demo.json"}, "kaboom", []byte("stack"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("expected report under %s, got %s", dir, path)
	}
	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), "Scene: demo.json") {
		t.Fatalf("scene source missing: %s", b)
	}
}

// muteStderr swallows the crash banner for the duration of the test.
func muteStderr(t *testing.T) {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stderr = w
	t.Cleanup(func() {
		_ = w.Close()
		os.Stderr = old
		_, _ = io.Copy(io.Discard, r)
	})
}

func interceptExit(t *testing.T) *int {
	t.Helper()
	code := -1
	old := exitFn
	exitFn = func(c int) { code = c }
	t.Cleanup(func() { exitFn = old })
	return &code
}

func TestRecoverWritesReportAndScene(t *testing.T) {
	muteStderr(t)
	code := interceptExit(t)
	dir := t.TempDir()
	cc := &Context{Dir: dir, Scene: func() ([]byte, error) { return []byte(`{"version":1}`), nil }}

	func() {
		defer Recover(cc)
		panic("boom")
	}()

	if *code != 2 {
		t.Fatalf("expected exit code 2, got %d", *code)
	}
	logs, _ := filepath.Glob(filepath.Join(dir, "crash-*.log"))
	scenes, _ := filepath.Glob(filepath.Join(dir, "crash-*.log.scene.json"))
	if len(logs) != 1 || len(scenes) != 1 {
		t.Fatalf("reports = %v, scenes = %v", logs, scenes)
	}
	b, _ := os.ReadFile(scenes[0])
	if string(b) != `{"version":1}` {
		t.Fatalf("scene snapshot = %s", b)
	}
}

func TestRecoverSurvivesSnapshotFailure(t *testing.T) {
	muteStderr(t)
	code := interceptExit(t)
	dir := t.TempDir()
	cc := &Context{Dir: dir, Scene: func() ([]byte, error) { return nil, errors.New("scene gone") }}

	func() {
		defer Recover(cc)
		panic("boom")
	}()
	if *code != 2 {
		t.Fatalf("expected exit code 2, got %d", *code)
	}
	if scenes, _ := filepath.Glob(filepath.Join(dir, "*.scene.json")); len(scenes) != 0 {
		t.Fatalf("no snapshot expected, got %v", scenes)
	}
}

func TestRecoverWithoutPanicIsNoop(t *testing.T) {
	code := interceptExit(t)
	func() {
		defer Recover(nil)
	}()
	if *code != -1 {
		t.Fatalf("exit must not be called, got %d", *code)
	}
}
