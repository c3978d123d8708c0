/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gosceneeditor/internal/config"
	"gosceneeditor/internal/scene"
	"gosceneeditor/internal/version"
)

type memStore map[string]string

func (m memStore) Get(service, key string) (string, error) { return m[service+"/"+key], nil }
func (m memStore) Set(service, key, value string) error    { m[service+"/"+key] = value; return nil }
func (m memStore) Delete(service, key string) error        { delete(m, service+"/"+key); return nil }

func isolate(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Setenv("AppData", t.TempDir())
	} else {
		t.Setenv("HOME", t.TempDir())
	}
	t.Setenv("GSE_TELEMETRY_OPT_IN", "false")
	t.Setenv("GSE_TRACE_DSN", "")
	t.Setenv("GSE_LOG_LEVEL", "error")
	t.Setenv("GSE_OVERLAY_FONT", "")
	t.Setenv("GSE_LOG_FILE", "")
	prev := config.SetTokenStore(memStore{})
	t.Cleanup(func() { config.SetTokenStore(prev) })
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func findNode(specs []scene.NodeSpec, id string) (scene.NodeSpec, bool) {
	for _, s := range specs {
		if s.ID == id {
			return s, true
		}
		if c, ok := findNode(s.Children, id); ok {
			return c, true
		}
	}
	return scene.NodeSpec{}, false
}

func TestVersionAndUsage(t *testing.T) {
	isolate(t)
	code, out, _ := runCLI(t, "version")
	if code != 0 || !strings.Contains(out, version.String()) {
		t.Fatalf("version: code=%d out=%q", code, out)
	}
	code, out, _ = runCLI(t)
	if code != 0 || !strings.Contains(out, "Usage:") {
		t.Fatalf("usage: code=%d out=%q", code, out)
	}
	code, _, errOut := runCLI(t, "frobnicate")
	if code != 2 || !strings.Contains(errOut, "unknown command") {
		t.Fatalf("unknown command: code=%d err=%q", code, errOut)
	}
	if code, _, _ := runCLI(t, "overlay"); code != 2 {
		t.Fatalf("overlay without output: code=%d, want 2", code)
	}
}

func TestDemoMovesSelection(t *testing.T) {
	isolate(t)
	code, out, errOut := runCLI(t, "demo")
	if code != 0 {
		t.Fatalf("demo: code=%d err=%s", code, errOut)
	}
	var f scene.Fixture
	if err := json.Unmarshal([]byte(out), &f); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(f.Gestures) != 0 {
		t.Fatalf("gestures must be dropped from the result")
	}
	title, ok := findNode(f.Stage.Children, "title")
	if !ok {
		t.Fatalf("title missing from output")
	}
	if title.X == 60 && title.Y == 40 {
		t.Fatalf("title did not move: %+v", title)
	}
	frame, _ := findNode(f.Stage.Children, "frame")
	if frame.X != 0 || frame.Y != 0 {
		t.Fatalf("locked frame moved: %+v", frame)
	}
}

func TestDemoMissingScene(t *testing.T) {
	isolate(t)
	code, _, errOut := runCLI(t, "demo", filepath.Join(t.TempDir(), "nope.json"))
	if code != 1 || !strings.Contains(errOut, "read fixture") {
		t.Fatalf("code=%d err=%q", code, errOut)
	}
}

func TestOverlayWritesFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "overlay.svg")
	code, out, errOut := runCLI(t, "overlay", path)
	if code != 0 {
		t.Fatalf("overlay: code=%d err=%s", code, errOut)
	}
	if !strings.Contains(out, "Wrote") {
		t.Fatalf("out = %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read overlay: %v", err)
	}
	if !bytes.Contains(data, []byte(`data-id="title"`)) {
		t.Fatalf("overlay lacks the selected title")
	}
	if code, _, _ := runCLI(t, "overlay", filepath.Join(t.TempDir(), "overlay.bmp")); code != 1 {
		t.Fatalf("unknown format: code=%d, want 1", code)
	}
}

func TestTraceReplayMatchesDemo(t *testing.T) {
	isolate(t)
	dsn := filepath.Join(t.TempDir(), "traces.db")

	code, direct, errOut := runCLI(t, "demo")
	if code != 0 {
		t.Fatalf("demo: code=%d err=%s", code, errOut)
	}
	code, out, errOut := runCLI(t, "trace", "record", "", dsn)
	if code != 0 {
		t.Fatalf("record: code=%d err=%s", code, errOut)
	}
	if !strings.HasPrefix(out, "Recorded ") {
		t.Fatalf("record out = %q", out)
	}
	code, list, errOut := runCLI(t, "trace", "list", dsn)
	if code != 0 || len(strings.Split(strings.TrimSpace(list), "\n")) != 1 {
		t.Fatalf("list: code=%d out=%q err=%s", code, list, errOut)
	}
	id := strings.SplitN(list, "\t", 2)[0]
	if !strings.Contains(out, id) {
		t.Fatalf("record reported %q, list has %q", out, id)
	}

	code, replayed, errOut := runCLI(t, "trace", "replay", dsn, id)
	if code != 0 {
		t.Fatalf("replay: code=%d err=%s", code, errOut)
	}
	var want, got scene.Fixture
	if err := json.Unmarshal([]byte(direct), &want); err != nil {
		t.Fatalf("decode demo: %v", err)
	}
	if err := json.Unmarshal([]byte(replayed), &got); err != nil {
		t.Fatalf("decode replay: %v", err)
	}
	if diff := cmp.Diff(want.Stage, got.Stage); diff != "" {
		t.Fatalf("replay differs from demo (-want +got):\n%s", diff)
	}

	if code, _, _ := runCLI(t, "trace", "replay", dsn, "sess_missing"); code != 1 {
		t.Fatalf("missing session: code=%d, want 1", code)
	}
}
