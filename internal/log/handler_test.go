/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestConsoleHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should not be enabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}

	h2 := h.WithAttrs([]slog.Attr{
		slog.String("component", "solver"),
		slog.String("app", AppName),
		slog.String("k", "v"),
	}).WithGroup("grp")

	r := slog.NewRecord(time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC), slog.LevelError, "boom", 0)
	r.AddAttrs(
		slog.Int("n", 42),
		slog.Float64("pi", 3.14),
		slog.Bool("ok", true),
		slog.String("msg", "two words"),
		slog.Any("err", errors.New("bad matrix")),
		slog.Group("pt", slog.Float64("x", 1.5), slog.Float64("y", -2)),
	)
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	got := strings.TrimSuffix(buf.String(), "\n")
	want := `09:30:00.000 ERR [solver] boom k=v grp.n=42 grp.pi=3.14 grp.ok=true grp.msg="two words" grp.err="bad matrix" grp.pt.x=1.5 grp.pt.y=-2`
	if !strings.HasSuffix(got, want[len("09:30:00.000"):]) {
		t.Fatalf("line =\n%q\nwant suffix of\n%q", got, want)
	}
	if strings.Contains(got, "app=") {
		t.Fatalf("app attr belongs to the JSON sinks only: %q", got)
	}
}

func TestLevelTag(t *testing.T) {
	cases := map[slog.Level]string{
		slog.LevelDebug - 4: "DBG",
		slog.LevelDebug:     "DBG",
		slog.LevelInfo:      "INF",
		slog.LevelWarn:      "WRN",
		slog.LevelError:     "ERR",
		slog.LevelError + 4: "ERR",
	}
	for l, want := range cases {
		if got := levelTag(l); got != want {
			t.Fatalf("levelTag(%v) = %s, want %s", l, got, want)
		}
	}
}

type failing struct{}

func (failing) Enabled(context.Context, slog.Level) bool  { return true }
func (failing) Handle(context.Context, slog.Record) error { return errors.New("disk full") }
func (f failing) WithAttrs([]slog.Attr) slog.Handler      { return f }
func (f failing) WithGroup(string) slog.Handler           { return f }

func TestFanoutKeepsWritingAfterError(t *testing.T) {
	var buf bytes.Buffer
	f := fanout{failing{}, newConsoleHandler(&buf, nil)}
	l := slog.New(f.WithAttrs([]slog.Attr{slog.String("component", "cli")}))
	l.Info("hello")
	if !strings.Contains(buf.String(), "INF [cli] hello") {
		t.Fatalf("second sink missed the record: %q", buf.String())
	}
	r := slog.NewRecord(time.Now(), slog.LevelInfo, "x", 0)
	if err := f.Handle(context.Background(), r); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("err = %v", err)
	}
	if !f.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("fanout enabled if any sink is")
	}
}
