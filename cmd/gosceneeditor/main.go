/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gosceneeditor/internal/config"
	"gosceneeditor/internal/crash"
	"gosceneeditor/internal/editor"
	applog "gosceneeditor/internal/log"
	"gosceneeditor/internal/overlay"
	"gosceneeditor/internal/scene"
	"gosceneeditor/internal/telemetry"
	"gosceneeditor/internal/trace"
	"gosceneeditor/internal/ui"
	"gosceneeditor/internal/version"
)

var errUsage = errors.New("usage")

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Go Scene Editor: transform handles for 2D scene objects")
	_, _ = fmt.Fprintf(w, "Version: %s\n", version.String())
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  gosceneeditor version|-v|--version                 Show version")
	_, _ = fmt.Fprintln(w, "  gosceneeditor demo [<scene.json>]                  Run the scene's scripted gestures and print the result")
	_, _ = fmt.Fprintln(w, "  gosceneeditor overlay [<scene.json>] <out>         Run the gestures and export the handle overlay (.png, .pdf, .svg)")
	_, _ = fmt.Fprintln(w, "  gosceneeditor trace record [<scene.json>] [<dsn>]  Record the scripted gestures into a trace store")
	_, _ = fmt.Fprintln(w, "  gosceneeditor trace replay [<dsn>] [<session>]     Replay a recorded session and print the result")
	_, _ = fmt.Fprintln(w, "  gosceneeditor trace list [<dsn>]                   List recorded sessions")
	_, _ = fmt.Fprintln(w, "  gosceneeditor ui [<scene.json>]                    Launch desktop UI (build with -tags fyne)")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Without <scene.json> the bundled demo scene is used. <dsn> is a SQLite file or a")
	_, _ = fmt.Fprintln(w, "postgres:// URL; it defaults to the trace settings in the config file.")
	_, _ = fmt.Fprintln(w, "GSE_OVERLAY_FONT names a TTF/OTF file for PNG overlay labels.")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// app carries what every command needs.
type app struct {
	ctx      context.Context
	cfg      config.AppConfig
	password string
	opts     editor.Options
	tel      *telemetry.Client
	out      io.Writer
	log      *slog.Logger
	crash    crash.Context
}

func run(args []string, stdout, stderr io.Writer) int {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	l.Debug("start", slog.Int("args", len(args)))

	if len(args) == 0 {
		usage(stdout)
		return 0
	}
	switch args[0] {
	case "version", "--version", "-v":
		_, _ = fmt.Fprintln(stdout, "Go Scene Editor")
		_, _ = fmt.Fprintln(stdout, version.String())
		return 0
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	case "ui":
		var path string
		if len(args) > 1 {
			path = args[1]
		}
		if err := ui.Run(path); err != nil {
			l.Error("ui failed", slog.Any("err", err))
			_, _ = fmt.Fprintln(stderr, "Error:", err)
			return 1
		}
		return 0
	}

	a, err := newApp(stdout, l)
	if err != nil {
		l.Error("startup failed", slog.Any("err", err))
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	l = a.log
	defer a.tel.Close()
	defer crash.Recover(&a.crash)

	switch args[0] {
	case "demo":
		err = a.demo(args[1:])
	case "overlay":
		err = a.overlay(args[1:])
	case "trace":
		err = a.trace(args[1:])
	default:
		err = fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	a.tel.Flush(a.ctx)
	switch {
	case errors.Is(err, errUsage):
		_, _ = fmt.Fprintln(stderr, err)
		usage(stderr)
		return 2
	case err != nil:
		l.Error("command failed", slog.String("cmd", args[0]), slog.Any("err", err))
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

func newApp(out io.Writer, l *slog.Logger) (*app, error) {
	cfg, password, err := config.Load()
	if err != nil {
		return nil, err
	}
	// the file may name a log file or level; env values were merged by Load
	applog.Init(cfg.Logging.Options())
	l = applog.WithComponent("cli")
	opts, err := cfg.Editor.Options()
	if err != nil {
		return nil, err
	}
	telCfg := telemetry.FromEnv()
	telCfg.OptIn = telCfg.OptIn || cfg.General.TelemetryOptIn
	a := &app{
		ctx:      context.Background(),
		cfg:      cfg,
		password: password,
		opts:     opts,
		tel:      telemetry.New(telCfg),
		out:      out,
		log:      l,
	}
	if p, err := config.ConfigPath(); err == nil {
		a.crash.Dir = filepath.Join(filepath.Dir(p), "crashes")
	}
	return a, nil
}

// open loads a scene (the demo for an empty path) and an editor on it.
func (a *app) open(path string) (*scene.Loaded, *editor.Editor, *telemetry.Tally, error) {
	var ld *scene.Loaded
	var err error
	if path == "" {
		ld, err = scene.Demo()
	} else {
		ld, err = scene.LoadFile(path)
	}
	if err != nil {
		return nil, nil, nil, err
	}
	a.crash.Source = path
	a.crash.Scene = func() ([]byte, error) { return json.MarshalIndent(ld.Current(), "", "  ") }

	tally := telemetry.NewTally(a.tel)
	opts := a.opts
	opts.Events = tally
	e := editor.New(ld.Scene, ld.Bridge, opts)
	e.Select(ld.Selection...)
	a.log.Info("scene opened", slog.String("scene", path), slog.String("editor", e.ID()),
		slog.Int("selected", len(ld.Selection)))
	return ld, e, tally, nil
}

func (a *app) play(ld *scene.Loaded, in trace.Input) error {
	events, err := trace.Script(ld.Fixture.Gestures)
	if err != nil {
		return err
	}
	return trace.Play(events, in)
}

func (a *app) printScene(ld *scene.Loaded) error {
	b, err := json.MarshalIndent(ld.Current(), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(b))
	return err
}

func (a *app) demo(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("%w: demo takes at most one scene", errUsage)
	}
	ld, e, tally, err := a.open(optArg(args, 0))
	if err != nil {
		return err
	}
	defer e.Close()
	if err := a.play(ld, e); err != nil {
		return err
	}
	flushes, commits := e.Stats()
	a.log.Info("demo finished", slog.Int("gestures", e.Gestures()), slog.Int("flushes", flushes), slog.Int("commits", commits))
	tally.Report()
	return a.printScene(ld)
}

func (a *app) overlay(args []string) error {
	var scenePath, out string
	switch len(args) {
	case 1:
		out = args[0]
	case 2:
		scenePath, out = args[0], args[1]
	default:
		return fmt.Errorf("%w: overlay needs an output file", errUsage)
	}
	ld, e, tally, err := a.open(scenePath)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := a.play(ld, e); err != nil {
		return err
	}
	tally.Report()
	w, h := frameSize(e)
	if err := overlay.WriteFile(out, overlay.Capture(e, w, h), overlay.Style{LabelFont: os.Getenv("GSE_OVERLAY_FONT")}); err != nil {
		return err
	}
	a.log.Info("overlay written", slog.String("path", out), slog.Int("width", w), slog.Int("height", h))
	_, _ = fmt.Fprintln(a.out, "Wrote", out)
	return nil
}

// frameSize covers every scene object plus the stage offset as margin.
func frameSize(e *editor.Editor) (int, int) {
	var maxX, maxY, marginX, marginY float64
	for _, en := range e.Scene().Entries(e.Bridge()) {
		if en.IsRoot() {
			marginX, marginY = math.Max(en.Bounds.X, 0), math.Max(en.Bounds.Y, 0)
		}
		maxX = math.Max(maxX, en.Bounds.Right())
		maxY = math.Max(maxY, en.Bounds.Bottom())
	}
	return max(int(math.Ceil(maxX+marginX)), 1), max(int(math.Ceil(maxY+marginY)), 1)
}

func (a *app) traceDSN(arg string) (string, error) {
	if arg != "" {
		return arg, nil
	}
	return a.cfg.Trace.ResolveDSN(a.password)
}

func (a *app) trace(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: trace needs record, replay or list", errUsage)
	}
	sub, rest := args[0], args[1:]
	var dsnArg string
	switch sub {
	case "record":
		dsnArg = optArg(rest, 1)
	case "replay", "list":
		dsnArg = optArg(rest, 0)
	default:
		return fmt.Errorf("%w: unknown trace command %q", errUsage, sub)
	}
	dsn, err := a.traceDSN(dsnArg)
	if err != nil {
		return err
	}
	st, err := trace.Open(a.ctx, dsn)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	switch sub {
	case "record":
		return a.traceRecord(st, optArg(rest, 0))
	case "replay":
		return a.traceReplay(st, optArg(rest, 1))
	}
	list, err := st.Sessions(a.ctx)
	if err != nil {
		return err
	}
	for _, s := range list {
		_, _ = fmt.Fprintf(a.out, "%s\t%s\t%s\n", s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.App)
	}
	return nil
}

func (a *app) traceRecord(st *trace.Store, scenePath string) error {
	ld, e, tally, err := a.open(scenePath)
	if err != nil {
		return err
	}
	defer e.Close()
	rec, err := trace.NewRecorder(a.ctx, st, e, trace.Session{App: "gosceneeditor " + version.String(), Scene: ld.Raw})
	if err != nil {
		return err
	}
	if err := a.play(ld, rec); err != nil {
		return err
	}
	if err := rec.Close(); err != nil {
		return err
	}
	tally.Report()
	_, _ = fmt.Fprintf(a.out, "Recorded %d events as %s\n", rec.Events(), rec.Session().ID)
	return nil
}

func (a *app) traceReplay(st *trace.Store, id string) error {
	if id == "" {
		latest, err := st.Latest(a.ctx)
		if err != nil {
			return err
		}
		id = latest
	}
	sess, _, err := st.Load(a.ctx, id)
	if err != nil {
		return err
	}
	ld, err := scene.Load(sess.Scene)
	if err != nil {
		return fmt.Errorf("session %s: %w", id, err)
	}
	a.crash.Source = "trace " + id
	e := editor.New(ld.Scene, ld.Bridge, a.opts)
	defer e.Close()
	e.Select(ld.Selection...)
	n, err := trace.Replay(a.ctx, st, id, e)
	if err != nil {
		return err
	}
	a.log.Info("trace replayed", slog.String("session", id), slog.Int("events", n))
	return a.printScene(ld)
}

func optArg(args []string, i int) string {
	if i < len(args) {
		return strings.TrimSpace(args[i])
	}
	return ""
}
