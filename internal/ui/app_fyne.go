//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"gosceneeditor/internal/config"
	"gosceneeditor/internal/crash"
	"gosceneeditor/internal/geom"
	"gosceneeditor/internal/handle"
	applog "gosceneeditor/internal/log"
	"gosceneeditor/internal/overlay"
	"gosceneeditor/internal/scene"
	"gosceneeditor/internal/solver"
	"gosceneeditor/internal/telemetry"
	"gosceneeditor/internal/trace"
)

// Run opens the scene at scenePath (the bundled demo when empty) in a window.
func Run(scenePath string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("scene", scenePath))

	cfg, password, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applog.Init(cfg.Logging.Options())
	l = applog.WithComponent("ui")
	opts, err := cfg.Editor.Options()
	if err != nil {
		return err
	}
	var ld *scene.Loaded
	if scenePath == "" {
		ld, err = scene.Demo()
	} else {
		ld, err = scene.LoadFile(scenePath)
	}
	if err != nil {
		return err
	}

	cfgPath, _ := config.ConfigPath()
	defer crash.Recover(&crash.Context{
		Dir:    filepath.Join(filepath.Dir(cfgPath), "crashes"),
		Source: scenePath,
		Scene:  func() ([]byte, error) { return json.MarshalIndent(ld.Current(), "", "  ") },
	})

	telCfg := telemetry.FromEnv()
	telCfg.OptIn = telCfg.OptIn || cfg.General.TelemetryOptIn
	tel := telemetry.New(telCfg)
	defer tel.Close()

	host := NewHost(ld, opts, tel)
	if cfg.Trace.Enabled {
		dsn, err := cfg.Trace.ResolveDSN(password)
		if err != nil {
			return err
		}
		st, err := trace.Open(context.Background(), dsn)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()
		if err := host.Record(context.Background(), st); err != nil {
			return err
		}
	}

	fyneApp := app.NewWithID("gosceneeditor")
	w := fyneApp.NewWindow("Go Scene Editor")
	prefs := fyneApp.Preferences()
	w.Resize(fyne.NewSize(float32(max(prefs.IntWithFallback("window.width", 1000), 640)),
		float32(max(prefs.IntWithFallback("window.height", 700), 480))))

	status := widget.NewLabel(host.Status())
	sc := NewSceneCanvas(host)
	sc.OnChange = func() { status.SetText(host.Status()) }

	snapCheck := widget.NewCheck("Snap", func(on bool) { host.Editor.SetSnapEnabled(on) })
	snapCheck.SetChecked(cfg.Editor.SnapEnabled)
	gridSelect := widget.NewSelect([]string{"off", "10", "20", "50"}, func(v string) {
		pitch, _ := strconv.ParseFloat(v, 64)
		host.Editor.SetGridPitch(pitch)
	})
	gridSelect.SetSelected("off")
	if cfg.Editor.GridPitch > 0 {
		gridSelect.SetSelected(strconv.FormatFloat(cfg.Editor.GridPitch, 'f', -1, 64))
	}
	labels := widget.NewCheck("Labels", func(on bool) {
		sc.style.HideLabels = !on
		sc.Refresh()
	})
	labels.SetChecked(true)

	exportBtn := widget.NewButton("Export overlay…", func() {
		d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
			if err != nil || wc == nil {
				return
			}
			defer func() { _ = wc.Close() }()
			ext := strings.TrimPrefix(strings.ToLower(wc.URI().Extension()), ".")
			size := sc.Size()
			if err := overlay.Render(wc, ext, host.Frame(int(size.Width), int(size.Height)), sc.style); err != nil {
				l.Error("overlay export failed", slog.Any("err", err))
				dialog.ShowError(err, w)
				return
			}
			status.SetText("Exported " + wc.URI().Name())
		}, w)
		d.SetFileName("overlay.png")
		d.Show()
	})

	toolbar := container.NewHBox(snapCheck, widget.NewLabel("Grid"), gridSelect, labels, exportBtn)
	w.SetContent(container.NewBorder(toolbar, status, nil, nil, sc))
	frames := make(chan struct{})
	go driveFrames(host, sc, frames)
	w.SetOnClosed(func() {
		close(frames)
		size := w.Canvas().Size()
		prefs.SetInt("window.width", int(size.Width))
		prefs.SetInt("window.height", int(size.Height))
	})
	w.Canvas().Focus(sc)
	w.ShowAndRun()

	err = host.Close()
	tel.Flush(context.Background())
	l.Info("UI closed", slog.Int("gestures", host.Editor.Gestures()))
	return err
}

// frameRate is how often pending node writes are committed while dragging.
const frameRate = 60

// driveFrames commits the host once per frame on the UI goroutine until done
// is closed.
func driveFrames(host *Host, sc *SceneCanvas, done <-chan struct{}) {
	t := time.NewTicker(time.Second / frameRate)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			fyne.Do(func() { frame(host, sc) })
		}
	}
}

// frame commits one frame's worth of pending writes and redraws when any
// target changed.
func frame(host *Host, sc *SceneCanvas) {
	if host.Tick() > 0 {
		sc.changed()
	}
}

// SceneCanvas feeds desktop input into a Host and draws its overlay frame.
// Widget coordinates are the editor's window coordinates.
type SceneCanvas struct {
	widget.BaseWidget

	host   *Host
	style  overlay.Style
	shift  bool
	cursor handle.Cursor

	OnChange func()
}

var (
	_ desktop.Mouseable  = (*SceneCanvas)(nil)
	_ desktop.Hoverable  = (*SceneCanvas)(nil)
	_ desktop.Keyable    = (*SceneCanvas)(nil)
	_ desktop.Cursorable = (*SceneCanvas)(nil)
	_ fyne.Draggable     = (*SceneCanvas)(nil)
)

func NewSceneCanvas(h *Host) *SceneCanvas {
	sc := &SceneCanvas{host: h, style: overlay.DefaultStyle}
	sc.ExtendBaseWidget(sc)
	return sc
}

func toPt(p fyne.Position) geom.Pt { return geom.P(float64(p.X), float64(p.Y)) }

func (c *SceneCanvas) changed() {
	c.Refresh()
	if c.OnChange != nil {
		c.OnChange()
	}
}

func (c *SceneCanvas) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	if cv := fyne.CurrentApp().Driver().CanvasForObject(c); cv != nil {
		cv.Focus(c)
	}
	c.host.Press(toPt(e.Position), e.Modifier&fyne.KeyModifierShift != 0)
	c.changed()
}

func (c *SceneCanvas) MouseUp(e *desktop.MouseEvent) {
	p := toPt(e.Position)
	c.host.Release(&p)
	c.changed()
}

func (c *SceneCanvas) Dragged(e *fyne.DragEvent) {
	c.host.Drag(toPt(e.Position))
	c.Refresh()
}

func (c *SceneCanvas) DragEnd() {
	c.host.Release(nil)
	c.changed()
}

func (c *SceneCanvas) MouseIn(e *desktop.MouseEvent) { c.MouseMoved(e) }
func (c *SceneCanvas) MouseOut()                     {}

func (c *SceneCanvas) MouseMoved(e *desktop.MouseEvent) {
	if cur := c.host.Hover(toPt(e.Position)); cur != c.cursor {
		c.cursor = cur
		c.Refresh()
	}
}

func (c *SceneCanvas) Cursor() desktop.Cursor {
	switch c.cursor {
	case handle.CursorMove:
		return desktop.PointerCursor
	case handle.CursorCrosshair, handle.CursorRotate:
		return desktop.CrosshairCursor
	case handle.CursorEW:
		return desktop.HResizeCursor
	case handle.CursorNS:
		return desktop.VResizeCursor
	case handle.CursorNWSE, handle.CursorNESW:
		return desktop.CrosshairCursor
	}
	return desktop.DefaultCursor
}

func (c *SceneCanvas) FocusGained()              {}
func (c *SceneCanvas) FocusLost()                { c.KeyUp(&fyne.KeyEvent{}) }
func (c *SceneCanvas) TypedRune(_ rune)          {}
func (c *SceneCanvas) TypedKey(_ *fyne.KeyEvent) {}

var arrowKeys = map[fyne.KeyName]handle.Key{
	fyne.KeyUp:    handle.KeyUp,
	fyne.KeyDown:  handle.KeyDown,
	fyne.KeyLeft:  handle.KeyLeft,
	fyne.KeyRight: handle.KeyRight,
}

// KeyDown nudges on arrows; shift selects the fast step.
func (c *SceneCanvas) KeyDown(e *fyne.KeyEvent) {
	switch e.Name {
	case desktop.KeyShiftLeft, desktop.KeyShiftRight:
		c.shift = true
		return
	}
	if k, ok := arrowKeys[e.Name]; ok {
		c.host.Key(k, c.shift)
		c.changed()
	}
}

// KeyUp ends the keyboard gesture when an arrow is released.
func (c *SceneCanvas) KeyUp(e *fyne.KeyEvent) {
	switch e.Name {
	case desktop.KeyShiftLeft, desktop.KeyShiftRight:
		c.shift = false
		return
	}
	if _, ok := arrowKeys[e.Name]; ok || e.Name == "" {
		c.host.KeyUp()
		c.changed()
	}
}

func (c *SceneCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(c.style.Background)
	return &sceneCanvasRenderer{c: c, bg: bg, objects: []fyne.CanvasObject{bg}}
}

// sceneCanvasRenderer rebuilds its objects from a fresh overlay frame on
// every refresh.
type sceneCanvasRenderer struct {
	c       *SceneCanvas
	bg      *canvas.Rectangle
	objects []fyne.CanvasObject
}

func (r *sceneCanvasRenderer) Destroy()                     {}
func (r *sceneCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *sceneCanvasRenderer) MinSize() fyne.Size           { return fyne.NewSize(320, 240) }
func (r *sceneCanvasRenderer) Refresh()                     { r.Layout(r.c.Size()); canvas.Refresh(r.c) }

func (r *sceneCanvasRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	f := r.c.host.Frame(int(size.Width), int(size.Height))
	r.objects = append([]fyne.CanvasObject{r.bg}, frameObjects(f, r.c.style)...)
}

func pos(p geom.Pt) fyne.Position { return fyne.NewPos(float32(p.X), float32(p.Y)) }

func strokeRect(rc geom.Rect, col color.Color, width float64) *canvas.Rectangle {
	o := canvas.NewRectangle(color.Transparent)
	o.StrokeColor = col
	o.StrokeWidth = float32(width)
	o.Move(fyne.NewPos(float32(rc.X), float32(rc.Y)))
	o.Resize(fyne.NewSize(float32(rc.W), float32(rc.H)))
	return o
}

func line(a, b geom.Pt, col color.Color, width float64) *canvas.Line {
	l := canvas.NewLine(col)
	l.StrokeWidth = float32(width)
	l.Position1, l.Position2 = pos(a), pos(b)
	return l
}

func circle(center geom.Pt, r float64, col color.Color) *canvas.Circle {
	o := canvas.NewCircle(col)
	o.Position1 = pos(center.Sub(geom.P(r, r)))
	o.Position2 = pos(center.Add(geom.P(r, r)))
	return o
}

// frameObjects turns an overlay frame into fyne primitives, stage first and
// handles last.
func frameObjects(f overlay.Frame, st overlay.Style) []fyne.CanvasObject {
	var out []fyne.CanvasObject
	if f.Stage.W > 0 && f.Stage.H > 0 {
		out = append(out, strokeRect(f.Stage, st.Stage, st.Stroke))
	}
	for _, o := range f.Objects {
		out = append(out, strokeRect(o.Bounds, st.Object, st.Stroke))
	}
	for _, g := range f.Guides {
		out = append(out, line(g.From, g.To, st.Guide, st.Stroke))
	}
	half := st.HandleSize / 2
	for _, t := range f.Targets {
		for i := range t.Outline {
			out = append(out, line(t.Outline[i], t.Outline[(i+1)%4], st.Outline, st.Stroke))
		}
		for _, h := range t.Handles {
			switch h.Op {
			case solver.OpAnchor:
				out = append(out, circle(h.Pos, half, st.Anchor))
			case solver.OpTack:
				out = append(out, circle(h.Pos, half, st.Handle))
			default:
				sq := canvas.NewRectangle(st.HandleFill)
				sq.StrokeColor = st.Handle
				sq.StrokeWidth = float32(st.Stroke)
				sq.Move(pos(h.Pos.Sub(geom.P(half, half))))
				sq.Resize(fyne.NewSize(float32(st.HandleSize), float32(st.HandleSize)))
				out = append(out, sq)
			}
		}
		if !st.HideLabels {
			txt := canvas.NewText(t.ID, st.Label)
			txt.TextSize = 10
			txt.Move(pos(t.Outline[0].Sub(geom.P(0, 14))))
			out = append(out, txt)
		}
	}
	return out
}
