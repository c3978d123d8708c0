/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package overlay

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
	"gosceneeditor/internal/bridge"
	"gosceneeditor/internal/editor"
	"gosceneeditor/internal/geom"
	"gosceneeditor/internal/scene"
	"gosceneeditor/internal/snap"
	"gosceneeditor/internal/target"
)

func captureOne(t *testing.T) Frame {
	t.Helper()
	s := scene.New("root", 280, 180)
	for _, n := range []*scene.Node{
		scene.NewNode("a", target.DefaultState(100, 100, 50, 50)),
		scene.NewNode("b", target.DefaultState(200, 20, 30, 30)),
	} {
		if err := s.Add(s.Root, n); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	e := editor.New(s, bridge.New(scene.NewElement("canvas", geom.P(0, 0))), editor.Options{})
	t.Cleanup(e.Close)
	if err := e.SelectIDs("a"); err != nil {
		t.Fatalf("select: %v", err)
	}
	return Capture(e, 300, 200)
}

func TestCapture(t *testing.T) {
	f := captureOne(t)
	if f.Stage != geom.R(0, 0, 280, 180) {
		t.Fatalf("stage = %+v", f.Stage)
	}
	if len(f.Objects) != 1 || f.Objects[0].ID != "b" {
		t.Fatalf("objects = %+v", f.Objects)
	}
	if len(f.Targets) != 1 || f.Targets[0].ID != "a" {
		t.Fatalf("targets = %+v", f.Targets)
	}
	// eight resize handles and the anchor; the tack only shows on small targets
	if n := len(f.Targets[0].Handles); n != 9 {
		t.Fatalf("drawn handles = %d, want 9", n)
	}
	if got := f.Targets[0].Outline[0]; !got.Near(geom.P(100.5, 100.5), 1e-9) {
		t.Fatalf("outline corner = %v", got)
	}
}

func isColor(c color.Color, want color.RGBA) bool {
	r, g, b, _ := c.RGBA()
	d := func(x uint32, y uint8) bool {
		v := int(x>>8) - int(y)
		return v > -8 && v < 8
	}
	return d(r, want.R) && d(g, want.G) && d(b, want.B)
}

func TestRasterize(t *testing.T) {
	f := captureOne(t)
	img, err := Rasterize(f, Style{})
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}
	if got := img.At(100, 112); !isColor(got, DefaultStyle.Outline) {
		t.Fatalf("outline pixel = %v", got)
	}
	if got := img.At(290, 190); !isColor(got, DefaultStyle.Background) {
		t.Fatalf("background pixel = %v", got)
	}
	if got := img.At(149, 149); !isColor(got, DefaultStyle.HandleFill) {
		t.Fatalf("handle fill pixel = %v", got)
	}

	g := Frame{Width: 100, Height: 100, Guides: []snap.Guide{{Orientation: snap.Vertical, From: geom.P(50, 0), To: geom.P(50, 100)}}}
	img, err = Rasterize(g, Style{Stroke: 2})
	if err != nil {
		t.Fatalf("rasterize guides: %v", err)
	}
	if got := img.At(49, 50); !isColor(got, DefaultStyle.Guide) {
		t.Fatalf("guide pixel = %v", got)
	}
	if _, err := Rasterize(Frame{}, Style{}); err == nil {
		t.Fatalf("empty frame must fail")
	}
}

func TestRenderFormats(t *testing.T) {
	f := captureOne(t)
	f.Guides = []snap.Guide{{Orientation: snap.Horizontal, From: geom.P(0, 100), To: geom.P(280, 100)}}

	var pngBuf bytes.Buffer
	if err := Render(&pngBuf, "PNG", f, Style{}); err != nil {
		t.Fatalf("png: %v", err)
	}
	img, err := png.Decode(&pngBuf)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 300 || b.Dy() != 200 {
		t.Fatalf("png size = %v", b)
	}

	var pdfBuf bytes.Buffer
	if err := Render(&pdfBuf, "pdf", f, Style{}); err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(pdfBuf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("pdf output lacks header")
	}

	var svgBuf bytes.Buffer
	if err := Render(&svgBuf, "svg", f, Style{HideLabels: true}); err != nil {
		t.Fatalf("svg: %v", err)
	}
	svg := svgBuf.String()
	for _, want := range []string{`class="guide"`, `data-op="rightbottom"`, `class="anchor"`, `data-id="b"`, `class="outline" points="100.5,100.5`} {
		if !strings.Contains(svg, want) {
			t.Fatalf("svg lacks %s:\n%s", want, svg)
		}
	}
	if strings.Contains(svg, "<text") {
		t.Fatalf("labels must be hidden")
	}

	if err := Render(&svgBuf, "bmp", f, Style{}); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("err = %v, want ErrUnknownFormat", err)
	}
}

func TestWriteFile(t *testing.T) {
	f := captureOne(t)
	dir := filepath.Join(t.TempDir(), "out")
	path := filepath.Join(dir, "overlay.svg")
	if err := WriteFile(path, f, Style{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Contains(data, []byte("<svg")) {
		t.Fatalf("not an svg file")
	}
	if err := WriteFile(filepath.Join(dir, "overlay.gif"), f, Style{}); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("err = %v, want ErrUnknownFormat", err)
	}
}

func TestEscapeText(t *testing.T) {
	if got := escText(`a<b & "c">`); got != "a&lt;b &amp; &quot;c&quot;&gt;" {
		t.Fatalf("escText = %q", got)
	}
}

func TestLabelFont(t *testing.T) {
	path := filepath.Join(t.TempDir(), "go.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0o644); err != nil {
		t.Fatalf("write font: %v", err)
	}
	f := captureOne(t)
	if _, err := Rasterize(f, Style{LabelFont: path, LabelSize: 12}); err != nil {
		t.Fatalf("rasterize with font: %v", err)
	}
	a, err := LoadFont(path)
	if err != nil {
		t.Fatalf("load font: %v", err)
	}
	if b, _ := LoadFont(path); b != a {
		t.Fatalf("font not cached")
	}

	missing := Style{LabelFont: filepath.Join(t.TempDir(), "none.ttf")}
	if _, err := Rasterize(f, missing); err == nil {
		t.Fatalf("missing font must fail when labels are drawn")
	}
	missing.HideLabels = true
	if _, err := Rasterize(f, missing); err != nil {
		t.Fatalf("hidden labels ignore the font: %v", err)
	}
}
