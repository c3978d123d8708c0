/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


package overlay

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// parsed OpenType fonts by path; faces are cheap to derive from them
var (
	fontMu    sync.Mutex
	fontCache = map[string]*opentype.Font{}
)

// LoadFont parses the TTF/OTF file at path, caching the result.
func LoadFont(path string) (*opentype.Font, error) {
	fontMu.Lock()
	defer fontMu.Unlock()
	if f, ok := fontCache[path]; ok {
		return f, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	fontCache[path] = f
	return f, nil
}

// labelFace resolves the face used for target labels. Without a LabelFont, or
// when it cannot be loaded, the built-in 7x13 bitmap face is used.
func labelFace(st Style) (font.Face, error) {
	if st.LabelFont == "" {
		return basicfont.Face7x13, nil
	}
	f, err := LoadFont(st.LabelFont)
	if err != nil {
		return basicfont.Face7x13, err
	}
	size := st.LabelSize
	if size <= 0 {
		size = 9
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return basicfont.Face7x13, fmt.Errorf("font face %s: %w", st.LabelFont, err)
	}
	return face, nil
}
