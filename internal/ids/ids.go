/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ids generates prefixed, time-sortable identifiers (TypeIDs) for
// editors, adapters, gestures, trace sessions and scene objects.
package ids

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixEditor  = "edt"
	PrefixAdapter = "adp"
	PrefixGesture = "gst"
	PrefixSession = "trc"
	PrefixObject  = "obj"
)

func New(prefix string) string {
	return typeid.MustGenerate(prefix).String()
}

func NewEditorID() string  { return New(PrefixEditor) }
func NewAdapterID() string { return New(PrefixAdapter) }
func NewGestureID() string { return New(PrefixGesture) }
func NewSessionID() string { return New(PrefixSession) }
func NewObjectID() string  { return New(PrefixObject) }

// Validate checks that id parses and carries the expected prefix.
func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
