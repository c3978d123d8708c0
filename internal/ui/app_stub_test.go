//go:build !fyne

package ui

import (
	"errors"
	"strings"
	"testing"
)

func TestRunWithoutFyneTag(t *testing.T) {
	err := Run("scene.json")
	if !errors.Is(err, ErrNoUI) {
		t.Fatalf("Run() = %v, want ErrNoUI", err)
	}
	if !strings.Contains(err.Error(), "-tags fyne ./cmd/gosceneeditor ui") {
		t.Fatalf("message lacks the rebuild hint: %q", err)
	}
}
