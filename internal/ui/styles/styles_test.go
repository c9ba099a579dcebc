// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	m.Run()
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		width    int
		fraction float64
		want     string
	}{
		{10, 0, "----------"},
		{10, 1, "##########"},
		{10, 0.5, "#####-----"},
		{4, 2, "####"},
		{4, -1, "----"},
		{0, 0.5, ""},
	}
	for _, tt := range tests {
		if got := RenderBar(tt.width, tt.fraction); got != tt.want {
			t.Errorf("RenderBar(%d, %v) = %q, want %q", tt.width, tt.fraction, got, tt.want)
		}
	}

	// partial cells keep the total width
	if got := RenderBar(10, 0.55); len(got) != 10 || !strings.HasPrefix(got, "#####") {
		t.Errorf("RenderBar(10, 0.55) = %q", got)
	}
}

func TestRenderStatus(t *testing.T) {
	if got := RenderSuccess("saved"); !strings.Contains(got, "[OK] saved") {
		t.Errorf("RenderSuccess = %q", got)
	}
	if got := RenderError("failed"); !strings.Contains(got, "[X] failed") {
		t.Errorf("RenderError = %q", got)
	}
	if got := RenderWarning("soon"); !strings.Contains(got, "[!] soon") {
		t.Errorf("RenderWarning = %q", got)
	}
	if got := RenderInfo("note"); !strings.Contains(got, "[i] note") {
		t.Errorf("RenderInfo = %q", got)
	}
}

func TestProjectColor(t *testing.T) {
	if ProjectColor("eolien") != Sky {
		t.Error("wind projects should use Sky")
	}
	if ProjectColor("solaire") != Sun {
		t.Error("solar projects should use Sun")
	}
}

func TestTheme_LayoutMode(t *testing.T) {
	th := NewTheme(ModeDark)
	if !th.IsDark {
		t.Error("ModeDark should force IsDark")
	}
	for _, tt := range []struct {
		width int
		want  LayoutMode
	}{{40, LayoutNarrow}, {80, LayoutMedium}, {120, LayoutWide}} {
		th.SetSize(tt.width, 30)
		if got := th.GetLayoutMode(); got != tt.want {
			t.Errorf("width %d: layout = %v, want %v", tt.width, got, tt.want)
		}
	}

	if NewTheme(ModeLight).IsDark {
		t.Error("ModeLight should not be dark")
	}
}
