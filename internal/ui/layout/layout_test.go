package layout

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
)

func TestIsTooSmall(t *testing.T) {
	tests := []struct {
		w, h int
		want bool
	}{
		{80, 24, false},
		{MinWidth, MinHeight, false},
		{MinWidth - 1, 40, true},
		{120, MinHeight - 1, true},
	}
	for _, tt := range tests {
		if got := IsTooSmall(tt.w, tt.h); got != tt.want {
			t.Errorf("IsTooSmall(%d, %d) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestRenderHeader(t *testing.T) {
	h := RenderHeader("Angles", "45%", 80)
	for _, want := range []string{"mathportal", "Angles", "45%"} {
		if !strings.Contains(h, want) {
			t.Errorf("header missing %q: %q", want, h)
		}
	}
}

func TestRenderFooter(t *testing.T) {
	f := RenderFooter([]KeyHint{{Key: "Enter", Description: "Open"}, {Key: "Esc", Description: "Back"}}, 80)
	if !strings.Contains(f, "Enter") || !strings.Contains(f, "Back") {
		t.Errorf("footer = %q", f)
	}
}

func TestRenderFrameHeight(t *testing.T) {
	header := RenderHeader("t", "", 80)
	footer := RenderFooter(nil, 80)
	frame := RenderFrame(header, "body", footer, 80, 30)
	if got := lipgloss.Height(frame); got != 30 {
		t.Errorf("frame height = %d, want 30", got)
	}
}
