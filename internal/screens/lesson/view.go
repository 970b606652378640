package lesson

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	lsn "github.com/abhisek/mathportal/internal/lesson"
	qz "github.com/abhisek/mathportal/internal/quiz"
	"github.com/abhisek/mathportal/internal/ui/components"
	"github.com/abhisek/mathportal/internal/ui/layout"
	"github.com/abhisek/mathportal/internal/ui/theme"
)

const sidebarWidth = 30

func (s *LessonScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().Width(width).Padding(2, 2).Render(
			theme.Failed.Render("Could not open the lesson") + "\n\n" + theme.Hint.Render(s.errMsg))
	}
	if s.ctrl == nil {
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render("\n\n" + theme.Hint.Render("Loading lesson..."))
	}

	snap := s.ctrl.Snapshot()
	var top strings.Builder
	top.WriteString(components.NewProgressBar("Progress", snap.Percent, true, min(width-4, 72)).View())
	top.WriteString("  " + theme.Hint.Render("Time "+qz.FormatElapsed(snap.TimeSpent)))
	if line := s.renderSyncLine(); line != "" {
		top.WriteString("\n" + line)
	}
	top.WriteString("\n" + layout.Rule(width-4) + "\n")

	sidebar := lipgloss.NewStyle().Width(sidebarWidth).Render(s.menu.View())
	body := lipgloss.NewStyle().
		Width(max(width-sidebarWidth-6, 20)).
		PaddingLeft(2).
		Render(s.renderSection(s.activeSection()))

	out := top.String() + lipgloss.JoinHorizontal(lipgloss.Top, sidebar, body)
	if s.notice != "" {
		out += "\n\n" + theme.Warn.Render(s.notice)
	}
	return out
}

func (s *LessonScreen) renderSyncLine() string {
	st := s.syncStatus()
	switch {
	case st.at.IsZero():
		return ""
	case st.err != nil:
		return theme.Warn.Render("Offline: progress is saved on this device and will sync later")
	default:
		return theme.Hint.Render("Synced at " + st.at.Format("15:04:05"))
	}
}

func (s *LessonScreen) renderSection(sec lsn.Section) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(sec.Title) + "\n\n")

	snap := s.ctrl.Snapshot()
	switch sec.Kind {
	case lsn.KindIntro, lsn.KindContent:
		text := sec.Body
		if text == "" {
			text = theme.Hint.Render("Nothing here yet.")
		}
		b.WriteString(text + "\n")
	case lsn.KindVideo:
		if sec.Body == "" {
			b.WriteString(theme.Hint.Render("This lesson has no video.") + "\n")
		} else {
			b.WriteString("Watch: " + sec.Body + "\n")
		}
	case lsn.KindInteractive:
		b.WriteString(renderFigure(sec.Figure))
	case lsn.KindQuiz:
		b.WriteString("Test what you learned. The lesson is complete once you pass.\n\n")
		b.WriteString(components.ButtonRow(components.Button{Key: "Enter", Label: "Open quiz", Active: true}) + "\n")
	}

	if sec.Kind.SupportsPartialCredit() && !snap.IsCompleted(sec.ID) {
		fmt.Fprintf(&b, "\n%s\n", components.NewProgressBar("Section", int(snap.Partial[sec.ID]*100), true, 40).View())
	}
	if snap.IsCompleted(sec.ID) {
		b.WriteString("\n" + theme.Done.Render("✓ Completed") + "\n")
	}
	return b.String()
}

func renderFigure(f *lsn.Figure) string {
	if f == nil {
		return theme.Hint.Render("Figure unavailable.") + "\n"
	}
	toolbar := "hidden"
	if f.ShowToolbar {
		toolbar = "shown"
	}
	return fmt.Sprintf("Interactive geometry figure #%d\nCanvas %dx%d, toolbar %s\n%s\n",
		f.ID, f.Width, f.Height, toolbar,
		theme.Hint.Render("Open it in the web portal to explore; mark it done here when finished."))
}
