package tui

import (
	"fmt"
	"strings"

	"stencil/internal/domain"
)

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder
	snap := m.Snapshot
	view := snap.View

	b.WriteString(TitleStyle.Render("Stencil Maker"))
	b.WriteString("\n\n")

	if m.path != "" {
		b.WriteString(InfoStyle.Render("File: " + m.path))
		b.WriteString("\n")
	}
	b.WriteString(InfoStyle.Render("Stage: " + stageLabel(snap.State.Stage)))
	b.WriteString("\n\n")

	if view.StatusText != "" {
		status := view.StatusText
		if view.LoaderVisible {
			status = "... " + status
		}
		if snap.State.Stage == domain.StageError {
			b.WriteString(ErrorStyle.Render(status))
		} else {
			b.WriteString(StatusStyle.Render(status))
		}
		b.WriteString("\n")
	}
	if view.Alert != "" {
		b.WriteString(ErrorStyle.Render(view.Alert))
		b.WriteString("\n")
	}
	if view.PreviewURL != "" {
		b.WriteString(InfoStyle.Render("Uploaded: " + view.PreviewURL))
		b.WriteString("\n")
	}

	if view.ResultURL != "" {
		var box strings.Builder
		box.WriteString(HighlightStyle.Render("Result"))
		box.WriteString("\n\n")
		box.WriteString(fmt.Sprintf("Kind: %s\n", view.ResultKind))
		box.WriteString(fmt.Sprintf("URL:  %s\n", view.DisplayURL))
		if snap.Download != nil && snap.Download.Saved() {
			box.WriteString(fmt.Sprintf("Saved: %s", snap.Download.Location))
		}
		b.WriteString("\n")
		b.WriteString(BoxStyle.Render(box.String()))
		b.WriteString("\n")
	}

	if len(m.Logs) > 0 {
		b.WriteString("\n")
		b.WriteString(InfoStyle.Render("Recent activity:"))
		b.WriteString("\n")
		for _, line := range m.Logs {
			b.WriteString(InfoStyle.Render("   " + line))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(InfoStyle.Render(m.footer()))
	return b.String()
}

func (m Model) footer() string {
	view := m.Snapshot.View
	var keys []string
	if m.path != "" && !m.Snapshot.State.Busy() {
		keys = append(keys, "'u' upload")
	}
	if view.GenerateEnabled && !view.GenerateHidden {
		keys = append(keys, "'g' "+strings.ToLower(view.GenerateLabel))
	}
	if view.ResultURL != "" {
		keys = append(keys, "'d' "+strings.ToLower(view.DownloadLabel))
	}
	if view.ResetVisible || m.Snapshot.State.Stage != domain.StageIdle {
		keys = append(keys, "'r' reset")
	}
	keys = append(keys, "'q' quit")
	return "Press " + strings.Join(keys, " | ")
}
