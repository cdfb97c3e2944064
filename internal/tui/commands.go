package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"stencil/internal/domain"
)

func selectFile(ctx context.Context, ctrl Controller, path string) tea.Cmd {
	return func() tea.Msg {
		file, err := domain.LoadLocalFile(path)
		if err != nil {
			return ActionDoneMsg{Action: "upload", Err: err}
		}
		return ActionDoneMsg{Action: "upload", Err: ctrl.SelectFile(ctx, file)}
	}
}

func generate(ctx context.Context, ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		return ActionDoneMsg{Action: "generate", Err: ctrl.Generate(ctx)}
	}
}

func downloadResult(ctx context.Context, ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		out, err := ctrl.Download(ctx)
		return DownloadDoneMsg{Outcome: out, Err: err}
	}
}
