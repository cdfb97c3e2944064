package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"stencil/internal/domain"
	"stencil/internal/download"
	"stencil/internal/playground"
)

const maxLogs = 6

// Controller is the playground surface the terminal UI drives.
type Controller interface {
	SelectFile(ctx context.Context, file domain.LocalFile) error
	Generate(ctx context.Context) error
	Reset()
	Download(ctx context.Context) (download.Outcome, error)
	Snapshot() playground.Snapshot
}

// Model renders controller snapshots and maps keys to controller actions.
type Model struct {
	ctx  context.Context
	ctrl Controller
	path string

	Snapshot playground.Snapshot
	Logs     []string
	Err      error
}

// NewModel creates a model for the image at path. An empty path disables
// the upload key.
func NewModel(ctx context.Context, ctrl Controller, path string) Model {
	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		path:     path,
		Snapshot: ctrl.Snapshot(),
	}
}

// Init uploads the configured file straight away, like picking it in a page.
func (m Model) Init() tea.Cmd {
	if m.path == "" {
		return nil
	}
	return selectFile(m.ctx, m.ctrl, m.path)
}

// AddLog appends an activity line, keeping the most recent few.
func (m Model) AddLog(line string) Model {
	m.Logs = append(m.Logs, line)
	if len(m.Logs) > maxLogs {
		m.Logs = m.Logs[len(m.Logs)-maxLogs:]
	}
	return m
}

var titleCaser = cases.Title(language.English)

// stageLabel renders a stage as a capitalized word, e.g. "Processing".
func stageLabel(stage domain.Stage) string {
	return titleCaser.String(string(stage))
}

// Run starts the full-screen program and forwards controller changes to it.
// Snapshots are sent asynchronously because Reset notifies from inside
// Update; the model drops any that arrive out of order.
func Run(ctx context.Context, ctrl *playground.Controller, path string, opts ...tea.ProgramOption) error {
	p := tea.NewProgram(NewModel(ctx, ctrl, path), opts...)
	ctrl.Subscribe(func(s playground.Snapshot) {
		go p.Send(SnapshotMsg{Snapshot: s})
	})
	_, err := p.Run()
	return err
}
