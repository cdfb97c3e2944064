package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case SnapshotMsg:
		if msg.Snapshot.Version >= m.Snapshot.Version {
			m.Snapshot = msg.Snapshot
		}
		return m, nil
	case ActionDoneMsg:
		return m.handleActionDone(msg)
	case DownloadDoneMsg:
		return m.handleDownloadDone(msg)
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	view := m.Snapshot.View
	switch msg.String() {
	case "ctrl+c", "q":
		m.ctrl.Reset()
		return m, tea.Quit
	case "u":
		if m.path == "" || m.Snapshot.State.Busy() {
			return m, nil
		}
		m.Err = nil
		m = m.AddLog("Uploading " + m.path)
		return m, selectFile(m.ctx, m.ctrl, m.path)
	case "g":
		if !view.GenerateEnabled || view.GenerateHidden {
			return m, nil
		}
		m.Err = nil
		m = m.AddLog("Submitting job")
		return m, generate(m.ctx, m.ctrl)
	case "d":
		if !view.DownloadEnabled {
			return m, nil
		}
		m = m.AddLog("Downloading result")
		return m, downloadResult(m.ctx, m.ctrl)
	case "r":
		m.ctrl.Reset()
		m.Err = nil
		m.Snapshot = m.ctrl.Snapshot()
		return m.AddLog("Reset"), nil
	}
	return m, nil
}

func (m Model) handleActionDone(msg ActionDoneMsg) (tea.Model, tea.Cmd) {
	m.Snapshot = m.ctrl.Snapshot()
	if msg.Err != nil {
		m.Err = msg.Err
		return m.AddLog(fmt.Sprintf("%s failed: %v", msg.Action, msg.Err)), nil
	}
	switch msg.Action {
	case "upload":
		m = m.AddLog("Upload complete")
	case "generate":
		m = m.AddLog("Result ready")
	}
	return m, nil
}

func (m Model) handleDownloadDone(msg DownloadDoneMsg) (tea.Model, tea.Cmd) {
	m.Snapshot = m.ctrl.Snapshot()
	if msg.Err != nil {
		m.Err = msg.Err
		return m.AddLog(fmt.Sprintf("download failed: %v", msg.Err)), nil
	}
	if msg.Outcome.Saved() {
		return m.AddLog(fmt.Sprintf("Saved %s via %s", msg.Outcome.Location, msg.Outcome.Strategy)), nil
	}
	if msg.Outcome.Hint != "" {
		return m.AddLog(msg.Outcome.Hint), nil
	}
	return m.AddLog("Opened result link"), nil
}
