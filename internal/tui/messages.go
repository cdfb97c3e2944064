package tui

import (
	"stencil/internal/download"
	"stencil/internal/playground"
)

// SnapshotMsg carries a controller state change into the program.
type SnapshotMsg struct {
	Snapshot playground.Snapshot
}

// ActionDoneMsg is sent when an upload or generate call returns.
type ActionDoneMsg struct {
	Action string
	Err    error
}

// DownloadDoneMsg is sent when the download cascade finishes.
type DownloadDoneMsg struct {
	Outcome download.Outcome
	Err     error
}
