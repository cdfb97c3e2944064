package domain

// Stage is the coarse pipeline position shown to the user.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageUploading  Stage = "uploading"
	StageReady      Stage = "ready"
	StageSubmitting Stage = "submitting"
	StageProcessing Stage = "processing"
	StageComplete   Stage = "complete"
	StageError      Stage = "error"
)

// UIState is derived from the session and job; it is never persisted.
// Attempt is only meaningful while processing, Message only on error.
type UIState struct {
	Stage   Stage  `json:"stage"`
	Attempt int    `json:"attempt,omitempty"`
	Message string `json:"message,omitempty"`
}

// Busy reports whether a pipeline action is outstanding in this state.
func (s UIState) Busy() bool {
	switch s.Stage {
	case StageUploading, StageSubmitting, StageProcessing:
		return true
	default:
		return false
	}
}
