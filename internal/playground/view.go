package playground

import (
	"strconv"
	"time"

	"stencil/internal/domain"
	"stencil/internal/download"
)

const (
	GenerateLabel    = "Generate Stencil"
	DownloadLabel    = "Download"
	DownloadingLabel = "Downloading..."
)

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	Version     uint64                `json:"version"`
	State       domain.UIState        `json:"state"`
	SessionID   string                `json:"session_id,omitempty"`
	FileName    string                `json:"file_name,omitempty"`
	UploadedURL string                `json:"uploaded_url,omitempty"`
	Job         *domain.GenerationJob `json:"job,omitempty"`
	ResultURL   string                `json:"result_url,omitempty"`
	Downloading bool                  `json:"downloading"`
	Download    *download.Outcome     `json:"download,omitempty"`
	View        View                  `json:"view"`
}

// View is what a front-end renders for a snapshot.
type View struct {
	LoaderVisible   bool             `json:"loader_visible"`
	StatusText      string           `json:"status_text"`
	GenerateLabel   string           `json:"generate_label"`
	GenerateEnabled bool             `json:"generate_enabled"`
	GenerateHidden  bool             `json:"generate_hidden"`
	PreviewURL      string           `json:"preview_url,omitempty"`
	ResultURL       string           `json:"result_url,omitempty"`
	DisplayURL      string           `json:"display_url,omitempty"`
	ResultKind      domain.MediaKind `json:"result_kind,omitempty"`
	ResetVisible    bool             `json:"reset_visible"`
	DownloadEnabled bool             `json:"download_enabled"`
	DownloadLabel   string           `json:"download_label"`
	Alert           string           `json:"alert,omitempty"`
}

// StatusText is the loader caption for a state.
func StatusText(s domain.UIState) string {
	switch s.Stage {
	case domain.StageUploading:
		return "UPLOADING..."
	case domain.StageReady:
		return "READY"
	case domain.StageSubmitting:
		return "SUBMITTING JOB..."
	case domain.StageProcessing:
		return "PROCESSING... (" + strconv.Itoa(s.Attempt) + ")"
	case domain.StageComplete:
		return "COMPLETE"
	case domain.StageError:
		return "ERROR"
	default:
		return ""
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Version:     c.version,
		State:       c.state,
		ResultURL:   c.resultURL,
		Downloading: c.downloading,
	}
	if c.session != nil {
		snap.SessionID = c.session.ID
		snap.FileName = c.session.File.Name
		snap.UploadedURL = c.session.UploadedURL
	}
	if c.job != nil {
		snap.Job = copyJob(c.job)
	}
	if c.outcome != nil {
		out := *c.outcome
		snap.Download = &out
	}
	snap.View = project(snap, c.displayURL)
	return snap
}

func project(s Snapshot, display string) View {
	v := View{
		StatusText:    StatusText(s.State),
		GenerateLabel: GenerateLabel,
		PreviewURL:    s.UploadedURL,
		DownloadLabel: DownloadLabel,
	}
	switch s.State.Stage {
	case domain.StageUploading, domain.StageSubmitting, domain.StageProcessing:
		v.LoaderVisible = true
		v.GenerateLabel = v.StatusText
	case domain.StageReady:
		v.GenerateEnabled = true
	case domain.StageComplete:
		v.GenerateHidden = true
	case domain.StageError:
		v.GenerateEnabled = true
		v.Alert = "Error: " + s.State.Message
	}
	if s.ResultURL != "" {
		v.ResultURL = s.ResultURL
		v.DisplayURL = display
		v.ResultKind = domain.MediaKindForURL(s.ResultURL)
		v.ResetVisible = true
		v.DownloadEnabled = !s.Downloading
	}
	if s.Downloading {
		v.DownloadLabel = DownloadingLabel
	}
	if s.Download != nil && s.Download.Hint != "" && v.Alert == "" {
		v.Alert = s.Download.Hint
	}
	return v
}

// displayURL cache-busts image results for display. Videos load as-is.
func displayURL(resultURL string, now time.Time) string {
	if domain.MediaKindForURL(resultURL) == domain.MediaKindVideo {
		return resultURL
	}
	return resultURL + "?t=" + strconv.FormatInt(now.UnixMilli(), 10)
}
