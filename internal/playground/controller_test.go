package playground

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"stencil/internal/domain"
	"stencil/internal/download"
	"stencil/internal/providers/chroma"
)

type fakePipeline struct {
	uploadURL string
	uploadErr error
	submitErr error
	jobID     string
	polls     int
	result    chroma.CompletedResult
	pollErr   error

	// blockPoll, when set, makes Poll wait until it is closed or ctx ends.
	blockPoll chan struct{}
	polling   chan struct{}

	mu          sync.Mutex
	uploads     int
	submissions []string
}

func (f *fakePipeline) Upload(ctx context.Context, file domain.LocalFile) (string, error) {
	f.mu.Lock()
	f.uploads++
	f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return f.uploadURL, nil
}

func (f *fakePipeline) Submit(ctx context.Context, imageURL string) (*chroma.SubmitResult, error) {
	f.mu.Lock()
	f.submissions = append(f.submissions, imageURL)
	f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &chroma.SubmitResult{JobID: f.jobID, Status: "pending"}, nil
}

func (f *fakePipeline) Poll(ctx context.Context, jobID string, onProgress chroma.ProgressFunc) (chroma.CompletedResult, error) {
	for i := 1; i <= f.polls; i++ {
		onProgress(i)
	}
	if f.blockPoll != nil {
		close(f.polling)
		select {
		case <-f.blockPoll:
		case <-ctx.Done():
			return chroma.CompletedResult{}, ctx.Err()
		}
	}
	if f.pollErr != nil {
		return chroma.CompletedResult{}, f.pollErr
	}
	return f.result, nil
}

func (f *fakePipeline) ModelType() string { return "image-effects" }

type fakeDownloader struct {
	requests []download.Request
	outcome  download.Outcome
}

func (d *fakeDownloader) Download(ctx context.Context, req download.Request) download.Outcome {
	d.requests = append(d.requests, req)
	return d.outcome
}

type memoryHistory struct {
	mu      sync.Mutex
	created []domain.GenerationJob
	updated []domain.GenerationJob
}

func (h *memoryHistory) Create(ctx context.Context, job *domain.GenerationJob) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.created = append(h.created, *job)
	return nil
}

func (h *memoryHistory) UpdateStatus(ctx context.Context, job *domain.GenerationJob) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updated = append(h.updated, *job)
	return nil
}

func (h *memoryHistory) GetByID(ctx context.Context, jobID string) (*domain.GenerationJob, error) {
	return nil, domain.ErrNotFound
}

func (h *memoryHistory) ListRecent(ctx context.Context, limit int) ([]domain.GenerationJob, error) {
	return nil, nil
}

func completed(url string) chroma.CompletedResult {
	return chroma.CompletedResult{
		Status: domain.JobStatusCompleted,
		Result: []chroma.ResultImage{{Image: url}},
	}
}

func imageFile() domain.LocalFile {
	return domain.LocalFile{Name: "cat.png", ContentType: "image/png", Data: []byte("png")}
}

func newTestController(p Pipeline, d Downloader, h domain.JobRepository, observers ...Observer) *Controller {
	return NewController(Options{
		Pipeline:   p,
		Downloader: d,
		History:    h,
		Now:        func() time.Time { return time.UnixMilli(1700000000000) },
		Observers:  observers,
	})
}

func TestControllerHappyPath(t *testing.T) {
	pipeline := &fakePipeline{
		uploadURL: "https://contents.test/abc.png",
		jobID:     "job-1",
		polls:     2,
		result:    completed("https://cdn.test/out.png"),
	}
	history := &memoryHistory{}
	var statuses []string
	ctrl := newTestController(pipeline, &fakeDownloader{}, history, func(s Snapshot) {
		statuses = append(statuses, s.View.StatusText)
	})

	if err := ctrl.SelectFile(context.Background(), imageFile()); err != nil {
		t.Fatalf("select: %v", err)
	}
	if snap := ctrl.Snapshot(); snap.State.Stage != domain.StageReady || !snap.View.GenerateEnabled {
		t.Fatalf("after upload = %+v", snap)
	}
	if err := ctrl.Generate(context.Background()); err != nil {
		t.Fatalf("generate: %v", err)
	}

	want := []string{
		"UPLOADING...", "READY", "SUBMITTING JOB...",
		"PROCESSING... (1)", "PROCESSING... (1)", "PROCESSING... (2)", "COMPLETE",
	}
	if strings.Join(statuses, "|") != strings.Join(want, "|") {
		t.Fatalf("statuses = %v, want %v", statuses, want)
	}

	snap := ctrl.Snapshot()
	if snap.View.ResultURL != "https://cdn.test/out.png" {
		t.Fatalf("result url = %q", snap.View.ResultURL)
	}
	if snap.View.DisplayURL != "https://cdn.test/out.png?t=1700000000000" {
		t.Fatalf("display url = %q", snap.View.DisplayURL)
	}
	if !snap.View.GenerateHidden || !snap.View.ResetVisible || !snap.View.DownloadEnabled || snap.View.LoaderVisible {
		t.Fatalf("complete view = %+v", snap.View)
	}
	if len(pipeline.submissions) != 1 || pipeline.submissions[0] != "https://contents.test/abc.png" {
		t.Fatalf("submissions = %v", pipeline.submissions)
	}
	if len(history.created) != 1 || history.created[0].JobID != "job-1" {
		t.Fatalf("created = %+v", history.created)
	}
	last := history.updated[len(history.updated)-1]
	if last.Status != domain.JobStatusCompleted || last.Attempts != 2 {
		t.Fatalf("last update = %+v", last)
	}
}

func TestControllerRejectsNonImage(t *testing.T) {
	pipeline := &fakePipeline{uploadURL: "u"}
	ctrl := newTestController(pipeline, &fakeDownloader{}, nil)

	err := ctrl.SelectFile(context.Background(), domain.LocalFile{Name: "a.txt", ContentType: "text/plain"})
	if !errors.Is(err, domain.ErrNotImage) {
		t.Fatalf("err = %v, want ErrNotImage", err)
	}
	if pipeline.uploads != 0 {
		t.Fatalf("upload should not start")
	}
	if ctrl.Snapshot().State.Stage != domain.StageIdle {
		t.Fatalf("state changed on rejected file")
	}
}

func TestControllerGenerateWithoutUpload(t *testing.T) {
	pipeline := &fakePipeline{}
	ctrl := newTestController(pipeline, &fakeDownloader{}, nil)

	if err := ctrl.Generate(context.Background()); !errors.Is(err, domain.ErrNoUpload) {
		t.Fatalf("err = %v, want ErrNoUpload", err)
	}
	if len(pipeline.submissions) != 0 {
		t.Fatalf("no request expected")
	}
}

func TestControllerGenerateAfterResetIsRejected(t *testing.T) {
	pipeline := &fakePipeline{uploadURL: "https://contents.test/a.png", jobID: "j", result: completed("https://cdn.test/r.png")}
	ctrl := newTestController(pipeline, &fakeDownloader{}, nil)

	if err := ctrl.SelectFile(context.Background(), imageFile()); err != nil {
		t.Fatalf("select: %v", err)
	}
	ctrl.Reset()
	if err := ctrl.Generate(context.Background()); !errors.Is(err, domain.ErrNoUpload) {
		t.Fatalf("err = %v, want ErrNoUpload", err)
	}
	snap := ctrl.Snapshot()
	if snap.State.Stage != domain.StageIdle || snap.SessionID != "" || snap.View.ResetVisible {
		t.Fatalf("after reset = %+v", snap)
	}
}

func TestControllerUploadError(t *testing.T) {
	uploadErr := &chroma.UploadError{Step: chroma.UploadStepSignedURL, StatusCode: 500, Status: "Internal Server Error"}
	ctrl := newTestController(&fakePipeline{uploadErr: uploadErr}, &fakeDownloader{}, nil)

	if err := ctrl.SelectFile(context.Background(), imageFile()); !errors.Is(err, uploadErr) {
		t.Fatalf("err = %v", err)
	}
	snap := ctrl.Snapshot()
	if snap.View.StatusText != "ERROR" || snap.View.LoaderVisible {
		t.Fatalf("view = %+v", snap.View)
	}
	if snap.View.Alert != "Error: failed to get signed URL: Internal Server Error" {
		t.Fatalf("alert = %q", snap.View.Alert)
	}
	if !snap.View.GenerateEnabled || snap.View.GenerateLabel != GenerateLabel {
		t.Fatalf("generate should be re-enabled: %+v", snap.View)
	}
}

func TestControllerPollTimeoutMarksJob(t *testing.T) {
	history := &memoryHistory{}
	pipeline := &fakePipeline{
		uploadURL: "https://contents.test/a.png",
		jobID:     "j-timeout",
		pollErr:   &chroma.PollTimeoutError{JobID: "j-timeout", Attempts: 60},
	}
	ctrl := newTestController(pipeline, &fakeDownloader{}, history)
	if err := ctrl.SelectFile(context.Background(), imageFile()); err != nil {
		t.Fatalf("select: %v", err)
	}

	var timeout *chroma.PollTimeoutError
	if err := ctrl.Generate(context.Background()); !errors.As(err, &timeout) {
		t.Fatalf("err = %v, want PollTimeoutError", err)
	}
	if got := history.updated[len(history.updated)-1].Status; got != domain.JobStatusTimeout {
		t.Fatalf("status = %q, want timeout", got)
	}
	if ctrl.Snapshot().State.Message != "job timed out after 60 polls" {
		t.Fatalf("message = %q", ctrl.Snapshot().State.Message)
	}
}

func TestControllerMissingMediaURL(t *testing.T) {
	pipeline := &fakePipeline{
		uploadURL: "https://contents.test/a.png",
		jobID:     "j",
		result:    chroma.CompletedResult{Status: domain.JobStatusCompleted},
	}
	ctrl := newTestController(pipeline, &fakeDownloader{}, nil)
	if err := ctrl.SelectFile(context.Background(), imageFile()); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := ctrl.Generate(context.Background()); !errors.Is(err, domain.ErrNoMediaURL) {
		t.Fatalf("err = %v, want ErrNoMediaURL", err)
	}
	if ctrl.Snapshot().State.Stage != domain.StageError {
		t.Fatalf("stage = %q", ctrl.Snapshot().State.Stage)
	}
}

func TestControllerBusyAndStaleAfterReset(t *testing.T) {
	pipeline := &fakePipeline{
		uploadURL: "https://contents.test/a.png",
		jobID:     "j",
		result:    completed("https://cdn.test/r.png"),
		blockPoll: make(chan struct{}),
		polling:   make(chan struct{}),
	}
	ctrl := newTestController(pipeline, &fakeDownloader{}, nil)
	if err := ctrl.SelectFile(context.Background(), imageFile()); err != nil {
		t.Fatalf("select: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- ctrl.Generate(context.Background()) }()
	<-pipeline.polling

	if err := ctrl.Generate(context.Background()); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("second generate err = %v, want ErrBusy", err)
	}
	if err := ctrl.SelectFile(context.Background(), imageFile()); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("select while busy err = %v, want ErrBusy", err)
	}

	ctrl.Reset()
	select {
	case err := <-done:
		if !errors.Is(err, domain.ErrStale) {
			t.Fatalf("generate err = %v, want ErrStale", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("generate did not stop after reset")
	}
	if snap := ctrl.Snapshot(); snap.State.Stage != domain.StageIdle || snap.ResultURL != "" {
		t.Fatalf("stale result applied: %+v", snap)
	}
}

func TestControllerDownload(t *testing.T) {
	downloader := &fakeDownloader{outcome: download.Outcome{Strategy: "proxy", Filename: "stencil_result_x.png", Location: "/tmp/x.png"}}
	pipeline := &fakePipeline{uploadURL: "https://contents.test/a.png", jobID: "j", result: completed("https://cdn.test/r.png")}
	var labels []string
	ctrl := newTestController(pipeline, downloader, nil, func(s Snapshot) {
		labels = append(labels, s.View.DownloadLabel)
	})

	if _, err := ctrl.Download(context.Background()); !errors.Is(err, domain.ErrNoResult) {
		t.Fatalf("err = %v, want ErrNoResult", err)
	}
	if err := ctrl.SelectFile(context.Background(), imageFile()); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := ctrl.Generate(context.Background()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	labels = nil

	out, err := ctrl.Download(context.Background())
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if out.Location != "/tmp/x.png" {
		t.Fatalf("outcome = %+v", out)
	}
	if len(downloader.requests) != 1 {
		t.Fatalf("requests = %d", len(downloader.requests))
	}
	req := downloader.requests[0]
	if req.URL != "https://cdn.test/r.png" || req.Kind != domain.MediaKindImage || !req.PreviewVisible {
		t.Fatalf("request = %+v", req)
	}
	if strings.Join(labels, "|") != DownloadingLabel+"|"+DownloadLabel {
		t.Fatalf("labels = %v", labels)
	}
	if snap := ctrl.Snapshot(); snap.Download == nil || snap.Download.Strategy != "proxy" {
		t.Fatalf("snapshot download = %+v", snap.Download)
	}
}

func TestControllerVideoResult(t *testing.T) {
	pipeline := &fakePipeline{uploadURL: "https://contents.test/a.png", jobID: "j", result: completed("https://cdn.test/clip.mp4")}
	ctrl := newTestController(pipeline, &fakeDownloader{}, nil)
	if err := ctrl.SelectFile(context.Background(), imageFile()); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := ctrl.Generate(context.Background()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	view := ctrl.Snapshot().View
	if view.ResultKind != domain.MediaKindVideo || view.DisplayURL != "https://cdn.test/clip.mp4" {
		t.Fatalf("view = %+v", view)
	}
}

func TestStatusText(t *testing.T) {
	cases := map[domain.UIState]string{
		{Stage: domain.StageIdle}:                   "",
		{Stage: domain.StageUploading}:              "UPLOADING...",
		{Stage: domain.StageReady}:                  "READY",
		{Stage: domain.StageSubmitting}:             "SUBMITTING JOB...",
		{Stage: domain.StageProcessing, Attempt: 7}: "PROCESSING... (7)",
		{Stage: domain.StageComplete}:               "COMPLETE",
		{Stage: domain.StageError, Message: "x"}:    "ERROR",
	}
	for state, want := range cases {
		if got := StatusText(state); got != want {
			t.Fatalf("StatusText(%+v) = %q, want %q", state, got, want)
		}
	}
}
