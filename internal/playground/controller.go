package playground

import (
	"context"
	"errors"
	"sync"
	"time"

	"stencil/internal/domain"
	"stencil/internal/download"
	"stencil/internal/infra"
	"stencil/internal/providers/chroma"
)

// Pipeline is the remote side of the playground: upload, submit, poll.
// *chroma.Client implements it.
type Pipeline interface {
	Upload(ctx context.Context, file domain.LocalFile) (string, error)
	Submit(ctx context.Context, imageURL string) (*chroma.SubmitResult, error)
	Poll(ctx context.Context, jobID string, onProgress chroma.ProgressFunc) (chroma.CompletedResult, error)
	ModelType() string
}

// Downloader saves a finished result. *download.Downloader implements it.
type Downloader interface {
	Download(ctx context.Context, req download.Request) download.Outcome
}

// Observer is called with a fresh snapshot after every state change.
type Observer func(Snapshot)

// Options configures a Controller.
type Options struct {
	Pipeline   Pipeline
	Downloader Downloader
	History    domain.JobRepository
	Logger     *infra.Logger
	Now        func() time.Time
	Observers  []Observer
}

// Controller owns the single upload session and drives the UI state through
// upload, generation and download. It is safe for concurrent use.
type Controller struct {
	pipeline   Pipeline
	downloader Downloader
	history    domain.JobRepository
	logger     *infra.Logger
	now        func() time.Time

	mu          sync.Mutex
	version     uint64
	observers   []Observer
	session     *domain.UploadSession
	sessionCtx  context.Context
	cancel      context.CancelFunc
	job         *domain.GenerationJob
	state       domain.UIState
	resultURL   string
	displayURL  string
	downloading bool
	outcome     *download.Outcome
}

func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		pipeline:   opts.Pipeline,
		downloader: opts.Downloader,
		history:    opts.History,
		logger:     logger,
		now:        now,
		observers:  append([]Observer(nil), opts.Observers...),
		state:      domain.UIState{Stage: domain.StageIdle},
	}
}

// Subscribe registers an observer for later changes.
func (c *Controller) Subscribe(o Observer) {
	c.mu.Lock()
	c.observers = append(c.observers, o)
	c.mu.Unlock()
}

// Snapshot returns the current state and its view projection.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// changedLocked bumps the version and returns the snapshot to publish.
func (c *Controller) changedLocked() Snapshot {
	c.version++
	return c.snapshotLocked()
}

// SelectFile starts a new session for file and uploads it. Any previous
// session is cancelled and discarded.
func (c *Controller) SelectFile(ctx context.Context, file domain.LocalFile) error {
	if !file.IsImage() {
		return domain.ErrNotImage
	}

	c.mu.Lock()
	if c.busyLocked() {
		c.mu.Unlock()
		return domain.ErrBusy
	}
	if c.cancel != nil {
		c.cancel()
	}
	session := domain.NewUploadSession(file)
	c.session = session
	c.sessionCtx, c.cancel = context.WithCancel(context.Background())
	c.job = nil
	c.resultURL, c.displayURL, c.outcome = "", "", nil
	c.state = domain.UIState{Stage: domain.StageUploading}
	opCtx, done := c.operationContextLocked(ctx)
	snap := c.changedLocked()
	c.mu.Unlock()
	c.notify(snap)
	defer done()

	c.logger.Info().Str("session", session.ID).Str("file", file.Name).Msg("playground: uploading")
	uploadedURL, err := c.pipeline.Upload(opCtx, file)

	c.mu.Lock()
	if c.session != session {
		c.mu.Unlock()
		return domain.ErrStale
	}
	if err != nil {
		snap = c.failLocked(err)
		c.mu.Unlock()
		c.notify(snap)
		return err
	}
	session.UploadedURL = uploadedURL
	c.state = domain.UIState{Stage: domain.StageReady}
	snap = c.changedLocked()
	c.mu.Unlock()
	c.notify(snap)
	return nil
}

// Generate submits the uploaded image and polls until the job finishes.
func (c *Controller) Generate(ctx context.Context) error {
	c.mu.Lock()
	if c.busyLocked() {
		c.mu.Unlock()
		return domain.ErrBusy
	}
	session := c.session
	if !session.Uploaded() {
		c.mu.Unlock()
		return domain.ErrNoUpload
	}
	c.job = nil
	c.resultURL, c.displayURL, c.outcome = "", "", nil
	c.state = domain.UIState{Stage: domain.StageSubmitting}
	opCtx, done := c.operationContextLocked(ctx)
	snap := c.changedLocked()
	c.mu.Unlock()
	c.notify(snap)
	defer done()

	submitted, err := c.pipeline.Submit(opCtx, session.UploadedURL)
	if err != nil {
		return c.finishWithError(session, nil, err)
	}

	job := &domain.GenerationJob{
		JobID:       submitted.JobID,
		SessionID:   session.ID,
		SourceURL:   session.UploadedURL,
		Model:       c.pipeline.ModelType(),
		Status:      domain.JobStatusPending,
		SubmittedAt: c.now().UTC(),
	}
	job.UpdatedAt = job.SubmittedAt

	c.mu.Lock()
	if c.session != session {
		c.mu.Unlock()
		return domain.ErrStale
	}
	c.job = job
	c.state = domain.UIState{Stage: domain.StageProcessing, Attempt: 1}
	snap = c.changedLocked()
	c.mu.Unlock()
	c.notify(snap)
	c.recordCreate(job)

	c.logger.Info().Str("job_id", job.JobID).Str("session", session.ID).Msg("playground: job submitted")
	result, err := c.pipeline.Poll(opCtx, job.JobID, func(attempt int) {
		c.progress(session, job, attempt)
	})
	if err != nil {
		return c.finishWithError(session, job, err)
	}

	resultURL := result.URL()
	if resultURL == "" {
		return c.finishWithError(session, job, domain.ErrNoMediaURL)
	}

	c.mu.Lock()
	if c.session != session {
		c.mu.Unlock()
		return domain.ErrStale
	}
	job.Status = domain.JobStatusCompleted
	job.ResultURL = resultURL
	job.UpdatedAt = c.now().UTC()
	c.resultURL = resultURL
	c.displayURL = displayURL(resultURL, c.now())
	c.state = domain.UIState{Stage: domain.StageComplete}
	snap = c.changedLocked()
	c.mu.Unlock()
	c.notify(snap)
	c.recordUpdate(job)

	c.logger.Info().Str("job_id", job.JobID).Str("result", resultURL).Msg("playground: job completed")
	return nil
}

// Reset cancels in-flight work and returns to idle with no session.
func (c *Controller) Reset() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.session, c.sessionCtx, c.cancel = nil, nil, nil
	c.job = nil
	c.resultURL, c.displayURL, c.outcome = "", "", nil
	c.downloading = false
	c.state = domain.UIState{Stage: domain.StageIdle}
	snap := c.changedLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// Download saves the current result. It fails only when no result exists or
// a download is already running; cascade failures end in the link fallback.
func (c *Controller) Download(ctx context.Context) (download.Outcome, error) {
	c.mu.Lock()
	if c.resultURL == "" || c.state.Stage != domain.StageComplete {
		c.mu.Unlock()
		return download.Outcome{}, domain.ErrNoResult
	}
	if c.downloading {
		c.mu.Unlock()
		return download.Outcome{}, domain.ErrBusy
	}
	session := c.session
	kind := domain.MediaKindForURL(c.resultURL)
	req := download.Request{
		URL:            c.resultURL,
		Kind:           kind,
		PreviewVisible: kind == domain.MediaKindImage,
	}
	c.downloading = true
	opCtx, done := c.operationContextLocked(ctx)
	snap := c.changedLocked()
	c.mu.Unlock()
	c.notify(snap)
	defer done()

	outcome := c.downloader.Download(opCtx, req)

	c.mu.Lock()
	if c.session != session {
		c.mu.Unlock()
		return outcome, domain.ErrStale
	}
	c.downloading = false
	c.outcome = &outcome
	snap = c.changedLocked()
	c.mu.Unlock()
	c.notify(snap)
	return outcome, nil
}

func (c *Controller) busyLocked() bool {
	return c.state.Busy() || c.downloading
}

func (c *Controller) progress(session *domain.UploadSession, job *domain.GenerationJob, attempt int) {
	c.mu.Lock()
	if c.session != session || c.job != job {
		c.mu.Unlock()
		return
	}
	job.Status = domain.JobStatusProcessing
	job.Attempts = attempt
	job.UpdatedAt = c.now().UTC()
	c.state = domain.UIState{Stage: domain.StageProcessing, Attempt: attempt}
	snap := c.changedLocked()
	c.mu.Unlock()
	c.notify(snap)
}

func (c *Controller) finishWithError(session *domain.UploadSession, job *domain.GenerationJob, err error) error {
	c.mu.Lock()
	if c.session != session {
		c.mu.Unlock()
		return domain.ErrStale
	}
	if job != nil {
		job.Status = jobStatusFor(err)
		job.Error = err.Error()
		job.UpdatedAt = c.now().UTC()
	}
	snap := c.failLocked(err)
	c.mu.Unlock()
	c.notify(snap)
	if job != nil {
		c.recordUpdate(job)
	}
	return err
}

func (c *Controller) failLocked(err error) Snapshot {
	c.logger.Error().Err(err).Str("stage", string(c.state.Stage)).Msg("playground: action failed")
	c.state = domain.UIState{Stage: domain.StageError, Message: err.Error()}
	return c.changedLocked()
}

// operationContextLocked derives a context that ends with either the caller's
// context or the current session.
func (c *Controller) operationContextLocked(ctx context.Context) (context.Context, func()) {
	opCtx, cancel := context.WithCancel(ctx)
	if c.sessionCtx == nil {
		return opCtx, cancel
	}
	stop := context.AfterFunc(c.sessionCtx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}

func (c *Controller) notify(snap Snapshot) {
	c.mu.Lock()
	observers := append([]Observer(nil), c.observers...)
	c.mu.Unlock()
	for _, o := range observers {
		o(snap)
	}
}

func (c *Controller) recordCreate(job *domain.GenerationJob) {
	if c.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.history.Create(ctx, copyJob(job)); err != nil {
		c.logger.Warn().Err(err).Str("job_id", job.JobID).Msg("playground: record job")
	}
}

func (c *Controller) recordUpdate(job *domain.GenerationJob) {
	if c.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.history.UpdateStatus(ctx, copyJob(job)); err != nil {
		c.logger.Warn().Err(err).Str("job_id", job.JobID).Msg("playground: update job")
	}
}

func copyJob(job *domain.GenerationJob) *domain.GenerationJob {
	cp := *job
	return &cp
}

func jobStatusFor(err error) domain.JobStatus {
	var timeout *chroma.PollTimeoutError
	if errors.As(err, &timeout) {
		return domain.JobStatusTimeout
	}
	return domain.JobStatusFailed
}
