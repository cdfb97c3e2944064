package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"stencil/internal/domain"
	"stencil/internal/providers/chroma"
)

func (a *App) State(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Playground.Snapshot())
}

// Upload accepts a multipart `file` field and uploads it as the new session.
func (a *App) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)
	if err := r.ParseMultipartForm(a.MaxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "file field required")
		return
	}
	defer part.Close()
	data, err := io.ReadAll(part)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read file")
		return
	}
	file := domain.NewLocalFile(header.Filename, header.Header.Get("Content-Type"), data)
	if err := a.Playground.SelectFile(r.Context(), file); err != nil {
		a.playgroundError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, a.Playground.Snapshot())
}

// Generate blocks until the job completes, fails or times out.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	if err := a.Playground.Generate(r.Context()); err != nil {
		a.playgroundError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, a.Playground.Snapshot())
}

func (a *App) Reset(w http.ResponseWriter, r *http.Request) {
	a.Playground.Reset()
	a.json(w, http.StatusOK, a.Playground.Snapshot())
}

func (a *App) Download(w http.ResponseWriter, r *http.Request) {
	outcome, err := a.Playground.Download(r.Context())
	if err != nil {
		a.playgroundError(w, r, err)
		return
	}
	if outcome.Err != nil {
		a.log(r).Warn().Err(outcome.Err).Msg("download fell back")
	}
	a.json(w, http.StatusOK, outcome)
}

func (a *App) playgroundError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		uploadErr *chroma.UploadError
		submitErr *chroma.SubmissionError
		pollErr   *chroma.PollTransportError
		failedErr *chroma.JobFailedError
		timeout   *chroma.PollTimeoutError
	)
	switch {
	case errors.Is(err, domain.ErrNotImage):
		a.error(w, http.StatusBadRequest, "not_image", "Please upload an image file.")
	case errors.Is(err, domain.ErrNoUpload):
		a.error(w, http.StatusConflict, "no_upload", "Please upload an image first.")
	case errors.Is(err, domain.ErrBusy):
		a.error(w, http.StatusConflict, "busy", err.Error())
	case errors.Is(err, domain.ErrStale):
		a.error(w, http.StatusConflict, "reset", err.Error())
	case errors.Is(err, domain.ErrNoResult):
		a.error(w, http.StatusConflict, "no_result", err.Error())
	case errors.Is(err, domain.ErrNoMediaURL):
		a.error(w, http.StatusBadGateway, "no_media_url", "No media URL in response")
	case errors.As(err, &uploadErr):
		a.error(w, http.StatusBadGateway, "upload_failed", err.Error())
	case errors.As(err, &submitErr):
		a.error(w, http.StatusBadGateway, "submit_failed", err.Error())
	case errors.As(err, &pollErr):
		a.error(w, http.StatusBadGateway, "status_failed", err.Error())
	case errors.As(err, &failedErr):
		a.error(w, http.StatusBadGateway, "job_failed", err.Error())
	case errors.As(err, &timeout):
		a.error(w, http.StatusGatewayTimeout, "timeout", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		a.error(w, http.StatusServiceUnavailable, "cancelled", err.Error())
	default:
		a.log(r).Error().Err(err).Msg("playground action failed")
		a.error(w, http.StatusInternalServerError, "internal", "unexpected error")
	}
}
