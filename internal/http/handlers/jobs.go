package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"stencil/internal/domain"
)

const maxJobsLimit = 100

// ListJobs returns recent generation jobs from the history store.
func (a *App) ListJobs(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		a.json(w, http.StatusOK, map[string]any{"jobs": []domain.GenerationJob{}})
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = min(n, maxJobsLimit)
	}
	jobs, err := a.History.ListRecent(r.Context(), limit)
	if err != nil {
		a.log(r).Error().Err(err).Msg("list jobs")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list jobs")
		return
	}
	if jobs == nil {
		jobs = []domain.GenerationJob{}
	}
	a.json(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	if a.History == nil {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return
	}
	job, err := a.History.GetByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.log(r).Error().Err(err).Str("job_id", jobID).Msg("get job")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}
	a.json(w, http.StatusOK, job)
}
