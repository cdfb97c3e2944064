package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"stencil/internal/domain"
	"stencil/internal/download"
	"stencil/internal/infra"
	"stencil/internal/playground"
)

// Playground is the controller surface the handlers drive.
type Playground interface {
	SelectFile(ctx context.Context, file domain.LocalFile) error
	Generate(ctx context.Context) error
	Reset()
	Download(ctx context.Context) (download.Outcome, error)
	Snapshot() playground.Snapshot
}

type App struct {
	Playground Playground
	History    domain.JobRepository
	Logger     *infra.Logger

	// MaxUploadBytes caps multipart bodies.
	MaxUploadBytes int64
}

func NewApp(pg Playground, history domain.JobRepository, logger *infra.Logger) *App {
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &App{Playground: pg, History: history, Logger: logger, MaxUploadBytes: 20 << 20}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorBody{Error: errorDetail{Code: errCode, Message: message}})
}

// log returns the request-scoped logger, or the app logger when the request
// did not pass through the request id middleware.
func (a *App) log(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return a.Logger
}
