package handlers

import (
	"net/http"
)

type healthResponse struct {
	Status  string `json:"status"`
	Stage   string `json:"stage"`
	Busy    bool   `json:"busy"`
	History bool   `json:"history"`
}

// Health reports liveness plus where the playground currently stands.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	snap := a.Playground.Snapshot()
	a.json(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Stage:   string(snap.State.Stage),
		Busy:    snap.State.Busy() || snap.Downloading,
		History: a.History != nil,
	})
}
