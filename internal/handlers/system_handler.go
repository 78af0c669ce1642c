package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Dias221467/yumix/internal/scheduler"
	"github.com/Dias221467/yumix/pkg/logger"
	"github.com/gorilla/mux"
)

type JobRunner interface {
	RunNow(ctx context.Context, name string) error
}

// SystemHandler serves health checks and manual job triggers.
type SystemHandler struct {
	jobs JobRunner
	ping func(ctx context.Context) error
}

func NewSystemHandler(jobs JobRunner, ping func(ctx context.Context) error) *SystemHandler {
	return &SystemHandler{jobs: jobs, ping: ping}
}

// GET /health
func (h *SystemHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.ping(ctx); err != nil {
		logger.Log.WithError(err).Warn("Health check failed")
		writeFailure(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true})
}

// POST /admin/jobs/{name}/run
func (h *SystemHandler) RunJobHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	err := h.jobs.RunNow(r.Context(), name)
	switch {
	case err == nil:
		writeMessage(w, "Job "+name+" completed")
	case errors.Is(err, scheduler.ErrUnknownTask):
		writeFailure(w, http.StatusNotFound, "Unknown job")
	case errors.Is(err, scheduler.ErrAlreadyRunning):
		writeFailure(w, http.StatusConflict, "Job is already running")
	default:
		writeFailure(w, http.StatusInternalServerError, "Job "+name+" failed")
	}
}
