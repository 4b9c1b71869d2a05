package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/user/invite-harvester/internal/delivery/http/request"
	"github.com/user/invite-harvester/internal/delivery/http/response"
	"github.com/user/invite-harvester/internal/repository"
	"github.com/user/invite-harvester/internal/usecase"
)

const defaultResultCount = 10

// HealthCheck probes one backing service.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	runs   usecase.RunManager
	checks map[string]HealthCheck
	logger *zap.Logger
}

// NewHandler builds the API handler. checks may be empty; the health
// endpoint then only reports that the process is up.
func NewHandler(runs usecase.RunManager, checks map[string]HealthCheck, logger *zap.Logger) *Handler {
	return &Handler{
		runs:   runs,
		checks: checks,
		logger: logger,
	}
}

func (h *Handler) HandleSubmitHarvest(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitHarvestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ResultCount == 0 {
		req.ResultCount = defaultResultCount
	}

	runID, err := h.runs.Submit(r.Context(), req.Query, req.ResultCount)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidQuery) || errors.Is(err, usecase.ErrInvalidResultCount) {
			h.writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to submit harvest", zap.String("query", req.Query), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusAccepted, response.SubmitHarvestResponse{
		Status:  "success",
		Message: "Harvest started",
		RunID:   runID,
	})
}

func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")

	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.writeJSONError(w, "active must be a boolean", http.StatusBadRequest)
			return
		}
		activeOnly = v
	}

	progress, err := h.runs.GetStatus(r.Context(), runID)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			h.writeJSONError(w, "Run not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get run", zap.String("run_id", runID), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewRunStatusResponse(progress, activeOnly))
}

func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")

	var req request.PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.TargetKeyword == "" {
		h.writeJSONError(w, "target_keyword is required", http.StatusBadRequest)
		return
	}

	post, err := h.runs.Publish(r.Context(), runID, usecase.PublishRequest{
		TargetKeyword: req.TargetKeyword,
		PostTitle:     req.PostTitle,
	})
	switch {
	case err == nil:
	case errors.Is(err, usecase.ErrPublishingDisabled):
		h.writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
		return
	case errors.Is(err, repository.ErrRunNotFound):
		h.writeJSONError(w, "Run not found", http.StatusNotFound)
		return
	case errors.Is(err, usecase.ErrRunNotFinished):
		h.writeJSONError(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, usecase.ErrNoActiveGroups):
		h.writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	default:
		h.logger.Error("failed to publish run", zap.String("run_id", runID), zap.Error(err))
		h.writeJSONError(w, "Publishing failed", http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusCreated, response.PublishResponse{
		PostID: post.ID,
		Link:   post.Link,
		Status: post.Status,
	})
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok"}
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status[name] = "unhealthy"
			healthy = false
			h.logger.Error("health check failed", zap.String("service", name), zap.Error(err))
			continue
		}
		status[name] = "healthy"
	}

	if !healthy {
		status["status"] = "degraded"
		h.writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
