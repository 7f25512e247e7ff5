package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/conveyor/internal/engine"
	"github.com/seantiz/conveyor/internal/model"
	"github.com/seantiz/conveyor/internal/store"
)

const maxBodySize = 1 << 20 // 1 MB

// idempotencyKeyHeader takes precedence over the body field when both are set.
const idempotencyKeyHeader = "Idempotency-Key"

// submitJobRequest is the JSON body for POST /v1/jobs.
type submitJobRequest struct {
	Type           string          `json:"type"`
	Payload        json.RawMessage `json:"payload"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// submitJobResponse wraps the accepted job with a replay indicator so clients
// can tell a fresh submission from an idempotent replay.
type submitJobResponse struct {
	Job      *model.Job `json:"job"`
	Replayed bool       `json:"replayed"`
}

// queueInfoResponse is the JSON response for GET /v1/jobs.
type queueInfoResponse struct {
	TotalJobs  int      `json:"total_jobs"`
	QueueDepth int      `json:"queue_depth"`
	JobTypes   []string `json:"job_types"`
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var req submitJobRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Type == "" {
		s.writeError(w, http.StatusBadRequest, "type is required")
		return
	}

	key := req.IdempotencyKey
	if h := r.Header.Get(idempotencyKeyHeader); h != "" {
		key = h
	}

	j, isNew, err := s.engine.Submit(r.Context(), req.Type, req.Payload, key)
	if errors.Is(err, engine.ErrUnknownJobType) {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("submit job", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to submit job")
		return
	}

	w.Header().Set("Location", "/v1/jobs/"+j.ID)
	s.writeJSON(w, http.StatusAccepted, submitJobResponse{
		Job:      j,
		Replayed: !isNew,
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	j, err := s.store.GetJob(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		s.logger.Error("get job", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get job")
		return
	}

	s.writeJSON(w, http.StatusOK, j)
}

func (s *Server) handleGetQueueInfo(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.logger.Error("get queue info", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get queue info")
		return
	}

	s.writeJSON(w, http.StatusOK, queueInfoResponse{
		TotalJobs:  stats.Total,
		QueueDepth: s.engine.QueueDepth(),
		JobTypes:   s.registry.Types(),
	})
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
