package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/venlo-ai/cadence/internal/jobstore"
)

// statusEvent is one frame on the job status stream.
type statusEvent struct {
	JobID        string `json:"jobId"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// handleJobEvents streams job status transitions over a WebSocket as a push
// alternative to polling /api/results. One frame is sent per status change;
// the connection closes normally once the job reaches done or error. Clients
// still fetch the result document over HTTP — results can be large and the
// polling endpoint already serves them.
func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := s.store.Get(r.Context(), id); errors.Is(err, jobstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "job_id", id, "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var lastStatus string
	for {
		job, err := s.store.Get(ctx, id)
		if err != nil {
			conn.Close(websocket.StatusInternalError, "job lookup failed")
			return
		}

		if job.Status != lastStatus {
			lastStatus = job.Status
			if err := writeStatus(ctx, conn, job); err != nil {
				return
			}
		}
		if job.Terminal() {
			conn.Close(websocket.StatusNormalClosure, "job finished")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func writeStatus(ctx context.Context, conn *websocket.Conn, job *jobstore.Job) error {
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(writeCtx, conn, statusEvent{
		JobID:        job.ID,
		Status:       job.Status,
		ErrorMessage: job.ErrorMessage,
	})
}
