package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"mpvd/internal/manager"
)

// events streams the instance's bridge messages as Server-Sent Events. The
// stream owns the instance's sink: a newer stream for the same instance
// replaces it and this one ends, as does destroying the instance.
func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id, ok := instanceID(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	sink := manager.NewChannelSink(eventBuffer)
	if err := h.svc.SetEventCallback(id, sink); err != nil {
		writeError(w, r, err)
		return
	}
	defer func() { _ = h.svc.ClearEventCallback(id, sink) }()

	sseStreams.Inc()
	defer sseStreams.Dec()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "retry: 2000\n\n")
	flusher.Flush()

	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	reason := "client"
	defer func() {
		sseStreamEnds.WithLabelValues(reason).Inc()
		if zlog != nil && requestLogLevel(r) >= LevelDebug {
			zlog.Debug().Stringer("instance", id).Str("reason", reason).
				Str("request_id", middleware.GetReqID(r.Context())).Msg("event stream end")
		}
	}()
	for {
		select {
		case <-ctx.Done():
			if serverBaseCtx.Err() != nil {
				reason = "shutdown"
			}
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case msg, open := <-sink.C():
			if !open {
				// Replaced by another stream or the instance was destroyed.
				reason = "released"
				_, _ = fmt.Fprint(w, "event: end\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			if err := writeEvent(w, msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, msg manager.Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Kind, b)
	return err
}
