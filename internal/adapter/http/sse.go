package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/calibancode/gifforge/internal/service"
)

type SSEHandler struct {
	eventBus *service.EventBus
	convSvc  ConversionService
}

func NewSSEHandler(eventBus *service.EventBus, convSvc ConversionService) *SSEHandler {
	return &SSEHandler{
		eventBus: eventBus,
		convSvc:  convSvc,
	}
}

// sseWrite writes an SSE event, handling multi-line data correctly.
func sseWrite(w http.ResponseWriter, eventName string, data string) {
	_, _ = fmt.Fprintf(w, "event: %s\n", eventName)
	for _, line := range strings.Split(data, "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = fmt.Fprint(w, "\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// sendKeepAlive writes an SSE comment to keep the connection active.
func sendKeepAlive(w http.ResponseWriter) {
	_, _ = fmt.Fprint(w, ": keep-alive\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func sseWriteEvent(w http.ResponseWriter, event service.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	sseWrite(w, event.Type, string(data))
}

// Events streams a job's log lines, progress ticks, and state changes as
// server-sent events. The stream ends once the job reaches a terminal state.
func (h *SSEHandler) Events() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		view, err := h.convSvc.Job(id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		// Already terminal: the final state is the whole story.
		if view.State.Terminal() {
			sseWriteEvent(w, service.Event{Type: service.EventState, State: view.State, Cause: view.Cause})
			return
		}

		// Subscribe before snapshotting so no transition lands in the gap.
		ch := h.eventBus.Subscribe(id)
		defer h.eventBus.Unsubscribe(id, ch)

		view, err = h.convSvc.Job(id)
		if err != nil {
			return
		}
		sseWriteEvent(w, service.Event{Type: service.EventState, State: view.State, Cause: view.Cause})
		if view.State.Terminal() {
			return
		}

		ctx := r.Context()
		keepAlive := time.NewTicker(15 * time.Second)
		defer keepAlive.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-keepAlive.C:
				sendKeepAlive(w)
			case event, ok := <-ch:
				if !ok {
					return
				}
				sseWriteEvent(w, event)
				if event.Type == service.EventState && event.State.Terminal() {
					return
				}
			}
		}
	}
}
