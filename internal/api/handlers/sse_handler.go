package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/domain/providers"
	"github.com/nando-scheduler/backend/internal/infrastructure/observability"
)

// ResourceReader checks that the requester may see a resource
type ResourceReader interface {
	GetResource(ctx context.Context, requester entities.Requester, resourceID string) (*entities.Resource, error)
}

// SSEHandler streams schedule events of a resource as Server-Sent Events.
// Events only carry ids and times; clients refetch to apply visibility.
type SSEHandler struct {
	eventBus  providers.EventBus
	resources ResourceReader
	heartbeat time.Duration
	clients   atomic.Int64
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus, resources ResourceReader, heartbeat time.Duration) *SSEHandler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &SSEHandler{
		eventBus:  eventBus,
		resources: resources,
		heartbeat: heartbeat,
	}
}

// StreamResourceUpdates handles GET /api/stream/resources/{id}
func (h *SSEHandler) StreamResourceUpdates(w http.ResponseWriter, r *http.Request) {
	resourceID := r.PathValue("id")
	if resourceID == "" {
		respondWithError(w, http.StatusBadRequest, "resource ID is required")
		return
	}

	if _, err := h.resources.GetResource(r.Context(), requester(r), resourceID); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	logger := observability.LoggerFromContext(r.Context())
	channel := providers.GetResourceChannel(resourceID)

	// the bus closes eventChan once the request context ends
	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		logger.Error().Err(err).Str("channel", channel).Msg("Failed to subscribe to channel")
		respondWithError(w, http.StatusBadGateway, "event stream unavailable")
		return
	}

	// streams outlive the server write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	clients := h.clients.Add(1)
	defer h.clients.Add(-1)
	logger.Debug().Str("resource_id", resourceID).Int64("clients", clients).Msg("Stream client connected")

	h.sendEvent(w, "connected", map[string]interface{}{
		"resource_id": resourceID,
		"timestamp":   time.Now().UTC(),
	})
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug().Str("resource_id", resourceID).Msg("Stream client disconnected")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now().UTC(),
			})
			flusher.Flush()
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

// ClientCount returns the number of connected stream clients
func (h *SSEHandler) ClientCount() int64 {
	return h.clients.Load()
}

func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", payload)
}
