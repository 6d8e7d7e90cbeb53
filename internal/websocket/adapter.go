package websocket

import (
	"errors"

	"marksheet/internal/feed"
	"marksheet/internal/store"
)

// StoreAdapter forwards dataset store lifecycle events to websocket
// clients, so connected consumers learn that the dataset they are rendering
// was cleared, replaced, or failed to load.
type StoreAdapter struct {
	hub *Hub
}

// NewStoreAdapter subscribes the hub to the store's events.
func NewStoreAdapter(hub *Hub, st *store.Store) *StoreAdapter {
	a := &StoreAdapter{hub: hub}
	st.Subscribe(a.onEvent)
	return a
}

func (a *StoreAdapter) onEvent(ev store.Event) {
	switch ev.Type {
	case store.EventLoadStarted:
		a.hub.BroadcastJSON(TypeRefreshStarted, map[string]interface{}{
			"status": "loading",
		})
	case store.EventPublished:
		a.hub.BroadcastJSON(TypeRefreshCompleted, map[string]interface{}{
			"status":  "loaded",
			"records": ev.Records,
		})
	case store.EventLoadFailed:
		data := map[string]interface{}{
			"status":   "failed",
			"category": failureCategory(ev.Err),
		}
		if ev.Err != nil {
			data["message"] = ev.Err.Error()
		}
		a.hub.BroadcastJSON(TypeRefreshFailed, data)
	}
}

// failureCategory names the refresh failure class for display purposes.
func failureCategory(err error) string {
	var transportErr *feed.TransportError
	var formatErr *feed.FormatError
	switch {
	case err == nil:
		return "unknown"
	case errors.Is(err, feed.ErrMissingLocator):
		return "missing_locator"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &formatErr):
		return "format"
	default:
		return "unknown"
	}
}
