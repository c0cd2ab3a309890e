package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Events is the SSE endpoint. Each connection gets its own bounded
// subscriber channel on the bus; a confirmation frame goes out first, then
// progress events as they arrive, with keepalive comments during idle
// stretches so proxies don't cut the connection.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)

	sub := h.Bus.Subscribe()
	defer h.Bus.Unsubscribe(sub)

	hello, _ := json.Marshal(map[string]string{"type": "connected", "client_id": sub.ID})
	if _, err := fmt.Fprintf(w, "data: %s\n\n", hello); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		return
	}

	keepalive := time.NewTicker(h.Cfg.SSEKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-sub.Done():
			// Bus dropped us, likely because we fell behind.
			return
		case ev := <-sub.C:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		case <-keepalive.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
