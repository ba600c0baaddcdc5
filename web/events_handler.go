package web

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	"github.com/parleyhq/parley/types"
)

func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	if a := r.Header.Get("Accept"); a != "" {
		if mt, _, err := mime.ParseMediaType(a); err == nil && mt != "text/event-stream" && mt != "*/*" {
			h.respondErr(w, fmt.Errorf("unsupported media type: %s", mt))
			return
		}
	}

	f, ok := w.(http.Flusher)
	if !ok {
		h.respondErr(w, errStreamingUnsupported)
		return
	}

	ctx := r.Context()
	ee, err := h.Service.UserEvents(ctx, r.URL.Query().Get("user_id"))
	if err != nil {
		h.respondErr(w, err)
		return
	}

	header := w.Header()
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("Content-Type", "text/event-stream; charset=utf-8")

	for {
		select {
		case ev := <-ee:
			writeSSE(w, ev)
			f.Flush()
		case <-ctx.Done():
			return
		}
	}
}

var errStreamingUnsupported = fmt.Errorf("streaming unsupported")

// writeSSE re-encodes the msgpack payload as JSON for browser consumers.
func writeSSE(w http.ResponseWriter, ev types.Event) {
	var payload any
	if err := ev.Payload(&payload); err != nil {
		_ = json.NewEncoder(w).Encode(err)
		fmt.Fprint(w, "\n")
		return
	}

	b, err := json.Marshal(payload)
	if err != nil {
		_ = json.NewEncoder(w).Encode(err)
		fmt.Fprint(w, "\n")
		return
	}

	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, b)
}
