package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// sseSender pushes Server-Sent Events over a flushable ResponseWriter. Safe
// for concurrent use; parallel judging delivers results from multiple
// goroutines.
type sseSender struct {
	w       http.ResponseWriter
	flusher http.Flusher
	mu      sync.Mutex
}

// newSSESender prepares the response for SSE. Returns nil if the
// ResponseWriter does not support flushing.
func newSSESender(w http.ResponseWriter) *sseSender {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &sseSender{w: w, flusher: flusher}
}

// sendJSON marshals v and sends it under the given event type.
func (s *sseSender) sendJSON(event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.send(event, string(data))
}

// send writes one event. Each line of a multi-line payload gets its own
// "data:" prefix; a bare newline in user output would otherwise break the
// event boundary.
func (s *sseSender) send(event, data string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "event: %s\n", event)
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(s.w, "data: %s\n", line)
	}
	fmt.Fprint(s.w, "\n")
	s.flusher.Flush()
}
