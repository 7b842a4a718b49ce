package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// handleEvents streams the session's messages as Server-Sent Events. The
// first event is a snapshot frame.
func handleEvents(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		ch := broker.Subscribe(sess.ID())
		defer broker.Unsubscribe(sess.ID(), ch)

		snapshot, _ := json.Marshal(sess.Snapshot())
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", MessageFrame, snapshot)
		flusher.Flush()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case msg, ok := <-ch:
				if !ok {
					fmt.Fprintf(w, "event: closed\ndata: {}\n\n")
					flusher.Flush()
					return
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, msg.Data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
