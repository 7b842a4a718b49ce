package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/attractionmap/internal/render"
	"github.com/playperu/attractionmap/internal/selection"
	"github.com/playperu/attractionmap/internal/spatial"
)

// LiveEvent is a message from the browser map client.
type LiveEvent struct {
	Type   string               `json:"type" enum:"click,dismiss"`
	Marker spatial.MarkerHandle `json:"marker,omitempty"`
}

// LiveScene is the first message on a live connection.
type LiveScene struct {
	Type  string       `json:"type"`
	Scene render.Scene `json:"scene"`
}

// handleLive connects a browser map to the session canvas: the current
// scene and then every draw command go out, marker clicks come in.
func handleLive(logger *slog.Logger, sessions *Sessions, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		canvas, ok := sessions.Canvas(sess.ID())
		if !ok {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), time.Hour)
		defer cancel()

		ch := broker.Subscribe(sess.ID())
		defer broker.Unsubscribe(sess.ID(), ch)

		if err := wsjson.Write(ctx, conn, LiveScene{Type: "scene", Scene: canvas.Scene()}); err != nil {
			logger.Debug("websocket write failed", "error", err)
			return
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case msg, ok := <-ch:
					if !ok {
						conn.Close(websocket.StatusGoingAway, "session closed")
						return nil
					}
					if msg.Type != MessageDraw {
						continue
					}
					if err := conn.Write(gctx, websocket.MessageText, wrapDraw(msg.Data)); err != nil {
						return err
					}
				}
			}
		})
		g.Go(func() error {
			for {
				var ev LiveEvent
				if err := wsjson.Read(gctx, conn, &ev); err != nil {
					return err
				}
				switch ev.Type {
				case "click":
					if !canvas.Activate(ev.Marker) {
						logger.Debug("click on stale marker", "marker", ev.Marker)
					}
				case "dismiss":
					sess.Clear(selection.SourceMap)
				}
			}
		})

		if err := g.Wait(); err != nil {
			logger.Debug("websocket closed", "session", sess.ID(), "error", err)
		}
	}
}

func wrapDraw(cmd json.RawMessage) []byte {
	out, _ := json.Marshal(struct {
		Type    string          `json:"type"`
		Command json.RawMessage `json:"command"`
	}{Type: MessageDraw, Command: cmd})
	return out
}
