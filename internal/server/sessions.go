package server

import (
	"log/slog"
	"sync"

	"github.com/playperu/attractionmap/internal/attractions"
	"github.com/playperu/attractionmap/internal/explorer"
	"github.com/playperu/attractionmap/internal/render"
	"github.com/playperu/attractionmap/internal/spatial"
)

// Sessions owns the open explorer sessions and the canvas each one draws
// on. Frames and draw commands are published on the broker under the
// session ID.
type Sessions struct {
	*explorer.Registry
	broker *Broker

	mu       sync.RWMutex
	canvases map[string]*render.Canvas
}

func NewSessions(dataset []attractions.Attraction, engine spatial.Engine, broker *Broker, logger *slog.Logger) *Sessions {
	s := &Sessions{broker: broker, canvases: make(map[string]*render.Canvas)}
	s.Registry = explorer.NewRegistry(func(id string) (*explorer.Session, error) {
		canvas := render.NewCanvas(id, func(cmd render.Command) {
			broker.Publish(id, MessageDraw, cmd)
		})
		sess, err := explorer.Open(id, explorer.Options{
			Dataset: dataset,
			Engine:  engine,
			Surface: canvas,
			Logger:  logger,
			Publish: func(f explorer.Frame) { broker.Publish(id, MessageFrame, f) },
		})
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.canvases[id] = canvas
		s.mu.Unlock()
		return sess, nil
	})
	return s
}

func (s *Sessions) Canvas(id string) (*render.Canvas, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.canvases[id]
	return c, ok
}

// Delete closes the session and ends its streams.
func (s *Sessions) Delete(id string) error {
	if err := s.Registry.Delete(id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.canvases, id)
	s.mu.Unlock()
	s.broker.Drop(id)
	return nil
}

func (s *Sessions) Close() error {
	err := s.Registry.Close()
	s.mu.Lock()
	for id := range s.canvases {
		s.broker.Drop(id)
		delete(s.canvases, id)
	}
	s.mu.Unlock()
	return err
}
