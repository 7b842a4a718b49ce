package server

import (
	"encoding/json"
	"sync"
)

// Message types published per session.
const (
	MessageFrame = "frame"
	MessageDraw  = "draw"
)

// Message is the envelope sent to session subscribers.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Broker is an in-process pub/sub keyed by session ID. Slow subscribers
// miss messages instead of blocking publishers.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan Message]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan Message]struct{}),
	}
}

// Subscribe returns a channel that receives the session's messages. The
// channel is closed when the session is dropped.
func (b *Broker) Subscribe(sessionID string) chan Message {
	ch := make(chan Message, 64)
	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan Message]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(sessionID string, ch chan Message) {
	b.mu.Lock()
	delete(b.subs[sessionID], ch)
	if len(b.subs[sessionID]) == 0 {
		delete(b.subs, sessionID)
	}
	b.mu.Unlock()
}

func (b *Broker) Publish(sessionID, typ string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	msg := Message{Type: typ, Data: data}

	b.mu.RLock()
	for ch := range b.subs[sessionID] {
		select {
		case ch <- msg:
		default:
		}
	}
	b.mu.RUnlock()
}

// Drop closes every subscriber of the session.
func (b *Broker) Drop(sessionID string) {
	b.mu.Lock()
	for ch := range b.subs[sessionID] {
		close(ch)
	}
	delete(b.subs, sessionID)
	b.mu.Unlock()
}
