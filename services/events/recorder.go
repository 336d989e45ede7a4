package events

import (
	"context"
	"sync"

	"github.com/kipkoec77/Edureach/core"
)

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []core.Event
	Err    error // returned by Publish when set
}

var _ core.EventPublisher = (*Recorder)(nil)

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Publish(_ context.Context, events ...core.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, events...)
	return nil
}

func (r *Recorder) Events() []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Event{}, r.events...)
}

// Types returns the types of the recorded events, in publication order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
