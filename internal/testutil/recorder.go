// Package testutil holds fakes shared by service tests.
package testutil

import (
	"sync"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
)

// Recorder is a notify.Dispatcher that keeps every dispatched event.
type Recorder struct {
	mu     sync.Mutex
	events []*domain.Event
}

func (r *Recorder) Dispatch(events ...*domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range events {
		if e != nil {
			r.events = append(r.events, e)
		}
	}
}

// Names returns the dispatched event names in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.Name
	}
	return names
}

// Count returns how many events named name were dispatched.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Name == name {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
