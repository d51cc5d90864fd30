package testing

import (
	"context"
	"sync"

	"github.com/desertthunder/nunvibe/internal/player"
)

// FakeWidget is a test double for player.Widget. Every Open returns a new [FakeHandle].
type FakeWidget struct {
	mu      sync.Mutex
	Handles []*FakeHandle
	OpenErr error
}

func (w *FakeWidget) Open(ctx context.Context, opts player.Options) (player.Handle, error) {
	if w.OpenErr != nil {
		return nil, w.OpenErr
	}
	h := &FakeHandle{Options: opts, events: make(chan player.Event, 16)}

	w.mu.Lock()
	w.Handles = append(w.Handles, h)
	w.mu.Unlock()
	return h, nil
}

// Last returns the most recently opened handle, or nil.
func (w *FakeWidget) Last() *FakeHandle {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.Handles) == 0 {
		return nil
	}
	return w.Handles[len(w.Handles)-1]
}

// FakeHandle records commands; tests push events with Emit.
type FakeHandle struct {
	mu      sync.Mutex
	Options player.Options
	Loads   []string
	Plays   int
	Pauses  int
	Closed  bool
	CmdErr  error
	events  chan player.Event
}

func (h *FakeHandle) Load(ctx context.Context, uri string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Loads = append(h.Loads, uri)
	return h.CmdErr
}

func (h *FakeHandle) Play(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Plays++
	return h.CmdErr
}

func (h *FakeHandle) Pause(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Pauses++
	return h.CmdErr
}

func (h *FakeHandle) Events() <-chan player.Event { return h.events }

func (h *FakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.Closed {
		h.Closed = true
		close(h.events)
	}
	return nil
}

// Emit queues an event unless the handle is closed.
func (h *FakeHandle) Emit(ev player.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.Closed {
		h.events <- ev
	}
}

// PlayCount returns the number of Play commands.
func (h *FakeHandle) PlayCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Plays
}
