package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/nunvibe/internal/shared"
)

// DefaultPreviewLength is the simulated length of every track.
const DefaultPreviewLength = 30 * time.Second

// Silent is a [Widget] that simulates playback without producing audio.
//
// Handles emit ready once, then a playback update after every command and on every tick while
// playing. Playback pauses itself at the end of the track.
type Silent struct {
	Tick   time.Duration
	Length time.Duration
}

// NewSilent creates a simulated widget that advances playback every tick.
func NewSilent(tick time.Duration) *Silent {
	if tick <= 0 {
		tick = time.Second
	}
	return &Silent{Tick: tick, Length: DefaultPreviewLength}
}

func (w *Silent) Open(ctx context.Context, opts Options) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	length := w.Length
	if length <= 0 {
		length = DefaultPreviewLength
	}
	tick := w.Tick
	if tick <= 0 {
		tick = time.Second
	}

	h := &silentHandle{
		uri:    opts.URI,
		paused: true,
		length: length,
		tick:   tick,
		events: make(chan Event, 8),
		poke:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go h.loop()
	return h, nil
}

type silentHandle struct {
	mu       sync.Mutex
	uri      string
	paused   bool
	position time.Duration
	length   time.Duration
	tick     time.Duration

	events chan Event
	poke   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func (h *silentHandle) loop() {
	defer close(h.events)

	h.mu.Lock()
	ready := Event{Kind: EventReady, URI: h.uri}
	h.mu.Unlock()
	if !h.emit(ready) {
		return
	}

	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-h.poke:
			if !h.emit(h.snapshot()) {
				return
			}
		case <-ticker.C:
			if h.advance() && !h.emit(h.snapshot()) {
				return
			}
		}
	}
}

// advance moves the playhead and reports whether anything changed.
func (h *silentHandle) advance() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.paused {
		return false
	}
	h.position += h.tick
	if h.position >= h.length {
		h.position = h.length
		h.paused = true
	}
	return true
}

func (h *silentHandle) snapshot() Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Event{Kind: EventPlaybackUpdate, URI: h.uri, Paused: h.paused, Position: h.position, Duration: h.length}
}

func (h *silentHandle) emit(ev Event) bool {
	select {
	case h.events <- ev:
		return true
	case <-h.done:
		return false
	}
}

func (h *silentHandle) signal() {
	select {
	case h.poke <- struct{}{}:
	default:
	}
}

func (h *silentHandle) closed() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *silentHandle) command(fn func()) error {
	if h.closed() {
		return fmt.Errorf("%w: handle closed", shared.ErrPlayerUnavailable)
	}
	h.mu.Lock()
	fn()
	h.mu.Unlock()
	h.signal()
	return nil
}

func (h *silentHandle) Load(_ context.Context, uri string) error {
	return h.command(func() {
		h.uri = uri
		h.position = 0
		h.paused = true
	})
}

func (h *silentHandle) Play(context.Context) error {
	return h.command(func() {
		if h.position >= h.length {
			h.position = 0
		}
		h.paused = false
	})
}

func (h *silentHandle) Pause(context.Context) error {
	return h.command(func() { h.paused = true })
}

func (h *silentHandle) Events() <-chan Event { return h.events }

func (h *silentHandle) Close() error {
	h.once.Do(func() { close(h.done) })
	return nil
}
