// package player defines the playback collaborator used for song previews.
//
// A [Widget] hands out a [Handle] for one mounted preview. The handle reports readiness and
// playback progress on its [Handle.Events] channel and accepts load/play/pause commands.
// Close releases the handle and closes the channel; no events are delivered afterwards.
package player

import (
	"context"
	"time"
)

// EventKind distinguishes widget events.
type EventKind int

const (
	EventReady EventKind = iota
	EventPlaybackUpdate
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventPlaybackUpdate:
		return "playback_update"
	default:
		return "unknown"
	}
}

// Event is a notification from a [Handle].
type Event struct {
	Kind     EventKind
	URI      string
	Paused   bool
	Position time.Duration
	Duration time.Duration
}

// Options describe the preview to mount.
type Options struct {
	URI    string
	Width  string
	Height int
}

// Widget creates playback handles.
type Widget interface {
	Open(ctx context.Context, opts Options) (Handle, error)
}

// Handle controls one mounted preview.
type Handle interface {
	// Load cues uri without starting playback.
	Load(ctx context.Context, uri string) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Events() <-chan Event
	// Close deregisters listeners and closes the events channel. It is safe to call twice.
	Close() error
}
