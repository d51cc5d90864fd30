// package preview keeps the preview panel, the playback widget and the active feedback channel
// in agreement about the staged song.
//
// The [Controller] holds at most one widget handle. Each handle gets a new generation number;
// events carrying an older generation are dropped so a replaced or closed preview can never
// affect the current one.
package preview

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nunvibe/internal/player"
	"github.com/desertthunder/nunvibe/internal/selection"
	"github.com/desertthunder/nunvibe/internal/shared"
)

// TrailingWindow is how close to the end of a track playback counts as stopped.
const TrailingWindow = time.Second

// Feedback is the part of a session the preview writes ratings through.
type Feedback interface {
	MarkActive(uri string, liked bool) (selection.Rating, error)
	ActiveRating(uri string) selection.Rating
}

// Options configures the mounted widget.
type Options struct {
	Width  string
	Height int
	Logger *log.Logger
}

// Controller owns the preview state for one panel.
type Controller struct {
	widget   player.Widget
	feedback Feedback
	opts     Options
	logger   *log.Logger

	handle player.Handle
	gen    uint64
	ready  bool

	staged           string
	autoStartPending bool

	playing  bool
	position time.Duration
	duration time.Duration
}

// New creates a controller with nothing staged.
func New(widget player.Widget, feedback Feedback, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Controller{widget: widget, feedback: feedback, opts: opts, logger: logger}
}

// Staged returns the staged uri, or "".
func (c *Controller) Staged() string { return c.staged }

// AutoStartPending reports whether playback will start on the next ready event.
func (c *Controller) AutoStartPending() bool { return c.autoStartPending }

// Ready reports whether the current handle has signalled readiness.
func (c *Controller) Ready() bool { return c.handle != nil && c.ready }

// IsPlaying is derived from the last playback update.
func (c *Controller) IsPlaying() bool { return c.playing }

// Progress returns the last reported position and duration.
func (c *Controller) Progress() (position, duration time.Duration) {
	return c.position, c.duration
}

// Generation identifies the current handle.
func (c *Controller) Generation() uint64 { return c.gen }

// Events returns the current handle's event channel and generation. The channel is nil when no
// preview is mounted.
func (c *Controller) Events() (<-chan player.Event, uint64) {
	if c.handle == nil {
		return nil, c.gen
	}
	return c.handle.Events(), c.gen
}

// Stage makes uri the staged song.
//
// The first stage mounts a widget handle; playback waits for its ready event. Later stages
// reuse the handle and load the new uri. With autoStart the song starts playing once, as soon as
// the handle is ready.
func (c *Controller) Stage(ctx context.Context, uri string, autoStart bool) error {
	if uri == "" {
		return fmt.Errorf("%w: empty uri", shared.ErrInvalidArgument)
	}

	prevStaged, prevAutoStart := c.staged, c.autoStartPending
	c.staged = uri
	c.autoStartPending = autoStart

	if c.handle == nil {
		h, err := c.widget.Open(ctx, player.Options{URI: uri, Width: c.opts.Width, Height: c.opts.Height})
		if err != nil {
			c.staged = ""
			c.autoStartPending = false
			return fmt.Errorf("%w: %w", shared.ErrPlayerUnavailable, err)
		}
		c.handle = h
		c.gen++
		c.ready = false
		c.playing = false
		c.position, c.duration = 0, 0
		c.logger.Debug("preview mounted", "uri", uri, "generation", c.gen)
		return nil
	}

	if err := c.handle.Load(ctx, uri); err != nil {
		c.staged, c.autoStartPending = prevStaged, prevAutoStart
		return fmt.Errorf("failed to load %s: %w", uri, err)
	}
	c.playing = false
	c.position, c.duration = 0, 0
	if c.ready {
		return c.consumeAutoStart(ctx)
	}
	return nil
}

func (c *Controller) consumeAutoStart(ctx context.Context) error {
	if !c.autoStartPending || c.staged == "" {
		return nil
	}
	c.autoStartPending = false
	if err := c.handle.Play(ctx); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}
	c.playing = true
	return nil
}

// HandleEvent applies an event read from the channel returned by [Controller.Events] with the
// same generation. Events from an older generation are ignored.
func (c *Controller) HandleEvent(ctx context.Context, gen uint64, ev player.Event) error {
	if c.handle == nil || gen != c.gen {
		c.logger.Debug("ignoring stale preview event", "kind", ev.Kind, "generation", gen, "current", c.gen)
		return nil
	}

	switch ev.Kind {
	case player.EventReady:
		c.ready = true
		return c.consumeAutoStart(ctx)
	case player.EventPlaybackUpdate:
		if ev.URI != "" && ev.URI != c.staged {
			return nil
		}
		c.position, c.duration = ev.Position, ev.Duration
		c.playing = Playing(ev)
	}
	return nil
}

// Playing derives the play state from an update. A track within [TrailingWindow] of its end
// counts as stopped.
func Playing(ev player.Event) bool {
	if ev.Paused {
		return false
	}
	return !(ev.Duration > 0 && ev.Duration-ev.Position <= TrailingWindow)
}

// TogglePlayback pauses a playing preview or starts a stopped one. Before the handle is ready
// the request is queued as an auto-start.
func (c *Controller) TogglePlayback(ctx context.Context) error {
	if c.handle == nil || c.staged == "" {
		return shared.ErrNothingStaged
	}
	if !c.ready {
		c.autoStartPending = !c.autoStartPending
		return nil
	}

	if c.playing {
		if err := c.handle.Pause(ctx); err != nil {
			return fmt.Errorf("failed to pause: %w", err)
		}
		c.playing = false
		return nil
	}
	if err := c.handle.Play(ctx); err != nil {
		return fmt.Errorf("failed to play: %w", err)
	}
	c.playing = true
	return nil
}

// Close releases the widget handle and clears the staged song.
func (c *Controller) Close() error {
	var err error
	if c.handle != nil {
		err = c.handle.Close()
		c.handle = nil
		c.gen++
	}
	c.ready = false
	c.staged = ""
	c.autoStartPending = false
	c.playing = false
	c.position, c.duration = 0, 0
	return err
}

// LikeCurrent toggles a like on the staged song in the active channel. It does nothing when
// nothing is staged.
func (c *Controller) LikeCurrent() (selection.Rating, error) { return c.mark(true) }

// DislikeCurrent toggles a dislike on the staged song in the active channel.
func (c *Controller) DislikeCurrent() (selection.Rating, error) { return c.mark(false) }

func (c *Controller) mark(liked bool) (selection.Rating, error) {
	if c.staged == "" {
		return selection.Unrated, nil
	}
	return c.feedback.MarkActive(c.staged, liked)
}

// IsLiked reads the staged song's rating from the active channel.
func (c *Controller) IsLiked() bool {
	return c.staged != "" && c.feedback.ActiveRating(c.staged) == selection.Liked
}

func (c *Controller) IsDisliked() bool {
	return c.staged != "" && c.feedback.ActiveRating(c.staged) == selection.Disliked
}
