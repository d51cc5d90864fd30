// Spotify Connect playback widget
//
// Previews play on the user's active Spotify device. The widget only needs the playback scopes;
// it never reads the library.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nunvibe/internal/player"
	"github.com/desertthunder/nunvibe/internal/shared"
	"github.com/zmb3/spotify"
	"golang.org/x/oauth2"
)

const defaultSpotifyRedirect = "http://127.0.0.1:3000/callback"

var spotifyScopes = []string{
	spotify.ScopeUserReadPlaybackState,
	spotify.ScopeUserModifyPlaybackState,
	spotify.ScopeUserReadCurrentlyPlaying,
}

// SpotifyOAuthConfig builds the authorization-code config for the playback scopes.
func SpotifyOAuthConfig(cfg shared.SpotifyConfig) (*oauth2.Config, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: spotify client_id", shared.ErrMissingCredentials)
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_secret", shared.ErrMissingCredentials)
	}

	redirect := cfg.RedirectURI
	if redirect == "" {
		redirect = defaultSpotifyRedirect
	}

	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirect,
		Scopes:       spotifyScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotify.AuthURL,
			TokenURL: spotify.TokenURL,
		},
	}, nil
}

// spotifyPlayer is the subset of the spotify.Client used by the widget.
type spotifyPlayer interface {
	PlayOpt(opt *spotify.PlayOptions) error
	Play() error
	Pause() error
	PlayerCurrentlyPlaying() (*spotify.CurrentlyPlaying, error)
	PlayerDevices() ([]spotify.PlayerDevice, error)
}

// Device is a Spotify Connect device.
type Device struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Active bool   `json:"active"`
}

// SpotifyWidget implements [player.Widget] on Spotify Connect.
type SpotifyWidget struct {
	client spotifyPlayer
	poll   time.Duration
	logger *log.Logger
	token  func() (*oauth2.Token, error)
}

// NewSpotifyWidget creates a widget from stored credentials. It fails with
// [shared.ErrNotAuthenticated] when no token has been saved.
func NewSpotifyWidget(ctx context.Context, cfg shared.SpotifyConfig, poll time.Duration, logger *log.Logger) (*SpotifyWidget, error) {
	oc, err := SpotifyOAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	token := cfg.Token()
	if token == nil {
		return nil, fmt.Errorf("%w: run `nunvibe spotify auth` first", shared.ErrNotAuthenticated)
	}

	auth := spotify.NewAuthenticator(oc.RedirectURL, oc.Scopes...)
	auth.SetAuthInfo(oc.ClientID, oc.ClientSecret)
	client := auth.NewClient(token)

	w := newSpotifyWidget(&client, poll, logger)
	w.token = client.Token
	return w, nil
}

func newSpotifyWidget(client spotifyPlayer, poll time.Duration, logger *log.Logger) *SpotifyWidget {
	if poll <= 0 {
		poll = time.Second
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SpotifyWidget{client: client, poll: poll, logger: logger}
}

func (w *SpotifyWidget) Name() string { return "Spotify" }

// Token returns the current, possibly refreshed, token so callers can persist it.
func (w *SpotifyWidget) Token() (*oauth2.Token, error) {
	if w.token == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return w.token()
}

// Devices lists the user's Connect devices.
func (w *SpotifyWidget) Devices(ctx context.Context) ([]Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	devices, err := w.client.PlayerDevices()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	out := make([]Device, 0, len(devices))
	for _, d := range devices {
		out = append(out, Device{ID: string(d.ID), Name: d.Name, Type: d.Type, Active: d.Active})
	}
	return out, nil
}

// Open starts a handle that reports ready once a device is available and then polls
// playback progress.
func (w *SpotifyWidget) Open(ctx context.Context, opts player.Options) (player.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h := &spotifyHandle{
		client: w.client,
		poll:   w.poll,
		logger: w.logger,
		uri:    opts.URI,
		cued:   true,
		events: make(chan player.Event, 8),
		done:   make(chan struct{}),
	}
	go h.loop()
	return h, nil
}

type spotifyHandle struct {
	client spotifyPlayer
	poll   time.Duration
	logger *log.Logger

	mu   sync.Mutex
	uri  string
	cued bool

	events chan player.Event
	done   chan struct{}
	once   sync.Once
}

func (h *spotifyHandle) loop() {
	defer close(h.events)

	ticker := time.NewTicker(h.poll)
	defer ticker.Stop()

	ready := false
	for {
		if !ready {
			if devices, err := h.client.PlayerDevices(); err != nil {
				h.logger.Debug("device lookup failed", "err", err)
			} else if len(devices) > 0 {
				ready = true
				h.mu.Lock()
				ev := player.Event{Kind: player.EventReady, URI: h.uri}
				h.mu.Unlock()
				if !h.emit(ev) {
					return
				}
			}
		} else if ev, ok := h.progress(); ok && !h.emit(ev) {
			return
		}

		select {
		case <-h.done:
			return
		case <-ticker.C:
		}
	}
}

func (h *spotifyHandle) progress() (player.Event, bool) {
	cp, err := h.client.PlayerCurrentlyPlaying()
	if err != nil {
		h.logger.Debug("playback poll failed", "err", err)
		return player.Event{}, false
	}
	if cp == nil || cp.Item == nil {
		return player.Event{}, false
	}
	return player.Event{
		Kind:     player.EventPlaybackUpdate,
		URI:      string(cp.Item.URI),
		Paused:   !cp.Playing,
		Position: time.Duration(cp.Progress) * time.Millisecond,
		Duration: time.Duration(cp.Item.Duration) * time.Millisecond,
	}, true
}

func (h *spotifyHandle) emit(ev player.Event) bool {
	select {
	case h.events <- ev:
		return true
	case <-h.done:
		return false
	}
}

func (h *spotifyHandle) check(ctx context.Context) error {
	select {
	case <-h.done:
		return fmt.Errorf("%w: handle closed", shared.ErrPlayerUnavailable)
	default:
	}
	return ctx.Err()
}

// Load cues uri; the next Play starts it from the beginning.
func (h *spotifyHandle) Load(ctx context.Context, uri string) error {
	if err := h.check(ctx); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.uri = uri
	h.cued = true
	return nil
}

func (h *spotifyHandle) Play(ctx context.Context) error {
	if err := h.check(ctx); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cued {
		opt := &spotify.PlayOptions{URIs: []spotify.URI{spotify.URI(h.uri)}}
		if err := h.client.PlayOpt(opt); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrPlayerUnavailable, err)
		}
		h.cued = false
		return nil
	}
	if err := h.client.Play(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrPlayerUnavailable, err)
	}
	return nil
}

func (h *spotifyHandle) Pause(ctx context.Context) error {
	if err := h.check(ctx); err != nil {
		return err
	}
	if err := h.client.Pause(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrPlayerUnavailable, err)
	}
	return nil
}

func (h *spotifyHandle) Events() <-chan player.Event { return h.events }

func (h *spotifyHandle) Close() error {
	h.once.Do(func() { close(h.done) })
	return nil
}
