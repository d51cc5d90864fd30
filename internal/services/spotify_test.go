package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/nunvibe/internal/player"
	"github.com/desertthunder/nunvibe/internal/shared"
	"github.com/zmb3/spotify"
	"golang.org/x/oauth2"
)

type fakeSpotify struct {
	mu        sync.Mutex
	devices   []spotify.PlayerDevice
	playing   *spotify.CurrentlyPlaying
	playOpts  []*spotify.PlayOptions
	plays     int
	pauses    int
	err       error
	deviceErr error
}

func (f *fakeSpotify) PlayOpt(opt *spotify.PlayOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playOpts = append(f.playOpts, opt)
	return f.err
}

func (f *fakeSpotify) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays++
	return f.err
}

func (f *fakeSpotify) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
	return f.err
}

func (f *fakeSpotify) PlayerCurrentlyPlaying() (*spotify.CurrentlyPlaying, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing, f.err
}

func (f *fakeSpotify) PlayerDevices() ([]spotify.PlayerDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.devices, f.deviceErr
}

func nextEvent(t *testing.T, events <-chan player.Event) player.Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		if !ok {
			t.Fatal("events channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return player.Event{}
}

func TestSpotifyOAuthConfig(t *testing.T) {
	t.Run("Missing Client ID", func(t *testing.T) {
		_, err := SpotifyOAuthConfig(shared.SpotifyConfig{ClientSecret: "s"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Missing Client Secret", func(t *testing.T) {
		_, err := SpotifyOAuthConfig(shared.SpotifyConfig{ClientID: "id"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Default Redirect URI And Scopes", func(t *testing.T) {
		oc, err := SpotifyOAuthConfig(shared.SpotifyConfig{ClientID: "id", ClientSecret: "s"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if oc.RedirectURL != defaultSpotifyRedirect {
			t.Errorf("expected default redirect, got %s", oc.RedirectURL)
		}
		if len(oc.Scopes) != 3 {
			t.Errorf("expected playback scopes, got %v", oc.Scopes)
		}
		if oc.Endpoint.TokenURL != spotify.TokenURL {
			t.Errorf("unexpected token URL %s", oc.Endpoint.TokenURL)
		}
	})
}

func TestNewSpotifyWidget(t *testing.T) {
	t.Run("Requires Token", func(t *testing.T) {
		_, err := NewSpotifyWidget(context.Background(), shared.SpotifyConfig{ClientID: "id", ClientSecret: "s"}, time.Second, nil)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("With Saved Token", func(t *testing.T) {
		cfg := shared.SpotifyConfig{ClientID: "id", ClientSecret: "s"}
		cfg.Update(&oauth2.Token{AccessToken: "a", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)})

		w, err := NewSpotifyWidget(context.Background(), cfg, 0, shared.NewLogger(io.Discard))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if w.poll != time.Second {
			t.Errorf("expected default poll, got %v", w.poll)
		}
		tok, err := w.Token()
		if err != nil || tok.AccessToken != "a" {
			t.Errorf("expected saved token, got %+v %v", tok, err)
		}
	})
}

func TestSpotifyWidget(t *testing.T) {
	ctx := context.Background()
	logger := shared.NewLogger(io.Discard)

	t.Run("Ready Waits For A Device", func(t *testing.T) {
		fake := &fakeSpotify{}
		w := newSpotifyWidget(fake, 5*time.Millisecond, logger)
		h, err := w.Open(ctx, player.Options{URI: "spotify:track:1"})
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		defer h.Close()

		select {
		case ev := <-h.Events():
			t.Fatalf("unexpected event before a device exists: %+v", ev)
		case <-time.After(20 * time.Millisecond):
		}

		fake.mu.Lock()
		fake.devices = []spotify.PlayerDevice{{ID: "d1", Name: "Laptop", Active: true}}
		fake.mu.Unlock()

		ev := nextEvent(t, h.Events())
		if ev.Kind != player.EventReady || ev.URI != "spotify:track:1" {
			t.Errorf("expected ready, got %+v", ev)
		}
	})

	t.Run("Polls Progress", func(t *testing.T) {
		fake := &fakeSpotify{
			devices: []spotify.PlayerDevice{{ID: "d1"}},
			playing: &spotify.CurrentlyPlaying{
				Progress: 1500,
				Playing:  true,
				Item:     &spotify.FullTrack{SimpleTrack: spotify.SimpleTrack{URI: "spotify:track:1", Duration: 30000}},
			},
		}
		h, _ := newSpotifyWidget(fake, 5*time.Millisecond, logger).Open(ctx, player.Options{URI: "spotify:track:1"})
		defer h.Close()

		nextEvent(t, h.Events())
		ev := nextEvent(t, h.Events())
		if ev.Kind != player.EventPlaybackUpdate || ev.Paused {
			t.Fatalf("expected playing update, got %+v", ev)
		}
		if ev.Position != 1500*time.Millisecond || ev.Duration != 30*time.Second {
			t.Errorf("unexpected progress %v/%v", ev.Position, ev.Duration)
		}
	})

	t.Run("Play Starts Cued Uri Then Resumes", func(t *testing.T) {
		fake := &fakeSpotify{}
		h, _ := newSpotifyWidget(fake, time.Hour, logger).Open(ctx, player.Options{URI: "spotify:track:1"})
		defer h.Close()

		h.Play(ctx)
		h.Pause(ctx)
		h.Play(ctx)
		h.Load(ctx, "spotify:track:2")
		h.Play(ctx)

		fake.mu.Lock()
		defer fake.mu.Unlock()
		if len(fake.playOpts) != 2 {
			t.Fatalf("expected 2 PlayOpt calls, got %d", len(fake.playOpts))
		}
		if got := fake.playOpts[1].URIs[0]; got != "spotify:track:2" {
			t.Errorf("expected second uri, got %s", got)
		}
		if fake.plays != 1 || fake.pauses != 1 {
			t.Errorf("expected one resume and one pause, got %d %d", fake.plays, fake.pauses)
		}
	})

	t.Run("Command Errors", func(t *testing.T) {
		fake := &fakeSpotify{err: errors.New("NO_ACTIVE_DEVICE")}
		h, _ := newSpotifyWidget(fake, time.Hour, logger).Open(ctx, player.Options{URI: "spotify:track:1"})
		defer h.Close()

		if err := h.Play(ctx); !errors.Is(err, shared.ErrPlayerUnavailable) {
			t.Errorf("expected ErrPlayerUnavailable, got %v", err)
		}
		if err := h.Pause(ctx); !errors.Is(err, shared.ErrPlayerUnavailable) {
			t.Errorf("expected ErrPlayerUnavailable, got %v", err)
		}
	})

	t.Run("Close", func(t *testing.T) {
		fake := &fakeSpotify{}
		h, _ := newSpotifyWidget(fake, 5*time.Millisecond, logger).Open(ctx, player.Options{URI: "spotify:track:1"})
		h.Close()
		h.Close()

		select {
		case _, ok := <-h.Events():
			if ok {
				t.Error("expected closed channel")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("events channel never closed")
		}
		if err := h.Load(ctx, "x"); !errors.Is(err, shared.ErrPlayerUnavailable) {
			t.Errorf("expected ErrPlayerUnavailable, got %v", err)
		}
	})

	t.Run("Devices", func(t *testing.T) {
		fake := &fakeSpotify{devices: []spotify.PlayerDevice{{ID: "d1", Name: "Laptop", Type: "Computer", Active: true}}}
		devices, err := newSpotifyWidget(fake, time.Second, logger).Devices(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(devices) != 1 || devices[0] != (Device{ID: "d1", Name: "Laptop", Type: "Computer", Active: true}) {
			t.Errorf("unexpected devices %+v", devices)
		}

		fake.deviceErr = errors.New("unauthorized")
		if _, err := newSpotifyWidget(fake, time.Second, logger).Devices(ctx); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}
