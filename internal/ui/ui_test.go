package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/nunvibe/internal/player"
	"github.com/desertthunder/nunvibe/internal/preview"
	"github.com/desertthunder/nunvibe/internal/selection"
	"github.com/desertthunder/nunvibe/internal/session"
	tu "github.com/desertthunder/nunvibe/internal/testing"
)

type fixture struct {
	model   *Model
	client  *tu.FakeRecommender
	widget  *tu.FakeWidget
	session *session.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := log.New(io.Discard)
	client := &tu.FakeRecommender{
		GenreNames:      []string{"rock", "jazz"},
		SampleSongs:     tu.Songs("a", "b"),
		Recommendations: tu.Songs("r1", "r2", "r3"),
		Refined:         tu.Songs("f1"),
	}
	widget := &tu.FakeWidget{}
	s := session.New(client, session.Options{Logger: logger})
	p := preview.New(widget, s, preview.Options{Logger: logger})

	m := NewModel(context.Background(), s, p, logger)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return &fixture{model: m, client: client, widget: widget, session: s}
}

// exec runs cmd and feeds its message back into the model, returning the follow-up command.
func (f *fixture) exec(t *testing.T, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	_, next := f.model.Update(cmd())
	return next
}

func (f *fixture) press(keys string) tea.Cmd {
	var msg tea.KeyMsg
	switch keys {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "space":
		msg = tea.KeyMsg{Type: tea.KeySpace}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	_, cmd := f.model.Update(msg)
	return cmd
}

func (f *fixture) loadCatalog(t *testing.T) {
	t.Helper()
	f.exec(t, f.model.begin(session.ActionLoadCatalog))
}

func (f *fixture) toSamples(t *testing.T) {
	t.Helper()
	f.loadCatalog(t)
	f.press("space")
	f.exec(t, f.press("enter"))
}

func TestModelFlow(t *testing.T) {
	t.Run("Catalog Populates Genre List", func(t *testing.T) {
		f := newFixture(t)
		f.loadCatalog(t)

		if n := len(f.model.genres.Items()); n != 2 {
			t.Fatalf("expected 2 genres, got %d", n)
		}
		if f.session.Loading() {
			t.Error("session should not be loading")
		}
	})

	t.Run("Space Toggles Genre", func(t *testing.T) {
		f := newFixture(t)
		f.loadCatalog(t)

		f.press("space")
		if got := f.session.Snapshot().SelectedGenres; len(got) != 1 || got[0] != "rock" {
			t.Fatalf("expected [rock], got %v", got)
		}
		if item := f.model.genres.Items()[0].(genreItem); !item.selected {
			t.Error("list item should render as selected")
		}

		f.press("space")
		if got := f.session.Snapshot().SelectedGenres; len(got) != 0 {
			t.Errorf("expected [], got %v", got)
		}
	})

	t.Run("Enter Without Genres Does Nothing", func(t *testing.T) {
		f := newFixture(t)
		f.loadCatalog(t)
		calls := f.client.CallCount()

		if cmd := f.press("enter"); cmd != nil {
			t.Error("expected no command")
		}
		if f.client.CallCount() != calls {
			t.Error("no request should be issued")
		}
		if f.model.status != "Select at least one genre." {
			t.Errorf("unexpected status %q", f.model.status)
		}
	})

	t.Run("Samples To Recommendations", func(t *testing.T) {
		f := newFixture(t)
		f.toSamples(t)

		if f.session.Step() != session.StepSamples {
			t.Fatalf("expected samples step, got %s", f.session.Step())
		}
		if n := len(f.model.songs.Items()); n != 2 {
			t.Fatalf("expected 2 sample rows, got %d", n)
		}

		f.press("l")
		if r := f.session.Rating(session.ChannelSample, "a"); r != selection.Liked {
			t.Errorf("expected a liked, got %s", r)
		}
		if item := f.model.songs.Items()[0].(songItem); item.rating != selection.Liked {
			t.Error("row should show the like")
		}

		f.exec(t, f.press("enter"))
		if f.session.Step() != session.StepRecommend {
			t.Fatalf("expected recommend step, got %s", f.session.Step())
		}
		if n := len(f.model.songs.Items()); n != 3 {
			t.Errorf("expected 3 recommendation rows, got %d", n)
		}
	})

	t.Run("Failed Request Shows Message", func(t *testing.T) {
		f := newFixture(t)
		f.client.SamplesErr = errors.New("boom")
		f.toSamples(t)

		if f.session.Step() != session.StepGenre {
			t.Errorf("expected to stay in genre step, got %s", f.session.Step())
		}
		if view := f.model.View(); !strings.Contains(view, session.MsgSamplesFailed) {
			t.Errorf("view should contain %q", session.MsgSamplesFailed)
		}
	})

	t.Run("Catalog Failure Banner", func(t *testing.T) {
		f := newFixture(t)
		f.client.GenresErr = errors.New("down")
		f.loadCatalog(t)

		if view := f.model.View(); !strings.Contains(view, session.MsgCatalogFailed) {
			t.Errorf("view should contain %q", session.MsgCatalogFailed)
		}

		f.client.GenresErr = nil
		f.exec(t, f.press("r"))
		if f.session.CatalogError() != "" {
			t.Error("catalog error should clear after retry")
		}
	})

	t.Run("Batch Size Keys", func(t *testing.T) {
		f := newFixture(t)

		f.press("]")
		if f.session.BatchSize() != session.DefaultBatchSize+1 {
			t.Errorf("expected %d, got %d", session.DefaultBatchSize+1, f.session.BatchSize())
		}
		f.press("[")
		f.press("[")
		if f.session.BatchSize() != session.DefaultBatchSize-1 {
			t.Errorf("expected %d, got %d", session.DefaultBatchSize-1, f.session.BatchSize())
		}
	})
}

func TestModelPreview(t *testing.T) {
	t.Run("Auto Start Consumed Once", func(t *testing.T) {
		f := newFixture(t)
		f.toSamples(t)

		wait := f.press("p")
		h := f.widget.Last()
		if h == nil {
			t.Fatal("expected a mounted preview")
		}
		if h.Options.URI != "a" {
			t.Errorf("expected preview of a, got %s", h.Options.URI)
		}

		h.Emit(player.Event{Kind: player.EventReady})
		wait = f.exec(t, wait)
		if h.PlayCount() != 1 {
			t.Fatalf("expected 1 play, got %d", h.PlayCount())
		}

		h.Emit(player.Event{Kind: player.EventReady})
		f.exec(t, wait)
		if h.PlayCount() != 1 {
			t.Errorf("second ready must not replay, got %d plays", h.PlayCount())
		}
	})

	t.Run("Preview Marks Active Channel", func(t *testing.T) {
		f := newFixture(t)
		f.toSamples(t)
		f.press("p")

		f.press("L")
		if r := f.session.Rating(session.ChannelSample, "a"); r != selection.Liked {
			t.Errorf("expected a liked via preview, got %s", r)
		}
		if view := f.model.View(); !strings.Contains(view, "♥") {
			t.Error("preview panel should show the like")
		}

		f.press("D")
		if r := f.session.Rating(session.ChannelSample, "a"); r != selection.Disliked {
			t.Errorf("expected a disliked via preview, got %s", r)
		}
	})

	t.Run("Close Releases Handle", func(t *testing.T) {
		f := newFixture(t)
		f.toSamples(t)
		wait := f.press("p")
		h := f.widget.Last()

		f.press("x")
		if !h.Closed {
			t.Error("handle should be closed")
		}
		if f.model.preview.Staged() != "" {
			t.Error("nothing should be staged after close")
		}

		if next := f.exec(t, wait); next != nil {
			t.Error("closed handle should not be read again")
		}
	})

	t.Run("Toggle Without Preview", func(t *testing.T) {
		f := newFixture(t)
		f.toSamples(t)

		f.press("space")
		if f.model.status == "" {
			t.Error("expected a status message when nothing is staged")
		}
	})
}

func TestHint(t *testing.T) {
	tests := []struct {
		name   string
		action session.Action
		snap   session.Snapshot
		want   string
	}{
		{"Loading", session.ActionRefine, session.Snapshot{Loading: true}, "Please wait for the current request."},
		{"No Genres", session.ActionRequestSamples, session.Snapshot{}, "Select at least one genre."},
		{"No Sample Ratings", session.ActionRequestRecommendations, session.Snapshot{Step: session.StepSamples}, "Rate at least one sample."},
		{"No Rec Ratings", session.ActionRefine, session.Snapshot{Step: session.StepRecommend}, "Rate at least one recommendation."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hint(tt.action, tt.snap); got != tt.want {
				t.Errorf("hint() = %q, want %q", got, tt.want)
			}
		})
	}
}
