package selection

import (
	"math/rand"
	"slices"
	"testing"
)

func TestSet(t *testing.T) {
	t.Run("Toggle Adds Then Removes", func(t *testing.T) {
		s := NewSet[string](3)

		if !s.Toggle("rock") {
			t.Error("expected rock to be added")
		}
		if got := s.Items(); !slices.Equal(got, []string{"rock"}) {
			t.Errorf("expected [rock], got %v", got)
		}

		if s.Toggle("rock") {
			t.Error("expected rock to be removed")
		}
		if got := s.Items(); len(got) != 0 {
			t.Errorf("expected empty set, got %v", got)
		}
	})

	t.Run("Preserves Insertion Order", func(t *testing.T) {
		s := NewSet[string](Unbounded)
		for _, g := range []string{"jazz", "rock", "folk"} {
			s.Toggle(g)
		}
		s.Toggle("rock")
		s.Toggle("rock")

		if got := s.Items(); !slices.Equal(got, []string{"jazz", "folk", "rock"}) {
			t.Errorf("unexpected order %v", got)
		}
	})

	t.Run("Toggle Past Cap Is A No-Op", func(t *testing.T) {
		s := NewSet[string](3)
		for _, g := range []string{"a", "b", "c"} {
			s.Toggle(g)
		}

		if s.Toggle("d") {
			t.Error("expected d to be rejected")
		}
		if got := s.Items(); !slices.Equal(got, []string{"a", "b", "c"}) {
			t.Errorf("expected set unchanged, got %v", got)
		}
		if !s.Full() {
			t.Error("expected set to be full")
		}

		s.Toggle("b")
		if !s.Toggle("d") {
			t.Error("expected d to fit after removing b")
		}
	})

	t.Run("Items Returns A Copy", func(t *testing.T) {
		s := NewSet[string](Unbounded)
		s.Toggle("a")
		items := s.Items()
		items[0] = "mutated"

		if !s.Contains("a") {
			t.Error("mutating Items result should not affect the set")
		}
	})

	t.Run("Random Toggles Respect Cap And Uniqueness", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		universe := []string{"a", "b", "c", "d", "e", "f"}

		for _, limit := range []int{1, 3, 5} {
			s := NewSet[string](limit)
			for range 1000 {
				s.Toggle(universe[rng.Intn(len(universe))])

				if s.Len() > limit {
					t.Fatalf("cap %d exceeded: %v", limit, s.Items())
				}
				seen := map[string]bool{}
				for _, item := range s.Items() {
					if seen[item] {
						t.Fatalf("duplicate %q in %v", item, s.Items())
					}
					seen[item] = true
				}
			}
		}
	})

	t.Run("Clear", func(t *testing.T) {
		s := NewSet[int](Unbounded)
		s.Toggle(1)
		s.Toggle(2)
		s.Clear()

		if s.Len() != 0 || s.Contains(1) {
			t.Error("expected empty set after Clear")
		}
	})
}

func TestFeedback(t *testing.T) {
	t.Run("Like Then Dislike Moves The Song", func(t *testing.T) {
		f := NewFeedback()

		f.Mark("a", true)
		f.Mark("a", false)

		if len(f.Liked()) != 0 {
			t.Errorf("expected no liked songs, got %v", f.Liked())
		}
		if got := f.Disliked(); !slices.Equal(got, []string{"a"}) {
			t.Errorf("expected disliked [a], got %v", got)
		}
		if f.Rating("a") != Disliked {
			t.Errorf("expected disliked rating, got %s", f.Rating("a"))
		}
	})

	t.Run("Marking Twice Restores State", func(t *testing.T) {
		tt := []struct {
			name  string
			liked bool
			prior *bool
		}{
			{name: "like from unrated", liked: true},
			{name: "dislike from unrated", liked: false},
			{name: "like from liked", liked: true, prior: ptr(true)},
			{name: "dislike from disliked", liked: false, prior: ptr(false)},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				f := NewFeedback()
				if tc.prior != nil {
					f.Mark("a", *tc.prior)
				}
				before := f.Rating("a")

				f.Mark("a", tc.liked)
				f.Mark("a", tc.liked)

				if got := f.Rating("a"); got != before {
					t.Errorf("expected %s, got %s", before, got)
				}
			})
		}
	})

	t.Run("Marking Liked Twice From Unrated Is Period Two", func(t *testing.T) {
		f := NewFeedback()
		f.Mark("b", false)

		if got := f.Mark("a", true); got != Liked {
			t.Errorf("expected liked, got %s", got)
		}
		if got := f.Mark("a", true); got != Unrated {
			t.Errorf("expected unrated, got %s", got)
		}
		if f.Rating("b") != Disliked || f.Rated() != 1 {
			t.Error("other uris should be untouched")
		}
	})

	t.Run("Sets Stay Disjoint", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		uris := []string{"a", "b", "c", "d"}
		f := NewFeedback()

		for range 2000 {
			f.Mark(uris[rng.Intn(len(uris))], rng.Intn(2) == 0)

			for _, uri := range f.Liked() {
				if f.IsDisliked(uri) {
					t.Fatalf("%q is both liked and disliked", uri)
				}
			}
		}
	})

	t.Run("Reset", func(t *testing.T) {
		f := NewFeedback()
		f.Mark("a", true)
		f.Mark("b", false)
		f.Reset()

		if f.Rated() != 0 || f.IsLiked("a") || f.IsDisliked("b") {
			t.Error("expected empty channel after Reset")
		}
	})
}

func ptr[T any](v T) *T { return &v }
