package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/nunvibe/internal/models"
	"github.com/desertthunder/nunvibe/internal/selection"
)

var (
	_ list.Item = genreItem{}
	_ list.Item = songItem{}
)

// genreItem wraps [models.Genre] to implement [list.Item].
type genreItem struct {
	genre    models.Genre
	selected bool
}

func (i genreItem) FilterValue() string { return i.genre.Name }
func (i genreItem) Title() string {
	if i.selected {
		return "[x] " + i.genre.Name
	}
	return "[ ] " + i.genre.Name
}
func (i genreItem) Description() string { return "" }

// songItem wraps [models.Song] with its batch position and rating to implement [list.Item].
type songItem struct {
	song     models.Song
	position int
	rating   selection.Rating
	staged   bool
}

func (i songItem) FilterValue() string { return i.song.Name + " " + i.song.Artist }
func (i songItem) Title() string {
	prefix := "  "
	if i.staged {
		prefix = "▶ "
	}
	return prefix + i.song.Name
}

func (i songItem) Description() string {
	parts := []string{i.song.Artist}
	switch i.rating {
	case selection.Liked:
		parts = append(parts, styles.liked.Render("♥ liked"))
	case selection.Disliked:
		parts = append(parts, styles.disliked.Render("✗ disliked"))
	}
	return strings.Join(parts, " • ")
}

func (i songItem) key() string { return i.song.Key(i.position) }

func songItems(batch models.Batch, rating func(string) selection.Rating, staged string) []list.Item {
	items := make([]list.Item, len(batch.Songs))
	for i, s := range batch.Songs {
		items[i] = songItem{song: s, position: i, rating: rating(s.URI), staged: s.URI == staged}
	}
	return items
}

func genreItems(catalog []models.Genre, selected []string) []list.Item {
	chosen := make(map[string]bool, len(selected))
	for _, g := range selected {
		chosen[g] = true
	}

	items := make([]list.Item, len(catalog))
	for i, g := range catalog {
		items[i] = genreItem{genre: g, selected: chosen[g.ID]}
	}
	return items
}

func formatDuration(d time.Duration) string {
	s := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
