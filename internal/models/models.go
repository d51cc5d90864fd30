package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/nunvibe/internal/shared"
)

// Model defines the base interface for persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the data access operations shared by cached entities.
type Repository[T Model] interface {
	Upsert(model T) error        // Upsert inserts a model or refreshes the existing row
	Get(id string) (T, error)    // Get retrieves a model by its ID
	List(limit int) ([]T, error) // List retrieves the most recently seen models
	Count() (int, error)         // Count returns the number of stored models
}

// Genre is a catalog entry. ID and Name are always equal.
type Genre struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewGenre builds a [Genre] from a catalog name.
func NewGenre(name string) Genre {
	return Genre{ID: name, Name: name}
}

// GenresFromNames maps catalog names to genres, preserving order.
func GenresFromNames(names []string) []Genre {
	genres := make([]Genre, 0, len(names))
	for _, name := range names {
		genres = append(genres, NewGenre(name))
	}
	return genres
}

// Song is a track identified by its uri.
//
// A uri may repeat within a batch, so renderers key rows by uri and position.
type Song struct {
	URI    string `json:"uri"`
	Name   string `json:"name"`
	Artist string `json:"artist"`
}

// String formats the song as "Name - Artist".
func (s Song) String() string {
	if s.Artist == "" {
		return s.Name
	}
	return s.Name + " - " + s.Artist
}

// Key returns a row key that stays unique when a uri repeats within a batch.
func (s Song) Key(position int) string {
	return fmt.Sprintf("%s#%d", s.URI, position)
}

// BatchKind tells which call produced a [Batch].
type BatchKind string

const (
	BatchSamples         BatchKind = "samples"
	BatchRecommendations BatchKind = "recommendations"
)

// Batch is the ordered result of one sample or recommendation call.
//
// Batches are replaced wholesale and never merged.
type Batch struct {
	Kind  BatchKind `json:"kind"`
	Songs []Song    `json:"songs"`
}

// Len returns the number of songs.
func (b Batch) Len() int { return len(b.Songs) }

// Empty reports whether the batch has no songs.
func (b Batch) Empty() bool { return len(b.Songs) == 0 }

// URIs returns the song uris in batch order, duplicates included.
func (b Batch) URIs() []string {
	uris := make([]string, len(b.Songs))
	for i, s := range b.Songs {
		uris[i] = s.URI
	}
	return uris
}

// Find returns the first song with the given uri.
func (b Batch) Find(uri string) (Song, bool) {
	for _, s := range b.Songs {
		if s.URI == uri {
			return s, true
		}
	}
	return Song{}, false
}

// PersistedSong is a cached [Song] with bookkeeping for how often it was seen.
type PersistedSong struct {
	Song
	SongID      string
	Source      BatchKind
	SeenCount   int
	FirstSeenAt time.Time
	LastSeenAt  time.Time
}

// NewPersistedSong creates a cache entry for a song first seen now.
func NewPersistedSong(song Song, source BatchKind) *PersistedSong {
	now := time.Now().UTC()
	return &PersistedSong{
		Song:        song,
		SongID:      shared.GenerateID(),
		Source:      source,
		SeenCount:   1,
		FirstSeenAt: now,
		LastSeenAt:  now,
	}
}

func (p *PersistedSong) ID() string           { return p.SongID }
func (p *PersistedSong) CreatedAt() time.Time { return p.FirstSeenAt }
func (p *PersistedSong) UpdatedAt() time.Time { return p.LastSeenAt }

// Validate requires an id and a uri.
func (p *PersistedSong) Validate() error {
	if p.SongID == "" {
		return fmt.Errorf("%w: song id is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(p.URI) == "" {
		return fmt.Errorf("%w: song uri is required", shared.ErrInvalidInput)
	}
	return nil
}

// RecommendRequest is the body of a first recommendation call.
type RecommendRequest struct {
	SeedGenres   []string `json:"seed_genres"`
	SeedURIs     []string `json:"seed_uris"`
	DislikedURIs []string `json:"disliked_uris,omitempty"`
	K            int      `json:"k,omitempty"`
}

// FeedbackRequest is the body of a refine call.
type FeedbackRequest struct {
	SeedGenres   []string `json:"seed_genres"`
	SeedURIs     []string `json:"seed_uris"`
	LikedURIs    []string `json:"liked_uris"`
	DislikedURIs []string `json:"disliked_uris"`
	K            int      `json:"k,omitempty"`
}
