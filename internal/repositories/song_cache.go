package repositories

import (
	"fmt"

	"github.com/desertthunder/nunvibe/internal/models"
)

// SongCacheAdapter implements session.SongCacher using SongRepository.
//
// Repeated uris within a batch are cached once.
type SongCacheAdapter struct {
	repo *SongRepository
}

// NewSongCacheAdapter creates a new SongCacheAdapter with the given repository
func NewSongCacheAdapter(repo *SongRepository) *SongCacheAdapter {
	return &SongCacheAdapter{repo: repo}
}

// CacheSongs stores every song in the batch. The first failure stops the batch.
func (a *SongCacheAdapter) CacheSongs(kind models.BatchKind, songs []models.Song) error {
	seen := make(map[string]bool, len(songs))
	for _, song := range songs {
		if song.URI == "" || seen[song.URI] {
			continue
		}
		seen[song.URI] = true

		if err := a.repo.Upsert(models.NewPersistedSong(song, kind)); err != nil {
			return fmt.Errorf("failed to cache song %s: %w", song.URI, err)
		}
	}
	return nil
}
