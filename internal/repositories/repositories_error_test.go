package repositories

import (
	"errors"
	"testing"

	"github.com/desertthunder/nunvibe/internal/models"
	"github.com/desertthunder/nunvibe/internal/shared"
)

func TestSongRepositoryErrors(t *testing.T) {
	t.Run("Upsert", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			repo := NewSongRepository(setupTestDB(t))
			ps := models.NewPersistedSong(song("", "No URI", "Band"), models.BatchSamples)

			if err := repo.Upsert(ps); !errors.Is(err, shared.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})

		t.Run("ClosedDatabase", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewSongRepository(db)
			db.Close()

			ps := models.NewPersistedSong(song("spotify:track:a", "Alpha", "Band"), models.BatchSamples)
			if err := repo.Upsert(ps); err == nil {
				t.Fatal("expected error on closed database")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			repo := NewSongRepository(setupTestDB(t))

			if _, err := repo.Get("nonexistent-id"); !errors.Is(err, shared.ErrSongNotFound) {
				t.Fatalf("expected ErrSongNotFound, got %v", err)
			}
		})
	})

	t.Run("List", func(t *testing.T) {
		t.Run("ClosedDatabase", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewSongRepository(db)
			db.Close()

			if _, err := repo.List(10); err == nil {
				t.Fatal("expected error on closed database")
			}
		})
	})

	t.Run("Count", func(t *testing.T) {
		t.Run("ClosedDatabase", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewSongRepository(db)
			db.Close()

			if _, err := repo.Count(); err == nil {
				t.Fatal("expected error on closed database")
			}
		})
	})

	t.Run("CacheSongs", func(t *testing.T) {
		t.Run("StopsOnFirstError", func(t *testing.T) {
			db := setupTestDB(t)
			cache := NewSongCacheAdapter(NewSongRepository(db))
			db.Close()

			err := cache.CacheSongs(models.BatchSamples, []models.Song{song("spotify:track:a", "Alpha", "Band")})
			if err == nil {
				t.Fatal("expected error on closed database")
			}
		})
	})
}
