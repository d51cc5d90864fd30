package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/nunvibe/internal/models"
	"github.com/desertthunder/nunvibe/internal/shared"
)

const songColumns = `id, uri, name, artist, source, seen_count, first_seen_at, last_seen_at`

// SongRepository implements models.Repository[*models.PersistedSong].
//
// Songs are unique by uri. Seeing a known uri again refreshes its metadata and bumps its
// seen count instead of inserting a row.
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// Upsert inserts song, or updates the row with the same uri.
func (r *SongRepository) Upsert(song *models.PersistedSong) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	existing, err := r.GetByURI(song.URI)
	switch {
	case err == nil:
		return r.touch(existing, song)
	case !errors.Is(err, shared.ErrSongNotFound):
		return err
	}

	sequence, err := NextSequence(r.db, "songs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	query := `
		INSERT INTO songs (id, sequence, uri, name, artist, source, seen_count, first_seen_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		song.ID(),
		sequence,
		song.URI,
		song.Name,
		song.Artist,
		string(song.Source),
		song.SeenCount,
		song.FirstSeenAt,
		song.LastSeenAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}
	return nil
}

func (r *SongRepository) touch(existing, seen *models.PersistedSong) error {
	now := time.Now().UTC()
	query := `
		UPDATE songs
		SET name = ?, artist = ?, source = ?, seen_count = seen_count + 1, last_seen_at = ?
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, seen.Name, seen.Artist, string(seen.Source), now, existing.ID()); err != nil {
		return fmt.Errorf("failed to update song: %w", err)
	}

	seen.SongID = existing.SongID
	seen.SeenCount = existing.SeenCount + 1
	seen.FirstSeenAt = existing.FirstSeenAt
	seen.LastSeenAt = now
	return nil
}

// Get retrieves a song by ID
func (r *SongRepository) Get(id string) (*models.PersistedSong, error) {
	return r.scanOne(r.db.QueryRow(`SELECT `+songColumns+` FROM songs WHERE id = ?`, id))
}

// GetByURI retrieves a song by its playback uri
func (r *SongRepository) GetByURI(uri string) (*models.PersistedSong, error) {
	return r.scanOne(r.db.QueryRow(`SELECT `+songColumns+` FROM songs WHERE uri = ?`, uri))
}

// List returns up to limit songs, most recently seen first. A limit of zero or less returns all.
func (r *SongRepository) List(limit int) ([]*models.PersistedSong, error) {
	query := `SELECT ` + songColumns + ` FROM songs ORDER BY last_seen_at DESC, sequence DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := []*models.PersistedSong{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return songs, nil
}

// Count returns the number of cached songs
func (r *SongRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM songs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return n, nil
}

func (r *SongRepository) scanOne(row *sql.Row) (*models.PersistedSong, error) {
	song, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrSongNotFound
	}
	return song, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSong(s scanner) (*models.PersistedSong, error) {
	var (
		song   models.PersistedSong
		source string
	)

	err := s.Scan(&song.SongID, &song.URI, &song.Name, &song.Artist, &source, &song.SeenCount, &song.FirstSeenAt, &song.LastSeenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}

	song.Source = models.BatchKind(source)
	return &song, nil
}

var _ models.Repository[*models.PersistedSong] = (*SongRepository)(nil)
