package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/nunvibe/internal/models"
	"github.com/desertthunder/nunvibe/internal/shared"
)

// Sampler fetches sample songs for a set of genres.
type Sampler interface {
	Samples(ctx context.Context, genres []string, limit int) ([]models.Song, error)
}

// SongCacher records songs seen in a batch.
type SongCacher interface {
	CacheSongs(kind models.BatchKind, songs []models.Song) error
}

// SweepEngine fetches and exports sample batches for many genres.
type SweepEngine struct {
	client Sampler
	cache  SongCacher
	logger *log.Logger
}

// NewSweepEngine creates a [SweepEngine]. cache may be nil.
func NewSweepEngine(client Sampler, cache SongCacher, logger *log.Logger) *SweepEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SweepEngine{client: client, cache: cache, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *SweepEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *SweepEngine) cacheSongs(batch models.Batch) {
	if e.cache == nil || batch.Empty() {
		return
	}
	if err := e.cache.CacheSongs(batch.Kind, batch.Songs); err != nil {
		e.logger.Warn("failed to cache songs", "kind", batch.Kind, "error", err)
	}
}

func (e *SweepEngine) validate(genres []string) error {
	if e.client == nil {
		return fmt.Errorf("%w: recommender not initialized", shared.ErrServiceUnavailable)
	}
	if len(genres) == 0 {
		return fmt.Errorf("%w: no genres to sweep", shared.ErrMissingArgument)
	}
	return nil
}
