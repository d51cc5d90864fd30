package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/nunvibe/internal/models"
	"github.com/desertthunder/nunvibe/internal/repositories"
	"github.com/desertthunder/nunvibe/internal/shared"
)

type cachedSong struct {
	models.Song
	Source     models.BatchKind `json:"source"`
	SeenCount  int              `json:"seen_count"`
	LastSeenAt time.Time        `json:"last_seen_at"`
}

// CacheSongs lists songs recorded from earlier batches, most recent first.
func (r *Runner) CacheSongs(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		db, err := shared.OpenMigrated(r.config.Database)
		if err != nil {
			return fmt.Errorf("failed to open song cache: %w", err)
		}
		r.db = db
	}

	repo := repositories.NewSongRepository(r.db)
	songs, err := repo.List(cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]cachedSong, len(songs))
		for i, s := range songs {
			out[i] = cachedSong{Song: s.Song, Source: s.Source, SeenCount: s.SeenCount, LastSeenAt: s.LastSeenAt}
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	total, err := repo.Count()
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Cached songs (%d of %d)", len(songs), total))
	for i, s := range songs {
		r.writePlain("%d. %s - %s\n", i+1, s.Artist, s.Name)
		r.writePlain("   %s  seen %dx, last in %s\n", s.URI, s.SeenCount, s.Source)
	}
	return nil
}

// cacheCommand inspects the local song cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect songs recorded from sample and recommendation batches",
		Commands: []*cli.Command{
			{
				Name:  "songs",
				Usage: "List cached songs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of songs (0 for all)",
						Value: 25,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.CacheSongs,
			},
		},
	}
}
