package main

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/nunvibe/internal/formatter"
	"github.com/desertthunder/nunvibe/internal/models"
	"github.com/desertthunder/nunvibe/internal/session"
	"github.com/desertthunder/nunvibe/internal/shared"
	"github.com/desertthunder/nunvibe/internal/tasks"
)

// Sweep writes one sample batch per genre into a directory, with a manifest.
func (r *Runner) Sweep(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	s := r.newSession(0)
	if err := s.LoadCatalog(ctx); err != nil {
		return fmt.Errorf("%s %w", session.MsgCatalogFailed, err)
	}
	catalog := s.FilterGenres("")

	genres := cmd.StringSlice("genre")
	if cmd.Bool("all") {
		genres = make([]string, len(catalog))
		for i, g := range catalog {
			genres[i] = g.ID
		}
	}
	if len(genres) == 0 {
		return fmt.Errorf("%w: pass --genre or --all", shared.ErrMissingArgument)
	}
	for _, g := range genres {
		if !slices.ContainsFunc(catalog, func(c models.Genre) bool { return c.ID == g }) {
			return fmt.Errorf("%w: %q", shared.ErrUnknownGenre, g)
		}
	}

	var cacher tasks.SongCacher
	if c := r.cache(); c != nil {
		cacher = c
	}
	engine := tasks.NewSweepEngine(r.recommender, cacher, r.logger)

	prog := make(chan tasks.ProgressUpdate, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range prog {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := engine.Sweep(ctx, prog, genres, tasks.SweepOpts{
		Format:     format,
		OutputDir:  cmd.String("dir"),
		Limit:      session.ClampBatchSize(cmd.Int("limit")),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float64("rate"),
	})
	close(prog)
	wg.Wait()
	if err != nil {
		return err
	}

	r.logger.Info("sweep complete", "dir", result.OutputDirectory, "ok", result.Successful, "failed", result.Failed)
	r.writePlainln("✓ Swept %d genres into %s (%d failed)", result.TotalGenres, result.OutputDirectory, result.Failed)
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	if result.Failed > 0 {
		return fmt.Errorf("%w: %d of %d genres failed", shared.ErrAPIRequest, result.Failed, result.TotalGenres)
	}
	return nil
}

// sweepCommand exports samples for many genres at once
func sweepCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Export a sample batch for each genre into a directory",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "genre",
				Aliases: []string{"g"},
				Usage:   "Genre to sweep (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Sweep every genre in the catalog",
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Output directory (default: samples_<epoch>)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv, markdown, json",
				Value:   string(formatter.FormatText),
			},
			batchFlag("limit"),
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent file writers",
				Value: 4,
			},
			&cli.Float64Flag{
				Name:  "rate",
				Usage: "Sample requests per second",
				Value: 2,
			},
		},
		Action: r.Sweep,
	}
}
