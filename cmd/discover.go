package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/nunvibe/internal/formatter"
	"github.com/desertthunder/nunvibe/internal/metrics"
	"github.com/desertthunder/nunvibe/internal/models"
	"github.com/desertthunder/nunvibe/internal/session"
	"github.com/desertthunder/nunvibe/internal/shared"
)

// Genres prints the recommender's genre catalog, optionally filtered.
func (r *Runner) Genres(ctx context.Context, cmd *cli.Command) error {
	s := r.newSession(0)
	if err := s.LoadCatalog(ctx); err != nil {
		return fmt.Errorf("%s %w", session.MsgCatalogFailed, err)
	}

	genres := s.FilterGenres(cmd.String("search"))
	if cmd.Bool("json") {
		names := make([]string, len(genres))
		for i, g := range genres {
			names[i] = g.Name
		}
		return r.writeJSON(map[string][]string{"genres": names}, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d genres:\n\n", len(genres))
	for _, g := range genres {
		r.writePlain("  %s\n", g.Name)
	}
	return nil
}

// Samples fetches a sample batch for up to three catalog genres.
//
// Genres go through the same catalog check and cap as the interactive flow.
func (r *Runner) Samples(ctx context.Context, cmd *cli.Command) error {
	genres, err := genreFlags(cmd)
	if err != nil {
		return err
	}

	s := r.newSession(cmd.Int("limit"))
	if err := s.LoadCatalog(ctx); err != nil {
		return fmt.Errorf("%s %w", session.MsgCatalogFailed, err)
	}
	for _, g := range genres {
		if _, err := s.ToggleGenre(g); err != nil {
			return err
		}
	}

	if err := s.Do(ctx, session.ActionRequestSamples); err != nil {
		if msg := s.Error(); msg != "" {
			return fmt.Errorf("%s %w", msg, err)
		}
		return err
	}

	return r.export(cmd, s.Snapshot().Samples)
}

// Recommend requests recommendations for explicit seeds.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	genres, seeds, err := seedFlags(cmd)
	if err != nil {
		return err
	}

	req := models.RecommendRequest{
		SeedGenres: genres,
		SeedURIs:   seeds,
		K:          session.ClampBatchSize(cmd.Int("k")),
	}
	if disliked := cmd.StringSlice("dislike"); len(disliked) > 0 {
		req.DislikedURIs = disliked
	}

	r.logger.Debug("requesting recommendations", "genres", genres, "seeds", len(seeds), "k", req.K)
	songs, err := r.recommender.Recommend(ctx, req)
	if err != nil {
		return fmt.Errorf("%s %w", session.MsgRecommendFailed, err)
	}
	return r.exportSongs(cmd, models.BatchRecommendations, songs)
}

// Refine requests a new recommendation batch from feedback on a previous one.
func (r *Runner) Refine(ctx context.Context, cmd *cli.Command) error {
	genres, seeds, err := seedFlags(cmd)
	if err != nil {
		return err
	}

	liked, disliked := cmd.StringSlice("like"), cmd.StringSlice("dislike")
	if len(liked)+len(disliked) == 0 {
		return fmt.Errorf("%w: rate at least one recommendation with --like or --dislike", shared.ErrMissingArgument)
	}
	if overlap := intersect(liked, disliked); len(overlap) > 0 {
		return fmt.Errorf("%w: %s both liked and disliked", shared.ErrInvalidArgument, strings.Join(overlap, ", "))
	}

	req := models.FeedbackRequest{
		SeedGenres:   genres,
		SeedURIs:     seeds,
		LikedURIs:    nonNil(liked),
		DislikedURIs: nonNil(disliked),
		K:            session.ClampBatchSize(cmd.Int("k")),
	}

	songs, err := r.recommender.RecommendWithFeedback(ctx, req)
	if err != nil {
		return fmt.Errorf("%s %w", session.MsgRefineFailed, err)
	}
	return r.exportSongs(cmd, models.BatchRecommendations, songs)
}

func seedFlags(cmd *cli.Command) (genres, seeds []string, err error) {
	if genres, err = genreFlags(cmd); err != nil {
		return nil, nil, err
	}
	return genres, nonNil(cmd.StringSlice("seed")), nil
}

// genreFlags returns the repeated --genre values in order with duplicates dropped, so that
// "-g rock -g rock" selects rock once instead of toggling it off again.
func genreFlags(cmd *cli.Command) ([]string, error) {
	seen := make(map[string]bool)
	genres := []string{}
	for _, g := range cmd.StringSlice("genre") {
		if g = strings.TrimSpace(g); g == "" || seen[g] {
			continue
		}
		seen[g] = true
		genres = append(genres, g)
	}

	switch {
	case len(genres) == 0:
		return nil, fmt.Errorf("%w: at least one --genre is required", shared.ErrMissingArgument)
	case len(genres) > session.MaxGenres:
		return nil, fmt.Errorf("%w: at most %d genres", shared.ErrInvalidArgument, session.MaxGenres)
	}
	return genres, nil
}

// exportSongs records and caches a batch fetched outside a session, then writes it.
func (r *Runner) exportSongs(cmd *cli.Command, kind models.BatchKind, songs []models.Song) error {
	batch := models.Batch{Kind: kind, Songs: nonNilSongs(songs)}
	metrics.RecordBatch(string(kind), batch.Len())
	if c := r.cache(); c != nil {
		if err := c.CacheSongs(kind, batch.Songs); err != nil {
			r.logger.Warn("failed to cache songs", "error", err)
		}
	}
	return r.export(cmd, batch)
}

func (r *Runner) export(cmd *cli.Command, batch models.Batch) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(r.output, batch, format, cmd.String("title"), cmd.String("output"))
	if err != nil {
		return err
	}
	if path != "" {
		r.logger.Info("export written", "path", path, "songs", batch.Len())
		r.writePlain("✓ Saved %d songs to %s\n", batch.Len(), path)
	}
	return nil
}

func intersect(a, b []string) []string {
	in := make(map[string]bool, len(a))
	for _, s := range a {
		in[s] = true
	}
	var out []string
	for _, s := range b {
		if in[s] {
			out = append(out, s)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilSongs(s []models.Song) []models.Song {
	if s == nil {
		return []models.Song{}
	}
	return s
}

func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, csv, markdown, json",
			Value:   string(formatter.FormatText),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write to this file instead of stdout",
		},
		&cli.StringFlag{
			Name:  "title",
			Usage: "Markdown title",
		},
	}
}

func genreFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:     "genre",
		Aliases:  []string{"g"},
		Usage:    "Seed genre (repeat up to 3 times)",
		Required: true,
	}
}

func batchFlag(name string) cli.Flag {
	return &cli.IntFlag{
		Name:  name,
		Usage: fmt.Sprintf("Number of songs (%d-%d)", session.MinBatchSize, session.MaxBatchSize),
		Value: session.DefaultBatchSize,
	}
}

// genresCommand lists the genre catalog
func genresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "genres",
		Usage: "List the genres the recommender knows",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "search",
				Aliases: []string{"s"},
				Usage:   "Only genres containing this text",
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
		Action: r.Genres,
	}
}

// samplesCommand fetches sample songs
func samplesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "samples",
		Usage:  "Fetch sample songs for up to three genres",
		Flags:  append([]cli.Flag{genreFlag(), batchFlag("limit")}, exportFlags()...),
		Action: r.Samples,
	}
}

// recommendCommand requests recommendations
func recommendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "recommend",
		Usage: "Recommend songs from seed genres and liked sample songs",
		Flags: append([]cli.Flag{
			genreFlag(),
			&cli.StringSliceFlag{Name: "seed", Usage: "Liked sample song URI"},
			&cli.StringSliceFlag{Name: "dislike", Usage: "Disliked sample song URI"},
			batchFlag("k"),
		}, exportFlags()...),
		Action: r.Recommend,
	}
}

// refineCommand refines recommendations
func refineCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "refine",
		Usage: "Refine recommendations with likes and dislikes",
		Flags: append([]cli.Flag{
			genreFlag(),
			&cli.StringSliceFlag{Name: "seed", Usage: "Liked sample song URI"},
			&cli.StringSliceFlag{Name: "like", Usage: "Liked recommendation URI"},
			&cli.StringSliceFlag{Name: "dislike", Usage: "Disliked recommendation URI"},
			batchFlag("k"),
		}, exportFlags()...),
		Action: r.Refine,
	}
}
