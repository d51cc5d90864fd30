package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/nunvibe/internal/metrics"
	"github.com/desertthunder/nunvibe/internal/player"
	"github.com/desertthunder/nunvibe/internal/preview"
	"github.com/desertthunder/nunvibe/internal/server"
	"github.com/desertthunder/nunvibe/internal/services"
	"github.com/desertthunder/nunvibe/internal/shared"
	"github.com/desertthunder/nunvibe/internal/ui"
)

const defaultTUILog = "./tmp/nunvibe-tui.log"

// TUI launches the interactive discovery flow.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.Log.File
	if logPath == "" {
		logPath = defaultTUILog
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	s := r.newSession(cmd.Int("batch"))
	widget, done := r.previewWidget(ctx, cmd.Bool("silent"))
	defer done()

	p := preview.New(widget, s, preview.Options{
		Width:  r.config.Player.Width,
		Height: r.config.Player.Height,
		Logger: r.logger,
	})
	defer p.Close()

	if addr := cmd.String("metrics-addr"); addr != "" {
		stop := r.serveMetrics(addr)
		defer stop()
	}

	if err := ui.Run(ctx, ui.NewModel(ctx, s, p, r.logger)); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// previewWidget picks Spotify Connect when it is enabled and authorized, and silent
// simulated playback otherwise. done persists a refreshed Spotify token.
func (r *Runner) previewWidget(ctx context.Context, silent bool) (player.Widget, func()) {
	noop := func() {}
	if silent || !r.config.Player.Enabled || !r.config.Credentials.Spotify.Configured() {
		r.logger.Info("using silent preview player")
		return player.NewSilent(time.Second), noop
	}

	widget, err := services.NewSpotifyWidget(ctx, r.config.Credentials.Spotify, r.config.Player.PollInterval(), r.logger)
	if err != nil {
		r.logger.Warn("spotify preview unavailable, using silent player", "error", err)
		return player.NewSilent(time.Second), noop
	}
	return widget, func() { r.persistToken(widget) }
}

// serveMetrics exposes Prometheus metrics on addr until stop is called.
func (r *Runner) serveMetrics(addr string) (stop func()) {
	router := server.NewBasicRouter()
	router.Use(server.Recoverer(r.logger))
	router.Handle(http.MethodGet, "/metrics", metrics.Handler())

	srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Warn("metrics server stopped", "error", err)
		}
	}()
	r.logger.Info("serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// tuiCommand launches the interactive UI
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Pick genres, rate samples and refine recommendations interactively",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "batch",
				Usage: "Songs per batch (defaults to recommender.batch_size)",
			},
			&cli.BoolFlag{
				Name:  "silent",
				Usage: "Simulate previews instead of playing on Spotify",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address, e.g. 127.0.0.1:9090",
			},
		},
		Action: r.TUI,
	}
}
