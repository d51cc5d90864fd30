package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/desertthunder/nunvibe/internal/server"
	"github.com/desertthunder/nunvibe/internal/services"
	"github.com/desertthunder/nunvibe/internal/shared"
)

const defaultAuthTimeout = 2 * time.Minute

// SpotifyAuth performs the OAuth2 authorization code flow for Spotify playback.
//
// Starts a local HTTP server, opens the browser for user authorization and saves the tokens to the config file.
func (r *Runner) SpotifyAuth(ctx context.Context, cmd *cli.Command) error {
	oc, err := services.SpotifyOAuthConfig(r.config.Credentials.Spotify)
	if err != nil {
		return fmt.Errorf("%w (set client_id and client_secret in %s)", err, r.configPath)
	}

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = defaultAuthTimeout
	}

	token, err := r.doOAuth(ctx, oc, timeout)
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", r.configPath)
	r.writePlain("Previews in 'nunvibe tui' now play on your Spotify device.\n")
	return nil
}

// doOAuth runs the callback server until the user authorizes or timeout elapses.
func (r *Runner) doOAuth(ctx context.Context, oc *oauth2.Config, timeout time.Duration) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	addr, err := server.CallbackAddr(oc.RedirectURL)
	if err != nil {
		r.logger.Debug("redirect has no port, using server config", "error", err)
		addr = net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port))
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server on %s: %w", addr, err)
	}
	r.logger.Infof("starting OAuth server at %v", addr)

	handler := server.NewOAuthHandler(oc, state)
	authURL := handler.AuthCodeURL()

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := r.openURL(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	token, err := server.WaitForToken(waitCtx, ln, handler, r.logger)
	if err != nil {
		return nil, fmt.Errorf("authorization failed: %w", err)
	}
	return token, nil
}

// SpotifyDevices lists the Spotify Connect devices previews can play on.
func (r *Runner) SpotifyDevices(ctx context.Context, cmd *cli.Command) error {
	widget, err := services.NewSpotifyWidget(ctx, r.config.Credentials.Spotify, r.config.Player.PollInterval(), r.logger)
	if err != nil {
		return err
	}
	defer r.persistToken(widget)

	devices, err := widget.Devices(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(devices, cmd.Bool("pretty"))
	}

	if len(devices) == 0 {
		return r.writePlain("No devices found. Open Spotify on any device and try again.\n")
	}

	r.writePlain("Found %d devices:\n\n", len(devices))
	for _, d := range devices {
		marker := " "
		if d.Active {
			marker = "*"
		}
		r.writePlain("%s %s (%s)\n", marker, d.Name, d.Type)
	}
	return nil
}

// persistToken saves the widget's token when the client refreshed it.
func (r *Runner) persistToken(widget *services.SpotifyWidget) {
	token, err := widget.Token()
	if err != nil {
		r.logger.Debug("no token to persist", "error", err)
		return
	}
	if token.AccessToken == r.config.Credentials.Spotify.AccessToken {
		return
	}
	if err := r.saveTokens(token); err != nil {
		r.logger.Warn("failed to persist refreshed token", "error", err)
	}
}

// spotifyCommand handles Spotify operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify playback for previews",
		Commands: []*cli.Command{
			{
				Name:  "auth",
				Usage: "Authenticate with Spotify using OAuth2",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: defaultAuthTimeout,
					},
				},
				Action: r.SpotifyAuth,
			},
			{
				Name:  "devices",
				Usage: "List Spotify Connect devices",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SpotifyDevices,
			},
		},
	}
}
