package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/nunvibe/internal/shared"
)

const shutdownTimeout = 5 * time.Second

func callbackPath(redirect string) string {
	u, err := url.Parse(redirect)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "/callback"
	}
	return u.Path
}

// CallbackAddr returns the listen address for a redirect URL, e.g. "127.0.0.1:3000".
func CallbackAddr(redirect string) (string, error) {
	u, err := url.Parse(redirect)
	if err != nil {
		return "", fmt.Errorf("%w: redirect url: %v", shared.ErrInvalidConfig, err)
	}
	if u.Port() == "" {
		return "", fmt.Errorf("%w: redirect url %q has no port", shared.ErrInvalidConfig, redirect)
	}
	return net.JoinHostPort(u.Hostname(), u.Port()), nil
}

// NewCallbackRouter returns a router serving h with request logging and panic recovery.
func NewCallbackRouter(h *OAuthHandler, logger *log.Logger) *BasicRouter {
	router := NewBasicRouter()
	router.Use(Recoverer(logger), RequestLogger(logger))
	router.Handler(h)
	return router
}

// WaitForToken serves h on ln until it reports a result or ctx ends, then shuts down.
//
// A ctx deadline surfaces as [shared.ErrTimeout].
func WaitForToken(ctx context.Context, ln net.Listener, h *OAuthHandler, logger *log.Logger) (*oauth2.Token, error) {
	srv := &http.Server{
		Handler:           NewCallbackRouter(h, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("callback server shutdown", "error", err)
		}
	}()

	select {
	case result := <-h.Result():
		if err := result.Error(); err != nil {
			return nil, err
		}
		return result.Token, nil
	case err, ok := <-serveErr:
		if ok {
			return nil, fmt.Errorf("callback server failed: %w", err)
		}
		return nil, errors.New("callback server stopped")
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: waiting for authorization", shared.ErrTimeout)
		}
		return nil, ctx.Err()
	}
}
