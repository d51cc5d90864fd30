// Package server runs the short-lived local HTTP server used by `nunvibe spotify auth`.
//
// # Router
//
// [BasicRouter] implements [Router] over [http.ServeMux] with method filtering.
// [Middleware] wraps handlers in reverse order (last added executes first).
//
// # OAuth Callback
//
// [OAuthHandler] completes the Spotify authorization code flow: it checks the state parameter,
// exchanges the code for a token using the request context and reports exactly one [OAuthResult].
// Later callbacks are rejected.
//
// [WaitForToken] serves a router until the handler reports a result or the context ends,
// then shuts the server down.
package server
