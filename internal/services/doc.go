// Package services implements the HTTP clients nunvibe talks to.
//
// # Recommender
//
// [RecommenderService] wraps the four recommender routes (genre catalog, genre samples,
// recommend, recommend with feedback). Requests and responses are JSON. A response missing its
// list key decodes to an empty list; a non-2xx status or a body that does not decode is an error.
// An optional [rate.Limiter] paces calls and every call is recorded in the metrics package.
//
// [APIService] sends raw requests for the api debug commands and never treats a status as an
// error.
//
// # Spotify
//
// [SpotifyWidget] implements player.Widget on Spotify Connect using the user's OAuth token.
// Handles report ready once a device is available and poll the currently playing track.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrAPIRequest] : transport failure or non-2xx status
//   - [shared.ErrInvalidResponse] : body could not be decoded
//   - [shared.ErrNotAuthenticated] : no Spotify token saved
//   - [shared.ErrPlayerUnavailable] : playback command failed or handle closed
package services
