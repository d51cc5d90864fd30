// Package models defines the domain entities shared by the nunvibe packages.
//
// The package contains two categories of types:
//
// 1. Wire values returned by the recommender service
//   - [Genre] : a catalog entry; id and name are the same string
//   - [Song] : a track keyed by its playback uri
//   - [Batch] : the ordered songs returned by a single call
//
// 2. Persistent entities
//   - [PersistedSong] : a cached song with first/last seen timestamps
//
// Persistent entities implement [Model]. [Repository] is the read/write contract used by the
// repositories package.
package models
