// Package ui implements the interactive terminal front-end using bubbletea's Elm architecture.
//
// The view follows the session step:
//  1. [session.StepGenre] : pick up to three genres from the catalog (filterable with /)
//  2. [session.StepSamples] : like or dislike sample songs
//  3. [session.StepRecommend] : rate recommendations and refine them
//
// Every request runs as a two-phase session call: [session.Session.Begin] inside Update, the
// network round trip inside a [tea.Cmd], and [session.Session.Complete] when its message comes back.
// Preview events are read one at a time from the controller's channel and carry the handle
// generation they were read from, so events from a replaced preview are dropped.
//
// Keyboard navigation uses vim-style bindings with contextual help displayed via charmbracelet/bubbles/help.
package ui
