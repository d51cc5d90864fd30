package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/nunvibe/internal/player"
	"github.com/desertthunder/nunvibe/internal/session"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgCallComplete MsgKind = iota
	MsgPreviewEvent
	MsgPreviewClosed
)

// previewEvent is the payload of [MsgPreviewEvent].
type previewEvent struct {
	gen uint64
	ev  player.Event
}

// callCompleteMsg is the constructor for [MsgCallComplete]
func callCompleteMsg(r session.Result) Msg {
	return Msg{kind: MsgCallComplete, data: r}
}

// previewEventMsg is the constructor for [MsgPreviewEvent]
func previewEventMsg(gen uint64, ev player.Event) Msg {
	return Msg{kind: MsgPreviewEvent, data: previewEvent{gen: gen, ev: ev}}
}

// previewClosedMsg is the constructor for [MsgPreviewClosed]; the handle of generation gen
// closed its event channel.
func previewClosedMsg(gen uint64) Msg {
	return Msg{kind: MsgPreviewClosed, data: gen}
}
