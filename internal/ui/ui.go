package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/nunvibe/internal/preview"
	"github.com/desertthunder/nunvibe/internal/selection"
	"github.com/desertthunder/nunvibe/internal/session"
	"github.com/desertthunder/nunvibe/internal/shared"
)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	session  *session.Session
	preview  *preview.Controller
	logger   *log.Logger
	width    int
	height   int
	genres   list.Model
	songs    list.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	status   string
	listened uint64
	quitting bool
}

// NewModel creates a new TUI model over a session and a preview controller.
func NewModel(ctx context.Context, s *session.Session, p *preview.Controller, logger *log.Logger) *Model {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	genres := list.New(nil, compactDelegate(), 0, 0)
	genres.Title = "Genres"
	genres.SetShowHelp(false)

	songs := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	songs.SetShowHelp(false)
	songs.SetFilteringEnabled(false)

	return &Model{
		ctx:     ctx,
		session: s,
		preview: p,
		logger:  logger,
		genres:  genres,
		songs:   songs,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

func compactDelegate() list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	d.SetSpacing(0)
	return d
}

// Init starts the spinner and loads the genre catalog.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.begin(session.ActionLoadCatalog))
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.genres.SetSize(msg.Width-4, msg.Height-12)
		m.songs.SetSize(msg.Width-4, msg.Height-14)
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgCallComplete:
		r := msg.data.(session.Result)
		if err := m.session.Complete(r); err != nil {
			m.logger.Debug("call failed", "error", err)
		}
		m.status = ""
		m.refresh()
		return m, nil

	case MsgPreviewEvent:
		pe := msg.data.(previewEvent)
		if err := m.preview.HandleEvent(m.ctx, pe.gen, pe.ev); err != nil {
			m.status = err.Error()
		}
		m.refresh()
		if pe.gen != m.preview.Generation() {
			return m, nil
		}
		return m, m.waitForPreview()

	case MsgPreviewClosed:
		if gen := msg.data.(uint64); gen == m.listened {
			m.listened = 0
		}
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current session step.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.session.Snapshot()
	sections := []string{m.renderHeader(snap)}

	if snap.CatalogError != "" {
		sections = append(sections, styles.err.Render(snap.CatalogError+" Press r to retry."))
	}
	if snap.Error != "" {
		sections = append(sections, styles.err.Render(snap.Error))
	}
	if m.status != "" {
		sections = append(sections, styles.warn.Render(m.status))
	}

	switch {
	case snap.Loading:
		sections = append(sections, fmt.Sprintf("%s %s", m.spinner.View(), loadingLabel(snap.Step)))
	case snap.Step == session.StepGenre:
		sections = append(sections, m.genres.View())
	default:
		if len(m.songs.Items()) == 0 {
			sections = append(sections, styles.help.Render("No songs in this batch."))
		} else {
			sections = append(sections, m.songs.View())
		}
	}

	if panel := m.renderPreview(); panel != "" {
		sections = append(sections, panel)
	}
	sections = append(sections, m.renderHelp(snap))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.session.Step() == session.StepGenre && m.genres.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	m.status = ""
	switch {
	case key.Matches(msg, m.keys.quit):
		m.quitting = true
		if err := m.preview.Close(); err != nil {
			m.logger.Warn("failed to close preview", "error", err)
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.showHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.more):
		m.resize(1)
		return m, nil
	case key.Matches(msg, m.keys.fewer):
		m.resize(-1)
		return m, nil
	}

	if m.session.Step() == session.StepGenre {
		return m.handleGenreKeys(msg)
	}
	return m.handleSongKeys(msg)
}

func (m *Model) handleGenreKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.retry):
		return m, m.begin(session.ActionLoadCatalog)
	case key.Matches(msg, m.keys.toggle):
		if item, ok := m.genres.SelectedItem().(genreItem); ok {
			if _, err := m.session.ToggleGenre(item.genre.ID); err != nil {
				m.status = err.Error()
			}
			m.refresh()
		}
		return m, nil
	case key.Matches(msg, m.keys.next):
		return m, m.begin(session.ActionRequestSamples)
	}
	return m.updateLists(msg)
}

func (m *Model) handleSongKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	item, hasItem := m.songs.SelectedItem().(songItem)

	switch {
	case key.Matches(msg, m.keys.like, m.keys.dislike):
		if hasItem {
			liked := key.Matches(msg, m.keys.like)
			if _, err := m.session.MarkActive(item.song.URI, liked); err != nil {
				m.status = err.Error()
			}
			m.refresh()
		}
		return m, nil
	case key.Matches(msg, m.keys.next):
		if m.session.Step() == session.StepSamples {
			return m, m.begin(session.ActionRequestRecommendations)
		}
		return m, m.begin(session.ActionRefine)
	case key.Matches(msg, m.keys.preview):
		if hasItem {
			return m, m.stage(item.song.URI, true)
		}
		return m, nil
	case key.Matches(msg, m.keys.play):
		if err := m.preview.TogglePlayback(m.ctx); err != nil {
			m.status = err.Error()
		}
		return m, nil
	case key.Matches(msg, m.keys.likeNow, m.keys.hateNow):
		if _, err := m.markStaged(key.Matches(msg, m.keys.likeNow)); err != nil {
			m.status = err.Error()
		}
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.closeP):
		if err := m.preview.Close(); err != nil {
			m.logger.Warn("failed to close preview", "error", err)
		}
		m.refresh()
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) markStaged(liked bool) (selection.Rating, error) {
	if liked {
		return m.preview.LikeCurrent()
	}
	return m.preview.DislikeCurrent()
}

func (m *Model) resize(delta int) {
	n, err := m.session.SetBatchSize(m.session.BatchSize() + delta)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.status = fmt.Sprintf("Batch size: %d", n)
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.session.Step() == session.StepGenre {
		m.genres, cmd = m.genres.Update(msg)
	} else {
		m.songs, cmd = m.songs.Update(msg)
	}
	return m, cmd
}

// begin starts a session call. Illegal actions only set the status line.
func (m *Model) begin(action session.Action) tea.Cmd {
	call, err := m.session.Begin(action)
	if err != nil {
		if session.IsNotAllowed(err) {
			m.status = hint(action, m.session.Snapshot())
		} else {
			m.status = err.Error()
		}
		return nil
	}

	ctx := m.ctx
	return func() tea.Msg {
		return callCompleteMsg(call.Run(ctx))
	}
}

// stage puts uri in the preview panel and starts listening to a newly mounted handle.
func (m *Model) stage(uri string, autoStart bool) tea.Cmd {
	if err := m.preview.Stage(m.ctx, uri, autoStart); err != nil {
		m.status = err.Error()
		m.refresh()
		return nil
	}
	m.refresh()

	if m.listened == m.preview.Generation() {
		return nil
	}
	return m.waitForPreview()
}

// waitForPreview reads one event from the current preview handle.
func (m *Model) waitForPreview() tea.Cmd {
	events, gen := m.preview.Events()
	if events == nil {
		return nil
	}
	m.listened = gen

	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return previewClosedMsg(gen)
		}
		return previewEventMsg(gen, ev)
	}
}

// refresh rebuilds list items from the session and preview state.
func (m *Model) refresh() {
	snap := m.session.Snapshot()

	if snap.Step == session.StepGenre {
		m.genres.SetItems(genreItems(snap.Catalog, snap.SelectedGenres))
		return
	}

	batch, _ := snap.ActiveBatch()
	m.songs.Title = strings.ToUpper(snap.Step.String()[:1]) + snap.Step.String()[1:]
	m.songs.SetItems(songItems(batch, m.session.ActiveRating, m.preview.Staged()))
}

func (m *Model) renderHeader(snap session.Snapshot) string {
	title := styles.title.Render(fmt.Sprintf("nunvibe · %s", snap.Step))

	chips := make([]string, 0, len(snap.SelectedGenres))
	for _, g := range snap.SelectedGenres {
		chips = append(chips, styles.chip.Render(g))
	}
	info := fmt.Sprintf("%d/%d genres  batch %d", len(snap.SelectedGenres), session.MaxGenres, snap.BatchSize)
	if len(chips) > 0 {
		info = lipgloss.JoinHorizontal(lipgloss.Top, append(chips, "  "+info)...)
	}

	if snap.Step != session.StepGenre {
		liked, disliked := len(snap.SampleLiked), len(snap.SampleDisliked)
		if snap.Step == session.StepRecommend {
			liked, disliked = len(snap.RecLiked), len(snap.RecDisliked)
		}
		info += styles.help.Render(fmt.Sprintf("  ♥ %d  ✗ %d", liked, disliked))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, info)
}

func (m *Model) renderPreview() string {
	uri := m.preview.Staged()
	if uri == "" {
		return ""
	}

	label := uri
	if batch, ok := m.session.Snapshot().ActiveBatch(); ok {
		if song, found := batch.Find(uri); found {
			label = song.String()
		}
	}

	var state string
	switch {
	case !m.preview.Ready():
		state = "connecting..."
	case m.preview.IsPlaying():
		state = "playing"
	default:
		state = "stopped"
	}

	pos, dur := m.preview.Progress()
	line := fmt.Sprintf("▶ %s  [%s]", label, state)
	if dur > 0 {
		line += fmt.Sprintf("  %s / %s", formatDuration(pos), formatDuration(dur))
	}
	switch {
	case m.preview.IsLiked():
		line += "  " + styles.liked.Render("♥")
	case m.preview.IsDisliked():
		line += "  " + styles.disliked.Render("✗")
	}
	return styles.panel.Render(line)
}

func (m *Model) renderHelp(snap session.Snapshot) string {
	if m.help.ShowAll {
		return m.help.FullHelpView(m.keys.FullHelp())
	}

	var keys []key.Binding
	legal := session.LegalActions(snap)
	switch snap.Step {
	case session.StepGenre:
		keys = []key.Binding{m.keys.toggle, m.keys.filter}
		if legal.Has(session.ActionRequestSamples) {
			keys = append(keys, withHelp(m.keys.next, "get samples"))
		}
		if snap.CatalogError != "" {
			keys = append(keys, m.keys.retry)
		}
	case session.StepSamples:
		keys = []key.Binding{m.keys.like, m.keys.dislike, m.keys.preview}
		if legal.Has(session.ActionRequestRecommendations) {
			keys = append(keys, withHelp(m.keys.next, "recommend"))
		}
	case session.StepRecommend:
		keys = []key.Binding{m.keys.like, m.keys.dislike, m.keys.preview}
		if legal.Has(session.ActionRefine) {
			keys = append(keys, withHelp(m.keys.next, "refine"))
		}
	}
	if m.preview.Staged() != "" {
		keys = append(keys, m.keys.play, m.keys.closeP)
	}
	keys = append(keys, m.keys.showHelp, m.keys.quit)
	return m.help.ShortHelpView(keys)
}

func withHelp(b key.Binding, desc string) key.Binding {
	return key.NewBinding(key.WithKeys(b.Keys()...), key.WithHelp(b.Help().Key, desc))
}

func loadingLabel(step session.Step) string {
	switch step {
	case session.StepGenre:
		return "Loading..."
	case session.StepSamples:
		return "Finding recommendations..."
	default:
		return "Refining..."
	}
}

// hint explains why action cannot run right now.
func hint(action session.Action, snap session.Snapshot) string {
	switch {
	case snap.Loading:
		return "Please wait for the current request."
	case action == session.ActionRequestSamples && len(snap.SelectedGenres) == 0:
		return "Select at least one genre."
	case action == session.ActionRequestRecommendations:
		return "Rate at least one sample."
	case action == session.ActionRefine:
		return "Rate at least one recommendation."
	}
	return fmt.Sprintf("Cannot %s now.", action)
}

// Run starts the bubbletea program on the alternate screen and blocks until it exits.
func Run(ctx context.Context, m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
