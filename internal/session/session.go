// package session drives the genre → samples → recommend flow against the recommender service.
//
// A [Session] owns the selected genres, both song batches with their feedback channels, and
// the loading/error status. Network calls are split into [Session.Begin], [Call.Run] and
// [Session.Complete] so an event loop can run the request off the update goroutine while all
// state changes stay on it. [Session.Do] runs the three steps in order.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nunvibe/internal/metrics"
	"github.com/desertthunder/nunvibe/internal/models"
	"github.com/desertthunder/nunvibe/internal/selection"
	"github.com/desertthunder/nunvibe/internal/shared"
)

const (
	MaxGenres        = 3
	DefaultBatchSize = 10
	MinBatchSize     = 5
	MaxBatchSize     = 20
)

// User-facing failure messages, one per call site.
const (
	MsgCatalogFailed   = "Failed to load genres."
	MsgSamplesFailed   = "Failed to fetch sample songs."
	MsgRecommendFailed = "Failed to fetch recommendations."
	MsgRefineFailed    = "Failed to fetch more recommendations."
)

// Recommender is the recommender service as seen by a session.
type Recommender interface {
	Genres(ctx context.Context) ([]string, error)
	Samples(ctx context.Context, genres []string, limit int) ([]models.Song, error)
	Recommend(ctx context.Context, req models.RecommendRequest) ([]models.Song, error)
	RecommendWithFeedback(ctx context.Context, req models.FeedbackRequest) ([]models.Song, error)
}

// SongCacher stores songs from successful batches.
type SongCacher interface {
	CacheSongs(kind models.BatchKind, songs []models.Song) error
}

// Channel names one of the two feedback channels.
type Channel int

const (
	ChannelSample Channel = iota
	ChannelRecommendation
)

func (c Channel) String() string {
	if c == ChannelRecommendation {
		return "recommendation"
	}
	return "sample"
}

// Options configures a [Session].
type Options struct {
	Logger    *log.Logger
	Cache     SongCacher // optional
	BatchSize int        // defaults to [DefaultBatchSize]
}

// Session is the state of one discovery run. It is not safe for concurrent use; callers
// serialize access the way an event loop does.
type Session struct {
	id     string
	client Recommender
	cache  SongCacher
	logger *log.Logger

	step       Step
	loading    bool
	err        string
	catalog    []models.Genre
	catalogErr string
	batchSize  int
	pending    *Call

	genres          *selection.Set[string]
	samples         models.Batch
	sampleFeedback  *selection.Feedback
	recommendations models.Batch
	recFeedback     *selection.Feedback
}

// New creates a session in the genre step with an empty catalog.
func New(client Recommender, opts Options) *Session {
	id := shared.GenerateID()
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Session{
		id:              id,
		client:          client,
		cache:           opts.Cache,
		logger:          shared.WithLogger(logger, "session_id", id),
		step:            StepGenre,
		batchSize:       ClampBatchSize(opts.BatchSize),
		genres:          selection.NewSet[string](MaxGenres),
		samples:         models.Batch{Kind: models.BatchSamples, Songs: []models.Song{}},
		sampleFeedback:  selection.NewFeedback(),
		recommendations: models.Batch{Kind: models.BatchRecommendations, Songs: []models.Song{}},
		recFeedback:     selection.NewFeedback(),
	}
}

// ClampBatchSize bounds n to [MinBatchSize, MaxBatchSize]; zero or less selects the default.
func ClampBatchSize(n int) int {
	switch {
	case n <= 0:
		return DefaultBatchSize
	case n < MinBatchSize:
		return MinBatchSize
	case n > MaxBatchSize:
		return MaxBatchSize
	default:
		return n
	}
}

func (s *Session) ID() string     { return s.id }
func (s *Session) Step() Step     { return s.step }
func (s *Session) Loading() bool  { return s.loading }
func (s *Session) BatchSize() int { return s.batchSize }

// Error returns the message of the most recent failed call, or "".
func (s *Session) Error() string { return s.err }

// CatalogError returns the catalog failure message, which persists until a catalog load succeeds.
func (s *Session) CatalogError() string { return s.catalogErr }

// Legal returns the actions allowed right now.
func (s *Session) Legal() ActionSet { return LegalActions(s.Snapshot()) }

func (s *Session) allow(a Action) error {
	if !s.Legal().Has(a) {
		return fmt.Errorf("%w: %s during %s step (loading=%v)", shared.ErrActionNotAllowed, a, s.step, s.loading)
	}
	return nil
}

// SetBatchSize clamps and stores the batch size used for the next call.
func (s *Session) SetBatchSize(n int) (int, error) {
	if err := s.allow(ActionSetBatchSize); err != nil {
		return s.batchSize, err
	}
	s.batchSize = ClampBatchSize(n)
	return s.batchSize, nil
}

// ToggleGenre selects or deselects a catalog genre. Selecting a fourth genre is ignored.
//
// It reports whether the genre is selected afterwards.
func (s *Session) ToggleGenre(name string) (bool, error) {
	if err := s.allow(ActionToggleGenre); err != nil {
		return false, err
	}
	if !slices.ContainsFunc(s.catalog, func(g models.Genre) bool { return g.ID == name }) {
		return false, fmt.Errorf("%w: %q", shared.ErrUnknownGenre, name)
	}
	return s.genres.Toggle(name), nil
}

// FilterGenres returns catalog genres whose name contains query, ignoring case.
func (s *Session) FilterGenres(query string) []models.Genre {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Genre, 0, len(s.catalog))
	for _, g := range s.catalog {
		if q == "" || strings.Contains(strings.ToLower(g.Name), q) {
			out = append(out, g)
		}
	}
	return out
}

// ActiveChannel returns the feedback channel of the current step. The genre step has none.
func (s *Session) ActiveChannel() (Channel, bool) {
	switch s.step {
	case StepSamples:
		return ChannelSample, true
	case StepRecommend:
		return ChannelRecommendation, true
	default:
		return 0, false
	}
}

func (s *Session) feedback(c Channel) *selection.Feedback {
	switch c {
	case ChannelRecommendation:
		return s.recFeedback
	default:
		return s.sampleFeedback
	}
}

func markAction(c Channel) Action {
	if c == ChannelRecommendation {
		return ActionMarkRecommendation
	}
	return ActionMarkSample
}

// Mark toggles a like (liked=true) or dislike on uri in the given channel.
func (s *Session) Mark(c Channel, uri string, liked bool) (selection.Rating, error) {
	if err := s.allow(markAction(c)); err != nil {
		return s.feedback(c).Rating(uri), err
	}
	r := s.feedback(c).Mark(uri, liked)
	s.logger.Debug("marked song", "channel", c, "uri", uri, "rating", r)
	return r, nil
}

// MarkActive marks uri in the active step's channel.
func (s *Session) MarkActive(uri string, liked bool) (selection.Rating, error) {
	c, ok := s.ActiveChannel()
	if !ok {
		return selection.Unrated, fmt.Errorf("%w: no feedback during %s step", shared.ErrActionNotAllowed, s.step)
	}
	return s.Mark(c, uri, liked)
}

// Rating reads uri from the given channel.
func (s *Session) Rating(c Channel, uri string) selection.Rating {
	return s.feedback(c).Rating(uri)
}

// ActiveRating reads uri from the active step's channel; it is unrated in the genre step.
func (s *Session) ActiveRating(uri string) selection.Rating {
	c, ok := s.ActiveChannel()
	if !ok {
		return selection.Unrated
	}
	return s.feedback(c).Rating(uri)
}

// Snapshot is a copy of the session state.
type Snapshot struct {
	SessionID       string
	Step            Step
	Loading         bool
	Error           string
	CatalogError    string
	Catalog         []models.Genre
	SelectedGenres  []string
	Samples         models.Batch
	SampleLiked     []string
	SampleDisliked  []string
	Recommendations models.Batch
	RecLiked        []string
	RecDisliked     []string
	BatchSize       int
}

// Snapshot copies the current state. Later changes to the session do not affect it.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		SessionID:       s.id,
		Step:            s.step,
		Loading:         s.loading,
		Error:           s.err,
		CatalogError:    s.catalogErr,
		Catalog:         slices.Clone(s.catalog),
		SelectedGenres:  s.genres.Items(),
		Samples:         cloneBatch(s.samples),
		SampleLiked:     s.sampleFeedback.Liked(),
		SampleDisliked:  s.sampleFeedback.Disliked(),
		Recommendations: cloneBatch(s.recommendations),
		RecLiked:        s.recFeedback.Liked(),
		RecDisliked:     s.recFeedback.Disliked(),
		BatchSize:       s.batchSize,
	}
}

// ActiveBatch returns the batch shown in the current step.
func (s Snapshot) ActiveBatch() (models.Batch, bool) {
	switch s.Step {
	case StepSamples:
		return s.Samples, true
	case StepRecommend:
		return s.Recommendations, true
	default:
		return models.Batch{}, false
	}
}

func cloneBatch(b models.Batch) models.Batch {
	songs := slices.Clone(b.Songs)
	if songs == nil {
		songs = []models.Song{}
	}
	return models.Batch{Kind: b.Kind, Songs: songs}
}

// Call is a network request prepared by [Session.Begin]. Its inputs are fixed at Begin time.
type Call struct {
	Action Action
	run    func(ctx context.Context) (songs []models.Song, genres []string, err error)
}

// Result is the outcome of [Call.Run], applied with [Session.Complete].
type Result struct {
	call   *Call
	Songs  []models.Song
	Genres []string
	Err    error
}

// Run performs the request. It does not touch session state and may run on any goroutine.
func (c *Call) Run(ctx context.Context) Result {
	songs, genres, err := c.run(ctx)
	return Result{call: c, Songs: songs, Genres: genres, Err: err}
}

// Begin checks that action is legal, captures its request and marks the session as loading.
//
// An illegal action returns [shared.ErrActionNotAllowed] and leaves the session untouched.
func (s *Session) Begin(action Action) (*Call, error) {
	if !action.network() {
		return nil, fmt.Errorf("%w: %s is not a request", shared.ErrInvalidArgument, action)
	}
	if err := s.allow(action); err != nil {
		return nil, err
	}

	call := &Call{Action: action, run: s.prepare(action)}
	s.loading = true
	s.err = ""
	s.pending = call
	s.logger.Debug("call started", "call", action, "step", s.step)
	return call, nil
}

func (s *Session) prepare(action Action) func(context.Context) ([]models.Song, []string, error) {
	client := s.client
	genres := s.genres.Items()
	size := s.batchSize

	switch action {
	case ActionLoadCatalog:
		return func(ctx context.Context) ([]models.Song, []string, error) {
			names, err := client.Genres(ctx)
			return nil, names, err
		}
	case ActionRequestSamples:
		return func(ctx context.Context) ([]models.Song, []string, error) {
			songs, err := client.Samples(ctx, genres, size)
			return songs, nil, err
		}
	case ActionRequestRecommendations:
		req := models.RecommendRequest{
			SeedGenres: genres,
			SeedURIs:   s.sampleFeedback.Liked(),
			K:          size,
		}
		if disliked := s.sampleFeedback.Disliked(); len(disliked) > 0 {
			req.DislikedURIs = disliked
		}
		return func(ctx context.Context) ([]models.Song, []string, error) {
			songs, err := client.Recommend(ctx, req)
			return songs, nil, err
		}
	default:
		req := models.FeedbackRequest{
			SeedGenres:   genres,
			SeedURIs:     s.sampleFeedback.Liked(),
			LikedURIs:    s.recFeedback.Liked(),
			DislikedURIs: s.recFeedback.Disliked(),
			K:            size,
		}
		return func(ctx context.Context) ([]models.Song, []string, error) {
			songs, err := client.RecommendWithFeedback(ctx, req)
			return songs, nil, err
		}
	}
}

// Complete applies a call result and clears the loading flag.
//
// On failure the step, batches and feedback are left as they were and the call's message is
// exposed through [Session.Error]. The underlying error is returned.
func (s *Session) Complete(r Result) error {
	if r.call == nil || r.call != s.pending {
		return fmt.Errorf("%w: result does not belong to the pending call", shared.ErrInvalidArgument)
	}
	s.pending = nil
	s.loading = false

	action := r.call.Action
	if r.Err != nil {
		msg := failureMessage(action)
		if action == ActionLoadCatalog {
			s.catalogErr = msg
		} else {
			s.err = msg
		}
		s.logger.Warn("call failed", "call", action, "err", r.Err)
		return r.Err
	}

	switch action {
	case ActionLoadCatalog:
		s.catalog = models.GenresFromNames(r.Genres)
		s.catalogErr = ""
		s.logger.Info("catalog loaded", "call", action, "genres", len(s.catalog))
		return nil
	case ActionRequestSamples:
		s.samples = batchOf(models.BatchSamples, r.Songs)
		s.step = StepSamples
		s.record(s.samples)
	case ActionRequestRecommendations:
		s.recommendations = batchOf(models.BatchRecommendations, r.Songs)
		s.recFeedback.Reset()
		s.step = StepRecommend
		s.record(s.recommendations)
	case ActionRefine:
		s.recommendations = batchOf(models.BatchRecommendations, r.Songs)
		s.recFeedback.Reset()
		s.record(s.recommendations)
	}

	s.logger.Info("call finished", "call", action, "songs", len(r.Songs), "step", s.step)
	return nil
}

// Do runs a request synchronously.
func (s *Session) Do(ctx context.Context, action Action) error {
	call, err := s.Begin(action)
	if err != nil {
		return err
	}
	return s.Complete(call.Run(ctx))
}

// LoadCatalog fetches the genre catalog.
func (s *Session) LoadCatalog(ctx context.Context) error {
	return s.Do(ctx, ActionLoadCatalog)
}

func (s *Session) record(b models.Batch) {
	metrics.RecordBatch(string(b.Kind), b.Len())
	if s.cache == nil || b.Empty() {
		return
	}
	if err := s.cache.CacheSongs(b.Kind, b.Songs); err != nil {
		s.logger.Warn("failed to cache songs", "kind", b.Kind, "err", err)
	}
}

func batchOf(kind models.BatchKind, songs []models.Song) models.Batch {
	if songs == nil {
		songs = []models.Song{}
	}
	return models.Batch{Kind: kind, Songs: songs}
}

func failureMessage(a Action) string {
	switch a {
	case ActionLoadCatalog:
		return MsgCatalogFailed
	case ActionRequestSamples:
		return MsgSamplesFailed
	case ActionRequestRecommendations:
		return MsgRecommendFailed
	default:
		return MsgRefineFailed
	}
}

// IsNotAllowed reports whether err came from a gated action.
func IsNotAllowed(err error) bool {
	return errors.Is(err, shared.ErrActionNotAllowed)
}
