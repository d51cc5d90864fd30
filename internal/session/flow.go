package session

import "strings"

// Step is a stage of the discovery flow.
type Step int

const (
	StepGenre Step = iota
	StepSamples
	StepRecommend
)

func (s Step) String() string {
	switch s {
	case StepGenre:
		return "genre"
	case StepSamples:
		return "samples"
	case StepRecommend:
		return "recommend"
	default:
		return "unknown"
	}
}

// Action is a user-triggered operation gated by [LegalActions].
type Action int

const (
	ActionLoadCatalog Action = iota
	ActionToggleGenre
	ActionRequestSamples
	ActionMarkSample
	ActionRequestRecommendations
	ActionMarkRecommendation
	ActionRefine
	ActionSetBatchSize
	actionCount
)

func (a Action) String() string {
	switch a {
	case ActionLoadCatalog:
		return "load-catalog"
	case ActionToggleGenre:
		return "toggle-genre"
	case ActionRequestSamples:
		return "request-samples"
	case ActionMarkSample:
		return "mark-sample"
	case ActionRequestRecommendations:
		return "request-recommendations"
	case ActionMarkRecommendation:
		return "mark-recommendation"
	case ActionRefine:
		return "refine"
	case ActionSetBatchSize:
		return "set-batch-size"
	default:
		return "unknown"
	}
}

// network reports whether the action issues a recommender call.
func (a Action) network() bool {
	switch a {
	case ActionLoadCatalog, ActionRequestSamples, ActionRequestRecommendations, ActionRefine:
		return true
	default:
		return false
	}
}

// ActionSet is a bit set of actions.
type ActionSet uint16

func (s ActionSet) Has(a Action) bool { return s&(1<<a) != 0 }

func (s ActionSet) with(a Action) ActionSet { return s | 1<<a }

// Empty reports whether no action is allowed.
func (s ActionSet) Empty() bool { return s == 0 }

// Actions lists the members in declaration order.
func (s ActionSet) Actions() []Action {
	var out []Action
	for a := range actionCount {
		if s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

func (s ActionSet) String() string {
	names := make([]string, 0, len(s.Actions()))
	for _, a := range s.Actions() {
		names = append(names, a.String())
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// LegalActions returns the actions allowed in the given state. Nothing is allowed while a call
// is in flight.
func LegalActions(s Snapshot) ActionSet {
	var set ActionSet
	if s.Loading {
		return set
	}
	set = set.with(ActionSetBatchSize)

	switch s.Step {
	case StepGenre:
		set = set.with(ActionLoadCatalog)
		if len(s.Catalog) > 0 {
			set = set.with(ActionToggleGenre)
		}
		if n := len(s.SelectedGenres); n >= 1 && n <= MaxGenres {
			set = set.with(ActionRequestSamples)
		}
	case StepSamples:
		set = set.with(ActionMarkSample)
		if len(s.SampleLiked)+len(s.SampleDisliked) >= 1 {
			set = set.with(ActionRequestRecommendations)
		}
	case StepRecommend:
		set = set.with(ActionMarkRecommendation)
		if len(s.RecLiked)+len(s.RecDisliked) >= 1 {
			set = set.with(ActionRefine)
		}
	}
	return set
}
