package selection

// Rating is the feedback state of a single uri.
type Rating int

const (
	Unrated Rating = iota
	Liked
	Disliked
)

func (r Rating) String() string {
	switch r {
	case Liked:
		return "liked"
	case Disliked:
		return "disliked"
	default:
		return "unrated"
	}
}

// Feedback holds liked and disliked song uris. The two sets never share a uri.
type Feedback struct {
	liked    *Set[string]
	disliked *Set[string]
}

// NewFeedback creates an empty channel.
func NewFeedback() *Feedback {
	return &Feedback{liked: NewSet[string](Unbounded), disliked: NewSet[string](Unbounded)}
}

// Mark toggles uri in the liked set (liked=true) or the disliked set.
//
// Marking a uri that is already in the target set clears it. Otherwise the uri moves into the
// target set and out of the opposite one. Two identical calls in a row cancel out.
func (f *Feedback) Mark(uri string, liked bool) Rating {
	target, other := f.disliked, f.liked
	if liked {
		target, other = f.liked, f.disliked
	}

	if target.Remove(uri) {
		return Unrated
	}
	target.Add(uri)
	other.Remove(uri)
	return f.Rating(uri)
}

// Rating returns the current state of uri.
func (f *Feedback) Rating(uri string) Rating {
	switch {
	case f.liked.Contains(uri):
		return Liked
	case f.disliked.Contains(uri):
		return Disliked
	default:
		return Unrated
	}
}

func (f *Feedback) IsLiked(uri string) bool    { return f.liked.Contains(uri) }
func (f *Feedback) IsDisliked(uri string) bool { return f.disliked.Contains(uri) }

// Liked returns liked uris in the order they were marked.
func (f *Feedback) Liked() []string { return f.liked.Items() }

// Disliked returns disliked uris in the order they were marked.
func (f *Feedback) Disliked() []string { return f.disliked.Items() }

// Rated returns how many uris carry any rating.
func (f *Feedback) Rated() int { return f.liked.Len() + f.disliked.Len() }

// Reset clears both sets.
func (f *Feedback) Reset() {
	f.liked.Clear()
	f.disliked.Clear()
}
