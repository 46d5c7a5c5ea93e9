// Package dictionary defines the surface shared by all remote dictionary
// backends and the configuration describing them.
package dictionary

// Request is the handle of one in-flight article lookup. All methods are
// safe for concurrent use; a consumer typically polls Snapshot while
// waiting on Updates and Done.
type Request interface {
	// Cancel aborts outstanding work best effort. Idempotent; safe after
	// natural completion. The request finalizes silently with whatever data
	// had accumulated.
	Cancel()

	// IsFinished reports whether the request reached its terminal state.
	IsFinished() bool

	// HasData reports whether any content has accumulated so far.
	HasData() bool

	// ErrorMessage returns the most recent failure, or the empty string
	// when at least one call succeeded or no failure occurred.
	ErrorMessage() string

	// Snapshot returns a copy of the accumulated display-ready content.
	Snapshot() []byte

	// Updates signals incremental progress; signals coalesce.
	Updates() <-chan struct{}

	// Done is closed once the request finishes.
	Done() <-chan struct{}
}

// SearchRequest is the handle of one incremental prefix search.
type SearchRequest interface {
	Request

	// Matches returns the words matched so far.
	Matches() []string
}

// Dictionary is one remote lookup source.
type Dictionary interface {
	// ID identifies the source instance; stable across restarts for the
	// same configuration.
	ID() string

	// Name is the display name of the source.
	Name() string

	// GetArticle starts a lookup for word plus its alternate forms and
	// returns immediately.
	GetArticle(word string, alternates []string) Request

	// Search starts an incremental prefix match and returns immediately.
	Search(prefix string) SearchRequest
}
