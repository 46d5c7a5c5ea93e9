package request

import (
	"regexp"
	"strings"
	"sync"
)

// Hook is one named step of the per-backend processing pipeline. A hook
// implements one or more of QueryHook, ContentHook and OutcomeHook; the
// request walks the configured hooks in order at each integration point.
// Hook instances are stateful and must not be shared between requests.
type Hook interface {
	Name() string
}

// QueryHook rewrites a word before its call is submitted and is told which
// call identity the rewritten query ended up with.
type QueryHook interface {
	Hook

	// RewriteQuery returns the query to submit instead of word, and whether
	// a rewrite happened.
	RewriteQuery(word string) (string, bool)

	// QuerySubmitted reports the call created for a rewritten query.
	QuerySubmitted(callID, originalWord string)
}

// ContentHook inspects a decoded fragment. It either returns the fragment
// (possibly rewritten) with an empty redirect, or a non-empty redirect word,
// in which case the fragment is discarded and the redirect target is queried
// ahead of the remaining queue.
type ContentHook interface {
	Hook

	ProcessContent(fragment string) (out string, redirect string)
}

// OutcomeHook observes every drained call once its outcome is known.
// textFound reports whether the response carried article text, even when a
// later hook discarded it.
type OutcomeHook interface {
	Hook

	CallResolved(r *ArticleRequest, callID string, textFound bool)
}

var wikiLinkPattern = regexp.MustCompile(`^<a href="/wiki/([^"]+)"`)

// RedirectHook implements single-hop content-driven redirection: when the
// configured marker substring occurs inside an anchor link, the link target
// is queried instead of accepting the fragment.
type RedirectHook struct {
	// Marker distinguishes the redirect link from every other link in the
	// fragment. An empty marker disables the hook.
	Marker string

	// LinkPattern extracts the target word from the link forepart.
	// Defaults to a /wiki/ style href.
	LinkPattern *regexp.Regexp
}

var _ ContentHook = (*RedirectHook)(nil)

func (h *RedirectHook) Name() string { return "redirect-check" }

func (h *RedirectHook) ProcessContent(fragment string) (string, string) {
	if h.Marker == "" {
		return fragment, ""
	}
	if word := h.findLink(fragment); word != "" {
		// Found our link distinction -> redirect.
		return "", word
	}
	return fragment, ""
}

// findLink returns the word inside the link that contains the marker, or an
// empty string if the fragment has no such link.
func (h *RedirectHook) findLink(fragment string) string {
	markerPos := strings.Index(fragment, h.Marker)
	if markerPos < 0 {
		return ""
	}
	linkPos := strings.LastIndexAny(fragment[:markerPos], "<>")
	if linkPos < 0 {
		return ""
	}

	pattern := h.LinkPattern
	if pattern == nil {
		pattern = wikiLinkPattern
	}
	m := pattern.FindStringSubmatch(fragment[linkPos:markerPos])
	if m == nil {
		return ""
	}
	return m[1]
}

// SuffixFallbackHook implements the preferred-variant strategy: a word not
// already carrying Suffix is first queried as word+Suffix, and only when
// that speculative call yields no text is the original word queried. The
// common case saves a round trip; the failure case costs one extra.
type SuffixFallbackHook struct {
	Suffix string

	mu sync.Mutex
	// replacements match their calls in the same relative order as the
	// call queue.
	replacements []replacement
}

type replacement struct {
	callID       string
	originalWord string
}

var (
	_ QueryHook   = (*SuffixFallbackHook)(nil)
	_ OutcomeHook = (*SuffixFallbackHook)(nil)
)

func (h *SuffixFallbackHook) Name() string { return "suffix-fallback" }

func (h *SuffixFallbackHook) RewriteQuery(word string) (string, bool) {
	if h.Suffix == "" || strings.HasSuffix(word, h.Suffix) {
		return word, false
	}
	// Try the corresponding preferable article first.
	return word + h.Suffix, true
}

func (h *SuffixFallbackHook) QuerySubmitted(callID, originalWord string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.replacements = append(h.replacements, replacement{callID: callID, originalWord: originalWord})
}

func (h *SuffixFallbackHook) CallResolved(r *ArticleRequest, callID string, textFound bool) {
	h.mu.Lock()
	if len(h.replacements) == 0 || h.replacements[0].callID != callID {
		h.mu.Unlock()
		return
	}
	repl := h.replacements[0]
	h.replacements = h.replacements[1:]
	h.mu.Unlock()

	if !textFound {
		// Couldn't load the preferable article -> try the original word.
		r.prependQuery(repl.originalWord)
	}
}

// ContentFixupHook applies a named cosmetic rewrite to accepted fragments.
type ContentFixupHook struct {
	name  string
	apply func(string) string
}

var _ ContentHook = (*ContentFixupHook)(nil)

func NewContentFixupHook(name string, apply func(string) string) *ContentFixupHook {
	return &ContentFixupHook{name: name, apply: apply}
}

func (h *ContentFixupHook) Name() string { return h.name }

func (h *ContentFixupHook) ProcessContent(fragment string) (string, string) {
	return h.apply(fragment), ""
}
