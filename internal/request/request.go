// Package request implements the multi-call lookup orchestration between a
// dictionary backend and the shared network transport.
//
// One ArticleRequest spans one or more outbound calls. Completions arrive in
// arbitrary order through the dispatcher; the request drains the completed
// prefix of its call queue in submission order, runs the backend's hook
// pipeline over each decoded fragment and accumulates accepted fragments in
// a thread safe sink a consumer may poll at any time. Hooks can chain
// further calls: a redirect target or a fallback word is queried ahead of
// whatever is still queued.
package request

import (
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/quickdict/quickdict/internal/dispatch"
	"github.com/quickdict/quickdict/pkg/logger"
)

// MaxQueryRunes is the longest query ever submitted to a remote service.
// Longer queries are fruitless anyway and resolve instantly as empty.
const MaxQueryRunes = 80

// QueryTooLong reports whether the word exceeds MaxQueryRunes.
func QueryTooLong(word string) bool {
	return utf8.RuneCountInString(word) > MaxQueryRunes
}

// Transport starts and aborts asynchronous network calls.
type Transport interface {
	Fetch(callID, url string)
	Abort(callID string)
}

// Dispatcher routes call completions back to the request.
type Dispatcher interface {
	Register(callID string, handler dispatch.Handler)
	Unregister(callID string)
}

// DecodeFunc extracts the article fragment from a raw response body.
// found reports whether the response carried any text; err reports a
// malformed response.
type DecodeFunc func(body []byte) (fragment string, found bool, err error)

// TransformFunc adapts an accepted fragment for local rendering. It must be
// pure and is opaque to the orchestration.
type TransformFunc func(fragment string) string

// URLFunc builds the remote URL querying the given word.
type URLFunc func(word string) string

// State of a request. Finished is terminal.
type State int

const (
	StateActive State = iota
	StateCancelling
	StateFinished
)

// Config wires one lookup. Hooks must be fresh instances for every request.
type Config struct {
	Logger     logger.Logger
	Transport  Transport
	Dispatcher Dispatcher
	BuildURL   URLFunc
	Decode     DecodeFunc
	Transform  TransformFunc
	Hooks      []Hook
}

// ArticleRequest orchestrates one logical lookup spanning one or more
// network calls. Completion processing is serialized by the dispatcher;
// Cancel and the read accessors may be called from any goroutine.
type ArticleRequest struct {
	cfg  Config
	sink *resultSink

	mu    sync.Mutex
	state State
	queue callQueue
}

// NewArticleRequest submits one call for the primary word followed by one
// per alternate, in order, and returns immediately. An oversized word
// resolves at once as empty and finished, with no error.
func NewArticleRequest(cfg Config, word string, alternates []string) *ArticleRequest {
	r := &ArticleRequest{
		cfg:  cfg,
		sink: newResultSink(),
	}
	if cfg.Logger == nil {
		r.cfg.Logger = logger.NewNoopLogger()
	}

	if QueryTooLong(word) {
		r.state = StateFinished
		r.sink.finish()
		return r
	}

	r.submit(word)
	for _, alt := range alternates {
		r.submit(alt)
	}
	return r
}

// NewInstantArticleRequest returns a request that is already finished and
// empty. Used when a lookup can be rejected before submission.
func NewInstantArticleRequest() *ArticleRequest {
	r := &ArticleRequest{
		cfg:  Config{Logger: logger.NewNoopLogger()},
		sink: newResultSink(),
	}
	r.state = StateFinished
	r.sink.finish()
	return r
}

// submit runs the query hooks over the word and enqueues a call at the back.
func (r *ArticleRequest) submit(word string) {
	type pendingRewrite struct {
		hook     QueryHook
		original string
	}
	var rewrites []pendingRewrite

	query := word
	for _, h := range r.cfg.Hooks {
		if qh, ok := h.(QueryHook); ok {
			if rewritten, changed := qh.RewriteQuery(query); changed {
				rewrites = append(rewrites, pendingRewrite{hook: qh, original: query})
				query = rewritten
			}
		}
	}

	c := newOutboundCall(query)
	r.mu.Lock()
	r.queue.pushBack(c)
	r.mu.Unlock()

	for _, rw := range rewrites {
		rw.hook.QuerySubmitted(c.id, rw.original)
	}

	r.startCall(c)
}

// prependQuery enqueues a speculative call at the front of the queue so it
// resolves before the remaining alternates. Query hooks do not run again.
// The state check and the submission share one critical section: a
// cancellation racing the drain must not start a call nothing will abort.
func (r *ArticleRequest) prependQuery(word string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateFinished {
		return
	}
	c := newOutboundCall(word)
	r.queue.pushFront(c)
	r.startCall(c)
}

// startCall registers interest and starts the fetch. Both only start work,
// so callers may hold r.mu.
func (r *ArticleRequest) startCall(c *outboundCall) {
	r.cfg.Logger.Debug("requesting article",
		zap.String("word", c.word),
		zap.String("call_id", c.id),
	)
	r.cfg.Dispatcher.Register(c.id, r.onCompletion)
	r.cfg.Transport.Fetch(c.id, r.cfg.BuildURL(c.word))
}

// onCompletion runs on the dispatcher goroutine. A completion for a
// finished request or an unknown call is ignored.
func (r *ArticleRequest) onCompletion(comp dispatch.Completion) {
	// The call has completed, so interest in it is over on every path out.
	r.cfg.Dispatcher.Unregister(comp.CallID)

	r.mu.Lock()
	if r.state == StateFinished {
		r.mu.Unlock()
		return
	}
	if !r.queue.complete(comp.CallID, comp.Body, comp.Err) {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	updated := false
	for {
		r.mu.Lock()
		if r.state == StateFinished {
			r.mu.Unlock()
			return
		}
		c := r.queue.popReady()
		r.mu.Unlock()

		if c == nil {
			break
		}
		if r.processCall(c) {
			updated = true
		}
	}

	r.mu.Lock()
	finishNow := r.state == StateActive && r.queue.empty()
	if finishNow {
		r.state = StateFinished
	}
	r.mu.Unlock()

	if finishNow {
		r.sink.finish()
	} else if updated {
		r.sink.notify()
	}
}

// processCall decodes one drained call, runs the content hooks and appends
// the surviving fragment. It reports whether anything was appended.
func (r *ArticleRequest) processCall(c *outboundCall) bool {
	textFound := false
	var fragment string

	if c.err != nil {
		// A failed sibling never aborts the request; the message is kept in
		// case nothing else succeeds.
		r.sink.setError(c.err.Error())
	} else if r.cfg.Decode != nil {
		frag, found, err := r.cfg.Decode(c.body)
		if err != nil {
			r.sink.setError(err.Error())
		}
		if found {
			textFound = true
			fragment = frag
		}
	}

	appended := false
	if textFound {
		redirected := false
		for _, h := range r.cfg.Hooks {
			ch, ok := h.(ContentHook)
			if !ok {
				continue
			}
			out, redirect := ch.ProcessContent(fragment)
			if redirect != "" {
				r.cfg.Logger.Debug("fragment redirected",
					zap.String("hook", h.Name()),
					zap.String("target", redirect),
				)
				r.prependQuery(redirect)
				redirected = true
				break
			}
			fragment = out
		}

		if !redirected {
			if r.cfg.Transform != nil {
				fragment = r.cfg.Transform(fragment)
			}
			r.sink.append([]byte(fragment))
			appended = true
		}
	}

	for _, h := range r.cfg.Hooks {
		if oh, ok := h.(OutcomeHook); ok {
			oh.CallResolved(r, c.id, textFound)
		}
	}

	return appended
}

// Cancel aborts outstanding calls best effort and finalizes silently with
// whatever data had accumulated. It is idempotent and safe after natural
// completion; later completions are ignored.
func (r *ArticleRequest) Cancel() {
	r.mu.Lock()
	if r.state == StateFinished {
		r.mu.Unlock()
		return
	}
	r.state = StateFinished
	outstanding := r.queue.ids()
	r.mu.Unlock()

	for _, id := range outstanding {
		r.cfg.Transport.Abort(id)
		r.cfg.Dispatcher.Unregister(id)
	}

	r.sink.finish()
}

func (r *ArticleRequest) IsFinished() bool {
	return r.sink.isFinished()
}

func (r *ArticleRequest) HasData() bool {
	return r.sink.hasAnyData()
}

func (r *ArticleRequest) ErrorMessage() string {
	return r.sink.errorMessage()
}

// Snapshot returns a copy of the accumulated buffer. Safe at any time.
func (r *ArticleRequest) Snapshot() []byte {
	return r.sink.snapshot()
}

// Updates signals incremental progress; signals coalesce.
func (r *ArticleRequest) Updates() <-chan struct{} {
	return r.sink.updates
}

// Done is closed once the request is finished.
func (r *ArticleRequest) Done() <-chan struct{} {
	return r.sink.done
}
