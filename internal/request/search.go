package request

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quickdict/quickdict/internal/dispatch"
	"github.com/quickdict/quickdict/pkg/logger"
)

// DefaultSearchGrace is how long a search request outlives a cancellation.
// Rapid typing cancels searches every few keystrokes; deferring the
// finalization avoids the churn of abandoning and reopening connections.
const DefaultSearchGrace = 200 * time.Millisecond

// MatchDecodeFunc extracts matched words from a raw response body.
type MatchDecodeFunc func(body []byte) ([]string, error)

// SearchConfig wires one incremental search lookup.
type SearchConfig struct {
	Logger     logger.Logger
	Transport  Transport
	Dispatcher Dispatcher
	BuildURL   URLFunc
	Decode     MatchDecodeFunc

	// Grace overrides DefaultSearchGrace when positive.
	Grace time.Duration
}

// SearchRequest performs a single call for one incremental query.
//
// State machine: Active --cancel--> Cancelling --grace elapsed or call
// resolved--> Finished; Active --call resolved--> Finished. Finished is
// terminal. A cancel before the grace timer fires defers finalization until
// it does; after the timer a cancel finalizes immediately.
type SearchRequest struct {
	cfg  SearchConfig
	sink *resultSink

	mu              sync.Mutex
	state           State
	livedLongEnough bool
	callID          string
	matches         []string
	timer           *time.Timer
}

// NewSearchRequest issues the call and starts the grace timer. An oversized
// word resolves instantly as empty.
func NewSearchRequest(cfg SearchConfig, word string) *SearchRequest {
	r := &SearchRequest{
		cfg:  cfg,
		sink: newResultSink(),
	}
	if cfg.Logger == nil {
		r.cfg.Logger = logger.NewNoopLogger()
	}
	if r.cfg.Grace <= 0 {
		r.cfg.Grace = DefaultSearchGrace
	}

	if QueryTooLong(word) {
		r.state = StateFinished
		r.sink.finish()
		return r
	}

	c := newOutboundCall(word)
	r.callID = c.id
	r.cfg.Logger.Debug("requesting matches",
		zap.String("word", word),
		zap.String("call_id", c.id),
	)
	r.cfg.Dispatcher.Register(c.id, r.onCompletion)
	r.timer = time.AfterFunc(r.cfg.Grace, r.onGraceElapsed)
	r.cfg.Transport.Fetch(c.id, r.cfg.BuildURL(word))
	return r
}

// NewInstantSearchRequest returns an already finished request carrying the
// given matches, for backends that answer prefix searches locally.
func NewInstantSearchRequest(matches []string) *SearchRequest {
	r := &SearchRequest{
		cfg:  SearchConfig{Logger: logger.NewNoopLogger()},
		sink: newResultSink(),
	}
	r.matches = append(r.matches, matches...)
	if len(matches) > 0 {
		r.sink.append([]byte(strings.Join(matches, "\n")))
	}
	r.state = StateFinished
	r.sink.finish()
	return r
}

func (r *SearchRequest) onGraceElapsed() {
	r.mu.Lock()
	r.livedLongEnough = true
	finalize := r.state == StateCancelling
	if finalize {
		r.state = StateFinished
	}
	r.mu.Unlock()

	if finalize {
		r.finalize()
	}
}

func (r *SearchRequest) onCompletion(comp dispatch.Completion) {
	r.mu.Lock()
	if r.state != StateActive || comp.CallID != r.callID {
		// Was cancelled.
		r.mu.Unlock()
		return
	}
	r.state = StateFinished
	r.mu.Unlock()

	if comp.Err != nil {
		r.sink.setError(comp.Err.Error())
	} else if r.cfg.Decode != nil {
		matches, err := r.cfg.Decode(comp.Body)
		if err != nil {
			r.sink.setError(err.Error())
		} else if len(matches) > 0 {
			r.mu.Lock()
			r.matches = matches
			r.mu.Unlock()
			r.sink.append([]byte(strings.Join(matches, "\n")))
		}
	}

	r.finalize()
}

// Cancel either finalizes in place, or defers to the grace timer.
func (r *SearchRequest) Cancel() {
	r.mu.Lock()
	if r.state == StateFinished || r.state == StateCancelling {
		r.mu.Unlock()
		return
	}
	r.state = StateCancelling
	callID := r.callID
	finalizeNow := r.livedLongEnough
	if finalizeNow {
		r.state = StateFinished
	}
	r.mu.Unlock()

	if callID != "" {
		r.cfg.Transport.Abort(callID)
	}

	if finalizeNow {
		r.finalize()
	}
}

func (r *SearchRequest) finalize() {
	r.mu.Lock()
	callID := r.callID
	timer := r.timer
	r.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if callID != "" {
		r.cfg.Dispatcher.Unregister(callID)
	}
	r.sink.finish()
}

// Matches returns a copy of the matched words.
func (r *SearchRequest) Matches() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.matches))
	copy(out, r.matches)
	return out
}

func (r *SearchRequest) IsFinished() bool {
	return r.sink.isFinished()
}

func (r *SearchRequest) HasData() bool {
	return r.sink.hasAnyData()
}

func (r *SearchRequest) ErrorMessage() string {
	return r.sink.errorMessage()
}

func (r *SearchRequest) Snapshot() []byte {
	return r.sink.snapshot()
}

func (r *SearchRequest) Updates() <-chan struct{} {
	return r.sink.updates
}

func (r *SearchRequest) Done() <-chan struct{} {
	return r.sink.done
}
