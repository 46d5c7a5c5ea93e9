// Package dispatch routes asynchronous call completions to the requests that
// issued the calls.
//
// All completions for all outstanding requests flow through one dispatcher
// goroutine: handlers for the same request are therefore never invoked
// concurrently. A completion whose call identity is no longer registered,
// for example after cancellation, is dropped silently.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/quickdict/quickdict/internal/build"
	"github.com/quickdict/quickdict/internal/concurrency"
	"github.com/quickdict/quickdict/pkg/logger"
)

var (
	completionsRoutedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "dispatch_completions_routed_total",
		Help:      "Number of call completions routed to an interested request.",
	})

	completionsDroppedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "dispatch_completions_dropped_total",
		Help:      "Number of call completions that arrived with no registered handler.",
	})

	completionDurationHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: build.ProjectName,
		Name:      "dispatch_completion_handling_ms",
		Help:      "Time spent handling one call completion.",
		Buckets:   []float64{1, 3, 5, 10, 25, 50, 100, 1000},
	})
)

// Completion carries the outcome of one network call. Exactly one of Body
// and Err is meaningful.
type Completion struct {
	CallID string
	Body   []byte
	Err    error
}

// Handler consumes the completion of a call the owner registered interest in.
type Handler func(Completion)

const defaultInboxSize = 64

// Dispatcher owns the shared dispatch context. Construct with NewDispatcher
// and release with Close.
type Dispatcher struct {
	logger logger.Logger

	mu       sync.Mutex
	handlers map[string]Handler

	inbox chan Completion

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	closeOnce sync.Once
}

func NewDispatcher(l logger.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		logger:   l,
		handlers: make(map[string]Handler),
		inbox:    make(chan Completion, defaultInboxSize),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		select {
		case <-d.ctx.Done():
			return
		case c := <-d.inbox:
			d.route(c)
		}
	}
}

func (d *Dispatcher) route(c Completion) {
	d.mu.Lock()
	handler, ok := d.handlers[c.CallID]
	d.mu.Unlock()

	if !ok {
		// Not our reply anymore, don't do anything.
		completionsDroppedCounter.Inc()
		d.logger.Debug("dropped completion for unknown call", zap.String("call_id", c.CallID))
		return
	}

	start := time.Now()
	handler(c)
	completionDurationHistogram.Observe(float64(time.Since(start).Milliseconds()))
	completionsRoutedCounter.Inc()
}

// Register announces interest in the completion of the given call. The
// handler runs on the dispatcher goroutine.
func (d *Dispatcher) Register(callID string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[callID] = handler
}

// Unregister withdraws interest. Completions arriving afterwards are dropped.
// Unregistering an unknown call is a no-op.
func (d *Dispatcher) Unregister(callID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.handlers, callID)
}

// Deliver hands a completion to the dispatcher. It blocks only while the
// inbox is full and returns false once the dispatcher is closed.
func (d *Dispatcher) Deliver(c Completion) bool {
	return concurrency.TrySendThroughChannel(d.ctx, c, d.inbox)
}

// Close stops the dispatch goroutine and waits for it to exit.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.cancel()
		<-d.done
	})
}
