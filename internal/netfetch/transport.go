// Package netfetch implements the shared network transport behind dictionary
// lookups.
//
// Every call is asynchronous: Fetch returns immediately and the outcome is
// delivered through the dispatcher as a completion keyed by call identity.
// Aborting is best effort; an already in-flight completion may still arrive
// and is then ignored downstream.
package netfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/quickdict/quickdict/internal/build"
	"github.com/quickdict/quickdict/internal/dispatch"
	"github.com/quickdict/quickdict/pkg/cache"
	"github.com/quickdict/quickdict/pkg/logger"
)

var (
	inflightFetchesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: build.ProjectName,
		Name:      "netfetch_inflight_fetches",
		Help:      "Number of network fetches currently in flight.",
	})

	fetchesCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "netfetch_fetches_total",
		Help:      "Number of network fetches by outcome.",
	}, []string{"outcome"})
)

// Transport starts and aborts asynchronous network calls. Each started call
// completes or is abortable exactly once.
type Transport interface {
	// Fetch begins retrieving url and eventually delivers a completion for
	// callID. It never blocks the caller.
	Fetch(callID, url string)

	// Abort cancels the call if it is still running. Aborting an unknown
	// call is a no-op.
	Abort(callID string)
}

const defaultMaxInFlight = 16

type Option func(*HTTPTransport)

func WithMaxInFlight(n int64) Option {
	return func(t *HTTPTransport) {
		t.sem = semaphore.NewWeighted(n)
	}
}

// WithCache enables reuse of previously fetched responses keyed by URL.
func WithCache(c cache.Cache) Option {
	return func(t *HTTPTransport) {
		t.cache = c
	}
}

func WithUserAgent(ua string) Option {
	return func(t *HTTPTransport) {
		t.userAgent = ua
	}
}

// HTTPTransport is the production Transport. It limits concurrency with a
// weighted semaphore and retries transient failures through
// RetryingHTTPClient.
type HTTPTransport struct {
	client    *RetryingHTTPClient
	disp      *dispatch.Dispatcher
	logger    logger.Logger
	sem       *semaphore.Weighted
	cache     cache.Cache
	userAgent string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]context.CancelFunc

	closeOnce sync.Once
}

var _ Transport = (*HTTPTransport)(nil)

func NewHTTPTransport(d *dispatch.Dispatcher, l logger.Logger, opts ...Option) *HTTPTransport {
	ctx, cancel := context.WithCancel(context.Background())
	t := &HTTPTransport{
		client:    NewRetryingHTTPClient(),
		disp:      d,
		logger:    l,
		sem:       semaphore.NewWeighted(defaultMaxInFlight),
		userAgent: build.ProjectName + "/" + build.Version,
		ctx:       ctx,
		cancel:    cancel,
		inflight:  make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *HTTPTransport) Fetch(callID, url string) {
	if t.cache != nil {
		if body, ok := t.cache.Get(url); ok {
			t.logger.Debug("serving fetch from cache", zap.String("url", url))
			t.wg.Add(1)
			go func() {
				defer t.wg.Done()
				t.disp.Deliver(dispatch.Completion{CallID: callID, Body: body})
			}()
			return
		}
	}

	callCtx, callCancel := context.WithCancel(t.ctx)
	t.mu.Lock()
	t.inflight[callID] = callCancel
	t.mu.Unlock()

	t.wg.Add(1)
	go t.do(callCtx, callID, url)
}

func (t *HTTPTransport) do(ctx context.Context, callID, url string) {
	defer t.wg.Done()
	defer func() {
		t.mu.Lock()
		if cancel, ok := t.inflight[callID]; ok {
			delete(t.inflight, callID)
			cancel()
		}
		t.mu.Unlock()
	}()

	if err := t.sem.Acquire(ctx, 1); err != nil {
		t.deliver(callID, nil, err)
		return
	}
	defer t.sem.Release(1)

	inflightFetchesGauge.Inc()
	defer inflightFetchesGauge.Dec()

	body, err := t.get(ctx, url)
	if err != nil {
		fetchesCounter.WithLabelValues("error").Inc()
		t.logger.Debug("fetch failed", zap.String("url", url), zap.Error(err))
		t.deliver(callID, nil, err)
		return
	}

	fetchesCounter.WithLabelValues("ok").Inc()
	if t.cache != nil {
		t.cache.Set(url, body, int64(len(body)))
	}
	t.deliver(callID, body, nil)
}

func (t *HTTPTransport) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (t *HTTPTransport) deliver(callID string, body []byte, err error) {
	t.disp.Deliver(dispatch.Completion{CallID: callID, Body: body, Err: err})
}

func (t *HTTPTransport) Abort(callID string) {
	t.mu.Lock()
	cancel, ok := t.inflight[callID]
	if ok {
		delete(t.inflight, callID)
	}
	t.mu.Unlock()

	if ok {
		cancel()
	}
}

// Close aborts everything in flight and waits for the worker goroutines.
func (t *HTTPTransport) Close() {
	t.closeOnce.Do(func() {
		t.cancel()
		t.wg.Wait()
		t.client.CloseIdleConnections()
	})
}
