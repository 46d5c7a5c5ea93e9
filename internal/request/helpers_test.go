package request

import (
	"strings"
	"sync"

	"github.com/quickdict/quickdict/internal/dispatch"
)

// fakeDispatcher routes completions synchronously on the test goroutine,
// which matches the serialized delivery of the real dispatcher.
type fakeDispatcher struct {
	mu       sync.Mutex
	handlers map[string]dispatch.Handler
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{handlers: make(map[string]dispatch.Handler)}
}

func (d *fakeDispatcher) Register(callID string, handler dispatch.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[callID] = handler
}

func (d *fakeDispatcher) Unregister(callID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.handlers, callID)
}

func (d *fakeDispatcher) registered() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers)
}

func (d *fakeDispatcher) deliver(c dispatch.Completion) {
	d.mu.Lock()
	handler, ok := d.handlers[c.CallID]
	d.mu.Unlock()
	if ok {
		handler(c)
	}
}

// fakeTransport records every started call in submission order.
type fakeTransport struct {
	mu      sync.Mutex
	fetches []fakeFetch
	aborted []string
}

type fakeFetch struct {
	callID string
	url    string
}

func (t *fakeTransport) Fetch(callID, url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fetches = append(t.fetches, fakeFetch{callID: callID, url: url})
}

func (t *fakeTransport) Abort(callID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.aborted = append(t.aborted, callID)
}

func (t *fakeTransport) calls() []fakeFetch {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]fakeFetch, len(t.fetches))
	copy(out, t.fetches)
	return out
}

func (t *fakeTransport) abortedCalls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.aborted))
	copy(out, t.aborted)
	return out
}

func testBuildURL(word string) string {
	return "https://dict.test/api?page=" + word
}

// wordFromURL inverts testBuildURL.
func wordFromURL(url string) string {
	return strings.TrimPrefix(url, "https://dict.test/api?page=")
}

// passthroughDecode treats the whole body as the fragment; an empty body
// means no text was found.
func passthroughDecode(body []byte) (string, bool, error) {
	if len(body) == 0 {
		return "", false, nil
	}
	return string(body), true, nil
}
