package request

import "github.com/oklog/ulid/v2"

// outboundCall is one in-flight network operation. It is owned exclusively
// by the queue that issued it and destroyed once drained.
type outboundCall struct {
	id   string
	word string

	done bool
	body []byte
	err  error
}

func newOutboundCall(word string) *outboundCall {
	return &outboundCall{
		id:   ulid.Make().String(),
		word: word,
	}
}

// callQueue keeps calls in submission order. Completions may arrive in any
// order; draining only ever releases the contiguous completed prefix, which
// restores deterministic in-order processing.
type callQueue struct {
	calls []*outboundCall
}

func (q *callQueue) pushBack(c *outboundCall) {
	q.calls = append(q.calls, c)
}

// pushFront inserts a speculative call ahead of everything still queued, so
// a redirect target resolves before the remaining alternates.
func (q *callQueue) pushFront(c *outboundCall) {
	q.calls = append([]*outboundCall{c}, q.calls...)
}

// complete flags the call with the given outcome. It reports false when the
// call is no longer present, in which case the completion is a no-op.
func (q *callQueue) complete(id string, body []byte, err error) bool {
	for _, c := range q.calls {
		if c.id == id {
			c.done = true
			c.body = body
			c.err = err
			return true
		}
	}
	return false
}

// popReady removes and returns the front call if it has completed, or nil.
func (q *callQueue) popReady() *outboundCall {
	if len(q.calls) == 0 || !q.calls[0].done {
		return nil
	}
	c := q.calls[0]
	q.calls[0] = nil
	q.calls = q.calls[1:]
	return c
}

func (q *callQueue) empty() bool {
	return len(q.calls) == 0
}

func (q *callQueue) ids() []string {
	out := make([]string, 0, len(q.calls))
	for _, c := range q.calls {
		out = append(out, c.id)
	}
	return out
}
