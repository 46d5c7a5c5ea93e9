package request

import "sync"

// resultSink is the accumulating buffer a consumer polls while the lookup is
// in flight. Buffer, data flag, finished flag and error message form one
// unit guarded by a single lock: a reader can never observe a partially
// consistent combination. The lock is held only for the copy or append,
// never across a transport or transform call.
type resultSink struct {
	mu       sync.Mutex
	buf      []byte
	hasData  bool
	finished bool
	errMsg   string

	updates chan struct{}
	done    chan struct{}
}

func newResultSink() *resultSink {
	return &resultSink{
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (s *resultSink) append(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		// Late data after cancellation is dropped.
		return
	}
	s.buf = append(s.buf, b...)
	s.hasData = true
}

// setError overwrites the stored error message; the most recent one wins.
func (s *resultSink) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.errMsg = msg
}

// finish marks the sink complete. It is idempotent and notifies exactly once.
func (s *resultSink) finish() {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	s.mu.Unlock()

	close(s.done)
	s.notify()
}

// notify signals incremental progress without blocking; signals coalesce.
func (s *resultSink) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

func (s *resultSink) snapshot() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return out
}

func (s *resultSink) hasAnyData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasData
}

func (s *resultSink) isFinished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// errorMessage surfaces the stored error only when nothing was accumulated:
// one successful call is enough to count the whole lookup as a success.
func (s *resultSink) errorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasData {
		return ""
	}
	return s.errMsg
}
