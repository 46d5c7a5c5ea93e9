package request

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSinkSnapshotIsACopy(t *testing.T) {
	s := newResultSink()
	s.append([]byte("abc"))

	snap := s.snapshot()
	snap[0] = 'X'

	require.Equal(t, []byte("abc"), s.snapshot())
}

func TestSinkErrorSuppressedBySuccess(t *testing.T) {
	s := newResultSink()
	s.setError("first failure")
	require.Equal(t, "first failure", s.errorMessage())

	s.setError("second failure")
	require.Equal(t, "second failure", s.errorMessage(), "most recent error wins")

	s.append([]byte("payload"))
	require.Empty(t, s.errorMessage(), "partial success counts as success")
	require.True(t, s.hasAnyData())
}

func TestSinkFinishIsIdempotent(t *testing.T) {
	s := newResultSink()
	s.finish()
	s.finish()

	require.True(t, s.isFinished())
	select {
	case <-s.done:
	default:
		t.Fatal("done channel should be closed")
	}
}

func TestSinkIgnoresWritesAfterFinish(t *testing.T) {
	s := newResultSink()
	s.finish()

	s.append([]byte("late"))
	s.setError("late error")

	require.False(t, s.hasAnyData())
	require.Empty(t, s.snapshot())
	require.Empty(t, s.errorMessage())
}

func TestSinkNotifyCoalesces(t *testing.T) {
	s := newResultSink()
	s.notify()
	s.notify()
	s.notify()

	<-s.updates
	select {
	case <-s.updates:
		t.Fatal("updates should coalesce into a single signal")
	default:
	}
}
