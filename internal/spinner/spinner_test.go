package spinner

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// syncWriter guards the buffer the spinner goroutine writes to.
type syncWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *syncWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func TestSpinnerWritesAndClears(t *testing.T) {
	w := &syncWriter{}
	stop := Start(w, "working")
	time.Sleep(200 * time.Millisecond)
	stop()

	out := w.String()
	require.Contains(t, out, "working")
	// The final write blanks the line.
	require.True(t, strings.HasSuffix(out, "\r"))
}

func TestStopIsIdempotent(t *testing.T) {
	w := &syncWriter{}
	stop := Start(w, "working")
	stop()
	stop()
}
