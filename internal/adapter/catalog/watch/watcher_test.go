package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/gostream/internal/logger"
	"github.com/tejashwikalptaru/gostream/internal/testutil"
)

type countingReloader struct {
	calls atomic.Int32
}

func (r *countingReloader) Reload(context.Context) error {
	r.calls.Add(1)
	return nil
}

func startWatcher(t *testing.T, w *Watcher) (cancel func()) {
	t.Helper()
	ctx, cancelFn := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	return func() {
		cancelFn()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
}

func TestWatcher_ReloadsOnFileChange(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "songs.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	reloader := &countingReloader{}
	stop := startWatcher(t, New(path, reloader, 20*time.Millisecond, logger.NewTestLogger()))
	defer stop()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1}]`), 0o644))

	assert.Eventually(t, func() bool { return reloader.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "songs.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	reloader := &countingReloader{}
	stop := startWatcher(t, New(path, reloader, 20*time.Millisecond, logger.NewTestLogger()))

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644))
	time.Sleep(200 * time.Millisecond)
	stop()

	assert.Zero(t, reloader.calls.Load())
}

func TestWatcher_Directory(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	dir := t.TempDir()
	reloader := &countingReloader{}
	stop := startWatcher(t, New(dir, reloader, 20*time.Millisecond, logger.NewTestLogger()))
	defer stop()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.mp3"), []byte("x"), 0o644))

	assert.Eventually(t, func() bool { return reloader.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_MissingPath(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing.json"), &countingReloader{}, 0, logger.NewTestLogger())

	err := w.Run(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
