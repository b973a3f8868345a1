package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "webbuilder.yaml")
	require.NoError(t, os.WriteFile(path, []byte("browsers: last 2 versions\n"), 0o644))

	cw, err := NewConfigWatcher(path, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, cw.Start(ctx))

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("browsers: chrome >= 90\n"), 0o644))
	}

	select {
	case <-cw.Changes():
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}

	select {
	case <-cw.Changes():
		t.Fatal("burst of writes produced more than one notification")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestConfigWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "webbuilder.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	cw, err := NewConfigWatcher(path, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, cw.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))

	select {
	case <-cw.Changes():
		t.Fatal("unexpected notification for unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	cw, err := NewConfigWatcher(filepath.Join(t.TempDir(), "webbuilder.yaml"))
	require.NoError(t, err)
	require.NoError(t, cw.Close())
	require.NoError(t, cw.Close())
}
