package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/penwyp/go-ssp-overtime/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReplay_RendersOnChangeOnly(t *testing.T) {
	old := replayDebounce
	replayDebounce = 20 * time.Millisecond
	t.Cleanup(func() { replayDebounce = old })

	dir := t.TempDir()
	page := filepath.Join(dir, "attendance-001.html")
	require.NoError(t, os.WriteFile(page, []byte("<html>1</html>"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	renders := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- watchReplay(ctx, dir, util.NopLogger(), func() error {
			renders <- struct{}{}
			return nil
		})
	}()

	// Let the watcher start before touching files.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(page, []byte("<html>1</html>"), 0644))
	select {
	case <-renders:
		t.Fatal("rewrite with the same content triggered a render")
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(page, []byte("<html>2</html>"), 0644))
	select {
	case <-renders:
	case <-time.After(5 * time.Second):
		t.Fatal("changed page did not trigger a render")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop on cancel")
	}
}
