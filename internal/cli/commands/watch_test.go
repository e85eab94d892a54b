package commands

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leapstack-labs/dlist/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatchCommand(t *testing.T) {
	cmd := NewWatchCommand()

	assert.Equal(t, "watch <scenario.yaml>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
}

func TestWatchScenario_RerunsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watched.yaml")
	other := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(path, []byte("payloads: [a]\n"), 0600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const debounce = 50 * time.Millisecond
	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchScenario(ctx, path, debounce, testutil.NewTestLogger(t), func() { runs.Add(1) })
	}()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	// unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(other, []byte("payloads: [b]\n"), 0600))
	time.Sleep(3 * debounce)
	assert.Equal(t, int32(1), runs.Load())

	require.NoError(t, os.WriteFile(path, []byte("payloads: [a, b]\n"), 0600))
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatchScenario_MissingDirectory(t *testing.T) {
	err := watchScenario(context.Background(), filepath.Join(t.TempDir(), "gone", "s.yaml"), time.Millisecond, nil, func() {})
	require.Error(t, err)
}
