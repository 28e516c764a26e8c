package classifier

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeThresholds(t *testing.T, path string, critical float64) {
	t.Helper()
	doc := []byte("thresholds:\n  critical: " + strconv.FormatFloat(critical, 'f', -1, 64) + "\n  high: 0.65\n  moderate: 0.40\n  low: 0.15\n")
	require.NoError(t, os.WriteFile(path, doc, 0o644))
}

func TestReloaderReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	writeThresholds(t, path, 0.85)

	r, err := NewReloader(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 0.85, r.Current().Config().Thresholds.Critical)

	writeThresholds(t, path, 0.95)
	require.NoError(t, r.Reload())
	assert.Equal(t, 0.95, r.Current().Config().Thresholds.Critical)
	assert.EqualValues(t, 1, r.Reloads())

	// 0.5 is below high, so the file is rejected and 0.95 stays active.
	writeThresholds(t, path, 0.5)
	assert.Error(t, r.Reload())
	assert.Equal(t, 0.95, r.Current().Config().Thresholds.Critical)
}

func TestReloaderDefaultsWithoutPath(t *testing.T) {
	r, err := NewReloader("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Thresholds, r.Current().Config().Thresholds)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, r.Watch(ctx))
}

func TestReloaderWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	writeThresholds(t, path, 0.85)
	r, err := NewReloader(path, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("thresholds:\n  critical: 0.95\n  high: 0.65\n  moderate: 0.40\n  low: 0.15\n"), 0o644)
		return r.Current().Config().Thresholds.Critical == 0.95
	}, 5*time.Second, 50*time.Millisecond)
}
