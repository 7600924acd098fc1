package trace_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/perceptlab/facetrial/internal/trace"
)

func TestNewNopWhenEmpty(t *testing.T) {
	log, err := trace.New("")
	require.NoError(t, err)
	log.Info("discarded")
	require.NoError(t, log.Sync())
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "session.log")
	log, err := trace.New(path)
	require.NoError(t, err)

	log.Info("session started", zap.String("participant", "anon"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "session started")
	require.Contains(t, string(data), "anon")
}
