// Package trace provides the per-session event log. The runner owns the
// terminal, so diagnostics go to a file instead of stderr.
package trace

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// New builds a logger writing JSON lines to path, creating parent
// directories as needed. An empty path returns a no-op logger.
func New(path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}
