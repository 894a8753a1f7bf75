// Package samples contains runnable examples. Each sub-directory is a small
// program demonstrating one part of the engine against the in-memory backend.
package samples

import (
	"log/slog"
	"os"

	"github.com/everflowhq/everflow/backend"
	"github.com/everflowhq/everflow/backend/memory"
)

// GetBackend returns the backend used by the samples.
func GetBackend(opt ...backend.BackendOption) backend.Backend {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	opt = append([]backend.BackendOption{backend.WithLogger(logger)}, opt...)

	return memory.NewMemoryBackend(opt...)
}
