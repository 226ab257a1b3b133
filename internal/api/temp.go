package api

import (
	"log/slog"
	"os"
)

func createTemp(dir, pattern string) (*os.File, error) {
	return os.CreateTemp(dir, pattern)
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to delete temp file", "path", path, "error", err)
	}
}
