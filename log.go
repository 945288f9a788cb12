package plsbb

import (
	"io"
	"log/slog"
)

// defaultLogger returns a quiet structured logger used whenever a
// Config leaves Logger nil, so the solver never panics on a nil
// logger and tests never have to construct one explicitly.
func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
