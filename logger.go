package execution

import (
	"log/slog"
	"os"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger replaces the package logger. Embedding hosts use it to
// route engine output into their own handler.
func SetLogger(l *slog.Logger) {
	logger = l
}
