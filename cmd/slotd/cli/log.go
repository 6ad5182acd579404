package cli

import (
	"log"
	"log/slog"
	"os"
)

var stdout = log.New(os.Stdout, "[slotd] ", log.Ldate|log.Ltime)
var stderr = log.New(os.Stderr, "[slotd] ", log.Ldate|log.Ltime)

var structuredLogger *slog.Logger

func SetupStructuredLogger() {
	level := slog.LevelInfo
	if !Flags.VerboseOutput {
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var logHandler slog.Handler
	switch Flags.LogFormat {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stdout, opts)
	case "text":
		logHandler = slog.NewTextHandler(os.Stdout, opts)
	default:
		stderr.Fatalf("Invalid -log-format flag: %s", Flags.LogFormat)
	}

	structuredLogger = slog.New(logHandler)
}
