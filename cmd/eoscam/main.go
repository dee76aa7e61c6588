package main

import (
	"log/slog"
	"os"

	"github.com/eoscam/eoscam/cmd/eoscam/commands"
)

func main() {
	// Structured logs go to stderr so command output stays clean on stdout
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: commands.LogLevel,
	}))
	slog.SetDefault(logger)

	commands.Execute()
}
