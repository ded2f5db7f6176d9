// Package logging builds the process slog.Logger from config.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/claude/levelgym/internal/config"
)

// New returns a text logger writing to console and, when cfg.File is set, to
// a rotating log file as well. The returned closer releases the file.
func New(cfg config.LogConfig, console io.Writer) (*slog.Logger, io.Closer) {
	out := console
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		name := cfg.File
		if !strings.HasSuffix(name, ".log") {
			name += ".log"
		}
		file := &lumberjack.Logger{
			Filename:  name,
			MaxSize:   50,    // megabytes
			LocalTime: false, // UTC
			Compress:  true,
		}
		out = io.MultiWriter(console, file)
		closer = file
	}

	log := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	return log, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
