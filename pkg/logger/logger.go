package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// Printf adapts a slog.Logger to the Printf-style logger interfaces used by
// robfig/cron and golang-migrate.
type Printf struct {
	log     *slog.Logger
	verbose bool
}

// New returns a bridge that tags records with the component name.
func New(base *slog.Logger, component string, verbose bool) *Printf {
	if base == nil {
		base = slog.Default()
	}
	return &Printf{log: base.With("component", component), verbose: verbose}
}

// Printf logs a formatted line at info level.
func (p *Printf) Printf(format string, v ...interface{}) {
	p.log.Info(strings.TrimRight(fmt.Sprintf(format, v...), "\n"))
}

// Verbose reports whether debug chatter should be emitted (migrate.Logger).
func (p *Printf) Verbose() bool {
	return p.verbose
}
