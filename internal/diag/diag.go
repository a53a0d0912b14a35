// Package diag is the non-fatal warning side channel described by the
// format's error handling design: non-numeric cell values are demoted to
// 0.0 and reported here instead of aborting the write. Oversized dense
// matrices are not reported here: a bin index beyond a chromosome's bin
// count is a fatal writer error.
package diag

import "log"

// Sink reports warnings without aborting the caller. The zero value
// discards everything, so callers that don't care about diagnostics can
// pass a zero Sink instead of threading a nil check everywhere.
type Sink struct {
	l     *log.Logger
	color bool
}

// New wraps l as a Sink. color enables ANSI dimming of the "warning:"
// prefix, for callers that already know stderr is a terminal.
func New(l *log.Logger, color bool) Sink {
	return Sink{l: l, color: color}
}

// Warnf reports one warning. Safe to call on a zero Sink.
func (s Sink) Warnf(format string, args ...interface{}) {
	if s.l == nil {
		return
	}
	prefix := "warning: "
	if s.color {
		prefix = "\x1b[2mwarning:\x1b[0m "
	}
	s.l.Printf(prefix+format, args...)
}
