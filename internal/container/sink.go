package container

import (
	"sync/atomic"

	"github.com/Tiancheng-Luo/go-esio/internal/logging"
)

// Sink receives every error the driver reports. Mirrors the error stack
// of a native container driver: one process-wide hook, swappable, and
// silenceable for the duration of a probe.
type Sink func(op string, err error)

var sink atomic.Pointer[Sink]

func init() {
	s := Sink(func(op string, err error) {
		logging.Debug("container error", "op", op, "err", err)
	})
	sink.Store(&s)
}

// SetSink installs a new sink and returns the previous one. A nil sink
// suppresses reporting.
func SetSink(s Sink) Sink {
	var old *Sink
	if s == nil {
		old = sink.Swap(nil)
	} else {
		old = sink.Swap(&s)
	}
	if old == nil {
		return nil
	}
	return *old
}

// Silence suppresses the sink and returns a function restoring it. The
// restore function must run on every exit path of the caller, including
// panics, so callers defer it immediately.
func Silence() (restore func()) {
	old := sink.Swap(nil)
	return func() {
		sink.Store(old)
	}
}

// report passes err through the sink, if one is installed, and returns
// it unchanged so call sites can report-and-return in one expression.
func report(op string, err error) error {
	if s := sink.Load(); s != nil && err != nil {
		(*s)(op, err)
	}
	return err
}
