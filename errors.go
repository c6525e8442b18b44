package esio

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/Tiancheng-Luo/go-esio/internal/logging"
)

// Code is the closed set of outcome codes public operations can fail
// with. The zero value OK corresponds to a nil error.
type Code int

const (
	OK Code = iota
	// EFAULT reports a nil handle or buffer.
	EFAULT
	// EINVAL reports a bad argument or a call in the wrong state.
	EINVAL
	// EFAILED reports a request the container or message substrate rejected.
	EFAILED
	// ESANITY reports a broken contract between the engine and a
	// substrate. These indicate bugs, not usage errors.
	ESANITY
	// ENOMEM reports an allocation failure in auxiliary buffers.
	ENOMEM
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case EFAULT:
		return "EFAULT"
	case EINVAL:
		return "EINVAL"
	case EFAILED:
		return "EFAILED"
	case ESANITY:
		return "ESANITY"
	case ENOMEM:
		return "ENOMEM"
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Error is a structured esio error with operation context.
type Error struct {
	Op    string // operation that failed (e.g. "field_write")
	Name  string // dataset name or path, when applicable
	Code  Code   // outcome code
	Msg   string // human-readable message
	Inner error  // wrapped error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Inner != nil {
		msg = e.Inner.Error()
	}
	if msg == "" {
		msg = e.Code.String()
	}
	ctx := ""
	if e.Op != "" {
		ctx = fmt.Sprintf(" (op=%s", e.Op)
		if e.Name != "" {
			ctx += fmt.Sprintf(" name=%s", e.Name)
		}
		ctx += ")"
	}
	return fmt.Sprintf("esio: %s: %s%s", e.Code, msg, ctx)
}

// Unwrap returns the wrapped error for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is matches another *Error by code, so errors.Is(err, &Error{Code: EINVAL})
// style comparisons work.
func (e *Error) Is(target error) bool {
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// CodeOf extracts the outcome code from an error. Nil maps to OK;
// errors that did not originate here map to EFAILED.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code
	}
	return EFAILED
}

// IsCode checks if an error carries a specific outcome code
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// Handler receives every error a public operation reports before the
// operation returns it. Handlers run on the calling goroutine.
type Handler func(e *Error)

// LogHandler logs the error and returns, leaving recovery to the
// caller's inspection of the returned code. This is the default.
func LogHandler(e *Error) {
	logging.Error(e.Error())
}

// AbortHandler logs the error and terminates the process, the behavior
// of the native library's default hook.
func AbortHandler(e *Error) {
	logging.Error(e.Error())
	os.Exit(1)
}

var handler atomic.Pointer[Handler]

func init() {
	h := Handler(LogHandler)
	handler.Store(&h)
}

// SetHandler installs a process-wide error handler and returns the
// previous one. A nil handler suppresses reporting. Swapping must not
// race with a collective in flight.
func SetHandler(h Handler) Handler {
	var old *Handler
	if h == nil {
		old = handler.Swap(nil)
	} else {
		old = handler.Swap(&h)
	}
	if old == nil {
		return nil
	}
	return *old
}

// silenceHandler suppresses the core handler for the duration of a
// probe; the returned restore runs on every exit path via defer.
func silenceHandler() (restore func()) {
	old := handler.Swap(nil)
	return func() {
		handler.Store(old)
	}
}

// report passes e through the installed handler and returns it.
func report(e *Error) error {
	if h := handler.Load(); h != nil {
		(*h)(e)
	}
	return e
}

func errFault(op, msg string) error {
	return report(&Error{Op: op, Code: EFAULT, Msg: msg})
}

func errInvalid(op, name, msg string) error {
	return report(&Error{Op: op, Name: name, Code: EINVAL, Msg: msg})
}

func errFailed(op, name string, inner error) error {
	return report(&Error{Op: op, Name: name, Code: EFAILED, Inner: inner})
}

func errSanity(op, name, msg string) error {
	return report(&Error{Op: op, Name: name, Code: ESANITY, Msg: msg})
}
