package esio

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	if CodeOf(nil) != OK {
		t.Errorf("CodeOf(nil) = %v, want OK", CodeOf(nil))
	}

	err := &Error{Op: "field_write", Code: EINVAL, Msg: "bad extent"}
	if CodeOf(err) != EINVAL {
		t.Errorf("CodeOf = %v, want EINVAL", CodeOf(err))
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if CodeOf(wrapped) != EINVAL {
		t.Errorf("CodeOf(wrapped) = %v, want EINVAL", CodeOf(wrapped))
	}

	if CodeOf(errors.New("foreign")) != EFAILED {
		t.Errorf("foreign errors should map to EFAILED")
	}
}

func TestErrorIs(t *testing.T) {
	err := &Error{Op: "file_open", Code: EFAILED, Msg: "no such file"}

	if !errors.Is(err, &Error{Code: EFAILED}) {
		t.Error("errors.Is should match by code")
	}
	if errors.Is(err, &Error{Code: EINVAL}) {
		t.Error("errors.Is should not match a different code")
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Op: "field_write", Name: "u", Code: EINVAL, Msg: "bad extent"}
	want := "esio: EINVAL: bad extent (op=field_write name=u)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := &Error{Op: "file_flush", Code: EFAILED, Inner: inner}
	if !errors.Is(err, inner) {
		t.Error("Unwrap should expose the inner error")
	}
}

func TestHandlerSwap(t *testing.T) {
	var seen []*Error
	old := SetHandler(func(e *Error) {
		seen = append(seen, e)
	})
	defer SetHandler(old)

	report(&Error{Op: "test", Code: EINVAL})
	if len(seen) != 1 || seen[0].Code != EINVAL {
		t.Fatalf("handler saw %v, want one EINVAL", seen)
	}

	// A nil handler suppresses reporting entirely.
	SetHandler(nil)
	report(&Error{Op: "test", Code: EFAILED})
	if len(seen) != 1 {
		t.Errorf("nil handler should suppress reporting")
	}
}

func TestSilenceHandlerRestores(t *testing.T) {
	var count int
	old := SetHandler(func(e *Error) { count++ })
	defer SetHandler(old)

	restore := silenceHandler()
	report(&Error{Op: "probe", Code: EFAILED})
	restore()

	report(&Error{Op: "after", Code: EFAILED})
	if count != 1 {
		t.Errorf("count = %d, want 1: silenced report leaked or restore failed", count)
	}
}

func TestCodeString(t *testing.T) {
	cases := map[Code]string{
		OK:      "OK",
		EFAULT:  "EFAULT",
		EINVAL:  "EINVAL",
		EFAILED: "EFAILED",
		ESANITY: "ESANITY",
		ENOMEM:  "ENOMEM",
	}
	for code, want := range cases {
		if code.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(code), code.String(), want)
		}
	}
}
