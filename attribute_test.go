package esio

import (
	"path/filepath"
	"testing"
)

func openedHandle(t *testing.T) *Handle {
	t.Helper()
	h := newTestHandle(t)
	if err := h.FileCreate(filepath.Join(t.TempDir(), "attr.esio"), true); err != nil {
		t.Fatal(err)
	}
	return h
}

func TestAttributeScalarRoundTrip(t *testing.T) {
	h := openedHandle(t)

	if err := h.AttributeWrite("dt", []float64{0.125}); err != nil {
		t.Fatalf("AttributeWrite: %v", err)
	}
	got := make([]float64, 1)
	if err := h.AttributeRead("dt", got); err != nil {
		t.Fatalf("AttributeRead: %v", err)
	}
	if got[0] != 0.125 {
		t.Errorf("got %v, want 0.125", got[0])
	}
}

func TestAttributeVectorRoundTrip(t *testing.T) {
	h := openedHandle(t)

	want := []int32{3, 5, 7}
	if err := h.AttributeWritev("steps", want, 3); err != nil {
		t.Fatalf("AttributeWritev: %v", err)
	}

	n, err := h.AttributeSizev("steps")
	if err != nil {
		t.Fatalf("AttributeSizev: %v", err)
	}
	if n != 3 {
		t.Errorf("AttributeSizev = %d, want 3", n)
	}

	got := make([]int32, 3)
	if err := h.AttributeReadv("steps", got, 3); err != nil {
		t.Fatalf("AttributeReadv: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestAttributeConversion(t *testing.T) {
	h := openedHandle(t)

	if err := h.AttributeWrite("count", []int32{42}); err != nil {
		t.Fatal(err)
	}
	got := make([]float64, 1)
	if err := h.AttributeRead("count", got); err != nil {
		t.Fatalf("converted AttributeRead: %v", err)
	}
	if got[0] != 42 {
		t.Errorf("got %v, want 42", got[0])
	}
}

func TestAttributeErrors(t *testing.T) {
	quietHandlers(t)
	h := openedHandle(t)

	if err := h.AttributeRead("absent", make([]float64, 1)); CodeOf(err) != EFAILED {
		t.Errorf("read of absent attribute = %v, want EFAILED", err)
	}
	if err := h.AttributeWritev("short", []float64{1}, 2); CodeOf(err) != EINVAL {
		t.Errorf("buffer shorter than ncomp = %v, want EINVAL", err)
	}

	if err := h.AttributeWritev("pair", []float64{1, 2}, 2); err != nil {
		t.Fatal(err)
	}
	if err := h.AttributeReadv("pair", make([]float64, 3), 3); CodeOf(err) != EINVAL {
		t.Errorf("ncomp mismatch on read = %v, want EINVAL", err)
	}
}

func TestStringRoundTrip(t *testing.T) {
	h := openedHandle(t)

	if err := h.StringSet("creator", "channel-flow solver"); err != nil {
		t.Fatalf("StringSet: %v", err)
	}
	got, err := h.StringGet("creator")
	if err != nil {
		t.Fatalf("StringGet: %v", err)
	}
	if got != "channel-flow solver" {
		t.Errorf("got %q", got)
	}
}

func TestStringMissing(t *testing.T) {
	quietHandlers(t)
	h := openedHandle(t)
	if _, err := h.StringGet("absent"); CodeOf(err) != EFAILED {
		t.Errorf("StringGet of absent = %v, want EFAILED", err)
	}
}

func TestAttributesPersist(t *testing.T) {
	h := newTestHandle(t)
	path := filepath.Join(t.TempDir(), "p.esio")
	if err := h.FileCreate(path, true); err != nil {
		t.Fatal(err)
	}
	if err := h.AttributeWrite("dt", []float64{0.5}); err != nil {
		t.Fatal(err)
	}
	if err := h.StringSet("creator", "x"); err != nil {
		t.Fatal(err)
	}
	if err := h.FileClose(); err != nil {
		t.Fatal(err)
	}

	if err := h.FileOpen(path, false); err != nil {
		t.Fatal(err)
	}
	got := make([]float64, 1)
	if err := h.AttributeRead("dt", got); err != nil || got[0] != 0.5 {
		t.Fatalf("attribute lost across reopen: %v %v", got, err)
	}
	s, err := h.StringGet("creator")
	if err != nil || s != "x" {
		t.Fatalf("string lost across reopen: %q %v", s, err)
	}
}
