package container

import "fmt"

// Transfer carries the properties of one read or write. The engine must
// request collective mode on every transfer it issues; the driver
// refuses independent transfers so a rank cannot silently drop out of a
// collective point.
type Transfer struct {
	collective bool
	closed     bool
}

// NewTransfer creates a transfer-properties object.
func NewTransfer() *Transfer {
	return &Transfer{}
}

// SetCollective selects collective mode.
func (t *Transfer) SetCollective(on bool) {
	t.collective = on
}

// Collective reports whether collective mode is set.
func (t *Transfer) Collective() bool {
	return t.collective
}

// Close releases the transfer-properties object. Using a closed transfer
// is an error.
func (t *Transfer) Close() error {
	t.closed = true
	return nil
}

func (t *Transfer) check() error {
	if t == nil {
		return fmt.Errorf("container: nil transfer properties")
	}
	if t.closed {
		return fmt.Errorf("container: transfer properties already closed")
	}
	if !t.collective {
		return fmt.Errorf("container: independent transfers not supported")
	}
	return nil
}

// runIO is one contiguous file I/O derived from pairing a memory run
// with a file run.
type runIO struct {
	off int64
	buf []byte
}

// zipRuns walks two equal-count selections in scan order and yields the
// aligned pieces: each call of fn receives a memory scalar offset, a
// file scalar offset, and the scalar count shared by both.
func zipRuns(mem, file *Selection, fn func(memOff, fileOff, n int64) error) error {
	if mem.count != file.count {
		return fmt.Errorf("container: memory selection has %d scalars, file selection %d",
			mem.count, file.count)
	}
	mi, fi := 0, 0
	var mUsed, fUsed int64
	for mi < len(mem.runs) && fi < len(file.runs) {
		mr, fr := mem.runs[mi], file.runs[fi]
		n := mr.Count - mUsed
		if rem := fr.Count - fUsed; rem < n {
			n = rem
		}
		if err := fn(mr.Offset+mUsed, fr.Offset+fUsed, n); err != nil {
			return err
		}
		mUsed += n
		fUsed += n
		if mUsed == mr.Count {
			mi, mUsed = mi+1, 0
		}
		if fUsed == fr.Count {
			fi, fUsed = fi+1, 0
		}
	}
	return nil
}

// writeRuns issues the file writes for one transfer. When the ring
// backend is compiled in, batches of more than one run go through a
// single vectored submission; otherwise each run is a pwrite.
func (f *File) writeRuns(ios []runIO) error {
	if ringEnabled && len(ios) > 1 {
		return submitRuns(int(f.osf.Fd()), ios, true)
	}
	for _, io := range ios {
		if _, err := f.osf.WriteAt(io.buf, io.off); err != nil {
			return fmt.Errorf("container: writing %q at %d: %w", f.path, io.off, err)
		}
	}
	return nil
}

// readRuns issues the file reads for one transfer.
func (f *File) readRuns(ios []runIO) error {
	if ringEnabled && len(ios) > 1 {
		return submitRuns(int(f.osf.Fd()), ios, false)
	}
	for _, io := range ios {
		if _, err := f.osf.ReadAt(io.buf, io.off); err != nil {
			return fmt.Errorf("container: reading %q at %d: %w", f.path, io.off, err)
		}
	}
	return nil
}
