// Package container implements the hierarchical dataset container the
// esio engine delegates its on-disk format to: a single shared file
// holding typed n-dimensional datasets, their attributes, and a
// self-describing directory.
//
// Open containers are tracked in a process-wide registry keyed by
// canonical path. Every rank of an in-process group that opens the same
// path acquires the same *File; the first arrival performs the
// filesystem operation and later arrivals attach under the registry
// lock. That is what makes create/open collective for a local group.
package container

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/Tiancheng-Luo/go-esio/internal/logging"
)

// Sentinel errors surfaced to the engine.
var (
	ErrExists    = errors.New("container: file exists")
	ErrNotFound  = errors.New("container: object not found")
	ErrReadOnly  = errors.New("container: file opened read-only")
	ErrMismatch  = errors.New("container: object exists with different shape")
	ErrShortRead = errors.New("container: attribute longer than buffer")
)

// Mode selects how Acquire opens a container.
type Mode struct {
	Create    bool              // create a fresh container
	Exclusive bool              // with Create: fail if the path exists
	ReadWrite bool              // with open: allow modification
	Hints     map[string]string // collective-access hints, installed before the open
}

// File is an open container. It is shared between all ranks that
// acquired the same path; methods are safe for concurrent use.
type File struct {
	path     string
	osf      *os.File
	fileID   uuid.UUID
	writable bool
	hints    map[string]string

	mu      sync.Mutex
	refs    int
	dataEnd int64
	dirEnd  int64 // end of the last committed directory; new payloads go past it
	dir     *directory
	dirty   bool
}

var (
	regMu    sync.Mutex
	registry = map[string]*File{}
)

// Acquire opens or creates the container at path. Concurrent acquires of
// the same path share one *File; each successful Acquire must be paired
// with a Release.
func Acquire(path string, mode Mode) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, report("acquire", fmt.Errorf("container: resolving %q: %w", path, err))
	}

	regMu.Lock()
	defer regMu.Unlock()

	// A registry hit means a peer rank already performed the filesystem
	// operation for this collective; later arrivals attach. Exclusive
	// create still fails on files that predate the collective because
	// the first arrival's O_EXCL open sees them on disk.
	if f := registry[abs]; f != nil {
		if (mode.Create || mode.ReadWrite) && !f.writable {
			return nil, report("acquire", fmt.Errorf("%w: %s", ErrReadOnly, path))
		}
		f.mu.Lock()
		f.refs++
		f.mu.Unlock()
		return f, nil
	}

	f, err := openOnDisk(abs, mode)
	if err != nil {
		return nil, report("acquire", err)
	}
	registry[abs] = f
	return f, nil
}

func openOnDisk(abs string, mode Mode) (*File, error) {
	var osf *os.File
	var err error

	switch {
	case mode.Create && mode.Exclusive:
		osf, err = os.OpenFile(abs, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				return nil, fmt.Errorf("%w: %s", ErrExists, abs)
			}
			return nil, fmt.Errorf("container: creating %q: %w", abs, err)
		}
	case mode.Create:
		osf, err = os.OpenFile(abs, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, fmt.Errorf("container: creating %q: %w", abs, err)
		}
	case mode.ReadWrite:
		osf, err = os.OpenFile(abs, os.O_RDWR, 0)
		if err != nil {
			return nil, fmt.Errorf("container: opening %q: %w", abs, err)
		}
	default:
		osf, err = os.Open(abs)
		if err != nil {
			return nil, fmt.Errorf("container: opening %q: %w", abs, err)
		}
	}

	lock := unix.LOCK_SH
	if mode.Create || mode.ReadWrite {
		lock = unix.LOCK_EX
	}
	if err := unix.Flock(int(osf.Fd()), lock|unix.LOCK_NB); err != nil {
		osf.Close()
		return nil, fmt.Errorf("container: locking %q: %w", abs, err)
	}

	f := &File{
		path:     abs,
		osf:      osf,
		writable: mode.Create || mode.ReadWrite,
		hints:    mode.Hints,
		refs:     1,
	}

	if mode.Create {
		f.fileID = uuid.New()
		f.dataEnd = superblockSize
		f.dir = &directory{}
		f.dirty = true
		if err := f.syncLocked(); err != nil {
			osf.Close()
			return nil, err
		}
		logging.Debug("container created", "path", abs, "id", f.fileID)
		return f, nil
	}

	if err := f.load(); err != nil {
		osf.Close()
		return nil, err
	}
	logging.Debug("container opened", "path", abs, "id", f.fileID)
	return f, nil
}

func (f *File) load() error {
	head := make([]byte, superblockSize)
	if _, err := f.osf.ReadAt(head, 0); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrBadSuperblock
		}
		return fmt.Errorf("container: reading superblock of %q: %w", f.path, err)
	}
	var sb superblock
	if err := unmarshalSuperblock(head, &sb); err != nil {
		return err
	}

	raw := make([]byte, sb.DirBytes)
	if _, err := f.osf.ReadAt(raw, sb.DirOffset); err != nil {
		return fmt.Errorf("container: reading directory of %q: %w", f.path, err)
	}
	dir, err := decodeDirectory(raw)
	if err != nil {
		return err
	}

	copy(f.fileID[:], sb.FileID[:])
	f.dataEnd = sb.DataEnd
	f.dirEnd = sb.DirOffset + sb.DirBytes
	f.dir = dir
	return nil
}

// syncLocked writes the directory and superblock. Data blocks are synced
// first so a crash between the two fsyncs leaves the previous directory
// intact. Caller holds f.mu (or has exclusive access during open).
func (f *File) syncLocked() error {
	if !f.writable || !f.dirty {
		return nil
	}
	raw, err := encodeDirectory(f.dir)
	if err != nil {
		return err
	}
	if _, err := f.osf.WriteAt(raw, f.dataEnd); err != nil {
		return fmt.Errorf("container: writing directory of %q: %w", f.path, err)
	}
	if err := unix.Fdatasync(int(f.osf.Fd())); err != nil {
		return fmt.Errorf("container: syncing %q: %w", f.path, err)
	}

	sb := superblock{
		Version:   formatVersion,
		DirOffset: f.dataEnd,
		DirBytes:  int64(len(raw)),
		DataEnd:   f.dataEnd,
	}
	copy(sb.FileID[:], f.fileID[:])
	if _, err := f.osf.WriteAt(marshalSuperblock(&sb), 0); err != nil {
		return fmt.Errorf("container: writing superblock of %q: %w", f.path, err)
	}
	if err := unix.Fdatasync(int(f.osf.Fd())); err != nil {
		return fmt.Errorf("container: syncing %q: %w", f.path, err)
	}
	f.dirEnd = f.dataEnd + int64(len(raw))
	f.dirty = false
	return nil
}

// Flush commits the directory and all data to disk without closing.
func (f *File) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.syncLocked(); err != nil {
		return report("flush", err)
	}
	return nil
}

// Release drops one reference. The last release syncs and closes the
// underlying file and removes it from the registry.
func (f *File) Release() error {
	regMu.Lock()
	f.mu.Lock()
	f.refs--
	last := f.refs == 0
	if last {
		delete(registry, f.path)
	}
	f.mu.Unlock()
	regMu.Unlock()

	if !last {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	err := f.syncLocked()
	if cerr := f.osf.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return report("close", err)
	}
	logging.Debug("container closed", "path", f.path)
	return nil
}

// Path returns the canonical path of the container.
func (f *File) Path() string {
	return f.path
}

// FileID returns the container's identity, assigned at creation.
func (f *File) FileID() uuid.UUID {
	return f.fileID
}

// Hint returns the value of an access hint installed at acquire time.
func (f *File) Hint(key string) string {
	return f.hints[key]
}

// WriteIntAttr attaches an integer-vector attribute to owner, replacing
// any previous value. Owner "/" is the container root.
func (f *File) WriteIntAttr(owner, name string, vals []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.writable {
		return report("attr-write", ErrReadOnly)
	}
	v := make([]int64, len(vals))
	copy(v, vals)
	f.dir.setAttr(&attribute{Owner: owner, Name: name, Kind: attrInts, Ints: v})
	f.dirty = true
	return nil
}

// ReadIntAttrInto copies an integer-vector attribute into buf and
// returns the stored length. Fewer than the stored length are copied
// when buf is shorter; more slots than stored are left untouched.
func (f *File) ReadIntAttrInto(owner, name string, buf []int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.dir.attr(owner, name)
	if a == nil || a.Kind != attrInts {
		return 0, report("attr-read", fmt.Errorf("%w: attribute %s on %s", ErrNotFound, name, owner))
	}
	copy(buf, a.Ints)
	return len(a.Ints), nil
}

// WriteNumAttr attaches a numeric attribute of the given element type.
func (f *File) WriteNumAttr(owner, name string, typ ElemType, vals []float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.writable {
		return report("attr-write", ErrReadOnly)
	}
	v := make([]float64, len(vals))
	copy(v, vals)
	f.dir.setAttr(&attribute{Owner: owner, Name: name, Kind: attrNumeric, Type: typ, Vals: v})
	f.dirty = true
	return nil
}

// ReadNumAttr returns a numeric attribute's stored type and values.
func (f *File) ReadNumAttr(owner, name string) (ElemType, []float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.dir.attr(owner, name)
	if a == nil || a.Kind != attrNumeric {
		return TypeInvalid, nil, report("attr-read", fmt.Errorf("%w: attribute %s on %s", ErrNotFound, name, owner))
	}
	v := make([]float64, len(a.Vals))
	copy(v, a.Vals)
	return a.Type, v, nil
}

// WriteStrAttr attaches a string attribute.
func (f *File) WriteStrAttr(owner, name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.writable {
		return report("attr-write", ErrReadOnly)
	}
	f.dir.setAttr(&attribute{Owner: owner, Name: name, Kind: attrString, Str: value})
	f.dirty = true
	return nil
}

// ReadStrAttr returns a string attribute.
func (f *File) ReadStrAttr(owner, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.dir.attr(owner, name)
	if a == nil || a.Kind != attrString {
		return "", report("attr-read", fmt.Errorf("%w: attribute %s on %s", ErrNotFound, name, owner))
	}
	return a.Str, nil
}
