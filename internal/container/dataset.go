package container

import (
	"errors"
	"fmt"
)

// Dataset is an open handle to a typed n-dimensional dataset.
type Dataset struct {
	f      *File
	obj    *object
	closed bool
}

const align = 8

// CreateDataset creates a dataset of the given element type over the
// filespace, with arity scalars per element. Creation is collective: a
// request identical to an existing dataset returns a handle to it, so
// every rank of a group issuing the same create succeeds; a request that
// collides with a different shape fails.
func (f *File) CreateDataset(name string, typ ElemType, space *Dataspace, arity int64) (*Dataset, error) {
	if typ.Size() == 0 {
		return nil, report("dataset-create", fmt.Errorf("container: invalid element type"))
	}
	if arity < 1 {
		return nil, report("dataset-create", fmt.Errorf("container: arity %d out of range", arity))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.writable {
		return nil, report("dataset-create", ErrReadOnly)
	}

	if obj := f.dir.object(name); obj != nil {
		if obj.Type != typ || obj.Arity != arity || !dimsEqual(obj.Dims, space.dims) {
			return nil, report("dataset-create", fmt.Errorf("%w: %s", ErrMismatch, name))
		}
		return &Dataset{f: f, obj: obj}, nil
	}

	nbytes := space.Extent() * arity * typ.Size()
	// Allocate past both live data and the last committed directory so a
	// crash before the next sync still finds a valid directory on disk.
	start := f.dataEnd
	if f.dirEnd > start {
		start = f.dirEnd
	}
	offset := (start + align - 1) &^ (align - 1)
	obj := &object{
		Name:   name,
		Type:   typ,
		Dims:   space.Dims(),
		Arity:  arity,
		Offset: offset,
		Bytes:  nbytes,
	}

	// Extend the file over the whole payload so unwritten regions read
	// back as zeros instead of short reads.
	if err := f.osf.Truncate(offset + nbytes); err != nil {
		return nil, report("dataset-create", fmt.Errorf("container: allocating %s in %q: %w", name, f.path, err))
	}
	f.dir.Objects = append(f.dir.Objects, obj)
	f.dataEnd = offset + nbytes
	f.dirty = true
	return &Dataset{f: f, obj: obj}, nil
}

// OpenDataset opens an existing dataset by name.
func (f *File) OpenDataset(name string) (*Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj := f.dir.object(name)
	if obj == nil {
		return nil, report("dataset-open", fmt.Errorf("%w: dataset %s", ErrNotFound, name))
	}
	return &Dataset{f: f, obj: obj}, nil
}

// HasDataset reports whether a dataset exists without opening it.
func (f *File) HasDataset(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dir.object(name) != nil
}

// Type returns the stored element type.
func (d *Dataset) Type() ElemType {
	return d.obj.Type
}

// Dims returns the filespace extents.
func (d *Dataset) Dims() []int64 {
	dims := make([]int64, len(d.obj.Dims))
	copy(dims, d.obj.Dims)
	return dims
}

// Arity returns the scalars stored per element.
func (d *Dataset) Arity() int64 {
	return d.obj.Arity
}

// Space returns a dataspace matching the dataset's filespace.
func (d *Dataset) Space() *Dataspace {
	return NewDataspace(d.obj.Dims...)
}

// Name returns the dataset name.
func (d *Dataset) Name() string {
	return d.obj.Name
}

// Close releases the dataset handle. The handle must not be used after.
func (d *Dataset) Close() error {
	d.closed = true
	return nil
}

func (d *Dataset) check(xfer *Transfer, mem, file *Selection) error {
	if d == nil || d.closed {
		return fmt.Errorf("container: dataset handle closed")
	}
	if err := xfer.check(); err != nil {
		return err
	}
	if file.space.Extent()*d.obj.Arity < file.count {
		return fmt.Errorf("container: file selection exceeds dataset extent")
	}
	return mem.checkBounds()
}

func (sel *Selection) checkBounds() error {
	for _, r := range sel.runs {
		if r.Offset < 0 {
			return fmt.Errorf("container: negative selection offset")
		}
	}
	return nil
}

// Write transfers the selected scalars of buf into the selected region
// of the dataset, converting from the buffer's element type to the
// stored type. An empty selection participates with no I/O.
func (d *Dataset) Write(xfer *Transfer, mem *Selection, buf any, file *Selection) error {
	if err := d.check(xfer, mem, file); err != nil {
		return report("dataset-write", err)
	}
	srcType, srcLen, ok := TypeOf(buf)
	if !ok {
		return report("dataset-write", fmt.Errorf("container: unsupported buffer type %T", buf))
	}
	if !CanConvert(srcType, d.obj.Type) {
		return report("dataset-write", fmt.Errorf("container: no conversion from %s to %s", srcType, d.obj.Type))
	}

	esz := d.obj.Type.Size()
	var ios []runIO
	err := zipRuns(mem, file, func(memOff, fileOff, n int64) error {
		if memOff+n > srcLen {
			return fmt.Errorf("container: memory selection exceeds buffer length %d", srcLen)
		}
		chunk := make([]byte, n*esz)
		for i := int64(0); i < n; i++ {
			putScalar(chunk[i*esz:], d.obj.Type, loadScalar(buf, memOff+i))
		}
		ios = append(ios, runIO{off: d.obj.Offset + fileOff*esz, buf: chunk})
		return nil
	})
	if err != nil {
		return report("dataset-write", err)
	}
	if err := d.f.writeRuns(ios); err != nil {
		return report("dataset-write", err)
	}
	d.f.mu.Lock()
	d.f.dirty = true
	d.f.mu.Unlock()
	return nil
}

// Read transfers the selected region of the dataset into the selected
// scalars of buf, converting from the stored type to the buffer's
// element type.
func (d *Dataset) Read(xfer *Transfer, mem *Selection, buf any, file *Selection) error {
	if err := d.check(xfer, mem, file); err != nil {
		return report("dataset-read", err)
	}
	dstType, dstLen, ok := TypeOf(buf)
	if !ok {
		return report("dataset-read", fmt.Errorf("container: unsupported buffer type %T", buf))
	}
	if !CanConvert(d.obj.Type, dstType) {
		return report("dataset-read", fmt.Errorf("container: no conversion from %s to %s", d.obj.Type, dstType))
	}

	esz := d.obj.Type.Size()
	type piece struct {
		memOff int64
		buf    []byte
	}
	var ios []runIO
	var pieces []piece
	err := zipRuns(mem, file, func(memOff, fileOff, n int64) error {
		if memOff+n > dstLen {
			return fmt.Errorf("container: memory selection exceeds buffer length %d", dstLen)
		}
		chunk := make([]byte, n*esz)
		ios = append(ios, runIO{off: d.obj.Offset + fileOff*esz, buf: chunk})
		pieces = append(pieces, piece{memOff: memOff, buf: chunk})
		return nil
	})
	if err != nil {
		return report("dataset-read", err)
	}
	if err := d.f.readRuns(ios); err != nil {
		return report("dataset-read", err)
	}
	for _, p := range pieces {
		n := int64(len(p.buf)) / esz
		for i := int64(0); i < n; i++ {
			storeScalar(buf, p.memOff+i, getScalar(p.buf[i*esz:], d.obj.Type))
		}
	}
	return nil
}

func dimsEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// IsNotFound reports whether err is the driver's not-found condition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
