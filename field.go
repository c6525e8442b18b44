package esio

import (
	"time"

	"github.com/Tiancheng-Luo/go-esio/internal/container"
)

// Dim describes one direction of a local sub-block: the field's global
// extent along the direction, the zero-based offset of this rank's
// first element, the count of elements this rank contributes, and the
// spacing in scalars between adjacent positions within the caller's
// buffer. A zero stride means contiguous: the tight product of the
// faster directions' locals and the component count.
//
// Across the ranks of one collective call the [Start, Start+Local)
// ranges must tile [0, Global) exactly; the engine assumes this but
// does not verify it.
type Dim struct {
	Global int
	Start  int
	Local  int
	Stride int
}

// FieldWrite collectively writes this rank's sub-block of a scalar 3-D
// field. buf must be a []float64, []float32 or []int32. The first write
// of a name creates the dataset with the handle's active layout and
// freezes its metadata; later writes must match the stored shape.
func (h *Handle) FieldWrite(name string, buf any, c, b, a Dim) error {
	return h.fieldTransfer("field_write", name, buf, 1, c, b, a, false)
}

// FieldWritev is FieldWrite for vector-valued fields: ncomp scalars per
// point, strides in multiples of ncomp.
func (h *Handle) FieldWritev(name string, buf any, ncomp int, c, b, a Dim) error {
	return h.fieldTransfer("field_writev", name, buf, ncomp, c, b, a, false)
}

// FieldRead collectively reads this rank's sub-block of a scalar 3-D
// field. The field must exist and the caller's global extents must
// equal the stored ones. The layout dispatched is the one stored with
// the field, regardless of the handle's active write layout.
func (h *Handle) FieldRead(name string, buf any, c, b, a Dim) error {
	return h.fieldTransfer("field_read", name, buf, 1, c, b, a, true)
}

// FieldReadv is FieldRead for vector-valued fields.
func (h *Handle) FieldReadv(name string, buf any, ncomp int, c, b, a Dim) error {
	return h.fieldTransfer("field_readv", name, buf, ncomp, c, b, a, true)
}

// FieldSize returns the global extents of a stored scalar field.
func (h *Handle) FieldSize(name string) (c, b, a int, err error) {
	c, b, a, _, err = h.FieldSizev(name)
	return c, b, a, err
}

// FieldSizev returns the global extents and component count of a stored
// field.
func (h *Handle) FieldSizev(name string) (c, b, a, ncomp int, err error) {
	const op = "field_sizev"
	if h == nil {
		return 0, 0, 0, 0, errFault(op, "nil handle")
	}
	if err := h.checkOpen(op, name); err != nil {
		return 0, 0, 0, 0, err
	}
	meta, err := h.probe(op, name)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if meta == nil {
		return 0, 0, 0, 0, errFailed(op, name, container.ErrNotFound)
	}
	return int(meta.c), int(meta.b), int(meta.a), int(meta.ncomp), nil
}

func (h *Handle) checkOpen(op, name string) error {
	if err := h.checkLive(op); err != nil {
		return err
	}
	if h.file == nil {
		return errInvalid(op, name, "no file open")
	}
	return nil
}

// probe reads a field's metadata tuple, reporting only sanity and
// environment failures; absence is (nil, nil).
func (h *Handle) probe(op, name string) (*fieldMeta, error) {
	meta, err := readMetadata(h.file, name)
	if err != nil {
		if ee, ok := err.(*Error); ok {
			ee.Op = op
			return nil, report(ee)
		}
		return nil, errFailed(op, name, err)
	}
	return meta, nil
}

// resolveBlocks validates the per-direction quadruples and resolves
// zero strides to the tight contiguous defaults.
func resolveBlocks(op, name string, ncomp int, c, b, a Dim) (cb, bb, ab block, err error) {
	for _, d := range []struct {
		dim  Dim
		tag  string
	}{{c, "c"}, {b, "b"}, {a, "a"}} {
		switch {
		case d.dim.Global < 0:
			return cb, bb, ab, errInvalid(op, name, d.tag+" global extent negative")
		case d.dim.Start < 0:
			return cb, bb, ab, errInvalid(op, name, d.tag+" start negative")
		case d.dim.Local < 1:
			return cb, bb, ab, errInvalid(op, name, d.tag+" local count below one")
		case d.dim.Stride < 0:
			return cb, bb, ab, errInvalid(op, name, d.tag+" stride negative")
		case d.dim.Stride%ncomp != 0:
			return cb, bb, ab, errInvalid(op, name, d.tag+" stride not a multiple of ncomp")
		case d.dim.Start+d.dim.Local > d.dim.Global:
			return cb, bb, ab, errInvalid(op, name, d.tag+" sub-block exceeds global extent")
		}
	}

	ab = block{global: int64(a.Global), start: int64(a.Start), local: int64(a.Local), stride: int64(a.Stride)}
	if ab.stride == 0 {
		ab.stride = int64(ncomp)
	}
	bb = block{global: int64(b.Global), start: int64(b.Start), local: int64(b.Local), stride: int64(b.Stride)}
	if bb.stride == 0 {
		bb.stride = ab.local * ab.stride
	}
	cb = block{global: int64(c.Global), start: int64(c.Start), local: int64(c.Local), stride: int64(c.Stride)}
	if cb.stride == 0 {
		cb.stride = bb.local * bb.stride
	}
	return cb, bb, ab, nil
}

// fieldTransfer is the transfer engine shared by every field, plane and
// line variant: validate, probe the on-disk metadata, create or open the
// dataset, and dispatch through the layout registry.
func (h *Handle) fieldTransfer(op, name string, buf any, ncomp int, c, b, a Dim, read bool) error {
	if h == nil {
		return errFault(op, "nil handle")
	}
	if buf == nil {
		return errFault(op, "nil buffer")
	}
	if err := h.checkOpen(op, name); err != nil {
		return err
	}
	if name == "" {
		return errInvalid(op, name, "empty dataset name")
	}
	if ncomp < 1 {
		return errInvalid(op, name, "component count below one")
	}

	typ, buflen, ok := container.TypeOf(buf)
	if !ok {
		return errInvalid(op, name, "unsupported buffer type")
	}
	cb, bb, ab, err := resolveBlocks(op, name, ncomp, c, b, a)
	if err != nil {
		return err
	}
	if need := (cb.local-1)*cb.stride + (bb.local-1)*bb.stride + (ab.local-1)*ab.stride + int64(ncomp); buflen < need {
		return errInvalid(op, name, "buffer shorter than the local sub-block")
	}

	meta, err := h.probe(op, name)
	if err != nil {
		return err
	}

	start := time.Now()
	var moved int64
	if read {
		err = h.dispatchRead(op, name, meta, buf, typ, ncomp, cb, bb, ab)
	} else {
		err = h.dispatchWrite(op, name, meta, buf, typ, ncomp, cb, bb, ab)
	}
	h.comm.Barrier()
	if err == nil {
		moved = cb.local * bb.local * ab.local * int64(ncomp) * typ.Size()
	}
	h.metrics.record(read, moved, time.Since(start), err == nil)
	return err
}

func (h *Handle) dispatchWrite(op, name string, meta *fieldMeta, buf any, typ container.ElemType, ncomp int, cb, bb, ab block) error {
	if meta == nil {
		// New field: the handle's active layout governs creation, and the
		// metadata tuple is emitted alongside the dataset.
		lo := layouts[h.layout]
		space := lo.makeFilespace(cb.global, bb.global, ab.global)
		ds, err := h.file.CreateDataset(name, typ, space, int64(ncomp))
		if err != nil {
			return errFailed(op, name, err)
		}
		if err := writeMetadata(h.file, name, lo.tag, cb.global, bb.global, ab.global, int64(ncomp)); err != nil {
			ds.Close()
			return errFailed(op, name, err)
		}
		if err := lo.write(ds, buf, cb, bb, ab, int64(ncomp)); err != nil {
			ds.Close()
			return errFailed(op, name, err)
		}
		return ds.Close()
	}

	// Existing field: the stored tuple is authoritative.
	if meta.c != cb.global || meta.b != bb.global || meta.a != ab.global {
		return errInvalid(op, name, "global extents do not match the stored field")
	}
	if meta.ncomp != int64(ncomp) {
		return errInvalid(op, name, "component count does not match the stored field")
	}
	if meta.layout < 0 || meta.layout >= len(layouts) {
		return errSanity(op, name, "stored layout tag not in the registry")
	}
	ds, err := h.file.OpenDataset(name)
	if err != nil {
		return errFailed(op, name, err)
	}
	if !container.CanConvert(typ, ds.Type()) {
		ds.Close()
		return errInvalid(op, name, "no conversion to the stored element type")
	}
	if err := layouts[meta.layout].write(ds, buf, cb, bb, ab, int64(ncomp)); err != nil {
		ds.Close()
		return errFailed(op, name, err)
	}
	return ds.Close()
}

func (h *Handle) dispatchRead(op, name string, meta *fieldMeta, buf any, typ container.ElemType, ncomp int, cb, bb, ab block) error {
	if meta == nil {
		return errFailed(op, name, container.ErrNotFound)
	}
	if meta.c != cb.global || meta.b != bb.global || meta.a != ab.global {
		return errInvalid(op, name, "global extents do not match the stored field")
	}
	if meta.ncomp != int64(ncomp) {
		return errInvalid(op, name, "component count does not match the stored field")
	}
	if meta.layout < 0 || meta.layout >= len(layouts) {
		return errSanity(op, name, "stored layout tag not in the registry")
	}
	ds, err := h.file.OpenDataset(name)
	if err != nil {
		return errFailed(op, name, err)
	}
	if !container.CanConvert(ds.Type(), typ) {
		ds.Close()
		return errInvalid(op, name, "no conversion from the stored element type")
	}
	if err := layouts[meta.layout].read(ds, buf, cb, bb, ab, int64(ncomp)); err != nil {
		ds.Close()
		return errFailed(op, name, err)
	}
	return ds.Close()
}
