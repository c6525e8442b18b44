package esio

import (
	"github.com/Tiancheng-Luo/go-esio/internal/container"
)

// block is a local sub-block along one direction with its memory stride
// already resolved (never zero).
type block struct {
	global int64
	start  int64
	local  int64
	stride int64
}

// layoutOps is one entry of the layout registry. Each layout supplies
// the filespace it arranges fields into, plus the writer and reader
// realizing a transfer against that arrangement. The registry is fixed
// at program start; a field's stored tag, not the handle's active tag,
// selects the ops used to read it.
type layoutOps struct {
	tag           int
	makeFilespace func(c, b, a int64) *container.Dataspace
	write         func(d *container.Dataset, buf any, cb, bb, ab block, ncomp int64) error
	read          func(d *container.Dataset, buf any, cb, bb, ab block, ncomp int64) error
}

var layouts = []layoutOps{
	{
		tag:           0,
		makeFilespace: contiguousFilespace,
		write:         layout0Write,
		read:          layout0Read,
	},
	{
		tag:           1,
		makeFilespace: contiguousFilespace,
		write:         layout1Write,
		read:          layout1Read,
	},
}

// LayoutCount returns the number of registered layouts.
func LayoutCount() int {
	return len(layouts)
}

// LayoutGet returns the handle's active write layout tag. New fields are
// created with this layout; reading always honors the tag stored with
// the field.
func (h *Handle) LayoutGet() int {
	if h == nil {
		return 0
	}
	return h.layout
}

// LayoutSet selects the layout used when creating new fields.
func (h *Handle) LayoutSet(tag int) error {
	if h == nil {
		return errFault("layout_set", "nil handle")
	}
	if tag < 0 || tag >= len(layouts) {
		return errInvalid("layout_set", "", "layout tag out of range")
	}
	h.layout = tag
	return nil
}

// contiguousFilespace places a field as one contiguous 3-D extent in
// natural (C, B, A) order.
func contiguousFilespace(c, b, a int64) *container.Dataspace {
	return container.NewDataspace(c, b, a)
}

// memorySelection describes the caller's strided buffer as a hyperslab
// union over a 1-D memory space: for every (k, j) of the slower
// directions it ORs in the run of the fastest direction.
func memorySelection(cb, bb, ab block, ncomp int64) (*container.Selection, error) {
	mem := container.NewDataspace(memoryExtent(cb, bb, ab, ncomp)).Select()
	for k := int64(0); k < cb.local; k++ {
		for j := int64(0); j < bb.local; j++ {
			base := k*cb.stride + j*bb.stride
			if err := mem.OrStrided(base, ab.stride, ab.local, ncomp); err != nil {
				return nil, err
			}
		}
	}
	return mem, nil
}

// memoryExtent is the length in scalars of the 1-D region describing
// the local buffer. The straight clocal*cstride bound is widened when a
// caller's strides make the final run poke past it.
func memoryExtent(cb, bb, ab block, ncomp int64) int64 {
	n := cb.local * cb.stride
	if last := (cb.local-1)*cb.stride + (bb.local-1)*bb.stride + (ab.local-1)*ab.stride + ncomp; last > n {
		n = last
	}
	return n
}

// layout0Write is the baseline transfer kernel: the whole local
// sub-block moves in a single collective transfer between the strided
// memory selection and one contiguous file hyperslab.
func layout0Write(d *container.Dataset, buf any, cb, bb, ab block, ncomp int64) error {
	return layout0Transfer(d, buf, cb, bb, ab, ncomp, false)
}

func layout0Read(d *container.Dataset, buf any, cb, bb, ab block, ncomp int64) error {
	return layout0Transfer(d, buf, cb, bb, ab, ncomp, true)
}

func layout0Transfer(d *container.Dataset, buf any, cb, bb, ab block, ncomp int64, read bool) error {
	xfer := container.NewTransfer()
	xfer.SetCollective(true)
	defer xfer.Close()

	mem, err := memorySelection(cb, bb, ab, ncomp)
	if err != nil {
		return err
	}
	file := d.Space().Select()
	if err := file.Hyperslab(
		[]int64{cb.start, bb.start, ab.start},
		[]int64{cb.local, bb.local, ab.local},
		ncomp,
	); err != nil {
		return err
	}
	if read {
		return d.Read(xfer, mem, buf, file)
	}
	return d.Write(xfer, mem, buf, file)
}

// layout1Write groups the transfer per C-plane: one collective transfer
// for each local plane of the slowest direction. Bytes on disk are
// identical to layout 0; only the transfer pattern differs.
func layout1Write(d *container.Dataset, buf any, cb, bb, ab block, ncomp int64) error {
	return layout1Transfer(d, buf, cb, bb, ab, ncomp, false)
}

func layout1Read(d *container.Dataset, buf any, cb, bb, ab block, ncomp int64) error {
	return layout1Transfer(d, buf, cb, bb, ab, ncomp, true)
}

func layout1Transfer(d *container.Dataset, buf any, cb, bb, ab block, ncomp int64, read bool) error {
	xfer := container.NewTransfer()
	xfer.SetCollective(true)
	defer xfer.Close()

	for k := int64(0); k < cb.local; k++ {
		mem := container.NewDataspace(memoryExtent(cb, bb, ab, ncomp)).Select()
		for j := int64(0); j < bb.local; j++ {
			if err := mem.OrStrided(k*cb.stride+j*bb.stride, ab.stride, ab.local, ncomp); err != nil {
				return err
			}
		}
		file := d.Space().Select()
		if err := file.Hyperslab(
			[]int64{cb.start + k, bb.start, ab.start},
			[]int64{1, bb.local, ab.local},
			ncomp,
		); err != nil {
			return err
		}
		var err error
		if read {
			err = d.Read(xfer, mem, buf, file)
		} else {
			err = d.Write(xfer, mem, buf, file)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
