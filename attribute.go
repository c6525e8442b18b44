package esio

import (
	"github.com/Tiancheng-Luo/go-esio/internal/container"
)

// Attributes are 0-D values attached to the container root: typed
// scalars or short vectors for numeric data, plus free-form strings.
// Attribute calls are collective because they touch the shared
// container's self-description.

// attrRoot is the owner under which root attributes are filed.
const attrRoot = "/"

// AttributeWritev writes the first ncomp scalars of buf as a vector
// attribute. buf must be a []float64, []float32 or []int32.
func (h *Handle) AttributeWritev(name string, buf any, ncomp int) error {
	const op = "attribute_writev"
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
		return errInvalid(op, name, "empty attribute name")
	}
	if ncomp < 1 {
		return errInvalid(op, name, "component count below one")
	}
	typ, buflen, ok := container.TypeOf(buf)
	if !ok {
		return errInvalid(op, name, "unsupported buffer type")
	}
	if buflen < int64(ncomp) {
		return errInvalid(op, name, "buffer shorter than the component count")
	}

	vals := make([]float64, ncomp)
	for i := range vals {
		vals[i] = scalarOf(buf, i)
	}
	err := h.file.WriteNumAttr(attrRoot, name, typ, vals)
	h.comm.Barrier()
	if err != nil {
		return errFailed(op, name, err)
	}
	return nil
}

// AttributeWrite writes a single-component attribute.
func (h *Handle) AttributeWrite(name string, buf any) error {
	return h.AttributeWritev(name, buf, 1)
}

// AttributeReadv reads a vector attribute of exactly ncomp components
// into buf, converting to the buffer's element type.
func (h *Handle) AttributeReadv(name string, buf any, ncomp int) error {
	const op = "attribute_readv"
	if h == nil {
		return errFault(op, "nil handle")
	}
	if buf == nil {
		return errFault(op, "nil buffer")
	}
	if err := h.checkOpen(op, name); err != nil {
		return err
	}
	if ncomp < 1 {
		return errInvalid(op, name, "component count below one")
	}
	typ, buflen, ok := container.TypeOf(buf)
	if !ok {
		return errInvalid(op, name, "unsupported buffer type")
	}
	if buflen < int64(ncomp) {
		return errInvalid(op, name, "buffer shorter than the component count")
	}

	stored, vals, err := h.file.ReadNumAttr(attrRoot, name)
	h.comm.Barrier()
	if err != nil {
		return errFailed(op, name, err)
	}
	if len(vals) != ncomp {
		return errInvalid(op, name, "component count does not match the stored attribute")
	}
	if !container.CanConvert(stored, typ) {
		return errInvalid(op, name, "no conversion from the stored element type")
	}
	for i, v := range vals {
		setScalar(buf, i, v)
	}
	return nil
}

// AttributeRead reads a single-component attribute.
func (h *Handle) AttributeRead(name string, buf any) error {
	return h.AttributeReadv(name, buf, 1)
}

// AttributeSizev returns the component count of a stored attribute.
func (h *Handle) AttributeSizev(name string) (int, error) {
	const op = "attribute_sizev"
	if h == nil {
		return 0, errFault(op, "nil handle")
	}
	if err := h.checkOpen(op, name); err != nil {
		return 0, err
	}
	_, vals, err := h.file.ReadNumAttr(attrRoot, name)
	if err != nil {
		return 0, errFailed(op, name, err)
	}
	return len(vals), nil
}

// StringSet attaches a string attribute to the container root.
func (h *Handle) StringSet(name, value string) error {
	const op = "string_set"
	if h == nil {
		return errFault(op, "nil handle")
	}
	if err := h.checkOpen(op, name); err != nil {
		return err
	}
	if name == "" {
		return errInvalid(op, name, "empty attribute name")
	}
	err := h.file.WriteStrAttr(attrRoot, name, value)
	h.comm.Barrier()
	if err != nil {
		return errFailed(op, name, err)
	}
	return nil
}

// StringGet reads a string attribute from the container root.
func (h *Handle) StringGet(name string) (string, error) {
	const op = "string_get"
	if h == nil {
		return "", errFault(op, "nil handle")
	}
	if err := h.checkOpen(op, name); err != nil {
		return "", err
	}
	value, err := h.file.ReadStrAttr(attrRoot, name)
	if err != nil {
		return "", errFailed(op, name, err)
	}
	return value, nil
}

// scalarOf and setScalar adapt caller buffers element-wise; conversion
// is the driver's native widening/narrowing.
func scalarOf(buf any, i int) float64 {
	switch v := buf.(type) {
	case []float64:
		return v[i]
	case []float32:
		return float64(v[i])
	case []int32:
		return float64(v[i])
	}
	return 0
}

func setScalar(buf any, i int, val float64) {
	switch v := buf.(type) {
	case []float64:
		v[i] = val
	case []float32:
		v[i] = float32(val)
	case []int32:
		v[i] = int32(val)
	}
}
