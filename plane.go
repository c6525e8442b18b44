package esio

// Plane operations store 2-D data as degenerate fields with the slowest
// direction held at extent 1; they reuse the field engine and the
// layout dispatch unchanged.

// planeDim is the held direction: one element, owned by every rank.
var planeDim = Dim{Global: 1, Start: 0, Local: 1, Stride: 0}

// PlaneWrite collectively writes this rank's sub-block of a scalar 2-D
// plane.
func (h *Handle) PlaneWrite(name string, buf any, b, a Dim) error {
	return h.fieldTransfer("plane_write", name, buf, 1, planeDim, b, a, false)
}

// PlaneWritev is PlaneWrite for vector-valued planes.
func (h *Handle) PlaneWritev(name string, buf any, ncomp int, b, a Dim) error {
	return h.fieldTransfer("plane_writev", name, buf, ncomp, planeDim, b, a, false)
}

// PlaneRead collectively reads this rank's sub-block of a scalar 2-D
// plane.
func (h *Handle) PlaneRead(name string, buf any, b, a Dim) error {
	return h.fieldTransfer("plane_read", name, buf, 1, planeDim, b, a, true)
}

// PlaneReadv is PlaneRead for vector-valued planes.
func (h *Handle) PlaneReadv(name string, buf any, ncomp int, b, a Dim) error {
	return h.fieldTransfer("plane_readv", name, buf, ncomp, planeDim, b, a, true)
}

// PlaneSize returns the global extents of a stored scalar plane.
func (h *Handle) PlaneSize(name string) (b, a int, err error) {
	b, a, _, err = h.PlaneSizev(name)
	return b, a, err
}

// PlaneSizev returns the global extents and component count of a stored
// plane.
func (h *Handle) PlaneSizev(name string) (b, a, ncomp int, err error) {
	c, b, a, ncomp, err := h.FieldSizev(name)
	if err != nil {
		return 0, 0, 0, err
	}
	if c != 1 {
		return 0, 0, 0, errInvalid("plane_sizev", name, "stored dataset is not a plane")
	}
	return b, a, ncomp, nil
}
