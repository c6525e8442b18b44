package esio

// Line operations store 1-D data as degenerate fields with the two
// slower directions held at extent 1.

// LineWrite collectively writes this rank's sub-block of a scalar 1-D
// line.
func (h *Handle) LineWrite(name string, buf any, a Dim) error {
	return h.fieldTransfer("line_write", name, buf, 1, planeDim, planeDim, a, false)
}

// LineWritev is LineWrite for vector-valued lines.
func (h *Handle) LineWritev(name string, buf any, ncomp int, a Dim) error {
	return h.fieldTransfer("line_writev", name, buf, ncomp, planeDim, planeDim, a, false)
}

// LineRead collectively reads this rank's sub-block of a scalar 1-D
// line.
func (h *Handle) LineRead(name string, buf any, a Dim) error {
	return h.fieldTransfer("line_read", name, buf, 1, planeDim, planeDim, a, true)
}

// LineReadv is LineRead for vector-valued lines.
func (h *Handle) LineReadv(name string, buf any, ncomp int, a Dim) error {
	return h.fieldTransfer("line_readv", name, buf, ncomp, planeDim, planeDim, a, true)
}

// LineSize returns the global extent of a stored scalar line.
func (h *Handle) LineSize(name string) (a int, err error) {
	a, _, err = h.LineSizev(name)
	return a, err
}

// LineSizev returns the global extent and component count of a stored
// line.
func (h *Handle) LineSizev(name string) (a, ncomp int, err error) {
	c, b, a, ncomp, err := h.FieldSizev(name)
	if err != nil {
		return 0, 0, err
	}
	if c != 1 || b != 1 {
		return 0, 0, errInvalid("line_sizev", name, "stored dataset is not a line")
	}
	return a, ncomp, nil
}
