package esio

import (
	"github.com/Tiancheng-Luo/go-esio/internal/constants"
	"github.com/Tiancheng-Luo/go-esio/internal/container"
)

// fieldMeta is the decoded 8-integer tuple attached to every field:
// library version triple, layout tag, the three global extents, and the
// component count. The tuple, not the caller, is the source of truth
// for a stored field's shape.
type fieldMeta struct {
	verMajor int64
	verMinor int64
	verPatch int64
	layout   int
	c, b, a  int64
	ncomp    int64
}

// writeMetadata attaches the metadata tuple to a dataset. Layout
// decisions freeze at first write; the tuple is never rewritten.
func writeMetadata(f *container.File, name string, layout int, c, b, a, ncomp int64) error {
	return f.WriteIntAttr(name, constants.MetadataAttrName, []int64{
		constants.VersionMajor,
		constants.VersionMinor,
		constants.VersionPatch,
		int64(layout),
		c, b, a,
		ncomp,
	})
}

// readMetadata probes a dataset's metadata tuple. A missing dataset or
// attribute returns (nil, nil): the probe is how the engine tests for
// existence, so it must not trip either error sink. Both the core
// handler and the container driver's sink are silenced for the duration
// and restored on every exit path. A sentinel one past the tuple
// detects a stored attribute longer than this library understands.
func readMetadata(f *container.File, name string) (*fieldMeta, error) {
	restoreCore := silenceHandler()
	defer restoreCore()
	restoreDriver := container.Silence()
	defer restoreDriver()

	buf := make([]int64, constants.MetadataLen+1)
	buf[constants.MetadataLen] = constants.MetadataSentinel

	n, err := f.ReadIntAttrInto(name, constants.MetadataAttrName, buf)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, &Error{Op: "metadata_read", Name: name, Code: EFAILED, Inner: err}
	}
	if n != constants.MetadataLen || buf[constants.MetadataLen] != constants.MetadataSentinel {
		return nil, &Error{Op: "metadata_read", Name: name, Code: ESANITY,
			Msg: "metadata tuple length drift"}
	}

	return &fieldMeta{
		verMajor: buf[0],
		verMinor: buf[1],
		verPatch: buf[2],
		layout:   int(buf[3]),
		c:        buf[4],
		b:        buf[5],
		a:        buf[6],
		ncomp:    buf[7],
	}, nil
}
