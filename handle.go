package esio

import (
	"errors"

	"github.com/Tiancheng-Luo/go-esio/internal/constants"
	"github.com/Tiancheng-Luo/go-esio/internal/container"
	"github.com/Tiancheng-Luo/go-esio/internal/logging"
)

// Handle is the per-process context binding a communicator to at most
// one open container. A handle is exclusively owned by its creating
// goroutine; it is not safe for concurrent use within a rank.
//
// Lifecycle: Init -> [FileCreate|FileOpen] -> reads/writes/flushes ->
// FileClose -> (reopenable) -> Finalize. Every file lifecycle call and
// every read or write is collective on the handle's communicator.
type Handle struct {
	comm      Comm
	rank      int
	size      int
	hints     Hints
	file      *container.File
	layout    int
	metrics   *Metrics
	finalized bool
}

// Init creates a handle over comm. The communicator is duplicated with a
// preserved name so the library's collectives never interleave with the
// caller's; the duplicate is released by Finalize.
func Init(c Comm) (*Handle, error) {
	if c == nil {
		return nil, errInvalid("init", "", "nil communicator")
	}
	dup, err := c.Dup("esio:" + c.Name())
	if err != nil {
		return nil, errFailed("init", "", err)
	}
	h := &Handle{
		comm:    dup,
		rank:    dup.Rank(),
		size:    dup.Size(),
		hints:   Hints{constants.HintCollective: constants.HintCollectiveOn},
		layout:  constants.DefaultLayout,
		metrics: NewMetrics(),
	}
	logging.Debug("handle initialized", "rank", h.rank, "size", h.size, "comm", dup.Name())
	return h, nil
}

// Rank returns the handle's rank within its communicator.
func (h *Handle) Rank() int {
	return h.rank
}

// Size returns the number of ranks in the handle's communicator.
func (h *Handle) Size() int {
	return h.size
}

// Metrics returns the handle's transfer metrics.
func (h *Handle) Metrics() *Metrics {
	if h == nil {
		return nil
	}
	return h.metrics
}

// Finalize releases the handle. Idempotent. A still-open container is
// force-closed; errors in the force-close are reported but do not stop
// the release of the hint bag and the duplicated communicator.
func (h *Handle) Finalize() error {
	if h == nil || h.finalized {
		return nil
	}
	if h.file != nil {
		if err := h.file.Release(); err != nil {
			report(&Error{Op: "finalize", Code: EFAILED, Msg: "force-close failed", Inner: err})
		}
		h.file = nil
	}
	if h.comm != nil {
		if err := h.comm.Free(); err != nil {
			report(&Error{Op: "finalize", Code: EFAILED, Msg: "communicator release failed", Inner: err})
		}
		h.comm = nil
	}
	h.hints = nil
	h.finalized = true
	return nil
}

// FileCreate collectively creates a container at path and leaves it
// open on the handle. With overwrite false the call fails if path
// already exists. Fails if the handle already has an open container.
func (h *Handle) FileCreate(path string, overwrite bool) error {
	return h.fileAcquire("file_create", path, container.Mode{
		Create:    true,
		Exclusive: !overwrite,
		ReadWrite: true,
		Hints:     h.hintsMap(),
	})
}

// FileOpen collectively opens an existing container at path. With
// readwrite false the container is opened read-only.
func (h *Handle) FileOpen(path string, readwrite bool) error {
	return h.fileAcquire("file_open", path, container.Mode{
		ReadWrite: readwrite,
		Hints:     h.hintsMap(),
	})
}

func (h *Handle) fileAcquire(op, path string, mode container.Mode) error {
	if h == nil {
		return errFault(op, "nil handle")
	}
	if err := h.checkLive(op); err != nil {
		return err
	}
	if path == "" {
		return errInvalid(op, "", "empty path")
	}
	if h.file != nil {
		return errInvalid(op, path, "a file is already open")
	}

	f, err := container.Acquire(path, mode)
	if err != nil {
		h.comm.Barrier()
		return errFailed(op, path, err)
	}
	h.file = f
	h.comm.Barrier()
	logging.Info("file attached", "op", op, "path", f.Path(), "rank", h.rank)
	return nil
}

// FileFlush collectively commits all pending data and metadata to disk
// without closing the container.
func (h *Handle) FileFlush() error {
	if h == nil {
		return errFault("file_flush", "nil handle")
	}
	if err := h.checkLive("file_flush"); err != nil {
		return err
	}
	if h.file == nil {
		return errInvalid("file_flush", "", "no file open")
	}
	err := h.file.Flush()
	h.comm.Barrier()
	if err != nil {
		return errFailed("file_flush", h.file.Path(), err)
	}
	h.metrics.Flushes.Add(1)
	return nil
}

// FileClose collectively closes the open container. Closing a handle
// with no open container succeeds: close is a no-op after the first
// success until a new create or open occurs.
func (h *Handle) FileClose() error {
	if h == nil {
		return errFault("file_close", "nil handle")
	}
	if err := h.checkLive("file_close"); err != nil {
		return err
	}
	if h.file == nil {
		return nil
	}
	path := h.file.Path()
	err := h.file.Release()
	h.file = nil
	h.comm.Barrier()
	if err != nil {
		return errFailed("file_close", path, err)
	}
	return nil
}

// FilePath returns the path of the open container, or "" when none is
// open.
func (h *Handle) FilePath() string {
	if h == nil || h.file == nil {
		return ""
	}
	return h.file.Path()
}

func (h *Handle) checkLive(op string) error {
	if h.finalized {
		return errInvalid(op, "", "handle is finalized")
	}
	return nil
}

func (h *Handle) hintsMap() map[string]string {
	if h == nil {
		return nil
	}
	m := make(map[string]string, len(h.hints))
	for k, v := range h.hints {
		m[k] = v
	}
	return m
}

// isNotFound adapts the driver's not-found condition for the engine.
func isNotFound(err error) bool {
	return errors.Is(err, container.ErrNotFound)
}
