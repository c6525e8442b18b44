//go:build giouring
// +build giouring

package container

// Vectored transfer path using io_uring. One submission carries every
// run of a selection, so a heavily strided transfer costs one syscall
// instead of one per run.

import (
	"fmt"
	"syscall"
	"unsafe"

	"github.com/pawelgaczynski/giouring"
)

const ringEnabled = true

// submitRuns batches the runs of one transfer into a single ring
// submission and waits for every completion.
func submitRuns(fd int, ios []runIO, write bool) error {
	ring, err := giouring.CreateRing(uint32(len(ios)))
	if err != nil {
		return fmt.Errorf("container: creating ring: %w", err)
	}
	defer ring.QueueExit()

	// Iovecs must stay reachable until the kernel completes the SQEs.
	iovecs := make([]syscall.Iovec, len(ios))
	for i := range ios {
		iovecs[i] = syscall.Iovec{
			Base: &ios[i].buf[0],
			Len:  uint64(len(ios[i].buf)),
		}
		sqe := ring.GetSQE()
		if sqe == nil {
			return fmt.Errorf("container: submission queue full")
		}
		if write {
			sqe.PrepareWritev(fd, uintptr(unsafe.Pointer(&iovecs[i])), 1, uint64(ios[i].off))
		} else {
			sqe.PrepareReadv(fd, uintptr(unsafe.Pointer(&iovecs[i])), 1, uint64(ios[i].off))
		}
		sqe.UserData = uint64(i)
	}

	if _, err := ring.SubmitAndWait(uint32(len(ios))); err != nil {
		return fmt.Errorf("container: submitting ring: %w", err)
	}
	for done := 0; done < len(ios); done++ {
		cqe, err := ring.WaitCQE()
		if err != nil {
			return fmt.Errorf("container: waiting for completion: %w", err)
		}
		if cqe.Res < 0 {
			ring.CQESeen(cqe)
			return fmt.Errorf("container: ring I/O failed: %w", syscall.Errno(-cqe.Res))
		}
		if int(cqe.Res) != len(ios[cqe.UserData].buf) {
			ring.CQESeen(cqe)
			return fmt.Errorf("container: short ring I/O: %d of %d bytes", cqe.Res, len(ios[cqe.UserData].buf))
		}
		ring.CQESeen(cqe)
	}
	return nil
}
