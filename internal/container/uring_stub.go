//go:build !giouring
// +build !giouring

package container

import "fmt"

const ringEnabled = false

// submitRuns is available when built with -tags giouring.
func submitRuns(fd int, ios []runIO, write bool) error {
	return fmt.Errorf("container: io_uring transfer not enabled; build with -tags giouring")
}
