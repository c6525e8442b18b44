package esio

// Comm is the message-passing capability the library consumes: a fixed
// process group with rank identification and collective synchronization.
// Every collective operation on a handle must be entered by all ranks of
// the handle's communicator. The comm package provides an in-process
// implementation; bindings to an external message-passing substrate
// implement the same interface.
type Comm interface {
	// Rank returns this process's zero-based position in the group.
	Rank() int

	// Size returns the number of ranks in the group.
	Size() int

	// Barrier blocks until every rank of the group has entered it.
	Barrier()

	// Dup returns an independent communicator over the same group,
	// carrying the given name.
	Dup(name string) (Comm, error)

	// Name returns the communicator's name.
	Name() string

	// Free releases the communicator. Only duplicates obtained from Dup
	// are freed by this library.
	Free() error
}
