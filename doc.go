// Package esio provides parallel I/O for simulation restart files: many
// ranks collectively write and read distributed multi-dimensional
// fields to a single shared, self-describing container, each rank
// contributing only its local sub-block.
//
// A Handle binds a communicator to at most one open container and is
// driven through an explicit lifecycle:
//
//	h, _ := esio.Init(comm)
//	h.FileCreate("restart.esio", true)
//	h.FieldWrite("u", buf, cDim, bDim, aDim)
//	h.FileClose()
//	h.Finalize()
//
// Every file lifecycle call and every read or write is collective: all
// ranks of the handle's communicator enter it with globally-consistent
// arguments. Fields carry an 8-integer metadata tuple on disk that is
// authoritative for their shape and layout, so a file written under one
// decomposition reads back under any other.
//
// RestartRename rotates finished checkpoints through an indexed
// retention scheme.
package esio
