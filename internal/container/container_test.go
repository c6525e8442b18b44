package container

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "c.esio")
}

func TestCreateOpenRoundTrip(t *testing.T) {
	path := tempPath(t)

	f, err := Acquire(path, Mode{Create: true, ReadWrite: true})
	require.NoError(t, err)
	id := f.FileID()

	ds, err := f.CreateDataset("u", TypeFloat64, NewDataspace(2, 3), 1)
	require.NoError(t, err)

	xfer := NewTransfer()
	xfer.SetCollective(true)
	mem := NewDataspace(6).Select()
	require.NoError(t, mem.OrStrided(0, 1, 6, 1))
	file := ds.Space().Select()
	require.NoError(t, file.Hyperslab([]int64{0, 0}, []int64{2, 3}, 1))

	buf := []float64{1, 2, 3, 4, 5, 6}
	require.NoError(t, ds.Write(xfer, mem, buf, file))
	require.NoError(t, ds.Close())
	require.NoError(t, f.Release())

	// Reopen read-only and verify everything survived.
	f, err = Acquire(path, Mode{})
	require.NoError(t, err)
	defer f.Release()
	require.Equal(t, id, f.FileID())

	ds, err = f.OpenDataset("u")
	require.NoError(t, err)
	require.Equal(t, TypeFloat64, ds.Type())
	require.Equal(t, []int64{2, 3}, ds.Dims())
	require.Equal(t, int64(1), ds.Arity())

	got := make([]float64, 6)
	mem = NewDataspace(6).Select()
	require.NoError(t, mem.OrStrided(0, 1, 6, 1))
	file = ds.Space().Select()
	require.NoError(t, file.Hyperslab([]int64{0, 0}, []int64{2, 3}, 1))
	require.NoError(t, ds.Read(xfer, mem, got, file))
	require.Equal(t, buf, got)
}

func TestExclusiveCreate(t *testing.T) {
	restore := Silence()
	defer restore()

	path := tempPath(t)
	require.NoError(t, os.WriteFile(path, []byte("occupied"), 0o644))

	_, err := Acquire(path, Mode{Create: true, Exclusive: true, ReadWrite: true})
	require.ErrorIs(t, err, ErrExists)
}

func TestSharedAcquire(t *testing.T) {
	path := tempPath(t)

	f1, err := Acquire(path, Mode{Create: true, ReadWrite: true})
	require.NoError(t, err)
	f2, err := Acquire(path, Mode{Create: true, ReadWrite: true})
	require.NoError(t, err)

	// Peer ranks share one container instance.
	require.Same(t, f1, f2)

	require.NoError(t, f1.Release())
	// Still open for the second holder.
	_, err = f2.CreateDataset("u", TypeInt32, NewDataspace(4), 1)
	require.NoError(t, err)
	require.NoError(t, f2.Release())

	// Fully released: a fresh acquire reads from disk again.
	f3, err := Acquire(path, Mode{})
	require.NoError(t, err)
	require.True(t, f3.HasDataset("u"))
	require.NoError(t, f3.Release())
}

func TestIdempotentCreateDataset(t *testing.T) {
	restore := Silence()
	defer restore()

	f, err := Acquire(tempPath(t), Mode{Create: true, ReadWrite: true})
	require.NoError(t, err)
	defer f.Release()

	ds1, err := f.CreateDataset("u", TypeFloat32, NewDataspace(4, 4), 2)
	require.NoError(t, err)
	defer ds1.Close()

	// The identical collective request succeeds and aliases the object.
	ds2, err := f.CreateDataset("u", TypeFloat32, NewDataspace(4, 4), 2)
	require.NoError(t, err)
	defer ds2.Close()

	// A different shape collides.
	_, err = f.CreateDataset("u", TypeFloat32, NewDataspace(4, 5), 2)
	require.ErrorIs(t, err, ErrMismatch)
	_, err = f.CreateDataset("u", TypeFloat64, NewDataspace(4, 4), 2)
	require.ErrorIs(t, err, ErrMismatch)
	_, err = f.CreateDataset("u", TypeFloat32, NewDataspace(4, 4), 1)
	require.ErrorIs(t, err, ErrMismatch)
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	restore := Silence()
	defer restore()

	path := tempPath(t)
	f, err := Acquire(path, Mode{Create: true, ReadWrite: true})
	require.NoError(t, err)
	require.NoError(t, f.Release())

	f, err = Acquire(path, Mode{})
	require.NoError(t, err)
	defer f.Release()

	_, err = f.CreateDataset("u", TypeFloat64, NewDataspace(2), 1)
	require.ErrorIs(t, err, ErrReadOnly)
	require.ErrorIs(t, f.WriteIntAttr("/", "x", []int64{1}), ErrReadOnly)
}

func TestAttrRoundTrip(t *testing.T) {
	f, err := Acquire(tempPath(t), Mode{Create: true, ReadWrite: true})
	require.NoError(t, err)
	defer f.Release()

	require.NoError(t, f.WriteIntAttr("u", "esio_metadata", []int64{1, 2, 3}))
	buf := make([]int64, 4)
	buf[3] = -1
	n, err := f.ReadIntAttrInto("u", "esio_metadata", buf)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []int64{1, 2, 3, -1}, buf)

	require.NoError(t, f.WriteNumAttr("/", "dt", TypeFloat32, []float64{0.5}))
	typ, vals, err := f.ReadNumAttr("/", "dt")
	require.NoError(t, err)
	require.Equal(t, TypeFloat32, typ)
	require.Equal(t, []float64{0.5}, vals)

	require.NoError(t, f.WriteStrAttr("/", "creator", "solver"))
	s, err := f.ReadStrAttr("/", "creator")
	require.NoError(t, err)
	require.Equal(t, "solver", s)
}

func TestAttrNotFound(t *testing.T) {
	restore := Silence()
	defer restore()

	f, err := Acquire(tempPath(t), Mode{Create: true, ReadWrite: true})
	require.NoError(t, err)
	defer f.Release()

	_, err = f.ReadIntAttrInto("u", "absent", make([]int64, 1))
	require.True(t, IsNotFound(err))
	_, _, err = f.ReadNumAttr("/", "absent")
	require.True(t, IsNotFound(err))
	_, err = f.OpenDataset("absent")
	require.True(t, IsNotFound(err))
}

func TestOpenRejectsGarbage(t *testing.T) {
	restore := Silence()
	defer restore()

	path := tempPath(t)
	require.NoError(t, os.WriteFile(path, []byte("not a container at all"), 0o644))

	_, err := Acquire(path, Mode{})
	require.Error(t, err)
}

func TestTransferRequiresCollective(t *testing.T) {
	restore := Silence()
	defer restore()

	f, err := Acquire(tempPath(t), Mode{Create: true, ReadWrite: true})
	require.NoError(t, err)
	defer f.Release()

	ds, err := f.CreateDataset("u", TypeFloat64, NewDataspace(4), 1)
	require.NoError(t, err)
	defer ds.Close()

	mem := NewDataspace(4).Select()
	require.NoError(t, mem.OrStrided(0, 1, 4, 1))
	file := ds.Space().Select()
	require.NoError(t, file.Hyperslab([]int64{0}, []int64{4}, 1))

	require.Error(t, ds.Write(NewTransfer(), mem, []float64{1, 2, 3, 4}, file))

	closed := NewTransfer()
	closed.SetCollective(true)
	require.NoError(t, closed.Close())
	require.Error(t, ds.Write(closed, mem, []float64{1, 2, 3, 4}, file))
}

func TestEmptySelectionParticipates(t *testing.T) {
	f, err := Acquire(tempPath(t), Mode{Create: true, ReadWrite: true})
	require.NoError(t, err)
	defer f.Release()

	ds, err := f.CreateDataset("u", TypeFloat64, NewDataspace(4), 1)
	require.NoError(t, err)
	defer ds.Close()

	xfer := NewTransfer()
	xfer.SetCollective(true)
	mem := NewDataspace(1).Select()
	file := ds.Space().Select()
	require.NoError(t, file.Hyperslab([]int64{0}, []int64{0}, 1))

	// A rank with no data joins the collective with an empty selection.
	require.NoError(t, ds.Write(xfer, mem, []float64{0}, file))
	require.NoError(t, ds.Read(xfer, mem, []float64{0}, file))
}

func TestConversionOnTransfer(t *testing.T) {
	f, err := Acquire(tempPath(t), Mode{Create: true, ReadWrite: true})
	require.NoError(t, err)
	defer f.Release()

	ds, err := f.CreateDataset("u", TypeFloat32, NewDataspace(3), 1)
	require.NoError(t, err)
	defer ds.Close()

	xfer := NewTransfer()
	xfer.SetCollective(true)
	mem := NewDataspace(3).Select()
	require.NoError(t, mem.OrStrided(0, 1, 3, 1))
	file := ds.Space().Select()
	require.NoError(t, file.Hyperslab([]int64{0}, []int64{3}, 1))

	// float64 in, float32 stored, int32 out.
	require.NoError(t, ds.Write(xfer, mem, []float64{1.0, 2.0, 3.0}, file))
	got := make([]int32, 3)
	require.NoError(t, ds.Read(xfer, mem, got, file))
	require.Equal(t, []int32{1, 2, 3}, got)
}

func TestHintsCarried(t *testing.T) {
	f, err := Acquire(tempPath(t), Mode{
		Create:    true,
		ReadWrite: true,
		Hints:     map[string]string{"esio_collective": "true"},
	})
	require.NoError(t, err)
	defer f.Release()

	require.Equal(t, "true", f.Hint("esio_collective"))
	require.Equal(t, "", f.Hint("absent"))
}

func TestSinkSilence(t *testing.T) {
	var fired int
	old := SetSink(func(op string, err error) { fired++ })
	defer SetSink(old)

	report("test", os.ErrInvalid)
	require.Equal(t, 1, fired)

	restore := Silence()
	report("test", os.ErrInvalid)
	restore()
	require.Equal(t, 1, fired)

	report("test", os.ErrInvalid)
	require.Equal(t, 2, fired)
}
