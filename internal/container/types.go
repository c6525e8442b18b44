package container

import (
	"encoding/binary"
	"math"
)

// ElemType identifies the numeric element types a dataset can store.
type ElemType uint8

const (
	TypeInvalid ElemType = iota
	TypeFloat64
	TypeFloat32
	TypeInt32
)

// Size returns the on-disk width of one scalar in bytes.
func (t ElemType) Size() int64 {
	switch t {
	case TypeFloat64:
		return 8
	case TypeFloat32:
		return 4
	case TypeInt32:
		return 4
	}
	return 0
}

func (t ElemType) String() string {
	switch t {
	case TypeFloat64:
		return "float64"
	case TypeFloat32:
		return "float32"
	case TypeInt32:
		return "int32"
	}
	return "invalid"
}

// CanConvert reports whether the driver can convert between two element
// types. All numeric pairs convert via native widening or narrowing.
func CanConvert(from, to ElemType) bool {
	return from.Size() != 0 && to.Size() != 0
}

// putScalar encodes v into dst as typ. Narrowing follows Go conversion
// semantics; every int32 and float32 value is exact in the float64 carrier.
func putScalar(dst []byte, typ ElemType, v float64) {
	switch typ {
	case TypeFloat64:
		binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
	case TypeFloat32:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v)))
	case TypeInt32:
		binary.LittleEndian.PutUint32(dst, uint32(int32(v)))
	}
}

// getScalar decodes one scalar of typ from src.
func getScalar(src []byte, typ ElemType) float64 {
	switch typ {
	case TypeFloat64:
		return math.Float64frombits(binary.LittleEndian.Uint64(src))
	case TypeFloat32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(src)))
	case TypeInt32:
		return float64(int32(binary.LittleEndian.Uint32(src)))
	}
	return 0
}

// TypeOf maps a caller buffer to its element type and scalar length.
// Only []float64, []float32 and []int32 buffers are accepted.
func TypeOf(buf any) (ElemType, int64, bool) {
	switch v := buf.(type) {
	case []float64:
		return TypeFloat64, int64(len(v)), true
	case []float32:
		return TypeFloat32, int64(len(v)), true
	case []int32:
		return TypeInt32, int64(len(v)), true
	}
	return TypeInvalid, 0, false
}

// loadScalar reads scalar i of a caller buffer into the float64 carrier.
func loadScalar(buf any, i int64) float64 {
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

// storeScalar writes scalar i of a caller buffer from the float64 carrier.
func storeScalar(buf any, i int64, val float64) {
	switch v := buf.(type) {
	case []float64:
		v[i] = val
	case []float32:
		v[i] = float32(val)
	case []int32:
		v[i] = int32(val)
	}
}
