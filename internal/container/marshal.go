package container

import (
	"encoding/binary"
	"fmt"

	"github.com/OneOfOne/xxhash"
)

// On-disk superblock, 64 bytes at offset 0, little-endian:
//
//	[0:8)   magic
//	[8:12)  format version
//	[12:16) flags
//	[16:32) file UUID
//	[32:40) directory offset
//	[40:48) directory length
//	[48:56) data end
//	[56:64) xxhash64 of bytes [0:56)
const (
	superblockSize = 64
	formatVersion  = 1
)

var magic = [8]byte{'E', 'S', 'I', 'O', 'C', 'N', 'T', '1'}

// ErrBadSuperblock reports a file that is not a container or is corrupt.
var ErrBadSuperblock = fmt.Errorf("container: bad superblock")

type superblock struct {
	Version   uint32
	Flags     uint32
	FileID    [16]byte
	DirOffset int64
	DirBytes  int64
	DataEnd   int64
}

func marshalSuperblock(sb *superblock) []byte {
	buf := make([]byte, superblockSize)

	copy(buf[0:8], magic[:])
	binary.LittleEndian.PutUint32(buf[8:12], sb.Version)
	binary.LittleEndian.PutUint32(buf[12:16], sb.Flags)
	copy(buf[16:32], sb.FileID[:])
	binary.LittleEndian.PutUint64(buf[32:40], uint64(sb.DirOffset))
	binary.LittleEndian.PutUint64(buf[40:48], uint64(sb.DirBytes))
	binary.LittleEndian.PutUint64(buf[48:56], uint64(sb.DataEnd))
	binary.LittleEndian.PutUint64(buf[56:64], xxhash.Checksum64(buf[0:56]))

	return buf
}

func unmarshalSuperblock(data []byte, sb *superblock) error {
	if len(data) < superblockSize {
		return ErrBadSuperblock
	}
	if [8]byte(data[0:8]) != magic {
		return ErrBadSuperblock
	}
	if binary.LittleEndian.Uint64(data[56:64]) != xxhash.Checksum64(data[0:56]) {
		return ErrBadSuperblock
	}

	sb.Version = binary.LittleEndian.Uint32(data[8:12])
	if sb.Version != formatVersion {
		return fmt.Errorf("container: unsupported format version %d", sb.Version)
	}
	sb.Flags = binary.LittleEndian.Uint32(data[12:16])
	copy(sb.FileID[:], data[16:32])
	sb.DirOffset = int64(binary.LittleEndian.Uint64(data[32:40]))
	sb.DirBytes = int64(binary.LittleEndian.Uint64(data[40:48]))
	sb.DataEnd = int64(binary.LittleEndian.Uint64(data[48:56]))

	return nil
}
