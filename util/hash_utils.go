package util

import (
	"github.com/OneOfOne/xxhash"
)

// HashCode 将一个键进行Hash
func HashCode(key []byte) uint64 {
	h := xxhash.New64()
	h.Write(key)
	return h.Sum64()
}

// HashCodes hashes several byte strings as one stream, each preceded by its
// length so that ("ab","c") and ("a","bc") differ.
func HashCodes(parts ...[]byte) uint64 {
	h := xxhash.New64()
	var lenBuf [4]byte
	for _, p := range parts {
		WriteUB4(lenBuf[:], 0, uint32(len(p)))
		h.Write(lenBuf[:])
		h.Write(p)
	}
	return h.Sum64()
}
