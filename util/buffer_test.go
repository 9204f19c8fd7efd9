package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferWrite(t *testing.T) {
	buff := make([]byte, 16)
	cursor := WriteUB2(buff, 0, 0x4142)
	cursor = WriteUB3(buff, cursor, 0x010203)
	cursor = WriteUB4(buff, cursor, 0xDEADBEEF)
	assert.Equal(t, 9, cursor)
	assert.Equal(t, []byte{0x41, 0x42, 0x01, 0x02, 0x03, 0xDE, 0xAD, 0xBE, 0xEF}, buff[:9])

	cursor, u16 := ReadUB2(buff, 0)
	assert.Equal(t, uint16(0x4142), u16)
	cursor, u24 := ReadUB3(buff, cursor)
	assert.Equal(t, uint32(0x010203), u24)
	cursor, u32 := ReadUB4(buff, cursor)
	assert.Equal(t, uint32(0xDEADBEEF), u32)
	assert.Equal(t, 9, cursor)
}

func TestReadWriteUBN(t *testing.T) {
	buff := make([]byte, 8)
	for width := 1; width <= 8; width++ {
		v := uint64(1)<<uint(8*width-1) | 0x5A
		assert.Equal(t, width, WriteUBN(buff, 0, width, v))
		_, got := ReadUBN(buff, 0, width)
		assert.Equal(t, v, got, "width %d", width)
	}

	WriteUB8(buff, 0, 0x0102030405060708)
	_, u64 := ReadUB8(buff, 0)
	assert.Equal(t, uint64(0x0102030405060708), u64)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, buff[:8])
}

func TestReadSBN(t *testing.T) {
	buff := make([]byte, 8)
	for _, v := range []int64{-1, -128, 127, -8388608, 8388607, 0} {
		WriteUBN(buff, 0, 3, uint64(v))
		_, got := ReadSBN(buff, 0, 3)
		assert.Equal(t, v, got)
	}
	v := int64(-42)
	WriteUBN(buff, 0, 8, uint64(v))
	_, got := ReadSBN(buff, 0, 8)
	assert.Equal(t, v, got)
}
