package util

// Writers mirror the readers in buffer_reader.go: they store big-endian
// integers in place and return the advanced cursor. Callers are expected to
// have checked capacity.

func WriteBytes(buff []byte, cursor int, from []byte) int {
	return cursor + copy(buff[cursor:], from)
}

func WriteByte(buff []byte, cursor int, b byte) int {
	buff[cursor] = b
	return cursor + 1
}

func WriteUB2(buff []byte, cursor int, i uint16) int {
	buff[cursor] = byte(i >> 8)
	buff[cursor+1] = byte(i)
	return cursor + 2
}

func WriteUB3(buff []byte, cursor int, i uint32) int {
	buff[cursor] = byte(i >> 16)
	buff[cursor+1] = byte(i >> 8)
	buff[cursor+2] = byte(i)
	return cursor + 3
}

func WriteUB4(buff []byte, cursor int, i uint32) int {
	buff[cursor] = byte(i >> 24)
	buff[cursor+1] = byte(i >> 16)
	buff[cursor+2] = byte(i >> 8)
	buff[cursor+3] = byte(i)
	return cursor + 4
}

func WriteUB8(buff []byte, cursor int, i uint64) int {
	cursor = WriteUB4(buff, cursor, uint32(i>>32))
	return WriteUB4(buff, cursor, uint32(i))
}

// WriteUBN stores the low width bytes of i.
func WriteUBN(buff []byte, cursor int, width int, i uint64) int {
	for k := width - 1; k >= 0; k-- {
		buff[cursor+k] = byte(i)
		i >>= 8
	}
	return cursor + width
}
