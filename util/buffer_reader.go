package util

// All multi-byte integers in a row image are big-endian. The readers follow
// the (cursor, value) convention: they return the cursor advanced past the
// bytes consumed.

func ReadBytes(buff []byte, cursor int, offset int) (int, []byte) {
	if offset <= 0 {
		return cursor, nil
	}
	return cursor + offset, buff[cursor : cursor+offset]
}

func ReadByte(buff []byte, cursor int) (int, byte) {
	return cursor + 1, buff[cursor]
}

func ReadUB2(buff []byte, cursor int) (int, uint16) {
	i := uint16(buff[cursor]) << 8
	i |= uint16(buff[cursor+1])
	return cursor + 2, i
}

func ReadUB3(buff []byte, cursor int) (int, uint32) {
	i := uint32(buff[cursor]) << 16
	i |= uint32(buff[cursor+1]) << 8
	i |= uint32(buff[cursor+2])
	return cursor + 3, i
}

func ReadUB4(buff []byte, cursor int) (int, uint32) {
	i := uint32(buff[cursor]) << 24
	i |= uint32(buff[cursor+1]) << 16
	i |= uint32(buff[cursor+2]) << 8
	i |= uint32(buff[cursor+3])
	return cursor + 4, i
}

func ReadUB8(buff []byte, cursor int) (int, uint64) {
	_, hi := ReadUB4(buff, cursor)
	_, lo := ReadUB4(buff, cursor+4)
	return cursor + 8, uint64(hi)<<32 | uint64(lo)
}

// ReadUBN reads an unsigned big-endian integer of 1 to 8 bytes.
func ReadUBN(buff []byte, cursor int, width int) (int, uint64) {
	var i uint64
	for k := 0; k < width; k++ {
		i = i<<8 | uint64(buff[cursor+k])
	}
	return cursor + width, i
}

// ReadSBN reads a big-endian two's complement integer of 1 to 8 bytes and
// sign-extends it.
func ReadSBN(buff []byte, cursor int, width int) (int, int64) {
	cursor, u := ReadUBN(buff, cursor, width)
	shift := uint(64 - 8*width)
	return cursor, int64(u<<shift) >> shift
}
