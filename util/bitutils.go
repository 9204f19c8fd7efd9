package util

import (
	"strconv"
	"strings"
)

// ToBinaryString renders a byte most significant bit first.
func ToBinaryString(data byte) string {
	result := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		move := uint(7 - i)
		result = append(result, strconv.Itoa(int((data>>move)&1)))
	}
	return strings.Join(result, "")
}

// BitmapSize is the number of bytes needed for one bit per field.
func BitmapSize(fieldCount int) int {
	return (fieldCount + 7) >> 3
}

// TestBit reports whether bit i%8 of byte i/8 is set.
func TestBit(bitmap []byte, i int) bool {
	return bitmap[i>>3]&(1<<uint(i&7)) != 0
}

func SetBit(bitmap []byte, i int) {
	bitmap[i>>3] |= 1 << uint(i&7)
}

// PrefixMask keeps bits 0..k inclusive.
func PrefixMask(k int) byte {
	return byte(0xFF) >> uint(7-k)
}

// HighestBit returns the index of the most significant set bit, -1 for 0.
func HighestBit(b byte) int {
	for i := 7; i >= 0; i-- {
		if b&(1<<uint(i)) != 0 {
			return i
		}
	}
	return -1
}

// UnsignedWidth returns how many bytes (1..3) an unsigned length up to max
// needs. Lengths beyond 24 bits are not representable in a row.
func UnsignedWidth(max int) int {
	switch {
	case max < 0x100:
		return 1
	case max < 0x10000:
		return 2
	default:
		return 3
	}
}
