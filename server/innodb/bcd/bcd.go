// Package bcd implements the packed decimal format used for DECIMAL(p,s)
// columns.
//
// A value is split into its integer digits (p-s of them) and fraction digits
// (s of them). Each side is cut into groups of nine digits stored as 4-byte
// big-endian integers; the integer side's leftover digits form a leading
// partial group and the fraction side's leftover digits a trailing one, each
// using bytesForDigits bytes. Negative values store every group bit-inverted
// and finally the top bit of the first byte is flipped, so encoded values
// compare correctly as unsigned byte strings.
package bcd

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/basic"
)

const (
	DigitsPerGroup = 9
	GroupBytes     = 4

	MaxPrecision = 65
	MaxScale     = 30
)

var bytesForDigits = [DigitsPerGroup + 1]int{0, 1, 1, 2, 2, 3, 3, 4, 4, 4}

var powers10 = [DigitsPerGroup + 1]uint32{
	1, 10, 100, 1000, 10000, 100000, 1000000, 10000000, 100000000, 1000000000,
}

// Validate checks a precision/scale pair supplied by a schema.
func Validate(precision, scale int) error {
	if precision < 1 || precision > MaxPrecision {
		return errors.Wrapf(basic.ErrInvalidSchema, "decimal precision %d out of range [1,%d]", precision, MaxPrecision)
	}
	if scale < 0 || scale > MaxScale || scale > precision {
		return errors.Wrapf(basic.ErrInvalidSchema, "decimal scale %d invalid for precision %d", scale, precision)
	}
	return nil
}

// BinSize is the encoded width of a DECIMAL(precision, scale).
func BinSize(precision, scale int) int {
	return digitsSize(precision-scale) + digitsSize(scale)
}

func digitsSize(digits int) int {
	return digits/DigitsPerGroup*GroupBytes + bytesForDigits[digits%DigitsPerGroup]
}

// Encode writes value, rounded to scale, into dest at offset and returns the
// number of bytes written, always BinSize(precision, scale).
func Encode(value decimal.Decimal, precision, scale int, dest []byte, offset int) (int, error) {
	if err := Validate(precision, scale); err != nil {
		return 0, err
	}
	size := BinSize(precision, scale)
	if offset < 0 || offset+size > len(dest) {
		return 0, errors.Wrapf(basic.ErrBufferBoundsExceeded, "decimal needs %d bytes at %d, buffer has %d", size, offset, len(dest))
	}

	intg := precision - scale
	rounded := value.Round(int32(scale))
	negative := rounded.Sign() < 0

	intDigits, fracDigits := splitDigits(rounded.Abs(), scale)
	if len(intDigits) > intg {
		return 0, errors.Wrapf(basic.ErrEncodingOverflow, "%s does not fit DECIMAL(%d,%d)", value.String(), precision, scale)
	}
	// left pad so the leading partial group is full of sign-coloured zeros
	intDigits = strings.Repeat("0", intg-len(intDigits)) + intDigits

	var mask uint32
	if negative {
		mask = 0xFFFFFFFF
	}

	pos := offset
	lead := intg % DigitsPerGroup
	if lead > 0 {
		pos = putGroup(dest, pos, intDigits[:lead], mask)
	}
	for i := lead; i < intg; i += DigitsPerGroup {
		pos = putGroup(dest, pos, intDigits[i:i+DigitsPerGroup], mask)
	}
	full := scale / DigitsPerGroup * DigitsPerGroup
	for i := 0; i < full; i += DigitsPerGroup {
		pos = putGroup(dest, pos, fracDigits[i:i+DigitsPerGroup], mask)
	}
	if full < scale {
		pos = putGroup(dest, pos, fracDigits[full:], mask)
	}

	dest[offset] ^= 0x80
	return pos - offset, nil
}

// splitDigits renders abs with exactly scale fraction digits and returns the
// integer digits without leading zeros.
func splitDigits(abs decimal.Decimal, scale int) (string, string) {
	s := abs.StringFixed(int32(scale))
	intPart, fracPart := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot+1:]
	}
	intPart = strings.TrimLeft(intPart, "0")
	return intPart, fracPart
}

func putGroup(dest []byte, pos int, digits string, mask uint32) int {
	// digits are produced by StringFixed and always parse
	v, _ := strconv.ParseUint(digits, 10, 32)
	n := bytesForDigits[len(digits)]
	u := uint32(v) ^ mask
	for k := n - 1; k >= 0; k-- {
		dest[pos+k] = byte(u)
		u >>= 8
	}
	return pos + n
}

// Decode reads a DECIMAL(precision, scale) at offset. src is never modified.
func Decode(src []byte, offset int, precision, scale int) (decimal.Decimal, error) {
	s, err := DecodeString(src, offset, precision, scale)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(s)
}

// DecodeString renders the value with leading integer zeros suppressed and
// all scale fraction digits present, e.g. "-123.45" or "0.50".
func DecodeString(src []byte, offset int, precision, scale int) (string, error) {
	if err := Validate(precision, scale); err != nil {
		return "", err
	}
	size := BinSize(precision, scale)
	if offset < 0 || offset+size > len(src) {
		return "", errors.Wrapf(basic.ErrCorruptRow, "decimal needs %d bytes at %d, buffer has %d", size, offset, len(src))
	}

	d := decoder{src: src, first: offset}
	negative := src[offset]&0x80 == 0
	if negative {
		d.mask = 0xFFFFFFFF
	}

	var sb strings.Builder
	started := false
	intg := precision - scale
	pos := offset

	emitInt := func(digits int) error {
		v, err := d.group(pos, digits)
		if err != nil {
			return err
		}
		pos += bytesForDigits[digits]
		switch {
		case started:
			sb.WriteString(zeroPad(v, DigitsPerGroup))
		case v != 0:
			sb.WriteString(strconv.FormatUint(uint64(v), 10))
			started = true
		}
		return nil
	}
	if lead := intg % DigitsPerGroup; lead > 0 {
		if err := emitInt(lead); err != nil {
			return "", err
		}
	}
	for i := 0; i < intg/DigitsPerGroup; i++ {
		if err := emitInt(DigitsPerGroup); err != nil {
			return "", err
		}
	}
	if !started {
		sb.WriteByte('0')
	}

	nonZero := started
	if scale > 0 {
		sb.WriteByte('.')
		for remaining := scale; remaining > 0; remaining -= DigitsPerGroup {
			digits := DigitsPerGroup
			if remaining < DigitsPerGroup {
				digits = remaining
			}
			v, err := d.group(pos, digits)
			if err != nil {
				return "", err
			}
			pos += bytesForDigits[digits]
			if v != 0 {
				nonZero = true
			}
			sb.WriteString(zeroPad(v, digits))
		}
	}

	if negative && nonZero {
		return "-" + sb.String(), nil
	}
	return sb.String(), nil
}

type decoder struct {
	src   []byte
	first int
	mask  uint32
}

// group reads one digit group. The sign bit of the first byte is undone on a
// local copy.
func (d decoder) group(pos int, digits int) (uint32, error) {
	n := bytesForDigits[digits]
	var u uint32
	for k := 0; k < n; k++ {
		b := d.src[pos+k]
		if pos+k == d.first {
			b ^= 0x80
		}
		u = u<<8 | uint32(b)
	}
	u ^= d.mask
	if n < GroupBytes {
		u &= 1<<(8*uint(n)) - 1
	}
	if u >= powers10[digits] {
		return 0, errors.Wrapf(basic.ErrCorruptRow, "decimal group %d exceeds %d digits", u, digits)
	}
	return u, nil
}

func zeroPad(v uint32, width int) string {
	s := strconv.FormatUint(uint64(v), 10)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
