package rowbatch

import (
	"strings"

	gxbytes "github.com/dubbogo/gost/bytes"
	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"

	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/basic"
)

// CompressType selects how a sealed block stores its rows.
type CompressType byte

const (
	CompressNone CompressType = iota
	CompressSnappy
	CompressLZ4
)

func (c CompressType) String() string {
	switch c {
	case CompressNone:
		return "none"
	case CompressSnappy:
		return "snappy"
	case CompressLZ4:
		return "lz4"
	}
	return "unknown"
}

// ParseCompressType accepts the names printed by String.
func ParseCompressType(s string) (CompressType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressNone, nil
	case "snappy":
		return CompressSnappy, nil
	case "lz4":
		return CompressLZ4, nil
	}
	return CompressNone, errors.Errorf("illegal compress type %q", s)
}

// compress appends the compressed form of raw to dst. The returned type is
// CompressNone when compression does not pay.
func compress(c CompressType, raw []byte, dst []byte) ([]byte, CompressType, error) {
	if len(raw) == 0 {
		return dst, CompressNone, nil
	}
	switch c {
	case CompressNone:
		return append(dst, raw...), CompressNone, nil

	case CompressSnappy:
		scratch := gxbytes.GetBytes(snappy.MaxEncodedLen(len(raw)))
		defer gxbytes.PutBytes(scratch)
		encoded := snappy.Encode(*scratch, raw)
		if len(encoded) >= len(raw) {
			return append(dst, raw...), CompressNone, nil
		}
		return append(dst, encoded...), CompressSnappy, nil

	case CompressLZ4:
		scratch := gxbytes.GetBytes(lz4.CompressBlockBound(len(raw)))
		defer gxbytes.PutBytes(scratch)
		n, err := lz4.CompressBlock(raw, *scratch, nil)
		if err != nil {
			return nil, c, errors.Wrap(err, "lz4 compress")
		}
		// zero means incompressible
		if n == 0 || n >= len(raw) {
			return append(dst, raw...), CompressNone, nil
		}
		return append(dst, (*scratch)[:n]...), CompressLZ4, nil
	}
	return nil, c, errors.Errorf("illegal compress type %d", c)
}

// decompress expands payload into raw, which must have the uncompressed
// length.
func decompress(c CompressType, payload []byte, raw []byte) error {
	rawLen := len(raw)
	switch c {
	case CompressNone:
		if len(payload) != rawLen {
			return errors.Wrapf(basic.ErrCorruptBlock, "stored payload is %d bytes, header says %d", len(payload), rawLen)
		}
		copy(raw, payload)

	case CompressSnappy:
		n, err := snappy.DecodedLen(payload)
		if err != nil || n != rawLen {
			return errors.Wrapf(basic.ErrCorruptBlock, "snappy payload decodes to %d bytes (%v), header says %d", n, err, rawLen)
		}
		if _, err := snappy.Decode(raw, payload); err != nil {
			return errors.Wrapf(basic.ErrCorruptBlock, "snappy decode: %v", err)
		}

	case CompressLZ4:
		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil || n != rawLen {
			return errors.Wrapf(basic.ErrCorruptBlock, "lz4 payload decodes to %d bytes (%v), header says %d", n, err, rawLen)
		}

	default:
		return errors.Wrapf(basic.ErrCorruptBlock, "unknown compress type %d", c)
	}
	return nil
}
