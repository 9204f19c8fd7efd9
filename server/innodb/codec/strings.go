package codec

import (
	"strings"
	"unicode/utf8"

	"github.com/piex/transcode"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/basic"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/metadata"
	"github.com/zhukovaskychina/xmysql-rowstore/util"
)

// EncodeCharset converts a Go string into the stored bytes of charset.
func EncodeCharset(s string, charset metadata.Charset) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, errors.Wrapf(basic.ErrTypeMismatch, "string is not valid UTF-8")
	}
	switch charset {
	case metadata.CharsetGBK:
		encoded, err := simplifiedchinese.GBK.NewEncoder().String(s)
		if err != nil {
			return nil, errors.Wrapf(basic.ErrEncodingOverflow, "%U is not in charset gbk", firstUnmappable(s))
		}
		return []byte(encoded), nil
	case metadata.CharsetUTF8:
		for _, r := range s {
			if utf8.RuneLen(r) > 3 {
				return nil, errors.Wrapf(basic.ErrEncodingOverflow, "%U needs 4 bytes, charset utf8 stores at most 3", r)
			}
		}
	}
	return []byte(s), nil
}

func firstUnmappable(s string) rune {
	enc := simplifiedchinese.GBK.NewEncoder()
	for _, r := range s {
		if _, err := enc.String(string(r)); err != nil {
			return r
		}
		enc.Reset()
	}
	return utf8.RuneError
}

// DecodeCharset converts stored bytes of charset back into a Go string.
// Bytes that are not valid in charset mean the row is damaged.
func DecodeCharset(b []byte, charset metadata.Charset) (string, error) {
	var s string
	if charset == metadata.CharsetGBK {
		// U+FFFD has no GBK code, so it only appears for invalid input
		s = transcode.FromByteArray(b).Decode("GBK").ToString()
		if strings.ContainsRune(s, utf8.RuneError) {
			return "", errors.Wrapf(basic.ErrCorruptRow, "bytes % X are not valid gbk", b)
		}
		return s, nil
	}
	s = string(b)
	if !utf8.ValidString(s) {
		return "", errors.Wrapf(basic.ErrCorruptRow, "bytes % X are not valid %s", b, charset)
	}
	return s, nil
}

func putPrefixed(f *metadata.FieldSchema, payload []byte, dest []byte, offset int) (int, error) {
	width := f.LengthPrefixSize() + len(payload)
	if err := checkRoom(f, dest, offset, width); err != nil {
		return 0, err
	}
	cursor := util.WriteUBN(dest, offset, f.LengthPrefixSize(), uint64(len(payload)))
	util.WriteBytes(dest, cursor, payload)
	return width, nil
}

func getPrefixed(f *metadata.FieldSchema, src []byte) ([]byte, error) {
	prefix := f.LengthPrefixSize()
	if len(src) < prefix {
		return nil, errors.Wrapf(basic.ErrCorruptRow, "field %s has %d bytes, shorter than its length prefix", f.Name(), len(src))
	}
	cursor, n := util.ReadUBN(src, 0, prefix)
	if int(n) != len(src)-prefix {
		return nil, errors.Wrapf(basic.ErrCorruptRow, "field %s length prefix %d, payload is %d bytes", f.Name(), n, len(src)-prefix)
	}
	_, payload := util.ReadBytes(src, cursor, int(n))
	return payload, nil
}

func checkStorage(f *metadata.FieldSchema, payload []byte) error {
	if f.LengthPrefixSize()+len(payload) > f.MaxStorageSize() {
		return errors.Wrapf(basic.ErrEncodingOverflow, "%d bytes exceed max storage %d of %s", f.LengthPrefixSize()+len(payload), f.MaxStorageSize(), f.Name())
	}
	return nil
}

type varcharCodec struct{}

func (varcharCodec) encode(f *metadata.FieldSchema, v basic.Value) ([]byte, error) {
	s, err := v.Str()
	if err != nil {
		return nil, errors.WithMessagef(err, "field %s", f.Name())
	}
	if n := utf8.RuneCountInString(s); n > f.MaxLength() {
		return nil, errors.Wrapf(basic.ErrEncodingOverflow, "%d characters exceed VARCHAR(%d) %s", n, f.MaxLength(), f.Name())
	}
	payload, err := EncodeCharset(s, f.Charset())
	if err != nil {
		return nil, errors.WithMessagef(err, "field %s", f.Name())
	}
	if err := checkStorage(f, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c varcharCodec) Width(f *metadata.FieldSchema, v basic.Value) (int, error) {
	payload, err := c.encode(f, v)
	if err != nil {
		return 0, err
	}
	return f.LengthPrefixSize() + len(payload), nil
}

func (c varcharCodec) Put(f *metadata.FieldSchema, v basic.Value, dest []byte, offset int) (int, error) {
	payload, err := c.encode(f, v)
	if err != nil {
		return 0, err
	}
	return putPrefixed(f, payload, dest, offset)
}

func (varcharCodec) Get(f *metadata.FieldSchema, src []byte) (basic.Value, error) {
	payload, err := getPrefixed(f, src)
	if err != nil {
		return basic.Null(), err
	}
	s, err := DecodeCharset(payload, f.Charset())
	if err != nil {
		return basic.Null(), errors.WithMessagef(err, "field %s", f.Name())
	}
	return basic.NewString(s), nil
}

type varbinaryCodec struct{}

func (varbinaryCodec) payload(f *metadata.FieldSchema, v basic.Value) ([]byte, error) {
	b, err := v.Bytes()
	if err != nil {
		return nil, errors.WithMessagef(err, "field %s", f.Name())
	}
	if len(b) > f.MaxLength() {
		return nil, errors.Wrapf(basic.ErrEncodingOverflow, "%d bytes exceed VARBINARY(%d) %s", len(b), f.MaxLength(), f.Name())
	}
	return b, checkStorage(f, b)
}

func (c varbinaryCodec) Width(f *metadata.FieldSchema, v basic.Value) (int, error) {
	b, err := c.payload(f, v)
	if err != nil {
		return 0, err
	}
	return f.LengthPrefixSize() + len(b), nil
}

func (c varbinaryCodec) Put(f *metadata.FieldSchema, v basic.Value, dest []byte, offset int) (int, error) {
	b, err := c.payload(f, v)
	if err != nil {
		return 0, err
	}
	return putPrefixed(f, b, dest, offset)
}

func (varbinaryCodec) Get(f *metadata.FieldSchema, src []byte) (basic.Value, error) {
	payload, err := getPrefixed(f, src)
	if err != nil {
		return basic.Null(), err
	}
	return basic.NewBytes(append([]byte(nil), payload...)), nil
}
