package basic

import (
	jerrors "github.com/juju/errors"
	"github.com/pkg/errors"
)

// 行读取错误
var (
	ErrCorruptRow      = errors.New("corrupt row")
	ErrFieldOutOfRange = errors.New("field index out of range")
	ErrValueIsNull     = errors.New("value is null")
	ErrCorruptBlock    = errors.New("corrupt row batch block")
)

// 行构造错误
var (
	ErrEncodingOverflow     = errors.New("encoded value exceeds max storage size")
	ErrInternalConsistency  = errors.New("internal consistency violation")
	ErrBufferBoundsExceeded = errors.New("buffer bounds exceeded")
	ErrBufferNotGrowable    = errors.New("buffer is not growable")
	ErrBuilderState         = errors.New("row builder used out of order")
	ErrTypeMismatch         = errors.New("value type does not match column type")
)

// 模式错误
var (
	ErrInvalidSchema  = errors.New("invalid schema")
	ErrSchemaNotFound = errors.New("schema not found")
)

// Cause strips juju traces and pkg/errors wrappers down to the sentinel.
func Cause(err error) error {
	if err == nil {
		return nil
	}
	return errors.Cause(jerrors.Cause(err))
}

func IsCorruptRow(err error) bool {
	return Cause(err) == ErrCorruptRow
}

func IsCorruptBlock(err error) bool {
	return Cause(err) == ErrCorruptBlock
}

func IsFieldOutOfRange(err error) bool {
	return Cause(err) == ErrFieldOutOfRange
}

func IsValueIsNull(err error) bool {
	return Cause(err) == ErrValueIsNull
}

func IsEncodingOverflow(err error) bool {
	return Cause(err) == ErrEncodingOverflow
}

func IsInternalConsistency(err error) bool {
	return Cause(err) == ErrInternalConsistency
}

func IsBufferBoundsExceeded(err error) bool {
	return Cause(err) == ErrBufferBoundsExceeded
}
