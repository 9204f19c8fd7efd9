package tuple

import (
	jerrors "github.com/juju/errors"

	"github.com/zhukovaskychina/xmysql-rowstore/logger"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/basic"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/metadata"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/record"
)

const (
	DefaultInitialBufferSize = 256
	DefaultMaxBufferSize     = 16 << 20

	minGrowSize = 64
)

// GrowthPolicy decides whether BuildRow may reallocate a buffer that turned
// out too small.
type GrowthPolicy struct {
	AutoGrow bool
	MaxSize  int
}

func DefaultGrowthPolicy() GrowthPolicy {
	return GrowthPolicy{AutoGrow: true, MaxSize: DefaultMaxBufferSize}
}

// BuildRow builds values as a new row after rb's current window. When the
// buffer is too small and the policy allows it, the buffer is doubled and
// the row rebuilt from scratch. Only buffers owned by a RowBuffer can grow;
// anything else reports ErrBufferNotGrowable.
//
// On failure rb's window is restored.
func BuildRow(table *metadata.TableSchema, rb *record.RowBuffer, values []basic.Value, policy GrowthPolicy) (int, error) {
	prevStart, prevEnd := rb.RowStart(), rb.RowEnd()
	start := prevEnd

	for attempt := 1; ; attempt++ {
		end, err := NewRowBuilder(table, rb).Build(values)
		if err == nil {
			return end, nil
		}
		if !basic.IsBufferBoundsExceeded(err) || !policy.AutoGrow {
			restoreWindow(rb, prevStart, prevEnd)
			return 0, jerrors.Annotatef(err, "build row of table %s", table.Name())
		}

		size := len(rb.Bytes()) * 2
		if size < minGrowSize {
			size = minGrowSize
		}
		if policy.MaxSize > 0 && size > policy.MaxSize {
			if len(rb.Bytes()) >= policy.MaxSize {
				restoreWindow(rb, prevStart, prevEnd)
				return 0, jerrors.Annotatef(err, "row of table %s exceeds max buffer size %d", table.Name(), policy.MaxSize)
			}
			size = policy.MaxSize
		}
		if growErr := rb.Grow(size); growErr != nil {
			restoreWindow(rb, prevStart, prevEnd)
			return 0, jerrors.Annotatef(growErr, "grow buffer for table %s", table.Name())
		}
		logger.Debugf("row of table %s did not fit, buffer grown to %d bytes (attempt %d)", table.Name(), size, attempt)
		if err := rb.MoveTo(start); err != nil {
			return 0, jerrors.Trace(err)
		}
	}
}

func restoreWindow(rb *record.RowBuffer, start, end int) {
	if end > start && rb.PrepareRow(start) == nil {
		return
	}
	// MoveTo only fails outside the buffer, which start never is
	_ = rb.MoveTo(start)
}
