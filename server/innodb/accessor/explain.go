package accessor

import (
	"fmt"
	"strings"

	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/codec"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/metadata"
	"github.com/zhukovaskychina/xmysql-rowstore/server/innodb/record"
	"github.com/zhukovaskychina/xmysql-rowstore/util"
)

// Explain renders the envelope of the current row and, per field, its
// location and decoded value. Fields that cannot be decoded show the error
// instead, so a corrupt row can still be inspected.
func Explain(table *metadata.TableSchema, rb *record.RowBuffer) string {
	var sb strings.Builder
	nullMap := make([]string, 0, len(rb.NullBitmap()))
	for _, b := range rb.NullBitmap() {
		nullMap = append(nullMap, util.ToBinaryString(b))
	}
	fmt.Fprintf(&sb, "table %s (id %d, version %d) row [%d,%d) schema id %d, %d fields, null map %s\n",
		table.Name(), table.ID(), table.Version(), rb.RowStart(), rb.RowEnd(), rb.SchemaID(), rb.FieldCount(), strings.Join(nullMap, " "))
	for i, f := range table.Fields() {
		fmt.Fprintf(&sb, "  %3d %-16s %-10s ", i, f.Name(), f.Type())
		loc, err := table.LocateField(rb, i)
		switch {
		case err != nil:
			fmt.Fprintf(&sb, "error: %v\n", err)
			continue
		case loc.IsNull():
			sb.WriteString("NULL\n")
			continue
		}
		fmt.Fprintf(&sb, "@%d+%d ", loc.Offset()-rb.RowStart(), loc.Width())
		v, err := codec.Get(f, rb.FieldBytes(loc))
		if err != nil {
			fmt.Fprintf(&sb, "error: %v\n", err)
			continue
		}
		fmt.Fprintf(&sb, "%s\n", v)
	}
	return sb.String()
}
