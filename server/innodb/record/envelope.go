package record

// Row envelope, offsets relative to the row start. Integers are big-endian.
//
//	0    total record length Z   4
//	4    leading signature "AB"  2
//	6    field count             2
//	8    schema id               4
//	12   null bitmap             ceil(fieldCount/8)
//	...  fixed section, then variable section
//	Z-6  trailing signature "BA" 2
//	Z-4  trailing length Z       4
const (
	SignatureA uint16 = 0x4142
	SignatureB uint16 = 0x4241

	OffsetLengthA    = 0
	OffsetSignatureA = 4
	OffsetFieldCount = 6
	OffsetSchemaID   = 8
	OffsetNullMap    = 12

	// negative offsets are relative to the row end
	OffsetSignatureB = -6
	OffsetLengthB    = -4

	HeaderSize  = OffsetNullMap
	TrailerSize = 6

	MinimumRecordLength = HeaderSize + TrailerSize
)

// Location packs a field's absolute byte offset and width as
// offset | width<<32. The zero Location means the field is null.
type Location uint64

const NoLocation Location = 0

func MakeLocation(offset, width int) Location {
	return Location(uint64(uint32(offset)) | uint64(uint32(width))<<32)
}

func (l Location) Offset() int {
	return int(uint32(l))
}

func (l Location) Width() int {
	return int(uint32(l >> 32))
}

func (l Location) IsNull() bool {
	return l == NoLocation
}
