package format

import "strings"

type (
	EncodingType    uint8
	CompressionType uint8
	DataType        uint8
)

const (
	TypePlain   EncodingType = 0x0 // TypePlain stores values as-is (fixed width or length-prefixed).
	TypeTS2Diff EncodingType = 0x4 // TypeTS2Diff represents frame-of-reference delta-binary encoding.
	TypeRLE     EncodingType = 0x2 // TypeRLE represents run-length encoding.
	TypeGorilla EncodingType = 0x8 // TypeGorilla represents Gorilla XOR encoding of FLOAT and DOUBLE values.
	TypeRLBE    EncodingType = 0xb // TypeRLBE represents run-length over consecutive differences.

	CompressionNone   CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd   CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2     CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4    CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
	CompressionSnappy CompressionType = 0x5 // CompressionSnappy represents Snappy block compression.

	Boolean DataType = 0x0 // Boolean is a one byte true/false value.
	Int32   DataType = 0x1 // Int32 is a 32-bit signed integer.
	Int64   DataType = 0x2 // Int64 is a 64-bit signed integer.
	Float   DataType = 0x3 // Float is an IEEE 754 single precision value.
	Double  DataType = 0x4 // Double is an IEEE 754 double precision value.
	Text    DataType = 0x5 // Text is a variable-length UTF-8 value.
	Blob    DataType = 0xa // Blob is an opaque variable-length byte value.
	String  DataType = 0xb // String is a variable-length UTF-8 value with string semantics.
)

func (e EncodingType) String() string {
	switch e {
	case TypePlain:
		return "PLAIN"
	case TypeTS2Diff:
		return "TS_2DIFF"
	case TypeRLE:
		return "RLE"
	case TypeGorilla:
		return "GORILLA"
	case TypeRLBE:
		return "RLBE"
	default:
		return "UNKNOWN"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	case CompressionSnappy:
		return "Snappy"
	default:
		return "Unknown"
	}
}

func (d DataType) String() string {
	switch d {
	case Boolean:
		return "BOOLEAN"
	case Int32:
		return "INT32"
	case Int64:
		return "INT64"
	case Float:
		return "FLOAT"
	case Double:
		return "DOUBLE"
	case Text:
		return "TEXT"
	case Blob:
		return "BLOB"
	case String:
		return "STRING"
	default:
		return "UNKNOWN"
	}
}

// IsNumeric reports whether values of the type are ordered numbers.
func (d DataType) IsNumeric() bool {
	switch d { //nolint: exhaustive
	case Int32, Int64, Float, Double:
		return true
	default:
		return false
	}
}

// IsFloating reports whether values of the type are IEEE 754 numbers.
func (d DataType) IsFloating() bool {
	return d == Float || d == Double
}

// IsBinary reports whether values of the type are variable-length byte strings.
func (d DataType) IsBinary() bool {
	switch d { //nolint: exhaustive
	case Text, Blob, String:
		return true
	default:
		return false
	}
}

// ParseDataType returns the data type named by s, ignoring case.
func ParseDataType(s string) (DataType, bool) {
	for _, d := range []DataType{Boolean, Int32, Int64, Float, Double, Text, Blob, String} {
		if strings.EqualFold(d.String(), s) {
			return d, true
		}
	}

	return 0, false
}

// ParseEncodingType returns the encoding type named by s, ignoring case.
func ParseEncodingType(s string) (EncodingType, bool) {
	for _, e := range []EncodingType{TypePlain, TypeTS2Diff, TypeRLE, TypeGorilla, TypeRLBE} {
		if strings.EqualFold(e.String(), s) {
			return e, true
		}
	}

	return 0, false
}

// ParseCompressionType returns the compression type named by s, ignoring case.
func ParseCompressionType(s string) (CompressionType, bool) {
	for _, c := range []CompressionType{CompressionNone, CompressionZstd, CompressionS2, CompressionLZ4, CompressionSnappy} {
		if strings.EqualFold(c.String(), s) {
			return c, true
		}
	}

	return 0, false
}

// IsValid reports whether d is a known data type.
func (d DataType) IsValid() bool {
	switch d {
	case Boolean, Int32, Int64, Float, Double, Text, Blob, String:
		return true
	default:
		return false
	}
}

// IsValid reports whether e is a known encoding type.
func (e EncodingType) IsValid() bool {
	switch e {
	case TypePlain, TypeTS2Diff, TypeRLE, TypeGorilla, TypeRLBE:
		return true
	default:
		return false
	}
}

// IsValid reports whether c is a known compression type.
func (c CompressionType) IsValid() bool {
	switch c {
	case CompressionNone, CompressionZstd, CompressionS2, CompressionLZ4, CompressionSnappy:
		return true
	default:
		return false
	}
}
