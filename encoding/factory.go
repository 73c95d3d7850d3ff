package encoding

import (
	"fmt"

	"github.com/arloliu/tsfkit/errs"
	"github.com/arloliu/tsfkit/format"
)

// NewIntEncoder creates the integer encoder for the given encoding type.
//
// Supported encodings are TypePlain, TypeTS2Diff, TypeRLE and TypeRLBE. Any other
// encoding returns errs.ErrUnsupportedEncoding.
func NewIntEncoder[T Integer](enc format.EncodingType, opts ...EncoderOption) (IntEncoder[T], error) {
	switch enc {
	case format.TypePlain:
		return asIntEncoder[T](NewPlainEncoder[T](opts...))
	case format.TypeTS2Diff:
		return asIntEncoder[T](NewDeltaBinaryEncoder[T](opts...))
	case format.TypeRLE:
		return asIntEncoder[T](NewRLEEncoder[T](opts...))
	case format.TypeRLBE:
		return asIntEncoder[T](NewRLBEEncoder[T](opts...))
	default:
		return nil, fmt.Errorf("%w: %s encoding with %s data type",
			errs.ErrUnsupportedEncoding, enc, intDataType[T]())
	}
}

// NewIntDecoder creates the integer decoder matching NewIntEncoder.
func NewIntDecoder[T Integer](enc format.EncodingType, opts ...EncoderOption) (IntDecoder[T], error) {
	switch enc {
	case format.TypePlain:
		return asIntDecoder[T](NewPlainDecoder[T](opts...))
	case format.TypeTS2Diff:
		return NewDeltaBinaryDecoder[T](), nil
	case format.TypeRLE:
		return NewRLEDecoder[T](), nil
	case format.TypeRLBE:
		return NewRLBEDecoder[T](), nil
	default:
		return nil, fmt.Errorf("%w: %s encoding with %s data type",
			errs.ErrUnsupportedEncoding, enc, intDataType[T]())
	}
}

// asIntEncoder keeps a failed constructor from yielding a non-nil interface.
func asIntEncoder[T Integer, E IntEncoder[T]](e E, err error) (IntEncoder[T], error) {
	if err != nil {
		return nil, err
	}

	return e, nil
}

func asIntDecoder[T Integer, D IntDecoder[T]](d D, err error) (IntDecoder[T], error) {
	if err != nil {
		return nil, err
	}

	return d, nil
}

func intDataType[T Integer]() format.DataType {
	if bitsOf[T]() == 32 {
		return format.Int32
	}

	return format.Int64
}
