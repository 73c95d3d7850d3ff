// Package encoding provides the chunk codecs of tsfkit.
//
// Every codec buffers the values of one chunk and writes them as a single
// self-describing payload on Flush. Decoders consume exactly one payload and
// report how many bytes they used, so payloads can be concatenated.
//
// # Integer codecs
//
// Integer codecs are generic over int32 and int64 and are selected with
// NewIntEncoder and NewIntDecoder:
//   - TypeTS2Diff: DeltaBinaryEncoder, frame-of-reference batches with bit-packed deltas
//   - TypeRLE: RLEEncoder, runs of repeated values
//   - TypeRLBE: RLBEEncoder, runs of equal consecutive differences
//   - TypePlain: PlainEncoder, fixed-width values
//
// Example:
//
//	enc, err := encoding.NewDeltaBinaryEncoder[int64](encoding.WithBatchSize(64))
//	if err != nil {
//	    return err
//	}
//	defer enc.Finish()
//
//	enc.WriteSlice(values)
//	var buf bytes.Buffer
//	if err := enc.Flush(&buf); err != nil {
//	    return err
//	}
//
//	decoded, _, err := encoding.NewDeltaBinaryDecoder[int64]().Decode(buf.Bytes(), nil)
//
// # Floating-point codec
//
// FloatEncoder scales values by a power of ten and stores them through one of
// the integer codecs. Values that overflow the backend after scaling are stored
// rounded but unscaled and flagged in a bitmap, so overflow never fails an
// encode. See FloatEncoder for the payload layout.
//
// # Binary codec
//
// PlainBinaryEncoder stores variable-length values with a varint length prefix.
//
// Encoders are single-writer and not safe for concurrent use. Decoders are
// stateless values and may be shared.
package encoding
