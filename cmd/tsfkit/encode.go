package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arloliu/tsfkit/chunk"
	"github.com/arloliu/tsfkit/format"
)

func newEncodeCmd(a *app) *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a CSV series into a chunk file",
		Long: `Encode reads "timestamp,value" records and writes one chunk every
chunk_size records. A first record whose timestamp is not an integer is
treated as a header and skipped.

Example:
  tsfkit encode --in cpu.csv --out cpu.tsf --type int64 --compression zstd`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.encode(cmd, in, out)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&in, "in", "", "Path to the input CSV file (required)")
	flags.StringVar(&out, "out", "", "Path to the output chunk file (required)")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")

	flags.String("series", "series", "Series name")
	flags.String("type", format.Double.String(), "Value data type (BOOLEAN, INT32, INT64, FLOAT, DOUBLE, TEXT, STRING, BLOB)")
	flags.String("time-encoding", format.TypeTS2Diff.String(), "Timestamp encoding")
	flags.String("value-encoding", "", "Value encoding (default depends on the data type)")
	flags.Int("precision", chunk.DefaultPrecision, "Decimal digits kept for FLOAT and DOUBLE values")
	flags.String("compression", format.CompressionNone.String(), "Payload compression (None, Zstd, S2, LZ4, Snappy)")
	flags.Int("chunk-size", 4096, "Records per chunk")

	for key, flag := range map[string]string{
		"series.name":           "series",
		"series.type":           "type",
		"series.time_encoding":  "time-encoding",
		"series.value_encoding": "value-encoding",
		"series.precision":      "precision",
		"series.compression":    "compression",
		"chunk_size":            "chunk-size",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	return cmd
}

func (a *app) encode(cmd *cobra.Command, in, out string) error {
	cfg, err := a.cfg.Series.ChunkConfig()
	if err != nil {
		return err
	}

	w, err := chunk.NewWriter(cfg, chunk.WithLogger(a.logger))
	if err != nil {
		return err
	}
	defer w.Close()

	src, err := os.Open(in)
	if err != nil {
		return fmt.Errorf("failed to open input %s: %w", in, err)
	}
	defer src.Close()

	dst, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create output %s: %w", out, err)
	}
	defer dst.Close()

	enc := &seriesEncoder{w: w, dst: dst, chunkSize: a.cfg.ChunkSize}
	if err := enc.copyCSV(src); err != nil {
		return err
	}
	if err := dst.Sync(); err != nil {
		return err
	}

	a.logger.Info("series encoded",
		zap.String("input", in),
		zap.String("output", out),
		zap.Int("values", enc.values),
		zap.Int("chunks", enc.chunks),
		zap.Int("bytes", enc.bytes),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d values in %d chunks (%d bytes) to %s\n",
		enc.values, enc.chunks, enc.bytes, out)

	return nil
}

// seriesEncoder feeds CSV records to a chunk writer and appends every flushed
// chunk to dst.
type seriesEncoder struct {
	w         *chunk.Writer
	dst       io.Writer
	chunkSize int

	values int
	chunks int
	bytes  int
}

func (e *seriesEncoder) copyCSV(r io.Reader) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		ts, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
		if err != nil {
			if line == 1 {
				continue
			}

			return fmt.Errorf("line %d: invalid timestamp %q", line, rec[0])
		}
		if err := e.write(ts, rec[1]); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		e.values++
		if e.w.Len() >= e.chunkSize || e.w.IsFull() {
			if err := e.flush(); err != nil {
				return err
			}
		}
	}

	if e.w.Len() > 0 {
		return e.flush()
	}

	return nil
}

func (e *seriesEncoder) write(ts int64, field string) error {
	dataType := e.w.Config().DataType
	if dataType.IsBinary() {
		return e.w.WriteString(ts, field)
	}

	field = strings.TrimSpace(field)
	switch dataType {
	case format.Boolean:
		v, err := strconv.ParseBool(field)
		if err != nil {
			return err
		}

		return e.w.WriteBool(ts, v)
	case format.Int32:
		v, err := strconv.ParseInt(field, 10, 32)
		if err != nil {
			return err
		}

		return e.w.WriteInt32(ts, int32(v))
	case format.Int64:
		v, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return err
		}

		return e.w.WriteInt64(ts, v)
	case format.Float:
		v, err := strconv.ParseFloat(field, 32)
		if err != nil {
			return err
		}

		return e.w.WriteFloat32(ts, float32(v))
	default:
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return err
		}

		return e.w.WriteFloat64(ts, v)
	}
}

func (e *seriesEncoder) flush() error {
	c, err := e.w.Flush()
	if err != nil {
		return err
	}

	data, err := c.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := e.dst.Write(data); err != nil {
		return err
	}

	e.chunks++
	e.bytes += len(data)

	return nil
}
