package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/tsfkit/chunk"
	"github.com/arloliu/tsfkit/errs"
	"github.com/arloliu/tsfkit/stats"
)

// fileReport is the inspect output of a chunk file.
type fileReport struct {
	Path   string        `yaml:"path"`
	Size   int           `yaml:"size"`
	Chunks []chunkReport `yaml:"chunks"`
}

type chunkReport struct {
	Index            int          `yaml:"index"`
	SeriesID         string       `yaml:"series_id"`
	DataType         string       `yaml:"data_type"`
	TimeEncoding     string       `yaml:"time_encoding"`
	ValueEncoding    string       `yaml:"value_encoding"`
	Compression      string       `yaml:"compression"`
	Precision        uint32       `yaml:"precision,omitempty"`
	Count            uint32       `yaml:"count"`
	UncompressedSize uint32       `yaml:"uncompressed_size"`
	CompressedSize   uint32       `yaml:"compressed_size"`
	Checksum         string       `yaml:"checksum"`
	Verified         bool         `yaml:"verified"`
	Stats            statsReport  `yaml:"stats"`
	Values           []pairReport `yaml:"values,omitempty"`
}

type statsReport struct {
	StartTime int64 `yaml:"start_time"`
	EndTime   int64 `yaml:"end_time"`
	First     any   `yaml:"first"`
	Last      any   `yaml:"last"`
	Min       any   `yaml:"min,omitempty"`
	Max       any   `yaml:"max,omitempty"`
	Sum       any   `yaml:"sum,omitempty"`
}

type pairReport struct {
	Timestamp int64 `yaml:"ts"`
	Value     any   `yaml:"value"`
}

func newInspectCmd(a *app) *cobra.Command {
	var (
		output     string
		withValues bool
	)

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Describe the chunks of a chunk file",
		Long: `Inspect parses every chunk of FILE, verifies its checksum by decoding it and
prints its header and statistics.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.inspect(args[0], withValues)
			if err != nil {
				return err
			}

			switch output {
			case "yaml":
				return writeYAML(cmd.OutOrStdout(), report)
			case "text":
				return writeText(cmd.OutOrStdout(), report)
			default:
				return fmt.Errorf("unknown output format %q", output)
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, yaml)")
	cmd.Flags().BoolVar(&withValues, "values", false, "Include the decoded values")

	return cmd
}

func (a *app) inspect(path string, withValues bool) (*fileReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	chunks, err := chunk.UnmarshalAll(data)
	if err != nil {
		return nil, err
	}

	reader, err := chunk.NewReader(chunk.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}

	report := &fileReport{Path: path, Size: len(data)}
	for i, c := range chunks {
		cr := newChunkReport(i, c)

		err := reader.Each(c, func(ts int64, v any) bool {
			if withValues {
				cr.Values = append(cr.Values, pairReport{Timestamp: ts, Value: printable(v)})
			}

			return withValues
		})
		switch {
		case err == nil:
			cr.Verified = true
		case errors.Is(err, errs.ErrChecksumMismatch), errors.Is(err, errs.ErrMalformedInput):
			a.logger.Warn("chunk failed verification", zap.Int("index", i), zap.Error(err))
		default:
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}

		report.Chunks = append(report.Chunks, cr)
	}

	return report, nil
}

func newChunkReport(i int, c *chunk.Chunk) chunkReport {
	h := c.Header

	return chunkReport{
		Index:            i,
		SeriesID:         fmt.Sprintf("%016x", h.SeriesID),
		DataType:         h.DataType.String(),
		TimeEncoding:     h.TimeEncoding.String(),
		ValueEncoding:    h.ValueEncoding.String(),
		Compression:      h.Compression.String(),
		Precision:        h.Precision,
		Count:            h.Count,
		UncompressedSize: h.UncompressedSize,
		CompressedSize:   h.CompressedSize,
		Checksum:         fmt.Sprintf("%016x", h.Checksum),
		Stats:            newStatsReport(c.Stats),
	}
}

func newStatsReport(s stats.Statistics) statsReport {
	r := statsReport{
		StartTime: s.StartTime(),
		EndTime:   s.EndTime(),
		First:     printable(s.FirstValue()),
		Last:      printable(s.LastValue()),
	}
	// unordered kinds report ErrUnsupportedOperation and stay omitted
	if v, err := s.MinValue(); err == nil {
		r.Min = v
	}
	if v, err := s.MaxValue(); err == nil {
		r.Max = v
	}
	if v, err := s.Sum(); err == nil {
		r.Sum = v
	}

	return r
}

func printable(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}

	return v
}

func writeYAML(w io.Writer, report *fileReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}

	return enc.Close()
}

func writeText(w io.Writer, report *fileReport) error {
	fmt.Fprintf(w, "%s: %d bytes, %d chunks\n", report.Path, report.Size, len(report.Chunks))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTYPE\tENCODING\tCOMPRESSION\tCOUNT\tSIZE\tSTART\tEND\tFIRST\tLAST\tOK")
	for _, c := range report.Chunks {
		fmt.Fprintf(tw, "%d\t%s\t%s/%s\t%s\t%d\t%d/%d\t%d\t%d\t%v\t%v\t%t\n",
			c.Index, c.DataType, c.TimeEncoding, c.ValueEncoding, c.Compression, c.Count,
			c.CompressedSize, c.UncompressedSize, c.Stats.StartTime, c.Stats.EndTime,
			c.Stats.First, c.Stats.Last, c.Verified)
		for _, p := range c.Values {
			fmt.Fprintf(tw, "\t%d\t%v\n", p.Timestamp, p.Value)
		}
	}

	return tw.Flush()
}
