package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	require.NoError(t, cmd.Execute(), out.String())

	return out.String()
}

func writeCSV(t *testing.T, dir string, lines ...string) string {
	t.Helper()

	path := filepath.Join(dir, "series.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))

	return path
}

func TestEncodeInspect(t *testing.T) {
	dir := t.TempDir()
	in := writeCSV(t, dir,
		"ts,value",
		"1000,21.5",
		"2000,21.75",
		"3000,22",
		"4000,-3.25",
		"5000,19",
	)
	out := filepath.Join(dir, "series.tsf")

	msg := run(t, "encode", "--in", in, "--out", out, "--series", "room.temp", "--chunk-size", "2", "--compression", "zstd")
	require.Contains(t, msg, "wrote 5 values in 3 chunks")

	var report fileReport
	require.NoError(t, yaml.Unmarshal([]byte(run(t, "inspect", out, "--output", "yaml", "--values")), &report))

	require.Len(t, report.Chunks, 3)
	first := report.Chunks[0]
	require.Equal(t, "DOUBLE", first.DataType)
	require.Equal(t, "Zstd", first.Compression)
	require.Equal(t, uint32(2), first.Count)
	require.True(t, first.Verified)
	require.Equal(t, int64(1000), first.Stats.StartTime)
	require.Equal(t, int64(2000), first.Stats.EndTime)
	require.Len(t, first.Values, 2)
	require.InDelta(t, 21.75, first.Values[1].Value, 1e-9)

	last := report.Chunks[2]
	require.Equal(t, uint32(1), last.Count)
	require.InDelta(t, 19.0, last.Stats.Max, 1e-9)
}

func TestEncode_ConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	in := writeCSV(t, dir, "1,true", "2,false", "3,true")
	out := filepath.Join(dir, "flags.tsf")

	cfgFile := filepath.Join(dir, "tsfkit.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
series:
  name: door
  type: boolean
  compression: lz4
chunk_size: 100
`), 0o600))
	t.Setenv("TSFKIT_SERIES_COMPRESSION", "snappy")

	run(t, "encode", "--config", cfgFile, "--in", in, "--out", out)

	text := run(t, "inspect", out)
	require.Contains(t, text, "1 chunks")
	require.Contains(t, text, "BOOLEAN")
	require.Contains(t, text, "Snappy")
	require.Contains(t, text, "TS_2DIFF/RLE")
}

func TestEncode_Errors(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bad.tsf")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"encode", "--in", writeCSV(t, dir, "1,1", "1,2"), "--out", out, "--type", "int64"})
	err := cmd.Execute()
	require.ErrorContains(t, err, "line 2")
	require.ErrorContains(t, err, "timestamp out of order")

	cmd = newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"encode", "--in", writeCSV(t, dir, "1,1"), "--out", out, "--type", "decimal"})
	require.ErrorContains(t, cmd.Execute(), "unsupported data type")
}

func TestInspect_CorruptedChunk(t *testing.T) {
	dir := t.TempDir()
	in := writeCSV(t, dir, "10,5", "20,6")
	out := filepath.Join(dir, "series.tsf")
	run(t, "encode", "--in", in, "--out", out, "--type", "int32")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff
	require.NoError(t, os.WriteFile(out, data, 0o600))

	var report fileReport
	require.NoError(t, yaml.Unmarshal([]byte(run(t, "inspect", out, "-o", "yaml")), &report))
	require.Len(t, report.Chunks, 1)
	require.False(t, report.Chunks[0].Verified)
}

func TestVersion(t *testing.T) {
	require.Equal(t, "tsfkit v"+version+"\n", run(t, "version"))
}
