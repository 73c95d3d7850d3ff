package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/arloliu/tsfkit/chunk"
	"github.com/arloliu/tsfkit/encoding"
	"github.com/arloliu/tsfkit/errs"
	"github.com/arloliu/tsfkit/format"
)

const envPrefix = "TSFKIT"

// Config is the CLI configuration, read from an optional YAML file, TSFKIT_
// environment variables and flags, in increasing priority.
type Config struct {
	Series    SeriesConfig `mapstructure:"series"`
	ChunkSize int          `mapstructure:"chunk_size"`
	Log       LogConfig    `mapstructure:"log"`
}

// SeriesConfig names the codecs of the encoded series.
type SeriesConfig struct {
	Name          string `mapstructure:"name"`
	Type          string `mapstructure:"type"`
	TimeEncoding  string `mapstructure:"time_encoding"`
	ValueEncoding string `mapstructure:"value_encoding"`
	Precision     int    `mapstructure:"precision"`
	Compression   string `mapstructure:"compression"`
	BatchSize     int    `mapstructure:"batch_size"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Encoding    string `mapstructure:"encoding"` // json or console
	Development bool   `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("series.name", "series")
	v.SetDefault("series.type", format.Double.String())
	v.SetDefault("series.time_encoding", format.TypeTS2Diff.String())
	v.SetDefault("series.value_encoding", "")
	v.SetDefault("series.precision", chunk.DefaultPrecision)
	v.SetDefault("series.compression", format.CompressionNone.String())
	v.SetDefault("series.batch_size", encoding.DefaultBatchSize)
	v.SetDefault("chunk_size", 4096)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", false)
}

// loadConfig reads file, when given, then the environment into a Config.
func loadConfig(v *viper.Viper, file string) (Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.ChunkSize <= 0 || cfg.ChunkSize > encoding.MaxChunkValues {
		return Config{}, fmt.Errorf("chunk_size must be in [1, %d], got %d", encoding.MaxChunkValues, cfg.ChunkSize)
	}

	return cfg, nil
}

// ChunkConfig resolves the series names into a chunk.Config.
func (s SeriesConfig) ChunkConfig() (chunk.Config, error) {
	dataType, ok := format.ParseDataType(s.Type)
	if !ok {
		return chunk.Config{}, fmt.Errorf("%w: %q", errs.ErrUnsupportedType, s.Type)
	}

	cfg := chunk.DefaultConfig(s.Name, dataType)
	cfg.Precision = s.Precision
	cfg.BatchSize = s.BatchSize

	if s.TimeEncoding != "" {
		if cfg.TimeEncoding, ok = format.ParseEncodingType(s.TimeEncoding); !ok {
			return chunk.Config{}, fmt.Errorf("%w: time encoding %q", errs.ErrUnsupportedEncoding, s.TimeEncoding)
		}
	}
	if s.ValueEncoding != "" {
		if cfg.ValueEncoding, ok = format.ParseEncodingType(s.ValueEncoding); !ok {
			return chunk.Config{}, fmt.Errorf("%w: value encoding %q", errs.ErrUnsupportedEncoding, s.ValueEncoding)
		}
	}
	if cfg.Compression, ok = format.ParseCompressionType(s.Compression); !ok {
		return chunk.Config{}, fmt.Errorf("%w: %q", errs.ErrUnsupportedCompression, s.Compression)
	}

	return cfg, nil
}
