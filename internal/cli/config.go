package cli

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	sqlitesink "github.com/saleem-mirza/serilog-sinks-sqlite"
	"github.com/saleem-mirza/serilog-sinks-sqlite/event"
)

//go:embed schema.cue
var schemaCUE string

// Config mirrors the YAML configuration file. Durations are strings in
// Go duration syntax ("10s", "24h").
type Config struct {
	DBPath                 string `yaml:"db_path"`
	TableName              string `yaml:"table_name"`
	StoreTimestampInUTC    bool   `yaml:"store_timestamp_in_utc"`
	MinLevel               string `yaml:"min_level"`
	FormatLocale           string `yaml:"format_locale"`
	BatchSize              int    `yaml:"batch_size"`
	MaxBufferSize          int    `yaml:"max_buffer_size"`
	FlushInterval          string `yaml:"flush_interval"`
	RetentionPeriod        string `yaml:"retention_period"`
	RetentionCheckInterval string `yaml:"retention_check_interval"`
	MaxDBMB                int64  `yaml:"max_db_mb"`
	RollOver               *bool  `yaml:"roll_over"`
}

// LoadConfig reads a YAML configuration file, validates it against the
// embedded CUE schema, and decodes it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Decode generically first so the schema sees exactly what was
	// written, including unknown fields.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := validateConfig(raw); err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// validateConfig unifies the decoded document with #Config.
func validateConfig(raw map[string]any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if !def.Exists() {
		return fmt.Errorf("config schema: #Config not found")
	}

	doc := ctx.Encode(raw)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SinkOptions converts the config into the sink's database path and
// option list.
func (c *Config) SinkOptions() (string, []sqlitesink.Option, error) {
	var opts []sqlitesink.Option

	if c.TableName != "" {
		opts = append(opts, sqlitesink.WithTableName(c.TableName))
	}
	if c.StoreTimestampInUTC {
		opts = append(opts, sqlitesink.WithUTCTimestamps())
	}
	if c.MinLevel != "" {
		level, err := event.ParseLevel(c.MinLevel)
		if err != nil {
			return "", nil, fmt.Errorf("min_level: %w", err)
		}
		opts = append(opts, sqlitesink.WithMinimumLevel(level))
	}
	if c.FormatLocale != "" {
		tag, err := language.Parse(c.FormatLocale)
		if err != nil {
			return "", nil, fmt.Errorf("format_locale: %w", err)
		}
		opts = append(opts, sqlitesink.WithFormatProvider(tag))
	}
	if c.BatchSize > 0 {
		opts = append(opts, sqlitesink.WithBatchSize(c.BatchSize))
	}
	if c.MaxBufferSize > 0 {
		opts = append(opts, sqlitesink.WithMaxBufferSize(c.MaxBufferSize))
	}
	if c.FlushInterval != "" {
		d, err := time.ParseDuration(c.FlushInterval)
		if err != nil {
			return "", nil, fmt.Errorf("flush_interval: %w", err)
		}
		opts = append(opts, sqlitesink.WithFlushInterval(d))
	}
	if c.RetentionPeriod != "" {
		period, err := time.ParseDuration(c.RetentionPeriod)
		if err != nil {
			return "", nil, fmt.Errorf("retention_period: %w", err)
		}
		interval := period
		if c.RetentionCheckInterval != "" {
			interval, err = time.ParseDuration(c.RetentionCheckInterval)
			if err != nil {
				return "", nil, fmt.Errorf("retention_check_interval: %w", err)
			}
		}
		opts = append(opts, sqlitesink.WithRetention(period, interval))
	}
	if c.MaxDBMB > 0 {
		opts = append(opts, sqlitesink.WithMaxDatabaseSize(c.MaxDBMB))
	}
	if c.RollOver != nil {
		opts = append(opts, sqlitesink.WithRollover(*c.RollOver))
	}

	return c.DBPath, opts, nil
}
