package sqlitesink

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/saleem-mirza/serilog-sinks-sqlite/event"
)

// Defaults and limits for sink configuration.
const (
	DefaultTableName         = "Logs"
	DefaultBatchSize         = 100
	DefaultMaxBufferSize     = 100_000
	DefaultFlushInterval     = 10 * time.Second
	DefaultMaxDatabaseSizeMB = 10

	// MaxDatabaseSizeMB is the hard ceiling on the configurable size cap.
	MaxDatabaseSizeMB = 20_480

	// minFlushInterval keeps the time trigger from busy-flushing.
	minFlushInterval = 100 * time.Millisecond

	// minRetentionPeriod floors the retention cut-off.
	minRetentionPeriod = 30 * time.Minute

	// minRetentionInterval floors the sweep period; configured intervals
	// are also rounded down to a multiple of it.
	minRetentionInterval = 15 * time.Minute
)

type config struct {
	path              string
	table             string
	utc               bool
	locale            language.Tag
	minLevel          event.Level
	batchSize         int
	maxBufferSize     int
	flushInterval     time.Duration
	retentionPeriod   time.Duration
	retentionInterval time.Duration
	maxDBSizeMB       int64
	rollOver          bool
	logger            *logrus.Logger
}

// Option configures a Sink at construction.
type Option func(*config)

// WithTableName sets the log table name. Default "Logs".
func WithTableName(name string) Option {
	return func(c *config) {
		c.table = name
	}
}

// WithUTCTimestamps stores timestamps (and retention cut-offs) in UTC
// instead of the event's own offset.
func WithUTCTimestamps() Option {
	return func(c *config) {
		c.utc = true
	}
}

// WithFormatProvider sets the locale used when rendering message
// templates. Default is the undetermined locale.
func WithFormatProvider(tag language.Tag) Option {
	return func(c *config) {
		c.locale = tag
	}
}

// WithMinimumLevel drops events below the given severity at Emit.
// Default LevelVerbose (no filtering).
func WithMinimumLevel(l event.Level) Option {
	return func(c *config) {
		c.minLevel = l
	}
}

// WithBatchSize sets the size trigger for dispatching a batch.
// Default 100.
func WithBatchSize(n int) Option {
	return func(c *config) {
		c.batchSize = n
	}
}

// WithMaxBufferSize caps the in-memory queue. Events arriving while the
// queue is full are dropped and counted. Default 100,000.
func WithMaxBufferSize(n int) Option {
	return func(c *config) {
		c.maxBufferSize = n
	}
}

// WithFlushInterval sets the time trigger: a batch is dispatched after
// this much inactivity with pending events. Default 10s.
func WithFlushInterval(d time.Duration) Option {
	return func(c *config) {
		c.flushInterval = d
	}
}

// WithRetention enables the periodic deletion of rows older than period.
// The period is floored to 30 minutes; checkInterval is floored to 15
// minutes and rounded down to a multiple of 15 minutes.
func WithRetention(period, checkInterval time.Duration) Option {
	return func(c *config) {
		c.retentionPeriod = period
		c.retentionInterval = checkInterval
	}
}

// WithMaxDatabaseSize caps the database file size in megabytes.
// Default 10, ceiling 20,480.
func WithMaxDatabaseSize(mb int64) Option {
	return func(c *config) {
		c.maxDBSizeMB = mb
	}
}

// WithRollover controls the full-database policy: when enabled (the
// default) the file is archived and the live table emptied, then the
// batch retried once; when disabled the offending batch is dropped.
func WithRollover(enabled bool) Option {
	return func(c *config) {
		c.rollOver = enabled
	}
}

// WithLogger sets the diagnostic (self-log) logger. Write-path errors,
// drops, rollovers and retention results are reported here. Default
// discards everything.
func WithLogger(l *logrus.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

func defaultConfig(path string) config {
	return config{
		path:          path,
		table:         DefaultTableName,
		locale:        language.Und,
		minLevel:      event.LevelVerbose,
		batchSize:     DefaultBatchSize,
		maxBufferSize: DefaultMaxBufferSize,
		flushInterval: DefaultFlushInterval,
		maxDBSizeMB:   DefaultMaxDatabaseSizeMB,
		rollOver:      true,
	}
}

func (c *config) validate() error {
	if c.path == "" {
		return fmt.Errorf("%w: database path is required", ErrInvalidConfiguration)
	}
	if c.table == "" {
		return fmt.Errorf("%w: table name is required", ErrInvalidConfiguration)
	}
	if c.batchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidConfiguration, c.batchSize)
	}
	if c.maxBufferSize < c.batchSize {
		return fmt.Errorf("%w: buffer size %d is smaller than batch size %d", ErrInvalidConfiguration, c.maxBufferSize, c.batchSize)
	}
	if c.flushInterval < minFlushInterval {
		return fmt.Errorf("%w: flush interval %v is below the %v floor", ErrInvalidConfiguration, c.flushInterval, minFlushInterval)
	}
	if c.maxDBSizeMB <= 0 || c.maxDBSizeMB > MaxDatabaseSizeMB {
		return fmt.Errorf("%w: max database size must be in (0, %d] MB, got %d", ErrInvalidConfiguration, MaxDatabaseSizeMB, c.maxDBSizeMB)
	}
	if c.retentionPeriod < 0 || c.retentionInterval < 0 {
		return fmt.Errorf("%w: retention durations must not be negative", ErrInvalidConfiguration)
	}
	return nil
}

// selfLog returns the configured logger or a discard logger.
func (c *config) selfLog() *logrus.Logger {
	if c.logger != nil {
		return c.logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// retentionCutoffPeriod applies the 30-minute floor to a configured
// retention period.
func retentionCutoffPeriod(d time.Duration) time.Duration {
	if d < minRetentionPeriod {
		return minRetentionPeriod
	}
	return d
}

// retentionSweepInterval floors the configured sweep interval to 15
// minutes and rounds it down to a multiple of 15 minutes.
func retentionSweepInterval(d time.Duration) time.Duration {
	if d < minRetentionInterval {
		return minRetentionInterval
	}
	return d - d%minRetentionInterval
}
