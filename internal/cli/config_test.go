package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sink.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	path := writeConfig(t, `
db_path: ./logs.db
table_name: AppLogs
store_timestamp_in_utc: true
min_level: Warning
format_locale: en-US
batch_size: 250
max_buffer_size: 50000
flush_interval: 5s
retention_period: 24h
retention_check_interval: 30m
max_db_mb: 100
roll_over: false
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "./logs.db", cfg.DBPath)
	assert.Equal(t, "AppLogs", cfg.TableName)
	assert.True(t, cfg.StoreTimestampInUTC)
	assert.Equal(t, "Warning", cfg.MinLevel)
	assert.Equal(t, 250, cfg.BatchSize)
	require.NotNil(t, cfg.RollOver)
	assert.False(t, *cfg.RollOver)

	dbPath, opts, err := cfg.SinkOptions()
	require.NoError(t, err)
	assert.Equal(t, "./logs.db", dbPath)
	assert.Len(t, opts, 10)
}

func TestLoadConfig_MinimalConfig(t *testing.T) {
	path := writeConfig(t, "db_path: ./logs.db\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	dbPath, opts, err := cfg.SinkOptions()
	require.NoError(t, err)
	assert.Equal(t, "./logs.db", dbPath)
	assert.Empty(t, opts, "unset fields keep sink defaults")
}

func TestLoadConfig_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing db_path", "table_name: Logs\n"},
		{"empty db_path", `db_path: ""` + "\n"},
		{"unknown field", "db_path: ./l.db\nbogus_knob: 1\n"},
		{"zero batch size", "db_path: ./l.db\nbatch_size: 0\n"},
		{"db cap over ceiling", "db_path: ./l.db\nmax_db_mb: 99999\n"},
		{"bad level", "db_path: ./l.db\nmin_level: Loud\n"},
		{"not yaml", "{{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_FileMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSinkOptions_BadValues(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"bad flush interval", Config{DBPath: "x.db", FlushInterval: "10 parsecs"}},
		{"bad retention period", Config{DBPath: "x.db", RetentionPeriod: "soon"}},
		{"bad check interval", Config{DBPath: "x.db", RetentionPeriod: "24h", RetentionCheckInterval: "often"}},
		{"bad locale", Config{DBPath: "x.db", FormatLocale: "no-such-locale-tag!"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.cfg.SinkOptions()
			assert.Error(t, err)
		})
	}
}

func TestSinkOptions_CheckIntervalDefaultsToPeriod(t *testing.T) {
	cfg := Config{DBPath: "x.db", RetentionPeriod: "2h"}
	_, opts, err := cfg.SinkOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 1)
}
