package cli

import (
	"bytes"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saleem-mirza/serilog-sinks-sqlite/event"
)

func TestParseLine_JSONRecord(t *testing.T) {
	line := `{"timestamp":"2024-01-02T03:04:05Z","level":"Warning","message":"disk {Disk} full","exception":"ENOSPC","properties":{"Disk":"sda"}}`

	ev := parseLine(line)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), ev.Timestamp.UTC())
	assert.Equal(t, event.LevelWarning, ev.Level)
	assert.Equal(t, "disk {Disk} full", ev.MessageTemplate)
	assert.Equal(t, "ENOSPC", ev.Exception)
	assert.Equal(t, event.Str("sda"), ev.Properties["Disk"])
}

func TestParseLine_PlainText(t *testing.T) {
	ev := parseLine("just some output")
	assert.Equal(t, event.LevelInformation, ev.Level)
	assert.Equal(t, "just some output", ev.MessageTemplate)
	assert.Empty(t, ev.Properties)
}

func TestParseLine_MalformedJSONFallsBack(t *testing.T) {
	ev := parseLine(`{"level": `)
	assert.Equal(t, event.LevelInformation, ev.Level)
	assert.Equal(t, `{"level": `, ev.MessageTemplate)
}

func TestParseLine_UnknownLevelDefaultsToInformation(t *testing.T) {
	ev := parseLine(`{"level":"Screaming","message":"m"}`)
	assert.Equal(t, event.LevelInformation, ev.Level)
}

func TestRunCommand_PumpsStdinToDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "logs.db")
	cfgPath := filepath.Join(dir, "sink.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(
		"db_path: %s\nstore_timestamp_in_utc: true\n", dbPath,
	)), 0o644))

	input := strings.Join([]string{
		`{"timestamp":"2024-01-02T03:04:05Z","level":"Warning","message":"disk {Disk} full","properties":{"Disk":"sda"}}`,
		"",
		"plain line",
	}, "\n")

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"run", "--config", cfgPath})
	cmd.SetIn(strings.NewReader(input))
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "emitted 2 events")

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query("SELECT Timestamp, Level, RenderedMessage, Properties FROM Logs ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()

	type rec struct{ ts, level, msg, props string }
	var got []rec
	for rows.Next() {
		var r rec
		require.NoError(t, rows.Scan(&r.ts, &r.level, &r.msg, &r.props))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())

	require.Len(t, got, 2)
	assert.Equal(t, "2024-01-02T03:04:05", got[0].ts)
	assert.Equal(t, "Warning", got[0].level)
	assert.Equal(t, "disk sda full", got[0].msg)
	assert.Equal(t, `{"Disk":"sda"}`, got[0].props)
	assert.Equal(t, "Information", got[1].level)
	assert.Equal(t, "plain line", got[1].msg)
}

func TestRunCommand_MissingConfig(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"run"})
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sink.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("db_path: ./l.db\nbatch_size: 10\n"), 0o644))

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"check", "--config", cfgPath})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "configuration valid")
}

func TestCheckCommand_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sink.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("table_name: NoPath\n"), 0o644))

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"check", "--config", cfgPath})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
