package sqlitesink

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saleem-mirza/serilog-sinks-sqlite/event"
)

// fill drives writeBatch synchronously with page-sized messages until
// roughly count rows have been pushed at the database.
func fill(s *Sink, count int) {
	payload := strings.Repeat("x", 4096)
	for i := 0; i < count; i++ {
		s.writeBatch([]event.LogEvent{{
			Timestamp:       time.Now(),
			Level:           event.LevelInformation,
			MessageTemplate: payload,
		}})
	}
}

func archiveGlob(t *testing.T, dir string) []string {
	t.Helper()
	archives, err := filepath.Glob(filepath.Join(dir, "logs-*.db"))
	require.NoError(t, err)
	return archives
}

func TestWriteBatch_RolloverOnFull(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs.db")

	s, err := New(path, WithMaxDatabaseSize(1), WithFlushInterval(time.Hour))
	require.NoError(t, err)
	defer s.Close()

	// A 1 MB cap holds ~250 page-sized rows; 400 forces at least one
	// full-database error on the writer path.
	fill(s, 400)

	archives := archiveGlob(t, dir)
	assert.NotEmpty(t, archives, "rollover must archive the full file")

	// The live file was truncated and keeps accepting batches.
	live := liveCount(t, s)
	assert.Greater(t, live, 0)
	assert.Less(t, live, 400)

	s.writeBatch([]event.LogEvent{{
		Timestamp:       time.Now(),
		Level:           event.LevelInformation,
		MessageTemplate: "after rollover",
	}})
	assert.Equal(t, live+1, liveCount(t, s))
}

func TestWriteBatch_RolloverDisabledDropsBatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs.db")

	s, err := New(path, WithMaxDatabaseSize(1), WithRollover(false), WithFlushInterval(time.Hour))
	require.NoError(t, err)
	defer s.Close()

	fill(s, 400)

	// No sibling archives; offending batches vanished; the sink lives.
	assert.Empty(t, archiveGlob(t, dir))
	live := liveCount(t, s)
	assert.Greater(t, live, 0)
	assert.Less(t, live, 400)
}

func TestWriteBatch_TransientErrorDropsBatchQuietly(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "logs.db"), WithFlushInterval(time.Hour))
	require.NoError(t, err)

	// Break the table under the writer. The batch must be dropped
	// without panicking or surfacing an error to anyone.
	_, err = s.db.DB().Exec("DROP TABLE Logs")
	require.NoError(t, err)

	s.writeBatch([]event.LogEvent{{
		Timestamp:       time.Now(),
		Level:           event.LevelInformation,
		MessageTemplate: "into the void",
	}})

	require.NoError(t, s.Close())
}
