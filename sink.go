package sqlitesink

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/message"

	"github.com/saleem-mirza/serilog-sinks-sqlite/event"
	"github.com/saleem-mirza/serilog-sinks-sqlite/internal/buffer"
	"github.com/saleem-mirza/serilog-sinks-sqlite/internal/store"
)

// Sink lifecycle states. Transitions run one direction only:
// Running -> Draining -> Closed.
const (
	stateRunning int32 = iota
	stateDraining
	stateClosed
)

// Sink accepts log events from concurrent producers and persists them to
// a SQLite file in batched transactions.
//
// Thread-safety model:
//   - Emit: safe from any goroutine, never blocks on I/O
//   - Close: safe from any goroutine, idempotent
//   - the worker goroutine alone drives batching and writes
//   - guard serialises every touch of the connection (batch writes,
//     rollover, retention sweeps)
type Sink struct {
	cfg     config
	id      string
	log     *logrus.Logger
	printer *message.Printer

	queue *buffer.Queue
	db    *store.Store

	// guard is the writer serialisation lock. It is owned by this sink
	// instance; sinks targeting distinct files do not share it.
	guard sync.Mutex

	state  atomic.Int32
	done   chan struct{} // closed when shutdown begins; stops retention
	closed chan struct{} // closed when shutdown has finished
	wg     sync.WaitGroup

	dropWarn sync.Once
}

// New constructs a sink writing to the database file at dbPath, creating
// the file and its parent directories as needed. Construction errors
// (bad options, unusable database) propagate; after New returns the sink
// never surfaces write-path errors to callers.
func New(dbPath string, opts ...Option) (*Sink, error) {
	cfg := defaultConfig(dbPath)
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	db, err := store.Open(store.Options{
		Path:      cfg.path,
		Table:     cfg.table,
		UTC:       cfg.utc,
		MaxSizeMB: cfg.maxDBSizeMB,
	})
	if err != nil {
		return nil, fmt.Errorf("open sink database: %w", err)
	}

	s := &Sink{
		cfg:     cfg,
		id:      uuid.NewString(),
		log:     cfg.selfLog(),
		printer: message.NewPrinter(cfg.locale),
		queue:   buffer.New(cfg.maxBufferSize),
		db:      db,
		done:    make(chan struct{}),
		closed:  make(chan struct{}),
	}
	s.state.Store(stateRunning)

	s.wg.Add(1)
	go s.pump()

	if cfg.retentionPeriod > 0 {
		s.wg.Add(1)
		go s.sweep()
	}

	s.log.WithFields(logrus.Fields{
		"sink_id": s.id,
		"db":      db.Path(),
		"table":   db.Table(),
	}).Info("sqlite sink started")

	return s, nil
}

// Emit submits one event for persistence. Best-effort and non-blocking:
// events below the minimum level are filtered, events arriving after
// Close are discarded, and events arriving while the buffer is full are
// dropped and counted. Emit never
// returns an error - this is a log sink, not a transactional store.
func (s *Sink) Emit(e event.LogEvent) {
	if s.state.Load() != stateRunning {
		return
	}
	if e.Level < s.cfg.minLevel {
		return
	}
	if !s.queue.Enqueue(e) && !s.queue.Closed() {
		s.dropWarn.Do(func() {
			s.log.WithField("sink_id", s.id).Warn("event buffer full, dropping events")
		})
	}
}

// Dropped returns the number of events rejected by the full buffer.
func (s *Sink) Dropped() uint64 {
	return s.queue.Dropped()
}

// Close drains and shuts the sink down: no new events are accepted, the
// pending batch is flushed, the retention sweeper stops, and the
// connection is closed. Idempotent; concurrent callers block until the
// first Close finishes.
func (s *Sink) Close() error {
	if !s.state.CompareAndSwap(stateRunning, stateDraining) {
		<-s.closed
		return nil
	}

	close(s.done)
	s.queue.Close()
	s.wg.Wait()

	err := s.db.Close()
	s.state.Store(stateClosed)
	close(s.closed)

	if dropped := s.queue.Dropped(); dropped > 0 {
		s.log.WithFields(logrus.Fields{
			"sink_id": s.id,
			"dropped": dropped,
		}).Warn("sink closed with dropped events")
	} else {
		s.log.WithField("sink_id", s.id).Info("sqlite sink closed")
	}

	if err != nil {
		return fmt.Errorf("close sink database: %w", err)
	}
	return nil
}
