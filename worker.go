package sqlitesink

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/saleem-mirza/serilog-sinks-sqlite/event"
	"github.com/saleem-mirza/serilog-sinks-sqlite/internal/store"
)

// pump is the single consumer of the buffer. It accumulates events into
// a pending batch and dispatches on whichever trigger fires first: the
// batch reaching the size threshold, or the flush interval elapsing with
// at least one pending event. When the queue closes, the remainder is
// flushed synchronously before the goroutine exits.
//
// Must run in exactly one goroutine: the pending slice has no lock.
func (s *Sink) pump() {
	defer s.wg.Done()

	pending := make([]event.LogEvent, 0, s.cfg.batchSize)
	timer := time.NewTimer(s.cfg.flushInterval)
	defer timer.Stop()

	flush := func() {
		if len(pending) == 0 {
			return
		}
		s.writeBatch(pending)
		pending = pending[:0]
	}

	for {
		// Drain ready events before sleeping.
		ev, ok := s.queue.TryDequeue()
		if ok {
			pending = append(pending, ev)
			if len(pending) >= s.cfg.batchSize {
				flush()
				resetTimer(timer, s.cfg.flushInterval)
			}
			continue
		}

		if s.queue.Closed() {
			// Draining: the queue is empty and rejects new events.
			flush()
			return
		}

		select {
		case <-timer.C:
			// Firing with nothing pending just resets the clock.
			flush()
			timer.Reset(s.cfg.flushInterval)

		case <-s.queue.Wait():
			// New events arrived, or the queue closed (the signal
			// channel closes with it). Loop back to TryDequeue.
		}
	}
}

// resetTimer restarts a timer whose previous cycle may or may not have
// fired, draining a stale tick if one is buffered.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

// writeBatch renders one batch into rows and commits it under the writer
// guard. Failures never propagate: transient errors drop the batch with
// a diagnostic, and a full database triggers the rollover policy.
func (s *Sink) writeBatch(batch []event.LogEvent) {
	rows := make([]store.Row, len(batch))
	for i, ev := range batch {
		rows[i] = store.Row{
			Timestamp:  ev.Timestamp,
			Level:      ev.Level.String(),
			Exception:  ev.Exception,
			Message:    ev.RenderMessage(s.printer),
			Properties: event.EncodeProperties(ev.Properties),
		}
	}

	logger := s.log.WithFields(logrus.Fields{
		"sink_id":  s.id,
		"batch_id": uuid.NewString(),
		"events":   len(rows),
	})

	ctx := context.Background()

	s.guard.Lock()
	defer s.guard.Unlock()

	err := s.db.InsertBatch(ctx, rows)
	if err == nil {
		logger.Debug("batch committed")
		return
	}

	if !store.IsFull(err) {
		logger.WithError(err).Error("batch write failed, batch dropped")
		return
	}

	if !s.cfg.rollOver {
		logger.Warn("database full and rollover disabled, batch dropped")
		return
	}

	archive, rerr := s.db.Rollover(ctx, time.Now())
	if rerr != nil {
		logger.WithError(rerr).Error("rollover failed, batch dropped")
		return
	}
	logger.WithField("archive", archive).Info("database full, rolled over")

	// Retry exactly once against the emptied file.
	if err := s.db.InsertBatch(ctx, rows); err != nil {
		logger.WithError(err).Error("batch write failed after rollover, batch dropped")
	} else {
		logger.Debug("batch committed after rollover")
	}
}
