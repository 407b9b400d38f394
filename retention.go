package sqlitesink

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// sweep runs the retention loop: on every tick, rows older than the
// retention cut-off are deleted. Sweeps take the writer guard, so a
// sweep and a batch write never touch the connection at the same time.
func (s *Sink) sweep() {
	defer s.wg.Done()

	period := retentionCutoffPeriod(s.cfg.retentionPeriod)
	interval := retentionSweepInterval(s.cfg.retentionInterval)

	s.log.WithFields(logrus.Fields{
		"sink_id":  s.id,
		"period":   period.String(),
		"interval": interval.String(),
	}).Info("retention sweeper started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweepOnce(time.Now(), period)
		}
	}
}

// sweepOnce deletes rows older than now minus period. Errors are logged
// and the next sweep runs on schedule.
func (s *Sink) sweepOnce(now time.Time, period time.Duration) {
	cutoff := now.Add(-period)

	s.guard.Lock()
	deleted, err := s.db.DeleteOlderThan(context.Background(), cutoff)
	s.guard.Unlock()

	if err != nil {
		s.log.WithField("sink_id", s.id).WithError(err).Error("retention sweep failed")
		return
	}
	if deleted > 0 {
		s.log.WithFields(logrus.Fields{
			"sink_id": s.id,
			"deleted": deleted,
		}).Info("retention sweep removed aged rows")
	}
}
