package store

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// IsFull reports whether an error is the engine's "database or disk is
// full" result. Only this code triggers rollover; every other write
// failure is transient as far as the sink is concerned.
func IsFull(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrFull
	}
	return false
}
