package sqlitesink

import "errors"

// ErrInvalidConfiguration wraps every constructor-time validation
// failure. Check with errors.Is.
var ErrInvalidConfiguration = errors.New("invalid sink configuration")
