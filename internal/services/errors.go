package services

import "errors"

// ErrNoData signals that no qualifying records exist for the requested
// route/date/window. It is distinct from an empty-but-valid result:
// callers translate it into an explicit "no data" response rather than
// an empty list.
var ErrNoData = errors.New("no data available for the requested parameters")
