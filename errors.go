package eventreg

import "errors"

// ErrHostUnavailable indicates the registry was built without an event bus.
// Dispatch and Subscribe degrade silently in that case; TryDispatch reports it.
var ErrHostUnavailable = errors.New("event bus unavailable")
