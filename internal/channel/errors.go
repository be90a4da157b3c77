package channel

import "errors"

// ErrChannelUnavailable is returned when the shared slot is empty, unreadable or
// holds a value that does not decode. Preview contexts show an empty state for it.
var ErrChannelUnavailable = errors.New("preview channel unavailable")
