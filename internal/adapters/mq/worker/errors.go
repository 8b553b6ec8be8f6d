package worker

import "errors"

// ErrDrainTimeout is returned when the pool stops before the queue is empty.
var ErrDrainTimeout = errors.New("worker pool drain timed out")
