package queue

import "errors"

// ErrClosed is returned when enqueueing on a stopped dispatcher.
var ErrClosed = errors.New("queue: dispatcher closed")
