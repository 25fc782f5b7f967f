package events

import "errors"

// ErrAlreadyRunning is returned by Run while another Run is active.
var ErrAlreadyRunning = errors.New("events: dispatcher already running")
