package lock

import "errors"

// ErrLockTimeout is returned when a key's lock cannot be acquired within
// the caller's timeout.
var ErrLockTimeout = errors.New("lock acquisition timeout")
