package recommend

import "errors"

// ErrUserNotFound is returned when the requesting user does not exist.
var ErrUserNotFound = errors.New("user not found")
