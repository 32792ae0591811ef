package scancursor

import (
	"fmt"

	"dedicatedpool/internal/pool"
)

// ErrInvalidCursor is the registry's error sentinel for a token with no
// live entry. It is an alias of pool.ErrInvalidCursor rather than a second
// sentinel with identical text, so there is only one value callers can
// errors.Is against, however many packages raise it.
var ErrInvalidCursor = pool.ErrInvalidCursor

// CursorError wraps ErrInvalidCursor with the token that produced it.
type CursorError struct {
	Token string
	Err   error
}

func (e *CursorError) Error() string {
	return fmt.Sprintf("scancursor: get(token=%q): %v", e.Token, e.Err)
}

func (e *CursorError) Unwrap() error {
	return e.Err
}
