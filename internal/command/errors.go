package command

import (
	"errors"
	"fmt"
)

// ErrConfirmationDeclined is returned by delete when the request was not
// confirmed. Nothing is changed.
var ErrConfirmationDeclined = errors.New("delete not confirmed")

// ErrUnknownCommand is returned by Dispatch for a name with no handler.
var ErrUnknownCommand = errors.New("unknown command")

// LookupError reports an id with no matching record.
type LookupError struct {
	ID string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("record %q not found", e.ID)
}
