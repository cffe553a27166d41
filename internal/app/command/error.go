package command

import (
	"fmt"
)

// Error marks a failure that crossed a command boundary. Msg names the
// operation the command was performing, for the top-level error report.
type Error struct {
	Inner error
	Msg   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Msg, e.Inner)
}

func (e *Error) Unwrap() error {
	return e.Inner
}

// WrapError tags err with the operation that failed. A nil err stays nil.
func WrapError(msg string, err error) error {
	if err == nil {
		return nil
	}

	return &Error{
		Inner: err,
		Msg:   msg,
	}
}
