package translator

import "errors"

var (
	// ErrRejected matches every *RejectedError.
	ErrRejected = errors.New("translator: command rejected")

	// ErrIgnoredBody is returned for bus bodies this bridge does not handle.
	ErrIgnoredBody = errors.New("translator: body not handled")
)

type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return "translator: command rejected: " + e.Reason
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

func reject(reason string) error {
	return &RejectedError{Reason: reason}
}
