package conversation

import "errors"

// Precondition failures. No request is issued when these are returned.
var (
	ErrEmptyMessage       = errors.New("message is empty")
	ErrSubmissionInFlight = errors.New("a message is already being sent")
)

// PreconditionError is a local rejection of a submission.
type PreconditionError struct {
	Reason error
}

func (e *PreconditionError) Error() string {
	return "cannot submit: " + e.Reason.Error()
}

func (e *PreconditionError) Unwrap() error {
	return e.Reason
}
