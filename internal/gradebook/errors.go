package gradebook

import "errors"

var (
	ErrDuplicateAssignment = errors.New("assignment name already used in this course")
	ErrUnknownCourse       = errors.New("course not found")
	ErrUnknownStudent      = errors.New("student not found")
	ErrUnknownGradeCell    = errors.New("grade cell not found")
	ErrUnknownRequest      = errors.New("regrade request not found")
	ErrGradeOutOfRange     = errors.New("grade outside 0..out-of range")
	ErrInvalidOutOf        = errors.New("assignment denominator must be positive")
	ErrEmptyReason         = errors.New("regrade reason must not be empty")

	// ErrTransactionFailed wraps storage-level failures of the fan-out
	// transactions. The whole operation rolled back, so retrying it is safe.
	ErrTransactionFailed = errors.New("transaction failed, retry the operation")
)
