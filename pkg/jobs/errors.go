package jobs

import "errors"

var (
	ErrNilSource              = errors.New("tenant source cannot be nil")
	ErrNilRunner              = errors.New("job runner cannot be nil")
	ErrNilJob                 = errors.New("job function cannot be nil")
	ErrJobPanicked            = errors.New("job panicked")
	ErrJobAlreadyRegistered   = errors.New("job already registered")
	ErrSchedulerNotConfigured = errors.New("scheduler has no jobs registered")
)
