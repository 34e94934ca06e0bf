package worker

import (
	"errors"
	"fmt"
)

// Kind classifies a job failure. All kinds are terminal; the
// distinction drives logging and the message shown to the user.
type Kind int

const (
	// KindInput: the source itself is unusable (missing file, bad URL).
	KindInput Kind = iota
	// KindEngine: an external engine failed (ffmpeg, recognizer, download).
	KindEngine
	// KindPolicy: a configured limit or feature gate refused the job.
	KindPolicy
	// KindUnexpected: anything uncaught.
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindEngine:
		return "engine"
	case KindPolicy:
		return "policy"
	default:
		return "unexpected"
	}
}

// JobError is a classified job failure.
type JobError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *JobError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *JobError) Unwrap() error {
	return e.Err
}

// inputErr marks a failure caused by the job's source.
func inputErr(err error, format string, args ...any) *JobError {
	return &JobError{Kind: KindInput, Message: fmt.Sprintf(format, args...), Err: err}
}

// engineErr marks a failure inside an external engine.
func engineErr(err error, format string, args ...any) *JobError {
	return &JobError{Kind: KindEngine, Message: fmt.Sprintf(format, args...), Err: err}
}

// policyErr marks a refusal with a user-actionable message.
func policyErr(format string, args ...any) *JobError {
	return &JobError{Kind: KindPolicy, Message: fmt.Sprintf(format, args...)}
}

// classify returns the JobError for err, wrapping anything unclassified
// as unexpected.
func classify(err error) *JobError {
	var jobErr *JobError
	if errors.As(err, &jobErr) {
		return jobErr
	}
	return &JobError{Kind: KindUnexpected, Message: "unexpected error", Err: err}
}

// userMessage is what gets persisted to the job record.
func (e *JobError) userMessage() string {
	if e.Kind == KindUnexpected {
		return fmt.Sprintf("Unexpected error: %v", e.Err)
	}
	return e.Error()
}
