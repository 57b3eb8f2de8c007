package errors

import "errors"

var (
	ErrStateMachineARNRequired = errors.New("STATE_MACHINE_ARN environment variable is required")
	ErrMalformedEvent          = errors.New("malformed S3 event record")
	ErrServiceInvocation       = errors.New("step function invocation failed")
)
