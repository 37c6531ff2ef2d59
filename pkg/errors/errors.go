package errors

import "errors"

// Error messages.
var (
	ErrInvalidLanguageType      = errors.New("invalid language type")
	ErrEmptyCode                = errors.New("no code provided")
	ErrTransportFailure         = errors.New("execution backend request failed")
	ErrPollTimeout              = errors.New("execution backend poll budget exhausted")
	ErrUnexpectedResponse       = errors.New("unexpected execution backend response")
	ErrCompilationFailed        = errors.New("compilation failed")
	ErrRuntimeFailure           = errors.New("runtime failure")
	ErrNoMatchingSolutionMethod = errors.New("no solution method matches the test input")
	ErrNoTestCases              = errors.New("no test cases provided")
	ErrUnknownBackend           = errors.New("unknown execution backend")
	ErrFailedToGetFreeWorker    = errors.New("failed to get free worker")
	ErrUnknownMessageType       = errors.New("unknown message type")
	ErrResponderClosed          = errors.New("responder is closed")
	ErrWorkerPanicked           = errors.New("worker panicked while processing message")
)

// ExecutionError is a failed run reported to the caller with its own message.
type ExecutionError struct {
	Err     error
	Message string
}

func (e *ExecutionError) Error() string {
	return e.Message
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
