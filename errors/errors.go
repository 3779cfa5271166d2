package errors

import "errors"

var (
	// ErrNetwork marks a failure where no response was received at all. Errors
	// wrapping it are treated as transient network failures.
	ErrNetwork = errors.New("network failure, no response received")
	// ErrPanic will be used when a task panics while executing, the panic value
	// is appended to the error message.
	ErrPanic = errors.New("task panicked")
	// ErrFailureInjected will be used when the chaos injector injects a failure.
	ErrFailureInjected = errors.New("failure injected on purpose")
)
