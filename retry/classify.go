package retry

import (
	"context"
	"errors"
	"net"
	"net/http"

	throttleerrors "github.com/gothrottle/throttle/errors"
)

// Kind is the classification of a failed execution. These kinds are the ones
// that decide if the execution should be retried.
type Kind string

const (
	// KindNone is the kind of a non failed execution.
	KindNone Kind = "none"
	// KindNetwork is a failure where no response was received at all.
	KindNetwork Kind = "network"
	// KindRateLimited is a failure with a 429 status.
	KindRateLimited Kind = "rate_limited"
	// KindServerError is a failure with a 5xx status.
	KindServerError Kind = "server_error"
	// KindClientError is a failure with any other status.
	KindClientError Kind = "client_error"
	// KindUnclassified is a failure without any recognizable shape.
	KindUnclassified Kind = "unclassified"
)

// Retryable returns true if a failure of this kind is transient.
func (k Kind) Retryable() bool {
	switch k {
	case KindNetwork, KindRateLimited, KindServerError:
		return true
	default:
		return false
	}
}

// Policy is the function that will have the responsibility of deciding if a failed
// execution is eligible to be executed again.
type Policy func(err error) bool

// IsRetryable is the default Policy, network failures, rate limits and server
// errors are retried, the rest are terminal.
func IsRetryable(err error) bool {
	return Classify(err).Retryable()
}

// Classify returns the kind of the failure. The first match wins in this order:
// network failure, 429 status, 5xx status.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}

	if isNetworkFailure(err) {
		return KindNetwork
	}

	code, ok := StatusCode(err)
	switch {
	case !ok:
		return KindUnclassified
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code >= 500 && code <= 599:
		return KindServerError
	default:
		return KindClientError
	}
}

// StatusCode returns the status code carried by the error. The status of a
// response carried by the error wins over a status set on the error directly.
func StatusCode(err error) (int, bool) {
	if resp := response(err); resp != nil {
		return resp.StatusCode, true
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode(), true
	}

	return 0, false
}

func response(err error) *Response {
	var re ResponseError
	if errors.As(err, &re) {
		return re.ErrorResponse()
	}
	return nil
}

func isNetworkFailure(err error) bool {
	// Explicit markers win, a transport timeout is a network failure even if
	// it carries a deadline error.
	if errors.Is(err, throttleerrors.ErrNetwork) {
		return true
	}

	var nf networkFailurer
	if errors.As(err, &nf) && nf.NetworkFailure() {
		return true
	}

	// Unmarked context errors satisfy net.Error but they come from the caller
	// giving up, not from the network.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var ne net.Error
	return errors.As(err, &ne)
}
