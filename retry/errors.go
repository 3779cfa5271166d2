package retry

import (
	"fmt"
	"net/http"
	"time"

	throttleerrors "github.com/gothrottle/throttle/errors"
)

// Response is the response-like part of a failed call, what the remote side
// answered.
type Response struct {
	StatusCode int
	Header     http.Header
}

// ResponseError is implemented by errors that carry the response of the failed
// call. It has precedence over StatusCoder when classifying.
type ResponseError interface {
	error
	ErrorResponse() *Response
}

// StatusCoder is implemented by errors that carry an HTTP like status code
// directly.
type StatusCoder interface {
	StatusCode() int
}

// RetryAfterer is implemented by errors that carry an explicit retry delay
// obtained by other means than a Retry-After header (e.g. a gRPC retry info).
type RetryAfterer interface {
	RetryAfter() time.Duration
}

// networkFailurer is implemented by errors that know if they are a network failure.
type networkFailurer interface {
	NetworkFailure() bool
}

// NewResponseError returns an error that carries the response of the failed call.
// If err is nil a generic error based on the status code is used.
func NewResponseError(resp *Response, err error) error {
	if err == nil {
		code := 0
		if resp != nil {
			code = resp.StatusCode
		}
		err = fmt.Errorf("unexpected status code %d", code)
	}
	return &responseError{resp: resp, err: err}
}

type responseError struct {
	resp *Response
	err  error
}

func (r *responseError) Error() string            { return r.err.Error() }
func (r *responseError) Unwrap() error            { return r.err }
func (r *responseError) ErrorResponse() *Response { return r.resp }

// WithStatus returns an error that carries the status code.
func WithStatus(code int, err error) error {
	if err == nil {
		err = fmt.Errorf("status code %d", code)
	}
	return &statusError{code: code, err: err}
}

type statusError struct {
	code int
	err  error
}

func (s *statusError) Error() string   { return s.err.Error() }
func (s *statusError) Unwrap() error   { return s.err }
func (s *statusError) StatusCode() int { return s.code }

// Network marks err as a network failure, no response was received.
func Network(err error) error {
	if err == nil {
		return throttleerrors.ErrNetwork
	}
	return &networkError{err: err}
}

type networkError struct {
	err error
}

func (n *networkError) Error() string        { return n.err.Error() }
func (n *networkError) Unwrap() error        { return n.err }
func (n *networkError) NetworkFailure() bool { return true }
