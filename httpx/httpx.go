// Package httpx executes HTTP requests through a throttle.Scheduler, translating
// the responses into the failures the scheduler knows how to retry.
package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gothrottle/throttle"
	"github.com/gothrottle/throttle/retry"
)

// Response is an HTTP response with the body already read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// RequestFactory creates the request of an attempt. A new request is created
// on every attempt because a request body can't be read twice.
type RequestFactory func(ctx context.Context) (*http.Request, error)

// Do executes the requests created by newReq on the scheduler. If client is nil
// http.DefaultClient is used.
func Do(ctx context.Context, s *throttle.Scheduler, client *http.Client, newReq RequestFactory) *throttle.Future[*Response] {
	if client == nil {
		client = http.DefaultClient
	}

	return throttle.Submit(ctx, s, func(ctx context.Context) (*Response, error) {
		return do(ctx, client, newReq)
	})
}

// Get is a helper to execute a GET request with Do.
func Get(ctx context.Context, s *throttle.Scheduler, client *http.Client, url string) *throttle.Future[*Response] {
	return Do(ctx, s, client, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
}

func do(ctx context.Context, client *http.Client, newReq RequestFactory) (*Response, error) {
	req, err := newReq(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		// The caller giving up is not a network failure.
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, retry.Network(err)
	}
	defer resp.Body.Close()

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.Network(fmt.Errorf("could not read response body: %w", err))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// CheckResponse returns an error carrying the response status and headers if
// the status is not a success or a redirection.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return nil
	}

	err := fmt.Errorf("unexpected status code %d", resp.StatusCode)
	if resp.Request != nil && resp.Request.URL != nil {
		err = fmt.Errorf("%s %s: unexpected status code %d", resp.Request.Method, resp.Request.URL, resp.StatusCode)
	}

	return retry.NewResponseError(&retry.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
	}, err)
}
