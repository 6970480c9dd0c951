package magnet

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/starius/magnet/errors"
	"github.com/starius/magnet/internal/shared"
)

// Call is a pending invocation of a declared method. It is executed at
// most once, by Execute.
type Call struct {
	client  *Client
	desc    *MethodDescriptor
	args    []any
	err     error
	started atomic.Bool
}

// Descriptor returns the descriptor of the invoked method, nil if the
// method could not be resolved.
func (c *Call) Descriptor() *MethodDescriptor {
	return c.desc
}

// ErrAlreadyExecuted is returned by Execute for a call executed before.
var ErrAlreadyExecuted = errors.FailedPrecondition("call was already executed")

// StatusError is delivered to Failed when the server answers with
// HTTP status 400 or above.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string

	// Message from a JSON error body {"error": "..."}, if any.
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API returned error with HTTP status %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("API returned HTTP status %s: %s", e.Status, e.Body)
}

func (e *StatusError) HttpCode() int {
	return e.StatusCode
}

// Execute starts the call and reports its outcome to cb.
//
// Arguments are bound on the calling goroutine. If the method could not be
// resolved or an argument can not be bound, cb.Failed is called before
// Execute returns and nothing is sent. Otherwise the request is sent from a
// new goroutine, which calls cb once the response is decoded. If T is
// string, the response body is delivered verbatim; otherwise it is decoded
// by the client's codec.
//
// The only error returned is ErrAlreadyExecuted.
func Execute[T any](call *Call, cb Callback[T]) error {
	if !call.started.CompareAndSwap(false, true) {
		return ErrAlreadyExecuted
	}
	if call.err != nil {
		cb.Failed(call.err)
		return nil
	}
	spec, err := call.desc.toRequestSpec(call.args)
	if err != nil {
		cb.Failed(err)
		return nil
	}
	c := call.client
	if !c.begin() {
		cb.Failed(errors.FailedPrecondition("client is closed"))
		return nil
	}
	go func() {
		defer c.wg.Done()
		run(c, spec, cb)
	}()
	return nil
}

func run[T any](c *Client, spec *RequestSpec, cb Callback[T]) {
	statusCode, value, err := roundTrip[T](c, spec)
	if err == nil {
		cb.Succeeded(statusCode, value)
		return
	}
	if IsOffline(err) {
		c.config.errorf("%s %s: offline: %v", spec.method, spec.URL(), err)
		cb.Offline()
		return
	}
	c.config.errorf("%s %s failed: %v", spec.method, spec.URL(), err)
	cb.Failed(err)
}

func roundTrip[T any](c *Client, spec *RequestSpec) (int, T, error) {
	var value T

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := encodeRequest(ctx, spec, c.config.requestIDHeader)
	if err != nil {
		return 0, value, fmt.Errorf("failed to encode request: %w", err)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return 0, value, errors.Unavailable("request failed: %w", err)
	}
	// ResponseHeaderTimeout stops at headers, the body is bounded here.
	if c.config.ReadTimeout > 0 {
		res.Body = newIdleReader(res.Body, c.config.ReadTimeout, cancel)
	}
	res.Body = http.MaxBytesReader(nil, res.Body, c.config.MaxBody)
	defer func() {
		if err := res.Body.Close(); err != nil {
			c.config.errorf("failed to close resource: %v", err)
		}
	}()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, value, fmt.Errorf("failed to read response: %w", err)
	}

	if res.StatusCode >= http.StatusBadRequest {
		statusErr := &StatusError{
			StatusCode: res.StatusCode,
			Status:     res.Status,
			Body:       string(body),
		}
		if msg, ok := shared.ParseErrorMessage(body); ok {
			statusErr.Message = msg.Error
		}
		return 0, value, statusErr
	}

	if text, ok := any(&value).(*string); ok {
		*text = string(body)
		return res.StatusCode, value, nil
	}
	if len(body) == 0 {
		return res.StatusCode, value, nil
	}
	if err := spec.codec.Unmarshal(body, &value); err != nil {
		return 0, value, errors.Internal("failed to decode response: %w", err)
	}
	return res.StatusCode, value, nil
}
