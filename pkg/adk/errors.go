package adk

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/api/googleapi"
)

// ErrServiceUnavailable means no client could be built (missing key, bad provider, ...).
var ErrServiceUnavailable = errors.New("language model service unavailable")

// Failure kinds reported by ServiceCallError.
const (
	KindTimeout       = "timeout"
	KindRateLimit     = "rate_limit"
	KindHTTPStatus    = "http_status"
	KindTransport     = "transport"
	KindEmptyResponse = "empty_response"
	KindParse         = "parse"
)

// ServiceCallError is any failure that happened while talking to the service.
type ServiceCallError struct {
	Kind string
	Err  error
}

func (e *ServiceCallError) Error() string {
	return fmt.Sprintf("service call failed (%s): %v", e.Kind, e.Err)
}

func (e *ServiceCallError) Unwrap() error {
	return e.Err
}

// StatusError is a non-200 response from the service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// CallError wraps err in a ServiceCallError, guessing the kind when it is not
// already classified.
func CallError(err error) error {
	if err == nil {
		return nil
	}
	var sce *ServiceCallError
	if errors.As(err, &sce) {
		return err
	}
	return &ServiceCallError{Kind: classify(err), Err: err}
}

// KindOf returns the failure kind of err, or "unknown".
func KindOf(err error) string {
	var sce *ServiceCallError
	if errors.As(err, &sce) {
		return sce.Kind
	}
	if err == nil {
		return ""
	}
	return classify(err)
}

func classify(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	var se *StatusError
	if errors.As(err, &se) {
		return statusKind(se.Code)
	}
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		return statusKind(ge.Code)
	}
	return KindTransport
}

func statusKind(code int) string {
	if code == http.StatusTooManyRequests {
		return KindRateLimit
	}
	return KindHTTPStatus
}
