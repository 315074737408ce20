package openai

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindProtocol  ErrorKind = "protocol"
)

// ConfigurationError reports a missing or unreadable API credential. It is
// returned before any network call is attempted.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err == nil {
		return "openai: api credential is not configured"
	}
	return fmt.Sprintf("openai: api credential is not configured: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// RemoteError is a failed completion attempt. Transport covers connection
// failures, timeouts and non-2xx statuses; Protocol covers responses that do
// not have the expected shape.
type RemoteError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("openai: %s error: %s", e.Kind, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("openai: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

func transportError(err error) *RemoteError {
	return &RemoteError{Kind: KindTransport, Message: err.Error(), Err: err}
}

func protocolError(msg string, err error) *RemoteError {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &RemoteError{Kind: KindProtocol, Message: msg, Err: err}
}

// KindOf reports the remote error kind of err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return "", false
}
