// Copyright Marco Kaiser, 2025. All rights reserved.

package pasa

import (
	"errors"
	"fmt"
)

// TransportError wraps a network or HTTP-level failure talking to the
// agent. Transport errors are transient by assumption: the poller retries
// them up to its bound before giving up.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("pasa %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError reports a non-zero status code in the agent's response
// envelope. The agent rejected the request; retrying will not help.
type RemoteError struct {
	StatusCode int64
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("pasa agent error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("pasa agent error %d", e.StatusCode)
}

// IsTransport reports whether err is (or wraps) a TransportError,
// i.e. whether a retry could plausibly succeed.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
