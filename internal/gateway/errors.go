// Package gateway is the remote-operation client for the LocalSend backend.
// All real work (discovery, session negotiation, byte transfer) happens in
// the backend; this package only names the operations and interprets their
// status conventions.
package gateway

import (
	"errors"
	"fmt"
)

// ErrAuthRequired indicates the target device demands a PIN and none (or an
// invalid one) was supplied. Callers prompt for a PIN and retry once.
var ErrAuthRequired = errors.New("pin required by target device")

// StatusError is a non-2xx backend response outside the defined conventions
// (200 ok, 204 no-transfer, 207 partial, 401 pin).
type StatusError struct {
	Operation string
	Status    int
	Message   string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s failed: %s (status %d)", e.Operation, e.Message, e.Status)
	}
	return fmt.Sprintf("%s failed: status %d", e.Operation, e.Status)
}

// IsAuthRequired reports whether err is (or wraps) ErrAuthRequired.
func IsAuthRequired(err error) bool {
	return errors.Is(err, ErrAuthRequired)
}
