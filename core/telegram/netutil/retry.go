// Package netutil classifies network failures of Bot API calls.
package netutil

import (
	"errors"
	"net"
)

// ShouldRetry reports whether err is a transient failure worth another
// attempt: a timeout or a failed dial. Bot API error replies are not.
func ShouldRetry(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
