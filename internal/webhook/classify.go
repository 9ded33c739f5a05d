package webhook

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"
)

// classifyError maps a transport error to a result.
func classifyError(err error) Result {
	if isTimeout(err) {
		return failure(http.StatusGatewayTimeout, ErrMsgTimeout)
	}
	if isConnectionError(err) {
		return failure(http.StatusServiceUnavailable, err.Error())
	}
	return failure(http.StatusInternalServerError, err.Error())
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectionError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
