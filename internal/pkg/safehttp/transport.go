// Package safehttp builds the outbound HTTP clients adapters use.
package safehttp

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrBlockedAddress is returned when a dial targets a private, loopback or
// link-local address while blocking is enabled.
var ErrBlockedAddress = errors.New("access to private address is denied")

const dialTimeout = 5 * time.Second

// NewTransport returns a traced transport. With blockPrivate set, connections
// to non-public addresses fail before the socket connects, which also covers
// DNS names resolving to internal hosts.
func NewTransport(blockPrivate bool) http.RoundTripper {
	dialer := &net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}
	if blockPrivate {
		dialer.Control = rejectPrivate
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.DialContext = dialer.DialContext

	return otelhttp.NewTransport(base)
}

// NewClient returns an HTTP client over NewTransport. Per-call deadlines come
// from the request context.
func NewClient(blockPrivate bool) *http.Client {
	return &http.Client{Transport: NewTransport(blockPrivate)}
}

func rejectPrivate(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("failed to parse dial address %q: %w", address, err)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("failed to parse remote IP for %q", address)
	}

	if IsPrivate(ip) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, ip)
	}
	return nil
}

// IsPrivate reports whether ip is loopback, private, link-local or unspecified.
func IsPrivate(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}
