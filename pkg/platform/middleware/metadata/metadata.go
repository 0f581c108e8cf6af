// Package metadata captures per-request client facts (address, user agent,
// arrival time) into the context for handlers and the audit recorder.
package metadata

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"medbee/pkg/requestcontext"
)

// Resolver derives the client address of a request. Forwarding headers are
// only read when the direct peer is a trusted proxy; otherwise the socket
// address is the client.
type Resolver struct {
	trustAll bool
	trusted  []netip.Prefix
}

// NewResolver builds a resolver. trustAll honours forwarding headers from any
// peer. trustedProxies lists addresses or CIDR ranges whose headers are honoured.
func NewResolver(trustAll bool, trustedProxies []string) (*Resolver, error) {
	rv := &Resolver{trustAll: trustAll}
	for _, raw := range trustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		prefix, err := parsePrefix(raw)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
		}
		rv.trusted = append(rv.trusted, prefix)
	}
	return rv, nil
}

func parsePrefix(raw string) (netip.Prefix, error) {
	if strings.Contains(raw, "/") {
		p, err := netip.ParsePrefix(raw)
		return p.Masked(), err
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// Middleware extracts client IP address and User-Agent from the request and
// stamps the request time. Apply it before the audit middleware.
func (rv *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), rv.ClientIP(r), r.Header.Get("User-Agent"))
		ctx = requestcontext.WithTime(ctx, time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIP returns the caller's address. With a trusted peer, X-Forwarded-For
// is walked right to left and the first hop that is not itself a trusted proxy
// wins; X-Real-IP is used when there is no forwarded chain.
func (rv *Resolver) ClientIP(r *http.Request) string {
	peer := peerAddress(r)
	if !rv.isTrusted(peer) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		if rv.trustAll {
			if first := strings.TrimSpace(hops[0]); first != "" {
				return first
			}
			return peer
		}
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !rv.isTrusted(hop) || i == 0 {
				return hop
			}
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

func (rv *Resolver) isTrusted(ip string) bool {
	if rv == nil {
		return false
	}
	if rv.trustAll {
		return true
	}
	if len(rv.trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range rv.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

var direct = &Resolver{}

// ClientMetadata is Middleware for a resolver that trusts no proxy.
func ClientMetadata(next http.Handler) http.Handler {
	return direct.Middleware(next)
}

// ClientIPFromRequest returns the socket peer address, ignoring forwarding headers.
func ClientIPFromRequest(r *http.Request) string {
	return peerAddress(r)
}

func peerAddress(r *http.Request) string {
	if addr := r.RemoteAddr; addr != "" {
		if host, _, err := net.SplitHostPort(addr); err == nil {
			return host
		}
		return addr
	}
	return "unknown"
}
