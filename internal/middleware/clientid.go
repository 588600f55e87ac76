// Package middleware holds http middlewares shared by the api server.
package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

type contextKey string

const (
	ClientIPKey      contextKey = "client_ip"
	ClientSessionKey contextKey = "client_session"
)

// ParseProxies reads proxy addresses or CIDR prefixes.
func ParseProxies(list []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(list))
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if strings.Contains(s, "/") {
			p, err := netip.ParsePrefix(s)
			if err != nil {
				return nil, fmt.Errorf("invalid proxy prefix %q: %w", s, err)
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(s)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy address %q: %w", s, err)
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

// ClientIdentifier stores the client IP and a header fingerprint in the
// request context. Forwarding headers are only read when the connection
// comes from one of the trusted proxies.
func ClientIdentifier(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, trusted)
			ctx := context.WithValue(r.Context(), ClientIPKey, ip)
			ctx = context.WithValue(ctx, ClientSessionKey, fingerprint(r, ip))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clientIP(r *http.Request, trusted []netip.Prefix) string {
	remote := r.RemoteAddr
	if host, _, err := net.SplitHostPort(remote); err == nil {
		remote = host
	}
	if !isTrusted(remote, trusted) {
		return remote
	}
	// the rightmost hop not added by one of our proxies is the client
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if i == 0 || !isTrusted(hop, trusted) {
				return hop
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return remote
}

func isTrusted(addr string, trusted []netip.Prefix) bool {
	a, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range trusted {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

func fingerprint(r *http.Request, ip string) string {
	d := xxhash.New()
	for _, v := range []string{r.Header.Get("User-Agent"), r.Header.Get("Accept-Language"), ip} {
		d.WriteString(v)
		d.WriteString("|")
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// GetClientIP retrieves the client IP from context.
func GetClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ClientIPKey).(string); ok {
		return ip
	}
	return "unknown"
}

// GetClientSession retrieves the client fingerprint from context.
func GetClientSession(ctx context.Context) string {
	if session, ok := ctx.Value(ClientSessionKey).(string); ok {
		return session
	}
	return "unknown"
}
