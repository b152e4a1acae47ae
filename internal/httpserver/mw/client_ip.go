package mw

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the caller's IP. With trustProxy, X-Forwarded-For (left-most)
// then X-Real-IP win over RemoteAddr.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := hostOnly(first); ip != "" {
				return ip
			}
		}
		if ip := hostOnly(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}
	return hostOnly(r.RemoteAddr)
}

func hostOnly(s string) string {
	s = strings.TrimSpace(s)
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return s
}
