// Package httputil holds small HTTP helpers shared by the API layer.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the client address for r. When trustProxy is set, the
// leftmost well-formed X-Forwarded-For entry wins, then X-Real-IP;
// malformed entries are skipped rather than returned. Only enable
// trustProxy behind a reverse proxy that controls those headers.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		candidates := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
		candidates = append(candidates, r.Header.Get("X-Real-IP"))
		for _, c := range candidates {
			c = strings.TrimSpace(c)
			if c != "" && net.ParseIP(c) != nil {
				return c
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
