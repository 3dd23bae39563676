package api

import (
	"net"
	"net/http"
	"strings"
)

// visitorIP：访问者 IP，依次取常见反向代理头，最后回退远端地址
// 约束：头部可被伪造，仅用于近似定位与去重，不用于鉴权
func visitorIP(r *http.Request) string {
	h := r.Header
	if x := h.Get("x-forwarded-for"); x != "" {
		return strings.TrimSpace(strings.Split(x, ",")[0])
	}
	for _, k := range []string{"cf-connecting-ip", "x-real-ip", "x-client-ip"} {
		if x := h.Get(k); x != "" {
			return strings.TrimSpace(x)
		}
	}
	if x := h.Get("forwarded"); x != "" {
		if i := strings.Index(strings.ToLower(x), "for="); i >= 0 {
			y := x[i+4:]
			if p := strings.IndexAny(y, ";,"); p >= 0 {
				y = y[:p]
			}
			y = strings.Trim(y, "\" ")
			// RFC 7239 的 IPv6 形如 "[2001:db8::1]:4711"
			if strings.HasPrefix(y, "[") {
				if p := strings.IndexByte(y, ']'); p > 0 {
					return y[1:p]
				}
			}
			return y
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
