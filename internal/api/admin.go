package api

import (
	"crypto/subtle"
	"net/http"

	"demsausage-api/internal/logger"
)

// AdminTokenHeader：管理端点的令牌头
const AdminTokenHeader = "x-admin-token"

// requireAdmin：未配置 ADMIN_TOKEN 时管理端点一律 403
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(AdminTokenHeader)
		if s.cfg.AdminToken == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.AdminToken)) != 1 {
			logger.L().Warn("admin_denied", "path", r.URL.Path, "ip", visitorIP(r))
			respondJSON(w, http.StatusForbidden, errorBody{Detail: "You do not have permission to perform this action."})
			return
		}
		next.ServeHTTP(w, r)
	})
}
