package api

import (
	"net/http"

	"demsausage-api/internal/apperr"
)

// handleGeolocate：访客 IP 的近似位置；未加载数据库或无结果时 404
func (s *Server) handleGeolocate(w http.ResponseWriter, r *http.Request) {
	ip := visitorIP(r)
	loc, ok := s.geoip.Locate(ip)
	if !ok {
		respondError(w, r, "geolocate", &apperr.NotFound{What: "location"})
		return
	}
	respondJSON(w, http.StatusOK, loc)
}
