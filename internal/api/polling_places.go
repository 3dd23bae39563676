package api

import (
	"net/http"

	"demsausage-api/internal/filter"
)

// handleSearch：GET polling_places/search/?election_id=&ids=&search_term=
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := filter.ParseSearchQuery(r.URL.Query())
	if err != nil {
		respondError(w, r, "search", err)
		return
	}
	pps, err := s.search.Search(r.Context(), q)
	if err != nil {
		respondError(w, r, "search", err)
		return
	}
	respondJSON(w, http.StatusOK, pps)
}

// handleNearby：GET polling_places/nearby/?election_id=&lonlat=lon,lat
func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	q, err := filter.ParseNearbyQuery(r.URL.Query())
	if err != nil {
		respondError(w, r, "nearby", err)
		return
	}
	res, err := s.search.Nearby(r.Context(), q)
	if err != nil {
		respondError(w, r, "nearby", err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// handleGeoJSON：GET polling_places/geojson/?election_id=[&regenerate_cache]
// 约束：regenerate_cache 只看是否出现，值被忽略
func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	id, err := filter.ParseElectionID(v)
	if err != nil {
		respondError(w, r, "geojson", err)
		return
	}
	b, err := s.geojson.Get(r.Context(), id, v.Has("regenerate_cache"))
	if err != nil {
		respondError(w, r, "geojson", err)
		return
	}
	respondRaw(w, http.StatusOK, b)
}
