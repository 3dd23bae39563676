package api

import (
	"net/http"
)

// handleListElections：公开列表，不含隐藏选举，id 降序
func (s *Server) handleListElections(w http.ResponseWriter, r *http.Request) {
	es, err := s.ds.ListElections(r.Context(), false)
	if err != nil {
		respondError(w, r, "elections", err)
		return
	}
	respondJSON(w, http.StatusOK, es)
}

// handleSetPrimary：原子切换主选举，成功返回 {}
func (s *Server) handleSetPrimary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, "set_primary", err)
		return
	}
	if err := s.ds.SetPrimary(r.Context(), id); err != nil {
		respondError(w, r, "set_primary", err)
		return
	}
	respondJSON(w, http.StatusOK, struct{}{})
}
