package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"demsausage-api/internal/apperr"
	"demsausage-api/internal/logger"
	"demsausage-api/internal/metrics"

	"github.com/go-chi/chi/v5"
)

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// respondRaw：已序列化的 JSON（GeoJSON 缓存）
func respondRaw(w http.ResponseWriter, code int, b []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}

type errorBody struct {
	Detail string `json:"detail"`
}

// respondError：BadRequest→400，NotFound→404，其余→500 且不暴露内部错误
func respondError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	var br *apperr.BadRequest
	var nf *apperr.NotFound
	switch {
	case errors.As(err, &br):
		metrics.BadRequestsTotal.WithLabelValues(endpoint).Inc()
		logger.L().Info(endpoint+"_bad_request", "err", err.Error(), "query", r.URL.RawQuery)
		respondJSON(w, http.StatusBadRequest, errorBody{Detail: br.Error()})
	case errors.As(err, &nf):
		respondJSON(w, http.StatusNotFound, errorBody{Detail: nf.Error()})
	default:
		logger.L().Error(endpoint+"_error", "err", err)
		respondJSON(w, http.StatusInternalServerError, errorBody{Detail: "internal error"})
	}
}

// pathID：路由里的 {id}
func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, &apperr.NotFound{What: "resource"}
	}
	return id, nil
}
