package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"demsausage-api/internal/apperr"
	"demsausage-api/internal/logger"
	"demsausage-api/internal/models"
)

// stallRequest：POST stalls/ 的请求体
type stallRequest struct {
	ElectionID     int                  `json:"election_id"`
	Name           string               `json:"name"`
	Description    string               `json:"description"`
	Website        string               `json:"website"`
	Email          string               `json:"email"`
	Noms           models.Noms          `json:"noms"`
	PollingPlaceID *int                 `json:"polling_place_id"`
	LocationInfo   *models.LocationInfo `json:"location_info"`
}

// validateStall：选举已加载投票点时必须指定投票点，否则必须填写 location_info
func (s *Server) validateStall(ctx context.Context, req stallRequest) (models.Stall, *models.PollingPlace, error) {
	st := models.Stall{
		ElectionID:  req.ElectionID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Website:     strings.TrimSpace(req.Website),
		Email:       strings.TrimSpace(req.Email),
		Noms:        req.Noms,
	}
	if st.Name == "" {
		return st, nil, apperr.BadRequestf("name: This field is required.")
	}
	if i := strings.IndexByte(st.Email, '@'); i <= 0 || i == len(st.Email)-1 {
		return st, nil, apperr.BadRequestf("email: Enter a valid email address.")
	}
	e, err := s.ds.GetElection(ctx, req.ElectionID)
	if apperr.IsNotFound(err) {
		return st, nil, apperr.BadRequestf("election_id: Invalid pk \"%d\" - object does not exist.", req.ElectionID)
	}
	if err != nil {
		return st, nil, err
	}
	if !e.PollingPlacesLoaded {
		li := req.LocationInfo
		if li == nil || strings.TrimSpace(li.Name) == "" || strings.TrimSpace(li.Address) == "" {
			return st, nil, apperr.BadRequestf("location_info: Name and address are required when polling places are not loaded.")
		}
		st.LocationInfo = li
		return st, nil, nil
	}
	if req.PollingPlaceID == nil {
		return st, nil, apperr.BadRequestf("polling_place_id: This field is required.")
	}
	pp, err := s.ds.GetPollingPlace(ctx, *req.PollingPlaceID)
	if apperr.IsNotFound(err) || (err == nil && pp.ElectionID != e.ID) {
		return st, nil, apperr.BadRequestf("polling_place_id: Invalid pk \"%d\" - object does not exist.", *req.PollingPlaceID)
	}
	if err != nil {
		return st, nil, err
	}
	st.PollingPlaceID = &pp.ID
	return st, &pp, nil
}

func submissionFingerprint(st models.Stall) string {
	parts := []string{strings.ToLower(st.Email), strconv.Itoa(st.ElectionID)}
	if st.PollingPlaceID != nil {
		parts = append(parts, "pp", strconv.Itoa(*st.PollingPlaceID))
	} else if st.LocationInfo != nil {
		parts = append(parts, "loc", strings.ToLower(st.LocationInfo.Name), strings.ToLower(st.LocationInfo.Address))
	}
	return strings.Join(parts, "|")
}

// handleSubmitStall：新建待审核摊位并发送确认邮件
// 约束：邮件失败只记录日志，不影响提交结果
func (s *Server) handleSubmitStall(w http.ResponseWriter, r *http.Request) {
	var req stallRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		respondError(w, r, "stall_submit", apperr.BadRequestf("Invalid JSON body."))
		return
	}
	st, pp, err := s.validateStall(r.Context(), req)
	if err != nil {
		respondError(w, r, "stall_submit", err)
		return
	}
	first, err := s.firstSubmission(r.Context(), submissionFingerprint(st))
	if err != nil {
		logger.L().Warn("stall_dedupe_error", "err", err)
	} else if !first {
		respondError(w, r, "stall_submit", apperr.BadRequestf("A stall with these details was submitted recently."))
		return
	}
	st, err = s.ds.CreateStall(r.Context(), st)
	if err != nil {
		respondError(w, r, "stall_submit", err)
		return
	}
	if err := s.notifier.StallSubmitted(r.Context(), st, pp); err != nil {
		logger.L().Error("stall_submitted_mail_error", "stall_id", st.ID, "err", err)
	}
	respondJSON(w, http.StatusCreated, st)
}

func (s *Server) handlePendingStalls(w http.ResponseWriter, r *http.Request) {
	sts, err := s.ds.ListStalls(r.Context(), models.StallPending)
	if err != nil {
		respondError(w, r, "stalls_pending", err)
		return
	}
	respondJSON(w, http.StatusOK, sts)
}

// pendingStall：只有待审核摊位可以审批
func (s *Server) pendingStall(r *http.Request) (models.Stall, error) {
	id, err := pathID(r)
	if err != nil {
		return models.Stall{}, err
	}
	st, err := s.ds.GetStall(r.Context(), id)
	if err != nil {
		return st, err
	}
	if st.Status != models.StallPending {
		return st, apperr.BadRequestf("Stall is not pending (status %s).", st.Status)
	}
	return st, nil
}

// handleApproveStall：通过审核，发送通知并重建该选举的 GeoJSON 缓存
// 约束：邮件与缓存失败只记录日志；缓存可通过 regenerate_cache 手动重建
func (s *Server) handleApproveStall(w http.ResponseWriter, r *http.Request) {
	st, err := s.pendingStall(r)
	if err != nil {
		respondError(w, r, "stall_approve", err)
		return
	}
	st, err = s.ds.SetStallStatus(r.Context(), st.ID, models.StallApproved)
	if err != nil {
		respondError(w, r, "stall_approve", err)
		return
	}
	var pp *models.PollingPlace
	if st.PollingPlaceID != nil {
		if p, err := s.ds.GetPollingPlace(r.Context(), *st.PollingPlaceID); err == nil {
			pp = &p
		}
	}
	if err := s.notifier.StallApproved(r.Context(), st, pp); err != nil {
		logger.L().Error("stall_approved_mail_error", "stall_id", st.ID, "err", err)
	}
	if err := s.geojson.Regenerate(r.Context(), st.ElectionID); err != nil {
		logger.L().Error("geojson_regenerate_error", "election_id", st.ElectionID, "err", err)
	}
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleDeclineStall(w http.ResponseWriter, r *http.Request) {
	st, err := s.pendingStall(r)
	if err != nil {
		respondError(w, r, "stall_decline", err)
		return
	}
	st, err = s.ds.SetStallStatus(r.Context(), st.ID, models.StallDeclined)
	if err != nil {
		respondError(w, r, "stall_decline", err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}
