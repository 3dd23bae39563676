package api

import (
	"encoding/json"
	"mime"
	"net/http"
	"strconv"

	"demsausage-api/internal/apperr"
	"demsausage-api/internal/logger"
	"demsausage-api/internal/mail"
)

// handleOptOut：GET mail/opt_out/?confirm_key=
func (s *Server) handleOptOut(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("confirm_key")
	if key == "" {
		respondError(w, r, "mail_opt_out", apperr.BadRequestf("confirm_key: This field is required."))
		return
	}
	st, err := s.ds.StallByConfirmKey(r.Context(), key)
	if err != nil {
		respondError(w, r, "mail_opt_out", err)
		return
	}
	if err := s.ds.SetMailConfirmation(r.Context(), st.ID, false, st.MailConfirmKey); err != nil {
		respondError(w, r, "mail_opt_out", err)
		return
	}
	logger.L().Info("mail_opt_out", "stall_id", st.ID)
	respondJSON(w, http.StatusOK, struct{}{})
}

type webhookSignature struct {
	Timestamp string `json:"timestamp"`
	Token     string `json:"token"`
	Signature string `json:"signature"`
}

type webhookBody struct {
	Signature webhookSignature `json:"signature"`
	EventData struct {
		Event     string `json:"event"`
		Recipient string `json:"recipient"`
	} `json:"event-data"`
}

// handleMailgunWebhook：JSON 与表单两种格式；签名或时间戳不合法时 403
func (s *Server) handleMailgunWebhook(w http.ResponseWriter, r *http.Request) {
	var body webhookBody
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil {
			respondError(w, r, "mailgun_webhook", apperr.BadRequestf("Invalid JSON body."))
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			respondError(w, r, "mailgun_webhook", apperr.WrapBadRequest(err))
			return
		}
		body.Signature = webhookSignature{Timestamp: r.PostForm.Get("timestamp"), Token: r.PostForm.Get("token"), Signature: r.PostForm.Get("signature")}
		body.EventData.Event = r.PostForm.Get("event")
		body.EventData.Recipient = r.PostForm.Get("recipient")
	}
	ts, err := strconv.ParseInt(body.Signature.Timestamp, 10, 64)
	if err != nil || !mail.VerifyWebhook(s.cfg.MailgunAPIKey, body.Signature.Token, ts, body.Signature.Signature, s.now()) {
		logger.L().Warn("mailgun_webhook_rejected", "ip", visitorIP(r))
		respondJSON(w, http.StatusForbidden, errorBody{Detail: "Invalid signature."})
		return
	}
	logger.L().Info("mailgun_webhook", "event", body.EventData.Event, "recipient", body.EventData.Recipient)
	respondJSON(w, http.StatusOK, struct{}{})
}
