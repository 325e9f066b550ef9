package apiv1

import (
	"net/http"
	"strings"

	"ai-video-queue/internal/infra/adapters/twilio"
	"ai-video-queue/internal/infra/logging"
	"ai-video-queue/internal/usecase"
)

type messageRequest struct {
	Requester    string `json:"requester"`
	ReplyChannel string `json:"replyChannel"`
	Text         string `json:"text"`
}

type messageResponse struct {
	Reply  string             `json:"reply"`
	Intent usecase.IntentKind `json:"intent"`
	JobID  string             `json:"jobId,omitempty"`
}

func (s *Server) messageWebhook(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if r.Body == nil || decodeJSON(w, r, &req) != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	reply, err := s.Intake.HandleMessage(r.Context(), usecase.InboundMessage{
		Channel:      "webhook",
		Requester:    req.Requester,
		ReplyChannel: req.ReplyChannel,
		Text:         req.Text,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Reply: reply.Text, Intent: reply.Intent, JobID: reply.JobID})
}

// twilioWebhook handles inbound WhatsApp messages and answers with TwiML.
// The sender's "whatsapp:<number>" address is both requester and reply channel.
func (s *Server) twilioWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	if s.TwilioAuthToken != "" {
		sig := r.Header.Get(twilio.SignatureHeader)
		if !twilio.VerifySignature(s.TwilioAuthToken, s.webhookURL(r), r.PostForm, sig) {
			s.log.Warn().Msg("twilio signature mismatch")
			writeError(w, http.StatusForbidden, "invalid signature")
			return
		}
	}

	in := twilio.ParseInbound(r.PostForm)
	if in.From == "" {
		writeError(w, http.StatusBadRequest, "missing From")
		return
	}
	ctx := logging.WithTraceID(r.Context(), firstNonEmpty(in.MessageID, logging.TraceIDFrom(r.Context())))
	reply, err := s.Intake.HandleMessage(ctx, usecase.InboundMessage{
		Channel:      "whatsapp",
		Requester:    in.From,
		ReplyChannel: in.From,
		Text:         in.Body,
	})
	if err != nil {
		logging.With(ctx, s.log).Error().Err(err).Msg("whatsapp intake failed")
	}

	body, err := twilio.TwiML(reply.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// webhookURL is the URL Twilio signed: the configured public URL, or the
// request URL as seen through a proxy.
func (s *Server) webhookURL(r *http.Request) string {
	if s.TwilioWebhookURL != "" {
		return s.TwilioWebhookURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = strings.TrimSpace(strings.Split(p, ",")[0])
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
