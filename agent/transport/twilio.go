package transport

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go/twiml"

	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/agents/orchestrator"
)

const (
	ChannelSMS   = "sms"
	ChannelVoice = "voice"

	troubleReply = "Sorry, we're having trouble right now. Please call back in a few minutes."
)

func providerKey(kind, businessID, id string) string {
	return kind + ":" + businessID + ":" + id
}

func (s *Server) handleSMS(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	biz := chi.URLParam(r, "businessID")
	from := strings.TrimSpace(r.PostForm.Get("From"))
	if from == "" {
		http.Error(w, "missing From", http.StatusBadRequest)
		return
	}

	key := providerKey(ChannelSMS, biz, from)
	sessionID, _ := s.index.Lookup(r.Context(), key)

	resp, err := s.turns.HandleInput(r.Context(), orchestrator.Request{
		SessionID:   sessionID,
		BusinessID:  biz,
		CallerPhone: from,
		Utterance:   r.PostForm.Get("Body"),
		Channel:     ChannelSMS,
		LeadSource:  r.URL.Query().Get("source"),
		Campaign:    r.URL.Query().Get("campaign"),
		TurnID:      r.PostForm.Get("MessageSid"),
	})
	if err != nil {
		log.Error().Err(err).Str("business_id", biz).Msg("sms turn failed")
		doc, renderErr := smsReply(troubleReply)
		writeTwiML(w, doc, renderErr)
		return
	}

	s.track(r, key, resp)
	doc, err := smsReply(resp.Reply)
	writeTwiML(w, doc, err)
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	biz := chi.URLParam(r, "businessID")
	callSid := strings.TrimSpace(r.PostForm.Get("CallSid"))
	if callSid == "" {
		http.Error(w, "missing CallSid", http.StatusBadRequest)
		return
	}

	key := providerKey(ChannelVoice, biz, callSid)
	sessionID, _ := s.index.Lookup(r.Context(), key)

	resp, err := s.turns.HandleInput(r.Context(), orchestrator.Request{
		SessionID:   sessionID,
		BusinessID:  biz,
		CallerPhone: strings.TrimSpace(r.PostForm.Get("From")),
		Utterance:   r.PostForm.Get("SpeechResult"),
		Channel:     ChannelVoice,
		LeadSource:  r.URL.Query().Get("source"),
		Campaign:    r.URL.Query().Get("campaign"),
	})
	if err != nil {
		log.Error().Err(err).Str("business_id", biz).Str("call_sid", callSid).Msg("voice turn failed")
		doc, renderErr := sayAndHangUp(troubleReply)
		writeTwiML(w, doc, renderErr)
		return
	}

	s.track(r, key, resp)
	if resp.Stage.Terminal() {
		doc, err := sayAndHangUp(resp.Reply)
		writeTwiML(w, doc, err)
		return
	}
	doc, err := gatherSpeech(resp.Reply, r.URL.RequestURI())
	writeTwiML(w, doc, err)
}

func smsReply(body string) (string, error) {
	return twiml.Messages([]twiml.Element{&twiml.MessagingMessage{Body: body}})
}

func sayAndHangUp(message string) (string, error) {
	return twiml.Voice([]twiml.Element{
		&twiml.VoiceSay{Message: message},
		&twiml.VoiceHangup{},
	})
}

// gatherSpeech prompts for speech posted back to action. Silence falls through the
// Gather to the redirect, which counts as a no-input turn.
func gatherSpeech(prompt, action string) (string, error) {
	return twiml.Voice([]twiml.Element{
		&twiml.VoiceGather{
			Input:         "speech",
			Action:        action,
			Method:        http.MethodPost,
			SpeechTimeout: "auto",
			InnerElements: []twiml.Element{&twiml.VoiceSay{Message: prompt}},
		},
		&twiml.VoiceRedirect{Url: action, Method: http.MethodPost},
	})
}

var endedCallStatuses = map[string]bool{
	"completed": true,
	"busy":      true,
	"failed":    true,
	"no-answer": true,
	"canceled":  true,
}

func (s *Server) handleCallStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if !endedCallStatuses[strings.ToLower(r.PostForm.Get("CallStatus"))] {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	key := providerKey(ChannelVoice, chi.URLParam(r, "businessID"), r.PostForm.Get("CallSid"))
	if sessionID, ok := s.index.Lookup(r.Context(), key); ok {
		if err := s.turns.EndSession(r.Context(), sessionID); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("end session on hangup failed")
		}
		s.index.Remember(r.Context(), key, "")
	}
	w.WriteHeader(http.StatusNoContent)
}

// track remembers the session for the next provider callback, dropping it once the
// dialogue is over so the caller's next contact starts fresh.
func (s *Server) track(r *http.Request, key string, resp orchestrator.Response) {
	if resp.Stage.Terminal() {
		s.index.Remember(r.Context(), key, "")
		return
	}
	s.index.Remember(r.Context(), key, resp.SessionID)
}
