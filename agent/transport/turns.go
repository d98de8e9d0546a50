package transport

import (
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/agents/orchestrator"
	statex "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/state"
)

type turnRequest struct {
	SessionID   string `json:"session_id"`
	CallerPhone string `json:"caller_phone"`
	Utterance   string `json:"utterance"`
	Channel     string `json:"channel"`
	LeadSource  string `json:"lead_source"`
	Campaign    string `json:"campaign"`
	TurnID      string `json:"turn_id"`
}

type turnResponse struct {
	Reply       string        `json:"reply"`
	SessionID   string        `json:"session_id"`
	Stage       statex.Stage  `json:"stage"`
	Status      statex.Status `json:"status"`
	IsEmergency bool          `json:"is_emergency"`
	NewSession  bool          `json:"new_session"`
	Replayed    bool          `json:"replayed"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	var in turnRequest
	if err := sonic.ConfigStd.Unmarshal(payload, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	channel := in.Channel
	if channel == "" {
		channel = "api"
	}
	resp, err := s.turns.HandleInput(r.Context(), orchestrator.Request{
		SessionID:   in.SessionID,
		BusinessID:  chi.URLParam(r, "businessID"),
		CallerPhone: in.CallerPhone,
		Utterance:   in.Utterance,
		Channel:     channel,
		LeadSource:  in.LeadSource,
		Campaign:    in.Campaign,
		TurnID:      in.TurnID,
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", in.SessionID).Msg("turn failed")
		writeError(w, statusFor(err), err.Error())
		return
	}

	out := turnResponse{
		Reply:      resp.Reply,
		SessionID:  resp.SessionID,
		Stage:      resp.Stage,
		Status:     resp.Status,
		NewSession: resp.NewSession,
		Replayed:   resp.Replayed,
	}
	if resp.Session != nil {
		out.IsEmergency = resp.Session.IsEmergency
	}
	writeJSON(w, http.StatusOK, out)
}
