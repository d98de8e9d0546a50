package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/observer"
	promptx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/prompt"
	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/pkg/qstash"
)

const followupPath = "/webhooks/followup"

// handleFollowup receives a queued follow-up task and texts the caller.
func (s *Server) handleFollowup(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	if err := s.verifier.Verify(r.Header.Get(qstash.SignatureHeader), body, s.cfg.FollowupURL()); err != nil {
		log.Warn().Err(err).Msg("rejected follow-up delivery")
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var task observer.FollowupTask
	if err := sonic.ConfigStd.Unmarshal(body, &task); err != nil || task.CallerPhone == "" {
		writeError(w, http.StatusBadRequest, "invalid task")
		return
	}

	msg := s.followupMessage(r.Context(), task)
	if err := s.notifier.SendSMS(r.Context(), task.CallerPhone, msg); err != nil {
		// A non-2xx makes QStash retry the delivery.
		log.Error().Err(err).Str("session_id", task.SessionID).Msg("send follow-up sms failed")
		writeError(w, http.StatusBadGateway, "notifier failed")
		return
	}

	log.Info().
		Str("session_id", task.SessionID).
		Str("business_id", task.BusinessID).
		Msg("follow-up sms sent")
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) followupMessage(ctx context.Context, task observer.FollowupTask) string {
	business := contractx.DefaultTenant(task.BusinessID).DisplayName()
	if s.tenants != nil {
		if t, err := s.tenants.Tenant(ctx, task.BusinessID); err == nil {
			business = t.DisplayName()
		} else if !errors.Is(err, contractx.ErrUnknownTenant) {
			log.Warn().Err(err).Str("business_id", task.BusinessID).Msg("tenant lookup failed")
		}
	}

	name, problem := "", "your plumbing issue"
	if s.sessions != nil && task.SessionID != "" {
		if sess, err := s.sessions.Get(ctx, task.SessionID); err == nil {
			if first := strings.Fields(sess.CallerName); len(first) > 0 {
				name = " " + first[0]
			}
			if p := strings.TrimSpace(sess.ProblemDescription); p != "" {
				problem = p
			}
		}
	}

	return promptx.Render(s.prompts.FollowupSMS, map[string]string{
		"name":     name,
		"business": business,
		"problem":  problem,
	})
}
