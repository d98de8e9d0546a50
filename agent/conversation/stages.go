package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/classify"
	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	statex "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/state"
	timeoutx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/timeout"
)

func (m *Manager) handleGreeting(t *turn) (string, error) {
	m.lookupCustomer(t)
	if err := t.sess.Advance(statex.StageAskName); err != nil {
		return "", err
	}
	return greetingReply(t.tenant, t.sess.KnownCustomer), nil
}

func (m *Manager) lookupCustomer(t *turn) {
	if m.customers == nil || t.sess.CustomerLookup || t.sess.CallerPhone == "" {
		return
	}
	t.sess.CustomerLookup = true

	ctx, cancel := context.WithTimeout(t.ctx, timeoutx.LookupTimeout)
	defer cancel()

	c, err := m.customers.GetByPhone(ctx, t.sess.CallerPhone, t.sess.BusinessID)
	switch {
	case errors.Is(err, contractx.ErrNotFound):
		return
	case err != nil:
		log.Warn().Err(err).
			Str("session_id", t.sess.ID).
			Str("business_id", t.sess.BusinessID).
			Msg("customer lookup failed")
		return
	case c == nil:
		return
	}
	t.sess.KnownCustomer = true
	t.sess.StoredAddress = c.Address
}

func (m *Manager) handleAskName(t *turn) (string, error) {
	name, ok := parseName(t.text)
	if !ok {
		return m.reprompt(t)
	}
	t.sess.CallerName = name
	if t.sess.StoredAddress != "" {
		if err := t.sess.Advance(statex.StageConfirmAddress); err != nil {
			return "", err
		}
		return fmt.Sprintf("Thanks, %s. %s", firstName(name), offerAddressReply(t.sess)), nil
	}
	if err := t.sess.Advance(statex.StageAskAddress); err != nil {
		return "", err
	}
	return askAddressReply(t.sess), nil
}

func (m *Manager) handleAskAddress(t *turn) (string, error) {
	if addr, ok := parseAddress(t.text); ok {
		return m.acceptAddress(t, addr)
	}
	if t.sess.StoredAddress != "" && classifyReply(t.text) == replyYes {
		return m.acceptAddress(t, t.sess.StoredAddress)
	}
	return m.reprompt(t)
}

func (m *Manager) handleConfirmAddress(t *turn) (string, error) {
	if addr, ok := parseAddress(t.text); ok {
		return m.acceptAddress(t, addr)
	}
	switch classifyReply(t.text) {
	case replyYes:
		return m.acceptAddress(t, t.sess.StoredAddress)
	case replyNo:
		t.sess.StoredAddress = ""
		t.sess.Address = ""
		if err := t.sess.Advance(statex.StageAskAddress); err != nil {
			return "", err
		}
		return "No problem. What is the service address for this visit?", nil
	default:
		return m.reprompt(t)
	}
}

func (m *Manager) acceptAddress(t *turn, addr string) (string, error) {
	t.sess.Address = addr
	if err := t.sess.Advance(statex.StageAskProblem); err != nil {
		return "", err
	}
	return askProblemReply(), nil
}

// handleAskProblem records the description and runs every classifier over it.
func (m *Manager) handleAskProblem(t *turn) (string, error) {
	intent := m.intents.Classify(t.ctx, t.text, t.tenant.Threshold())
	t.sess.Intent = string(intent.Intent)
	t.sess.IntentConfidence = intent.Confidence
	t.sess.IntentProvider = intent.Provider
	if intent.Intent == classify.IntentCancel {
		return m.cancel(t)
	}

	t.sess.ProblemDescription = t.text
	t.sess.ServiceType = string(classify.InferServiceType(t.text))

	assessment := m.emergency.Assess(t.sess.Transcript, intent.Intent, t.tenant.EmergencyKeywords)
	if assessment.IsEmergency {
		t.sess.MarkEmergency(assessment.Confidence, assessment.Reasons...)
		t.sess.EmergencyConfirmationPending = true
	}
	m.refreshEstimate(t)

	if err := t.sess.Advance(statex.StageAskSchedule); err != nil {
		return "", err
	}
	return problemReply(t.sess), nil
}

func (m *Manager) handleAskSchedule(t *turn) (string, error) {
	if t.sess.IsEmergency && isEmergencyCorrection(t.text) {
		t.sess.ClearEmergency(classify.ReasonCorrection)
		m.refreshEstimate(t)
		if classifyReply(t.text) != replyYes && classify.HeuristicIntent(t.text).Intent != classify.IntentSchedule {
			return correctionReply(), nil
		}
		return m.proposeSlot(t, false)
	}
	m.detectNewEmergency(t)

	reply := classifyReply(t.text)
	if reply == replyUnclear && classify.HeuristicIntent(t.text).Intent == classify.IntentSchedule {
		reply = replyYes
	}

	switch reply {
	case replyYes:
		if t.sess.EmergencyConfirmationPending {
			t.sess.MarkEmergency(t.sess.EmergencyConfidence+classify.ConfirmationBoost, classify.ReasonConfirmed)
			t.sess.EmergencyConfirmationPending = false
		}
		return m.proposeSlot(t, false)
	case replyNo:
		if err := t.sess.Advance(statex.StagePendingFollowup); err != nil {
			return "", err
		}
		return declinedReply(t.tenant), nil
	default:
		return m.reprompt(t)
	}
}

func (m *Manager) handleConfirmSlot(t *turn) (string, error) {
	m.detectNewEmergency(t)

	reply := classifyReply(t.text)
	if reply == replyUnclear && classify.HeuristicIntent(t.text).Intent == classify.IntentReschedule {
		reply = replyNo
	}

	switch reply {
	case replyYes:
		m.book(t)
		if err := t.sess.Advance(statex.StageScheduled); err != nil {
			return "", err
		}
		return scheduledReply(t.sess, t.tenant), nil
	case replyNo:
		if t.sess.ProposedSlot != nil {
			t.sess.RejectedSlots = append(t.sess.RejectedSlots, *t.sess.ProposedSlot)
		}
		if len(t.sess.RejectedSlots) >= m.maxSlotRejections {
			if err := t.sess.Advance(statex.StagePendingFollowup); err != nil {
				return "", err
			}
			return tooManyRejectionsReply(t.tenant), nil
		}
		return m.proposeSlot(t, true)
	default:
		return m.reprompt(t)
	}
}

func (m *Manager) proposeSlot(t *turn, alternative bool) (string, error) {
	proposal := m.negotiator.ProposeSlot(t.ctx, t.sess, t.tenant)
	if err := t.sess.Advance(statex.StageConfirmSlot); err != nil {
		return "", err
	}
	slot := proposal.Slot
	t.sess.ProposedSlot = &slot
	t.slotSource = proposal.Source
	return offerSlotReply(t.sess, t.tenant, alternative), nil
}

// detectNewEmergency looks only at the current utterance so an explicit correction is not
// undone by keywords already in the transcript.
func (m *Manager) detectNewEmergency(t *turn) {
	assessment := m.emergency.Assess([]string{t.text}, classify.IntentOther, t.tenant.EmergencyKeywords)
	if !assessment.IsEmergency {
		return
	}
	wasEmergency := t.sess.IsEmergency
	t.sess.MarkEmergency(assessment.Confidence, assessment.Reasons...)
	if !wasEmergency {
		m.refreshEstimate(t)
	}
}

func (m *Manager) refreshEstimate(t *turn) {
	service := classify.ServiceType(t.sess.ServiceType)
	if service == "" {
		service = classify.ServiceGeneral
	}
	t.sess.DurationMinutes = classify.DurationFor(service, t.sess.IsEmergency,
		classify.ParseDurationOverrides(t.tenant.ServiceDurationConfig))

	t.sess.QuoteLow, t.sess.QuoteHigh = nil, nil
	if q, ok := classify.QuoteFor(service, t.sess.IsEmergency); ok {
		low, high := q.Low, q.High
		t.sess.QuoteLow, t.sess.QuoteHigh = &low, &high
	}
}

// book writes the confirmed slot to the collaborators. Failures are logged and the
// session is still scheduled.
func (m *Manager) book(t *turn) {
	sess := t.sess
	if sess.ProposedSlot == nil {
		return
	}
	ctx, cancel := context.WithTimeout(t.ctx, timeoutx.BookingTimeout)
	defer cancel()

	logger := log.With().
		Str("session_id", sess.ID).
		Str("business_id", sess.BusinessID).
		Logger()

	var customerID string
	if m.customers != nil {
		c, err := m.customers.Upsert(ctx, contractx.Customer{
			BusinessID: sess.BusinessID,
			Name:       sess.CallerName,
			Phone:      sess.CallerPhone,
			Address:    sess.Address,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("customer upsert failed")
		} else if c != nil {
			customerID = c.ID
		}
	}

	if m.calendar != nil {
		eventID, err := m.calendar.CreateEvent(ctx, contractx.EventRequest{
			Summary:     fmt.Sprintf("%s - %s", serviceLabel(sess.ServiceType), sess.CallerName),
			Description: eventDescription(sess),
			Slot:        *sess.ProposedSlot,
			CalendarID:  t.tenant.CalendarID,
			BusinessID:  sess.BusinessID,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("calendar event creation failed")
		} else {
			sess.CalendarEventID = eventID
		}
	}

	if m.appointments != nil {
		appt, err := m.appointments.Create(ctx, contractx.Appointment{
			BusinessID:      sess.BusinessID,
			CustomerID:      customerID,
			SessionID:       sess.ID,
			Start:           sess.ProposedSlot.Start,
			End:             sess.ProposedSlot.End,
			ServiceType:     sess.ServiceType,
			Description:     sess.ProblemDescription,
			IsEmergency:     sess.IsEmergency,
			LeadSource:      sess.LeadSource,
			EstimatedLow:    sess.QuoteLow,
			EstimatedHigh:   sess.QuoteHigh,
			CalendarEventID: sess.CalendarEventID,
			Status:          string(statex.StatusScheduled),
		})
		if err != nil {
			logger.Warn().Err(err).Msg("appointment create failed")
		} else if appt != nil {
			sess.AppointmentID = appt.ID
		}
	}
}

func eventDescription(sess *statex.Session) string {
	desc := fmt.Sprintf("Caller: %s (%s)\nAddress: %s\nProblem: %s", sess.CallerName, sess.CallerPhone, sess.Address, sess.ProblemDescription)
	if sess.IsEmergency {
		desc += "\nEMERGENCY"
	}
	return desc
}
