package conversation

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	statex "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/state"
)

const slotLayout = "Monday, January 2 at 3:04 PM"

func greetingReply(tenant contractx.Tenant, known bool) string {
	intro := fmt.Sprintf("Hi, this is the scheduling assistant for %s.", tenant.DisplayName())
	if known {
		return intro + " It looks like we've worked with you before, welcome back! Can I get your full name?"
	}
	return intro + " I can help get a plumber out to you. Can I get your full name?"
}

func askAddressReply(sess *statex.Session) string {
	reply := fmt.Sprintf("Thanks, %s. What is the service address for this visit?", firstName(sess.CallerName))
	if sess.StoredAddress != "" {
		reply += " If it's the same as last time, just say so."
	}
	return reply
}

func offerAddressReply(sess *statex.Session) string {
	return fmt.Sprintf("I have your address as %s. Is that where you need service?", sess.StoredAddress)
}

func askProblemReply() string {
	return "Got it. Can you briefly describe what's going on?"
}

func problemReply(sess *statex.Session) string {
	if sess.IsEmergency {
		return "Thanks for the details. This sounds like it could be an emergency, so we'll look for the earliest time we can get someone out. Is that right, and should I find that time for you now?"
	}
	return fmt.Sprintf("Thanks for the details. That sounds like a %s job, usually about %s. Would you like me to find the next available appointment?",
		serviceLabel(sess.ServiceType), durationLabel(sess.DurationMinutes))
}

func offerSlotReply(sess *statex.Session, tenant contractx.Tenant, alternative bool) string {
	var b strings.Builder
	if alternative {
		b.WriteString("No problem. How about ")
	} else if sess.IsEmergency {
		b.WriteString("The earliest I can get someone out is ")
	} else {
		b.WriteString("The next available appointment is ")
	}
	b.WriteString(formatSlot(sess.ProposedSlot, tenant))
	b.WriteString(".")
	if q := quoteLabel(sess); q != "" {
		b.WriteString(" ")
		b.WriteString(q)
	}
	b.WriteString(" Does that time work for you?")
	return b.String()
}

func scheduledReply(sess *statex.Session, tenant contractx.Tenant) string {
	return fmt.Sprintf("You're all set for %s at %s. %s will see you then.",
		formatSlot(sess.ProposedSlot, tenant), sess.Address, tenant.DisplayName())
}

func declinedReply(tenant contractx.Tenant) string {
	return fmt.Sprintf("No problem, we won't schedule anything right now. Someone from %s will follow up with you shortly.", tenant.DisplayName())
}

func tooManyRejectionsReply(tenant contractx.Tenant) string {
	return fmt.Sprintf("I'm sorry we couldn't find a time that works. Someone from %s will call you to set one up.", tenant.DisplayName())
}

func noInputExhaustedReply(tenant contractx.Tenant) string {
	return fmt.Sprintf("I'm having trouble hearing you, so I'll have someone from %s follow up with you. Goodbye.", tenant.DisplayName())
}

func cancelledReply(tenant contractx.Tenant) string {
	return fmt.Sprintf("Okay, I won't book anything. Thanks for calling %s.", tenant.DisplayName())
}

func correctionReply() string {
	return "Understood, we'll treat it as a regular visit. Would you like me to find the next available appointment?"
}

func closingReply(sess *statex.Session, tenant contractx.Tenant) string {
	switch sess.Stage {
	case statex.StageScheduled:
		return fmt.Sprintf("Your appointment is booked for %s. Thanks for calling %s.", formatSlot(sess.ProposedSlot, tenant), tenant.DisplayName())
	case statex.StagePendingFollowup:
		return fmt.Sprintf("We have your information and someone from %s will follow up with you shortly.", tenant.DisplayName())
	default:
		return fmt.Sprintf("Thanks for calling %s. Goodbye!", tenant.DisplayName())
	}
}

// stagePrompt is the question the caller is expected to answer at the current stage.
func stagePrompt(sess *statex.Session, tenant contractx.Tenant) string {
	switch sess.Stage {
	case statex.StageGreeting:
		return greetingReply(tenant, sess.KnownCustomer)
	case statex.StageAskName:
		return "Can I get your full name?"
	case statex.StageAskAddress:
		return "What is the service address for this visit?"
	case statex.StageConfirmAddress:
		return offerAddressReply(sess)
	case statex.StageAskProblem:
		return "Can you briefly describe what's going on?"
	case statex.StageAskSchedule:
		return "Would you like me to find the next available appointment?"
	case statex.StageConfirmSlot:
		return fmt.Sprintf("I have %s available. Does that time work for you?", formatSlot(sess.ProposedSlot, tenant))
	default:
		return closingReply(sess, tenant)
	}
}

func repromptReply(sess *statex.Session, tenant contractx.Tenant) string {
	return "Sorry, I didn't catch that. " + stagePrompt(sess, tenant)
}

func formatSlot(slot *statex.TimeSlot, tenant contractx.Tenant) string {
	if slot == nil {
		return "the time we discussed"
	}
	return slot.Start.In(tenant.Location()).Format(slotLayout)
}

func quoteLabel(sess *statex.Session) string {
	if sess.QuoteLow == nil || sess.QuoteHigh == nil {
		return ""
	}
	return fmt.Sprintf("Jobs like this typically run $%.0f to $%.0f.", *sess.QuoteLow, *sess.QuoteHigh)
}

func serviceLabel(serviceType string) string {
	if serviceType == "" {
		return "general plumbing"
	}
	return strings.ReplaceAll(serviceType, "_", " ")
}

func durationLabel(minutes int) string {
	d := time.Duration(minutes) * time.Minute
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%d minutes", minutes)
	case minutes == 60:
		return "an hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	default:
		return fmt.Sprintf("%.1f hours", d.Hours())
	}
}

func firstName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return "there"
}
