package classify

import (
	"strings"
)

// DefaultEmergencyKeywords are matched as substrings of the lowercased transcript.
var DefaultEmergencyKeywords = []string{
	"burst",
	"flood",
	"sewage",
	"gas leak",
	"smell gas",
	"no water",
	"no heat",
	"overflowing",
	"water everywhere",
	"carbon monoxide",
}

const (
	emergencyKeywordBase  = 0.5
	emergencyKeywordExtra = 0.1
	emergencyIntentBoost  = 0.3

	// ConfirmationBoost is added when the caller explicitly confirms the emergency.
	ConfirmationBoost = 0.4

	ReasonIntent     = "intent:emergency"
	ReasonConfirmed  = "caller_confirmed"
	ReasonCorrection = "caller_correction"
)

type EmergencyAssessment struct {
	IsEmergency bool
	Confidence  float64
	Reasons     []string
}

type EmergencyDetector struct {
	defaults []string
}

func NewEmergencyDetector(defaults ...string) EmergencyDetector {
	if len(defaults) == 0 {
		defaults = DefaultEmergencyKeywords
	}
	return EmergencyDetector{defaults: ParseKeywordList(strings.Join(defaults, ","))}
}

// Keywords merges the defaults with tenant additions, deduplicated and in order.
func (d EmergencyDetector) Keywords(tenantAdditions string) []string {
	defaults := d.defaults
	if len(defaults) == 0 {
		defaults = DefaultEmergencyKeywords
	}
	return ParseKeywordList(strings.Join(defaults, ",") + "," + tenantAdditions)
}

// Assess scores the whole transcript. Any signal marks the job an emergency; the
// confidence grows with the number of independent signals.
func (d EmergencyDetector) Assess(transcript []string, intent Intent, tenantAdditions string) EmergencyAssessment {
	text := strings.ToLower(strings.Join(transcript, " "))

	var (
		conf    float64
		reasons []string
	)
	for _, kw := range d.Keywords(tenantAdditions) {
		if !strings.Contains(text, kw) {
			continue
		}
		if len(reasons) == 0 {
			conf += emergencyKeywordBase
		} else {
			conf += emergencyKeywordExtra
		}
		reasons = append(reasons, "keyword:"+kw)
	}
	if intent == IntentEmergency {
		conf += emergencyIntentBoost
		reasons = append(reasons, ReasonIntent)
	}
	if conf > 1 {
		conf = 1
	}

	return EmergencyAssessment{
		IsEmergency: len(reasons) > 0,
		Confidence:  conf,
		Reasons:     reasons,
	}
}

// ParseKeywordList splits a comma separated list, lowercasing and dropping blanks and repeats.
func ParseKeywordList(raw string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(raw, ",") {
		kw := strings.ToLower(strings.TrimSpace(part))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
