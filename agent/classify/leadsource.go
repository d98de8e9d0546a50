package classify

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var leadSourceLabels = map[string]string{
	"phone":    "Phone",
	"call":     "Phone",
	"voice":    "Phone",
	"sms":      "SMS",
	"text":     "SMS",
	"web":      "Web",
	"website":  "Web",
	"google":   "Google",
	"adwords":  "Google Ads",
	"yelp":     "Yelp",
	"referral": "Referral",
	"walk_in":  "Walk-in",
}

// NormalizeLeadSource maps a raw channel to a reporting label, appending the campaign when present.
func NormalizeLeadSource(source, campaign string) string {
	key := strings.ToLower(strings.TrimSpace(source))
	if key == "" {
		return ""
	}
	label, ok := leadSourceLabels[key]
	if !ok {
		label = cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
	}
	if c := strings.TrimSpace(campaign); c != "" {
		return label + " ? " + c
	}
	return label
}
