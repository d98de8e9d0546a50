package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/intent.txt
	intentRaw string

	//go:embed template/followup_sms.txt
	followupSMSRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	IntentSystem string
	FollowupSMS  string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		IntentSystem: strings.TrimSpace(intentRaw),
		FollowupSMS:  strings.TrimSpace(followupSMSRaw),
	}
}

// Render replaces {{key}} placeholders. Unknown placeholders are left as-is.
func Render(tmpl string, vars map[string]string) string {
	if len(vars) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
