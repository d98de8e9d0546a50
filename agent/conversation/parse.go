package conversation

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const maxNameLength = 40

var namePrefixes = []string{"my name is", "this is", "i am", "i'm", "im", "it's", "name's"}

var streetSuffixes = map[string]bool{
	"st": true, "street": true, "ave": true, "avenue": true, "rd": true, "road": true,
	"blvd": true, "boulevard": true, "dr": true, "drive": true, "ln": true, "lane": true,
	"ct": true, "court": true, "hwy": true, "highway": true, "pkwy": true, "parkway": true,
	"ter": true, "terrace": true, "pl": true, "place": true, "way": true, "cir": true, "circle": true,
}

// parseName pulls a caller name out of an utterance. Without a lead-in phrase only a short
// multi-word phrase is accepted.
func parseName(text string) (string, bool) {
	if strings.HasSuffix(strings.TrimSpace(text), "?") {
		return "", false
	}
	candidate := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(text), ".!?"))
	lowered := strings.ToLower(candidate)

	prefixed := false
	for _, p := range namePrefixes {
		if strings.HasPrefix(lowered, p+" ") {
			candidate = strings.TrimSpace(candidate[len(p):])
			prefixed = true
			break
		}
	}
	candidate = strings.Trim(candidate, " ,.")

	if candidate == "" || len(candidate) > maxNameLength {
		return "", false
	}
	if strings.IndexFunc(candidate, unicode.IsDigit) >= 0 {
		return "", false
	}
	words := strings.Fields(candidate)
	if !prefixed && (len(words) < 2 || len(words) > 4) {
		return "", false
	}
	if reply := classifyReply(candidate); reply != replyUnclear {
		return "", false
	}
	if candidate == strings.ToLower(candidate) {
		candidate = cases.Title(language.English).String(candidate)
	}
	return strings.Join(strings.Fields(candidate), " "), true
}

// parseAddress accepts text that has a digit plus some street-address shape.
func parseAddress(text string) (string, bool) {
	candidate := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(text), "."))
	if candidate == "" || strings.IndexFunc(candidate, unicode.IsDigit) < 0 {
		return "", false
	}
	if unicode.IsDigit(rune(candidate[0])) || strings.Contains(candidate, ",") {
		return candidate, true
	}
	for _, token := range strings.Fields(strings.ToLower(candidate)) {
		token = strings.Trim(token, ".,#")
		if streetSuffixes[token] || isZIP(token) {
			return candidate, true
		}
	}
	return "", false
}

func isZIP(token string) bool {
	if len(token) != 5 {
		return false
	}
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

type replyKind int

const (
	replyUnclear replyKind = iota
	replyYes
	replyNo
)

var (
	yesWords   = map[string]bool{"yes": true, "yeah": true, "yep": true, "yup": true, "sure": true, "ok": true, "okay": true, "correct": true, "right": true, "absolutely": true, "definitely": true, "perfect": true, "please": true, "y": true}
	noWords    = map[string]bool{"no": true, "nope": true, "nah": true, "n": true}
	yesPhrases = []string{"sounds good", "that works", "works for me", "go ahead", "let's do it", "book it", "that's fine", "same as last time", "same address", "that's right"}
	noPhrases  = []string{"not now", "don't", "do not", "not really", "maybe later", "another time", "doesn't work", "won't work", "can't", "cannot", "different time", "wrong"}
)

// classifyReply decides whether the caller said yes or no. The leading word wins, then
// negative phrases, then affirmative ones.
func classifyReply(text string) replyKind {
	lowered := strings.ToLower(strings.TrimSpace(text))
	fields := strings.FieldsFunc(lowered, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '.' || r == '!' || r == '?'
	})
	if len(fields) == 0 {
		return replyUnclear
	}
	if noWords[fields[0]] {
		return replyNo
	}
	if yesWords[fields[0]] {
		return replyYes
	}
	for _, p := range noPhrases {
		if strings.Contains(lowered, p) {
			return replyNo
		}
	}
	for _, p := range yesPhrases {
		if strings.Contains(lowered, p) {
			return replyYes
		}
	}
	return replyUnclear
}

var correctionPhrases = []string{
	"not an emergency", "isn't an emergency", "is not an emergency", "not urgent", "no rush", "not a rush", "it can wait",
}

// isEmergencyCorrection reports an explicit caller statement that the job is not urgent.
func isEmergencyCorrection(text string) bool {
	lowered := strings.ToLower(text)
	for _, p := range correctionPhrases {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}
