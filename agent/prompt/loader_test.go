package prompt

import (
	"strings"
	"testing"
)

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	if set.IntentSystem == "" || set.FollowupSMS == "" {
		t.Fatalf("LoadPromptSet() = %+v, want both prompts", set)
	}
	if set.IntentSystem != strings.TrimSpace(set.IntentSystem) {
		t.Fatal("intent prompt not trimmed")
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	got := Render("Hi{{name}}, {{business}} here about {{problem}}. {{unknown}}", map[string]string{
		"name":     " Sam",
		"business": "Acme Plumbing",
		"problem":  "a leaky faucet",
	})
	want := "Hi Sam, Acme Plumbing here about a leaky faucet. {{unknown}}"
	if got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}

	if got := Render("{{x}}", nil); got != "{{x}}" {
		t.Fatalf("Render(nil vars) = %q", got)
	}
}
