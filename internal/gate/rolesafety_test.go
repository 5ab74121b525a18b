// ABOUTME: Tests for audience normalization and role safety decisions
// ABOUTME: Verifies decision order, denylist matching, and the fixed refusal text
package gate

import (
	"strings"
	"testing"
)

func TestNormalizeAudience(t *testing.T) {
	tests := []struct {
		raw  string
		want Audience
	}{
		{"patient", AudiencePatient},
		{"hcp", AudienceHCP},
		{"HCP", AudienceHCP},
		{"clinician", AudienceHCP},
		{"nurse", AudienceHCP},
		{"", AudienceUnspecified},
		{"unspecified", AudienceUnspecified},
		{"caregiver", AudiencePatient}, // unknown collapses to most restrictive
		{"admin", AudiencePatient},
	}

	for _, tt := range tests {
		if got := NormalizeAudience(tt.raw); got != tt.want {
			t.Errorf("NormalizeAudience(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestEvaluate_HCPAlwaysAllowed(t *testing.T) {
	g := NewRoleSafetyGate()

	decision := g.Evaluate(AudienceHCP, "dosing", "what needle gauge and dose should I use?")
	if !decision.Allowed {
		t.Fatal("hcp audience must always be allowed")
	}
	if decision.Reason != "audience_allows" {
		t.Errorf("Reason = %q, want audience_allows", decision.Reason)
	}
	if decision.RefusalText != "" {
		t.Errorf("allowed decision should carry no refusal text, got %q", decision.RefusalText)
	}
}

func TestEvaluate_UnspecifiedAudienceAllowed(t *testing.T) {
	g := NewRoleSafetyGate()

	decision := g.Evaluate(AudienceUnspecified, "product_info", "tell me about the product")
	if !decision.Allowed {
		t.Error("unspecified audience is not patient-restricted")
	}
}

func TestEvaluate_PatientDisallowedIntent(t *testing.T) {
	g := NewRoleSafetyGate()

	for _, intent := range []string{"protocol", "dosing", "equipment", "scheduling"} {
		decision := g.Evaluate(AudiencePatient, intent, "a harmless question")
		if decision.Allowed {
			t.Errorf("patient intent %q must be blocked", intent)
			continue
		}
		want := "patient_disallowed_intent:" + intent
		if decision.Reason != want {
			t.Errorf("Reason = %q, want %q", decision.Reason, want)
		}
		if decision.RefusalText != PatientRefusalText {
			t.Errorf("RefusalText = %q, want the fixed refusal text", decision.RefusalText)
		}
	}
}

func TestEvaluate_PatientDenylistTopic(t *testing.T) {
	g := NewRoleSafetyGate()

	questions := []string{
		"what needle gauge is used for this?",
		"What is the DOSE my mother gets?",
		"how to perform the procedure at home",
		"is the dilution done before or after?",
	}
	for _, q := range questions {
		decision := g.Evaluate(AudiencePatient, "product_info", q)
		if decision.Allowed {
			t.Errorf("question %q must be blocked", q)
			continue
		}
		if decision.Reason != "patient_disallowed_topic" {
			t.Errorf("Reason = %q, want patient_disallowed_topic", decision.Reason)
		}
		if decision.RefusalText != PatientRefusalText {
			t.Errorf("RefusalText differs from the fixed refusal text")
		}
	}
}

func TestEvaluate_PatientGeneralAllowed(t *testing.T) {
	g := NewRoleSafetyGate()

	decision := g.Evaluate(AudiencePatient, "product_info", "what should I expect on treatment day?")
	if !decision.Allowed {
		t.Fatalf("general patient question blocked: %q", decision.Reason)
	}
	if decision.Reason != "patient_allowed_general" {
		t.Errorf("Reason = %q, want patient_allowed_general", decision.Reason)
	}
}

func TestEvaluate_IntentCheckedBeforeDenylist(t *testing.T) {
	g := NewRoleSafetyGate()

	// Both rules match; the intent rule wins because it is checked first.
	decision := g.Evaluate(AudiencePatient, "dosing", "what dose and needle gauge?")
	if !strings.HasPrefix(decision.Reason, "patient_disallowed_intent:") {
		t.Errorf("Reason = %q, want intent-based reason", decision.Reason)
	}
}

func TestRefusalTextIsStable(t *testing.T) {
	g := NewRoleSafetyGate()

	a := g.Evaluate(AudiencePatient, "dosing", "x")
	b := g.Evaluate(AudiencePatient, "product_info", "needle gauge?")
	if a.RefusalText != b.RefusalText {
		t.Error("every blocked decision must reuse the same fixed refusal string")
	}
}
