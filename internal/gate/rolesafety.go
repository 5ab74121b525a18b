// ABOUTME: RoleSafetyGate restricts procedural clinical detail by audience
// ABOUTME: Patients never receive protocol, dosing, equipment, or scheduling detail
package gate

import (
	"fmt"
	"strings"
)

// Audience is the closed set of requester roles. Anything that is not
// explicitly a clinician is treated as a patient.
type Audience string

const (
	AudiencePatient     Audience = "patient"
	AudienceHCP         Audience = "hcp"
	AudienceUnspecified Audience = "unspecified"
)

// NormalizeAudience maps a free-form audience string onto the closed set.
// Unknown values collapse to patient, the most restrictive variant.
func NormalizeAudience(raw string) Audience {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "hcp", "clinician", "provider", "physician", "nurse":
		return AudienceHCP
	case "unspecified", "":
		return AudienceUnspecified
	case "patient":
		return AudiencePatient
	default:
		return AudiencePatient
	}
}

// PatientRefusalText is the fixed refusal returned for every blocked
// decision. Audit logs and the evaluation harness match it verbatim.
const PatientRefusalText = "I'm not able to share procedural or dosing details. Please talk with your care team, who can walk you through what applies to your treatment."

// disallowedIntents are pre-classified intents patients may not receive
var disallowedIntents = map[string]bool{
	"protocol":   true,
	"dosing":     true,
	"equipment":  true,
	"scheduling": true,
}

// topicDenylist catches procedural and dosing vocabulary in raw patient
// questions that intent classification missed
var topicDenylist = []string{
	"dose",
	"dosing",
	"dosage",
	"mg/kg",
	"needle",
	"gauge",
	"syringe",
	"cannula",
	"injection",
	"inject",
	"depth",
	"dilution",
	"titration",
	"technique",
	"vector",
	"how to perform",
	"how to administer",
	"infusion rate",
}

// RoleSafetyDecision is a terminal allow/block outcome, independent of
// retrieval. Reproducible from (audience, intent, question) alone.
type RoleSafetyDecision struct {
	Allowed     bool   `json:"allowed"`
	Reason      string `json:"reason"`
	RefusalText string `json:"refusal_text,omitempty"`
}

// RoleSafetyGate evaluates audience restrictions once per query, after
// evidence is known to be sufficient
type RoleSafetyGate struct{}

// NewRoleSafetyGate creates the gate
func NewRoleSafetyGate() *RoleSafetyGate {
	return &RoleSafetyGate{}
}

// Evaluate applies the decision order: non-patient audiences are always
// allowed; patient requests are blocked by disallowed intent first, then
// by denylist vocabulary in the question itself.
func (g *RoleSafetyGate) Evaluate(audience Audience, intent, question string) RoleSafetyDecision {
	if audience != AudiencePatient {
		return RoleSafetyDecision{Allowed: true, Reason: "audience_allows"}
	}

	intent = strings.ToLower(strings.TrimSpace(intent))
	if disallowedIntents[intent] {
		return RoleSafetyDecision{
			Allowed:     false,
			Reason:      fmt.Sprintf("patient_disallowed_intent:%s", intent),
			RefusalText: PatientRefusalText,
		}
	}

	lowered := strings.ToLower(question)
	for _, term := range topicDenylist {
		if strings.Contains(lowered, term) {
			return RoleSafetyDecision{
				Allowed:     false,
				Reason:      "patient_disallowed_topic",
				RefusalText: PatientRefusalText,
			}
		}
	}

	return RoleSafetyDecision{Allowed: true, Reason: "patient_allowed_general"}
}
