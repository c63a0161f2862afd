package task

import (
	"strings"
	"unicode/utf8"
)

// RejectionReason is the stable code attached to a rejected piece of evidence.
type RejectionReason string

// Reasons are listed in the order the validator checks them.
const (
	ReasonEvidenceMissing     RejectionReason = "EvidenceMissing"
	ReasonDescriptionEmpty    RejectionReason = "DescriptionEmpty"
	ReasonDescriptionTooShort RejectionReason = "DescriptionTooShort"
	ReasonGenericResponse     RejectionReason = "GenericResponse"
	ReasonInsufficientProof   RejectionReason = "InsufficientProof"
)

var guidance = map[RejectionReason]string{
	ReasonEvidenceMissing: "Completing a task requires evidence. Describe what you delivered " +
		"and attach proof such as a screenshot, document or link.",
	ReasonDescriptionEmpty: "Your completion summary is empty. What exactly did you accomplish?",
	ReasonDescriptionTooShort: "That summary is too short to count as proof. Describe the concrete " +
		"outcome: what was delivered, to whom, and how you verified it.",
	ReasonGenericResponse: "\"Done\" is not evidence. Replace the generic wording with specific, " +
		"measurable results.",
	ReasonInsufficientProof: "Attach proof (screenshot, document, email, call log or link) or " +
		"write a detailed account of the result.",
}

// Guidance returns the user-facing prompt for a rejection reason.
func (r RejectionReason) Guidance() string {
	return guidance[r]
}

// ValidationResult is either accepted, or rejected with a reason and guidance.
type ValidationResult struct {
	Accepted bool
	Reason   RejectionReason
	Guidance string
}

func accept() ValidationResult {
	return ValidationResult{Accepted: true}
}

func reject(r RejectionReason) ValidationResult {
	return ValidationResult{Reason: r, Guidance: r.Guidance()}
}

// Validator decides whether evidence is sufficient proof of completion.
// It has no side effects; the result depends only on the evidence and the policy.
type Validator struct {
	policy Policy
	// phrases holds the lower-cased generic phrases.
	phrases []string
}

// NewValidator creates a validator for the given policy.
func NewValidator(policy Policy) *Validator {
	phrases := make([]string, 0, len(policy.GenericPhrases))
	for _, p := range policy.GenericPhrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			phrases = append(phrases, p)
		}
	}
	return &Validator{policy: policy, phrases: phrases}
}

// Policy returns the policy the validator was built with.
func (v *Validator) Policy() Policy {
	return v.policy
}

// Validate applies the rules in order; the first failing rule decides the rejection.
func (v *Validator) Validate(evidence *Evidence) ValidationResult {
	if evidence == nil {
		return reject(ReasonEvidenceMissing)
	}

	description := strings.TrimSpace(evidence.Description)
	if description == "" {
		return reject(ReasonDescriptionEmpty)
	}

	length := utf8.RuneCountInString(description)
	if length < v.policy.MinDescriptionLength {
		return reject(ReasonDescriptionTooShort)
	}

	if v.isGeneric(description) {
		return reject(ReasonGenericResponse)
	}

	if len(evidence.Attachments) == 0 && length < v.policy.SufficientDescriptionLength {
		return reject(ReasonInsufficientProof)
	}

	return accept()
}

// isGeneric is a plain substring match, not whole-word.
func (v *Validator) isGeneric(description string) bool {
	lower := strings.ToLower(description)
	for _, phrase := range v.phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
