package task

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy holds the tunable thresholds and phrase list used by the Validator.
type Policy struct {
	MinDescriptionLength        int      `yaml:"min_description_length"`
	SufficientDescriptionLength int      `yaml:"sufficient_description_length"`
	GenericPhrases              []string `yaml:"generic_phrases"`
}

// DefaultGenericPhrases are the low-information completion claims rejected by default.
var DefaultGenericPhrases = []string{
	"i did that",
	"completed",
	"done",
	"finished",
	"task done",
	"work done",
	"all done",
	"its done",
	"it's done",
	"did it",
	"already did",
	"worked on it",
	"made progress",
	"almost done",
	"nearly finished",
}

// DefaultPolicy returns the default evidence policy.
func DefaultPolicy() Policy {
	phrases := make([]string, len(DefaultGenericPhrases))
	copy(phrases, DefaultGenericPhrases)
	return Policy{
		MinDescriptionLength:        15,
		SufficientDescriptionLength: 75,
		GenericPhrases:              phrases,
	}
}

// LoadPolicy reads a YAML policy file. Fields missing from the file keep their defaults;
// a generic_phrases key present in the file replaces the default list entirely.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read evidence policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes a YAML policy document on top of DefaultPolicy.
func ParsePolicy(data []byte) (Policy, error) {
	policy := DefaultPolicy()
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return Policy{}, fmt.Errorf("failed to parse evidence policy: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}
	return policy, nil
}

// Validate checks the thresholds are usable.
func (p Policy) Validate() error {
	if p.MinDescriptionLength < 1 {
		return fmt.Errorf("min_description_length must be at least 1, got %d", p.MinDescriptionLength)
	}
	if p.SufficientDescriptionLength < p.MinDescriptionLength {
		return fmt.Errorf("sufficient_description_length (%d) must not be below min_description_length (%d)",
			p.SufficientDescriptionLength, p.MinDescriptionLength)
	}
	return nil
}
