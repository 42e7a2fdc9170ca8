package listing

import (
	"fmt"
	"strings"
)

// Condition is the item condition chosen by the seller. The value is what
// the model sees in the prompt.
type Condition string

const (
	ConditionNewWithTags    Condition = "Uusi hintalappulla"
	ConditionNewWithoutTags Condition = "Uusi ilman hintalappua"
	ConditionVeryGood       Condition = "Erittäin hyvä"
	ConditionGood           Condition = "Hyvä"
	ConditionSatisfactory   Condition = "Tyydyttävä"
)

// Conditions lists the selectable conditions in display order.
var Conditions = []Condition{
	ConditionNewWithTags,
	ConditionNewWithoutTags,
	ConditionVeryGood,
	ConditionGood,
	ConditionSatisfactory,
}

var conditionKeys = map[Condition]string{
	ConditionNewWithTags:    "new-with-tags",
	ConditionNewWithoutTags: "new-without-tags",
	ConditionVeryGood:       "very-good",
	ConditionGood:           "good",
	ConditionSatisfactory:   "satisfactory",
}

var englishConditionLabels = map[Condition]string{
	ConditionNewWithTags:    "New with tags",
	ConditionNewWithoutTags: "New without tags",
	ConditionVeryGood:       "Very good",
	ConditionGood:           "Good",
	ConditionSatisfactory:   "Satisfactory",
}

// Valid reports whether c is one of the fixed conditions.
func (c Condition) Valid() bool {
	_, ok := conditionKeys[c]
	return ok
}

// Key returns a short ASCII identifier, handy for command line flags.
func (c Condition) Key() string {
	return conditionKeys[c]
}

// Label returns the condition as shown to a user of the given language.
func (c Condition) Label(lang Language) string {
	if lang == LanguageEnglish {
		if label, ok := englishConditionLabels[c]; ok {
			return label
		}
	}
	return string(c)
}

// ParseCondition accepts a condition key, its Finnish value or its English
// label, case-insensitively.
func ParseCondition(s string) (Condition, error) {
	s = strings.TrimSpace(s)
	for _, c := range Conditions {
		if strings.EqualFold(s, c.Key()) ||
			strings.EqualFold(s, string(c)) ||
			strings.EqualFold(s, englishConditionLabels[c]) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown condition %q", s)
}
