package sheet

import (
	"regexp"
	"strings"
)

// AgeUnknown is the age marker when no age phrase is found. It is distinct from "TBD".
const AgeUnknown = "Unknown"

// Persona is the active user profile the identity facts come from.
type Persona struct {
	// DisplayName is the structured profile name, used when the text names nobody.
	DisplayName string
	Text        string
}

// Identity is what ExtractIdentity recovers. Name is nil when neither the text nor the
// display name provides one.
type Identity struct {
	Name   *string
	Age    string
	Gender Gender
}

// WorldTime holds the in-world date and time found in scenario text; nil means no match.
type WorldTime struct {
	Date *string
	Time *string
}

// ExtractionTarget is the identity field an ExtractionRule populates.
type ExtractionTarget string

const (
	TargetName      ExtractionTarget = "name"
	TargetAge       ExtractionTarget = "age"
	TargetGender    ExtractionTarget = "gender"
	TargetWorldDate ExtractionTarget = "worldDate"
	TargetWorldTime ExtractionTarget = "worldTime"
)

// ExtractionRule is a pattern, the field it fills, and what happens when it does not match.
type ExtractionRule struct {
	Target   ExtractionTarget
	Pattern  *regexp.Regexp
	Fallback string

	// Reject skips a capture and moves on to the next match.
	Reject func(capture string) bool
}

// Match returns the capture group of the first match in text that Reject accepts.
func (r ExtractionRule) Match(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, m := range r.Pattern.FindAllStringSubmatch(text, -1) {
		capture := m[len(m)-1]
		if r.Reject != nil && r.Reject(capture) {
			continue
		}
		return capture, true
	}
	return "", false
}

func isGenderWord(s string) bool {
	_, ok := ParseGender(s)
	return ok
}

// The introducer is case-insensitive, the captured name must start upper-case and
// must not be a gender word ("I'm Female").
var (
	nameRule = ExtractionRule{
		Target:   TargetName,
		Pattern:  regexp.MustCompile(`(?:[Mm][Yy] [Nn][Aa][Mm][Ee] [Ii][Ss]|[Ii]'[Mm]|[Ii] [Aa][Mm])\s+([A-Z][a-zA-Z]*)`),
		Fallback: "profile display name",
		Reject:   isGenderWord,
	}
	ageRule = ExtractionRule{
		Target:   TargetAge,
		Pattern:  regexp.MustCompile(`(?i)(\d+)\s*years?\s*old`),
		Fallback: AgeUnknown,
	}
	genderRule = ExtractionRule{
		Target:   TargetGender,
		Pattern:  regexp.MustCompile(`(?i)\b(?:gender|sex|i am|i'm):?\s*(female|male|futanari|futa|hermaphrodite)\b`),
		Fallback: "persisted gender, then " + string(DefaultGender),
	}
	worldDateRule = ExtractionRule{
		Target:  TargetWorldDate,
		Pattern: regexp.MustCompile(`(?i)\b(?:current )?date:\s*([^\n.]+)`),
	}
	worldTimeRule = ExtractionRule{
		Target:  TargetWorldTime,
		Pattern: regexp.MustCompile(`(?i)\b(?:current )?time:\s*([^\n.]+)`),
	}
)

// Rules returns the extraction rules in evaluation order.
func Rules() []ExtractionRule {
	return []ExtractionRule{nameRule, ageRule, genderRule, worldDateRule, worldTimeRule}
}

// ExtractIdentity pulls name, age and gender out of persona text. It never fails:
// name falls back to the display name, age to "Unknown", gender to existing then female.
func ExtractIdentity(p Persona, existing *Gender) Identity {
	var id Identity

	if name, ok := nameRule.Match(p.Text); ok {
		id.Name = &name
	} else if dn := strings.TrimSpace(p.DisplayName); dn != "" {
		id.Name = &dn
	}

	if age, ok := ageRule.Match(p.Text); ok {
		id.Age = age
	} else {
		id.Age = AgeUnknown
	}

	id.Gender = DefaultGender
	if existing != nil {
		id.Gender = *existing
	}
	if tok, ok := genderRule.Match(p.Text); ok {
		if g, ok := ParseGender(tok); ok {
			id.Gender = g
		}
	}
	return id
}

// ExtractWorldTime scans scenario text for "date:" and "time:" lines independently.
func ExtractWorldTime(scenario string) WorldTime {
	var wt WorldTime
	if d, ok := worldDateRule.Match(scenario); ok {
		if d = strings.TrimSpace(d); d != "" {
			wt.Date = &d
		}
	}
	if t, ok := worldTimeRule.Match(scenario); ok {
		if t = strings.TrimSpace(t); t != "" {
			wt.Time = &t
		}
	}
	return wt
}
