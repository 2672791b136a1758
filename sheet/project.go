package sheet

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Row is one label/value line of a rendered section.
type Row struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Value    string `json:"value"`
	LongForm bool   `json:"long_form,omitempty"`
}

// Section is one visible block of the rendered sheet. Key is the category, or
// "category.group" for nested groups.
type Section struct {
	Key     string `json:"key"`
	Part    Part   `json:"part"`
	Ordinal string `json:"ordinal"`
	Title   string `json:"title"`
	Rows    []Row  `json:"rows"`
}

// Project derives the visible, gender-conditioned section list from s. Sections are
// numbered with roman numerals, contiguously within each part.
func Project(s State) []Section {
	gender := s.EffectiveGender()
	out := make([]Section, 0, len(registry)+2)
	counters := make(map[Part]int)

	for _, cs := range registry {
		if !cs.VisibleFor(gender) {
			continue
		}
		g, present := s.Categories[cs.Category]

		if len(cs.Groups) == 0 {
			counters[cs.Part]++
			out = append(out, Section{
				Key:     string(cs.Category),
				Part:    cs.Part,
				Ordinal: Roman(counters[cs.Part]),
				Title:   cs.Title,
				Rows:    projectRows(g, present, cs.Fields, gender),
			})
			continue
		}

		counters[cs.Part]++
		ordinal := Roman(counters[cs.Part])
		if len(cs.Fields) > 0 {
			out = append(out, Section{
				Key:     string(cs.Category),
				Part:    cs.Part,
				Ordinal: ordinal,
				Title:   cs.Title,
				Rows:    projectRows(g, present, cs.Fields, gender),
			})
		}
		for i, gs := range cs.Groups {
			sub, ok := g.Groups[gs.Key]
			out = append(out, Section{
				Key:     string(cs.Category) + "." + gs.Key,
				Part:    cs.Part,
				Ordinal: ordinal + "." + strconv.Itoa(i+1),
				Title:   cs.Title + ": " + gs.Title,
				Rows:    projectRows(sub, present && ok, gs.Fields, gender),
			})
		}
	}
	return out
}

func projectRows(g Group, present bool, fields []FieldSpec, gender Gender) []Row {
	rows := []Row{}
	if !present {
		return rows
	}
	for _, fs := range fields {
		if !fs.VisibleFor(gender) {
			continue
		}
		f, ok := g.Fields[fs.Key]
		if !ok {
			continue
		}
		rows = append(rows, Row{Key: fs.Key, Label: fs.Label, Value: f.String(), LongForm: fs.LongForm})
	}
	return rows
}

const (
	worldDateLayout = "January 2, 2006"
	worldTimeLayout = "3:04 PM"
)

// ProjectIdentity renders the identity, world clock and stat rows. A null world date or
// time shows now instead; the substitute is never written back to s.
func ProjectIdentity(s State, now time.Time) []Row {
	name := ""
	if s.CharacterName != nil {
		name = *s.CharacterName
	}
	age := AgeUnknown
	if s.CharacterAge != nil {
		age = *s.CharacterAge
	}
	date := now.Format(worldDateLayout)
	if s.WorldDate != nil {
		date = *s.WorldDate
	}
	clock := now.Format(worldTimeLayout)
	if s.WorldTime != nil {
		clock = *s.WorldTime
	}

	rows := []Row{
		{Key: keyCharacterName, Label: "Name", Value: name},
		{Key: keyCharacterAge, Label: "Age", Value: age},
		{Key: keyCharacterGender, Label: "Gender", Value: titleCase(string(s.EffectiveGender()))},
		{Key: keyWorldDate, Label: "Date", Value: date},
		{Key: keyWorldTime, Label: "Time", Value: clock},
	}
	for _, sd := range StatDefaults {
		rows = append(rows, Row{Key: string(sd.Stat), Label: sd.Label, Value: strconv.Itoa(s.Stat(sd.Stat))})
	}
	return rows
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

var romanNumerals = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// Roman formats n (n >= 1) as a roman numeral. Non-positive n yields "".
func Roman(n int) string {
	var b strings.Builder
	for _, rn := range romanNumerals {
		for n >= rn.value {
			b.WriteString(rn.symbol)
			n -= rn.value
		}
	}
	return b.String()
}
