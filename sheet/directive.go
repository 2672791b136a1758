package sheet

import (
	"fmt"
	"strings"
)

// Unresolved lists the dotted paths of every visible field still Unknown, in registry order.
// Fields hidden for the character's gender are skipped.
func Unresolved(s State) []string {
	gender := s.EffectiveGender()
	var out []string
	for _, cs := range registry {
		if !cs.VisibleFor(gender) {
			continue
		}
		g, ok := s.Categories[cs.Category]
		if !ok {
			continue
		}
		prefix := string(cs.Category)
		out = appendUnknown(out, prefix, g, cs.Fields, gender)
		for _, gs := range cs.Groups {
			if sub, ok := g.Groups[gs.Key]; ok {
				out = appendUnknown(out, prefix+"."+gs.Key, sub, gs.Fields, gender)
			}
		}
	}
	return out
}

func appendUnknown(out []string, prefix string, g Group, fields []FieldSpec, gender Gender) []string {
	for _, fs := range fields {
		if !fs.VisibleFor(gender) {
			continue
		}
		if f, ok := g.Fields[fs.Key]; ok && !f.Known() {
			out = append(out, prefix+"."+fs.Key)
		}
	}
	return out
}

// Directive is the per-turn instruction asking the downstream model to resolve TBD
// fields. It returns "" when nothing is unresolved.
func Directive(s State) string {
	paths := Unresolved(s)
	if len(paths) == 0 {
		return ""
	}

	var titles []string
	seen := make(map[string]bool)
	for _, p := range paths {
		cat, _, _ := strings.Cut(p, ".")
		cs, _ := Lookup(Category(cat))
		if !seen[cs.Title] {
			seen[cs.Title] = true
			titles = append(titles, cs.Title)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[Character sheet: %d field(s) are still TBD in %s.", len(paths), strings.Join(titles, ", "))
	b.WriteString(" Work out realistic values for them from the persona, the scenario and the chat history so far,")
	fmt.Fprintf(&b, " keeping them consistent with a %s character.", s.EffectiveGender())
	b.WriteString(" Use imperial units (inches, pounds) for measurements, milliliters for fluid volumes, and US sizing for clothing.")
	b.WriteString(" Keep already known values unless the story changes them.]")
	return b.String()
}
