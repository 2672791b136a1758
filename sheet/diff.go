package sheet

import (
	"strconv"
)

// Change is one field whose rendered value differs between two states.
type Change struct {
	Path string `json:"path"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Diff compares the declared fields, identity and stats of two states. Absent fields
// render as "".
func Diff(from, to State) []Change {
	var out []Change
	add := func(path, a, b string) {
		if a != b {
			out = append(out, Change{Path: path, From: a, To: b})
		}
	}

	for _, cs := range registry {
		fg := from.Categories[cs.Category]
		tg := to.Categories[cs.Category]
		prefix := string(cs.Category)
		for _, fs := range cs.Fields {
			add(prefix+"."+fs.Key, renderField(fg, fs.Key), renderField(tg, fs.Key))
		}
		for _, gs := range cs.Groups {
			fsub := fg.Groups[gs.Key]
			tsub := tg.Groups[gs.Key]
			for _, fs := range gs.Fields {
				add(prefix+"."+gs.Key+"."+fs.Key, renderField(fsub, fs.Key), renderField(tsub, fs.Key))
			}
		}
	}

	add(keyCharacterName, deref(from.CharacterName), deref(to.CharacterName))
	add(keyCharacterAge, deref(from.CharacterAge), deref(to.CharacterAge))
	add(keyCharacterGender, string(from.EffectiveGender()), string(to.EffectiveGender()))
	add(keyWorldDate, deref(from.WorldDate), deref(to.WorldDate))
	add(keyWorldTime, deref(from.WorldTime), deref(to.WorldTime))
	for _, sd := range StatDefaults {
		add(string(sd.Stat), strconv.Itoa(from.Stat(sd.Stat)), strconv.Itoa(to.Stat(sd.Stat)))
	}
	return out
}

func renderField(g Group, key string) string {
	f, ok := g.Fields[key]
	if !ok {
		return ""
	}
	return f.String()
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
