package sheet

type hydrateOptions struct {
	backfillFields bool
}

// HydrateOption tunes Hydrate.
type HydrateOption func(*hydrateOptions)

// WithFieldBackfill also fills declared fields missing from categories that are present.
// Without it, a present category is kept exactly as persisted.
func WithFieldBackfill() HydrateOption {
	return func(o *hydrateOptions) { o.backfillFields = true }
}

// Hydrate returns a complete copy of persisted: every absent (or empty) category gets its
// registry defaults, missing stats get their defaults, and the first hydration records a
// snapshot in PreviousState. persisted is not modified. Hydrate is idempotent.
func Hydrate(persisted State, opts ...HydrateOption) State {
	var o hydrateOptions
	for _, opt := range opts {
		opt(&o)
	}

	out := persisted.Clone()
	if out.Categories == nil {
		out.Categories = make(map[Category]Group, len(registry))
	}
	for _, cs := range registry {
		g, ok := out.Categories[cs.Category]
		if !ok || g.IsEmpty() {
			out.Categories[cs.Category] = cs.Defaults()
			continue
		}
		if o.backfillFields {
			out.Categories[cs.Category] = backfill(g, cs)
		}
	}

	if out.Stats == nil {
		out.Stats = make(map[Stat]int, len(StatDefaults))
	}
	for _, sd := range StatDefaults {
		if _, ok := out.Stats[sd.Stat]; !ok {
			out.Stats[sd.Stat] = sd.Default
		}
	}

	if out.PreviousState == nil {
		snap := out.Clone()
		out.PreviousState = &snap
	}
	return out
}

func backfill(g Group, cs CategorySpec) Group {
	for _, fs := range cs.Fields {
		if !g.hasKey(fs.Key) {
			g.Set(fs.Key, fs.Default)
		}
	}
	for _, gs := range cs.Groups {
		sub, ok := g.Groups[gs.Key]
		if !ok {
			if !g.hasKey(gs.Key) {
				g.SetGroup(gs.Key, defaultsOf(gs.Fields))
			}
			continue
		}
		for _, fs := range gs.Fields {
			if !sub.hasKey(fs.Key) {
				sub.Set(fs.Key, fs.Default)
			}
		}
		g.Groups[gs.Key] = sub
	}
	return g
}

func (g Group) hasKey(k string) bool {
	if _, ok := g.Fields[k]; ok {
		return true
	}
	if _, ok := g.Groups[k]; ok {
		return true
	}
	_, ok := g.Extra[k]
	return ok
}

// Sources are the texts active in the current turn. A nil member means there is no
// non-removed user (Persona) or character (Scenario) to read from.
type Sources struct {
	Persona  *Persona
	Scenario *string

	NumUsers *int
	NumChars *int
}

// ApplySources merges extracted facts into a copy of s. Identity is replaced only when a
// persona is active; world date and time only when the scenario is active and matched.
func ApplySources(s State, src Sources) State {
	out := s.Clone()
	if src.Persona != nil {
		id := ExtractIdentity(*src.Persona, s.CharacterGender)
		out.CharacterName = id.Name
		age := id.Age
		out.CharacterAge = &age
		g := id.Gender
		out.CharacterGender = &g
	}
	if src.Scenario != nil {
		wt := ExtractWorldTime(*src.Scenario)
		if wt.Date != nil {
			out.WorldDate = wt.Date
		}
		if wt.Time != nil {
			out.WorldTime = wt.Time
		}
	}
	if src.NumUsers != nil {
		out.NumUsers = clonePtr(src.NumUsers)
	}
	if src.NumChars != nil {
		out.NumChars = clonePtr(src.NumChars)
	}
	return out
}
