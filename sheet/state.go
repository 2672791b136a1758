package sheet

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/text/cases"
)

// Gender gates which anatomy-specific sections are active.
type Gender string

const (
	GenderFemale   Gender = "female"
	GenderMale     Gender = "male"
	GenderFutanari Gender = "futanari"
)

// DefaultGender applies when neither text nor persisted state names one.
const DefaultGender = GenderFemale

// ParseGender normalises a gender token. "futa" and "hermaphrodite" map to futanari.
func ParseGender(s string) (Gender, bool) {
	switch cases.Fold().String(strings.TrimSpace(s)) {
	case "female":
		return GenderFemale, true
	case "male":
		return GenderMale, true
	case "futanari", "futa", "hermaphrodite":
		return GenderFutanari, true
	}
	return "", false
}

// Stat names one entry of the numeric stat block.
type Stat string

const (
	StatHealth       Stat = "health"
	StatStamina      Stat = "stamina"
	StatStrength     Stat = "strength"
	StatIntelligence Stat = "intelligence"
	StatCharisma     Stat = "charisma"
	StatLuck         Stat = "luck"
)

// StatDefaults lists the stat block in display order with default values.
var StatDefaults = []struct {
	Stat    Stat
	Label   string
	Default int
}{
	{StatHealth, "Health", 100},
	{StatStamina, "Stamina", 100},
	{StatStrength, "Strength", 10},
	{StatIntelligence, "Intelligence", 10},
	{StatCharisma, "Charisma", 10},
	{StatLuck, "Luck", 10},
}

func isStat(key string) bool {
	for _, sd := range StatDefaults {
		if string(sd.Stat) == key {
			return true
		}
	}
	return false
}

// State is the per-chat character sheet. Pointer and map-absent members mean "not persisted yet".
type State struct {
	Categories map[Category]Group

	CharacterName   *string
	CharacterAge    *string
	CharacterGender *Gender

	Stats map[Stat]int

	NumUsers  *int
	NumChars  *int
	WorldDate *string
	WorldTime *string

	PreviousState *State

	// Extra holds top-level keys this package does not know about.
	Extra map[string]json.RawMessage
}

// Category returns the group for c and whether it is present.
func (s State) Category(c Category) (Group, bool) {
	g, ok := s.Categories[c]
	return g, ok
}

// EffectiveGender returns the persisted gender, or DefaultGender when unset.
func (s State) EffectiveGender() Gender {
	if s.CharacterGender == nil {
		return DefaultGender
	}
	return *s.CharacterGender
}

// Stat returns the stat value, falling back to its default when absent.
func (s State) Stat(st Stat) int {
	if v, ok := s.Stats[st]; ok {
		return v
	}
	for _, sd := range StatDefaults {
		if sd.Stat == st {
			return sd.Default
		}
	}
	return 0
}

// Clone returns a deep copy, including the snapshot chain.
func (s State) Clone() State {
	out := State{
		CharacterName:   cloneString(s.CharacterName),
		CharacterAge:    cloneString(s.CharacterAge),
		CharacterGender: clonePtr(s.CharacterGender),
		NumUsers:        clonePtr(s.NumUsers),
		NumChars:        clonePtr(s.NumChars),
		WorldDate:       cloneString(s.WorldDate),
		WorldTime:       cloneString(s.WorldTime),
	}
	if s.Categories != nil {
		out.Categories = make(map[Category]Group, len(s.Categories))
		for c, g := range s.Categories {
			out.Categories[c] = g.Clone()
		}
	}
	if s.Stats != nil {
		out.Stats = make(map[Stat]int, len(s.Stats))
		for k, v := range s.Stats {
			out.Stats[k] = v
		}
	}
	if s.PreviousState != nil {
		prev := s.PreviousState.Clone()
		out.PreviousState = &prev
	}
	if s.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(s.Extra))
		for k, raw := range s.Extra {
			out.Extra[k] = append(json.RawMessage(nil), raw...)
		}
	}
	return out
}

func cloneString(p *string) *string { return clonePtr(p) }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

const (
	keyCharacterName   = "characterName"
	keyCharacterAge    = "characterAge"
	keyCharacterGender = "characterGender"
	keyNumUsers        = "numUsers"
	keyNumChars        = "numChars"
	keyWorldDate       = "worldDate"
	keyWorldTime       = "worldTime"
	keyPreviousState   = "previousState"
)

// MarshalJSON writes categories in registry order, then identity, stats and bookkeeping,
// then unknown keys sorted. An Extra key shadowed by a typed member is dropped.
func (s State) MarshalJSON() ([]byte, error) {
	om := orderedmap.New[string, any]()
	for _, cs := range registry {
		if g, ok := s.Categories[cs.Category]; ok {
			om.Set(string(cs.Category), orderedGroup(g, cs.Fields, cs.Groups))
		}
	}
	setIf := func(key string, set bool, v any) {
		if set {
			om.Set(key, v)
		}
	}
	setIf(keyCharacterName, s.CharacterName != nil, s.CharacterName)
	setIf(keyCharacterAge, s.CharacterAge != nil, s.CharacterAge)
	setIf(keyCharacterGender, s.CharacterGender != nil, s.CharacterGender)
	for _, sd := range StatDefaults {
		v, ok := s.Stats[sd.Stat]
		setIf(string(sd.Stat), ok, v)
	}
	setIf(keyNumUsers, s.NumUsers != nil, s.NumUsers)
	setIf(keyNumChars, s.NumChars != nil, s.NumChars)
	// worldDate/worldTime are written as null when unset so the key set stays stable.
	om.Set(keyWorldDate, s.WorldDate)
	om.Set(keyWorldTime, s.WorldTime)
	setIf(keyPreviousState, s.PreviousState != nil, s.PreviousState)

	extraKeys := make([]string, 0, len(s.Extra))
	for k := range s.Extra {
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		if _, taken := om.Get(k); taken {
			continue
		}
		om.Set(k, s.Extra[k])
	}
	b, err := om.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return b, nil
}

// UnmarshalJSON decodes persisted state. Unknown keys land in Extra, and so does a known
// key whose value has the wrong shape, leaving the typed member unset for Hydrate to
// default. A null category is treated as absent.
func (s *State) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = State{}
	for k, v := range raw {
		if err := s.decodeKey(k, v); err != nil {
			if s.Extra == nil {
				s.Extra = make(map[string]json.RawMessage)
			}
			s.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return nil
}

var errUnknownKey = errors.New("unknown key")

// decodeKey stores v into the typed member for k. Any error sends the raw value to Extra.
func (s *State) decodeKey(k string, v json.RawMessage) error {
	isNull := firstByte(v) == 'n'
	switch {
	case IsCategory(k):
		if isNull {
			return nil
		}
		var g Group
		if err := json.Unmarshal(v, &g); err != nil {
			return err
		}
		if s.Categories == nil {
			s.Categories = make(map[Category]Group)
		}
		s.Categories[Category(k)] = g
	case isStat(k):
		if isNull {
			return nil
		}
		i, err := decodeStat(v)
		if err != nil {
			return err
		}
		if s.Stats == nil {
			s.Stats = make(map[Stat]int)
		}
		s.Stats[Stat(k)] = i
	case k == keyCharacterName:
		return decodeOptional(v, &s.CharacterName)
	case k == keyCharacterAge:
		return decodeAge(v, &s.CharacterAge)
	case k == keyCharacterGender:
		var gs *string
		if err := decodeOptional(v, &gs); err != nil {
			return err
		}
		if gs != nil {
			if g, ok := ParseGender(*gs); ok {
				s.CharacterGender = &g
			}
		}
	case k == keyNumUsers:
		return decodeOptional(v, &s.NumUsers)
	case k == keyNumChars:
		return decodeOptional(v, &s.NumChars)
	case k == keyWorldDate:
		return decodeOptional(v, &s.WorldDate)
	case k == keyWorldTime:
		return decodeOptional(v, &s.WorldTime)
	case k == keyPreviousState:
		if isNull {
			return nil
		}
		if firstByte(v) != '{' {
			return fmt.Errorf("%s: not an object", k)
		}
		var prev State
		if err := json.Unmarshal(v, &prev); err != nil {
			return err
		}
		s.PreviousState = &prev
	default:
		return errUnknownKey
	}
	return nil
}

// decodeStat accepts integers and truncates fractional numbers.
func decodeStat(v json.RawMessage) (int, error) {
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		return 0, err
	}
	i, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil {
			return 0, err
		}
		i = int64(f)
	}
	return int(i), nil
}

func decodeOptional[T any](raw json.RawMessage, dst **T) error {
	if firstByte(raw) == 'n' {
		*dst = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}

// decodeAge accepts either a string or a bare number.
func decodeAge(raw json.RawMessage, dst **string) error {
	switch firstByte(raw) {
	case 'n':
		*dst = nil
		return nil
	case '"':
		return decodeOptional(raw, dst)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return err
	}
	s := n.String()
	*dst = &s
	return nil
}
