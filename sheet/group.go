package sheet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Group is the body of a category: string fields, nested groups, and any other JSON
// values that are carried through untouched.
type Group struct {
	Fields map[string]Field
	Groups map[string]Group
	Extra  map[string]json.RawMessage
}

// Equal reports structural equality. Nil and empty maps compare equal.
func (g Group) Equal(o Group) bool {
	if len(g.Fields) != len(o.Fields) || len(g.Groups) != len(o.Groups) || len(g.Extra) != len(o.Extra) {
		return false
	}
	for k, f := range g.Fields {
		of, ok := o.Fields[k]
		if !ok || !f.Equal(of) {
			return false
		}
	}
	for k, sub := range g.Groups {
		osub, ok := o.Groups[k]
		if !ok || !sub.Equal(osub) {
			return false
		}
	}
	for k, raw := range g.Extra {
		oraw, ok := o.Extra[k]
		if !ok || !bytes.Equal(raw, oraw) {
			return false
		}
	}
	return true
}

// Equal reports whether two fields hold the same state.
func (f Field) Equal(o Field) bool { return f == o }

// IsEmpty reports whether the group has no keys at all.
func (g Group) IsEmpty() bool {
	return len(g.Fields) == 0 && len(g.Groups) == 0 && len(g.Extra) == 0
}

// Keys returns every key in the group, sorted.
func (g Group) Keys() []string {
	keys := make([]string, 0, len(g.Fields)+len(g.Groups)+len(g.Extra))
	for k := range g.Fields {
		keys = append(keys, k)
	}
	for k := range g.Groups {
		keys = append(keys, k)
	}
	for k := range g.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Field returns the field stored under key.
func (g Group) Field(key string) (Field, bool) {
	f, ok := g.Fields[key]
	return f, ok
}

// Set stores f under key, replacing any nested group or extra value with the same key.
func (g *Group) Set(key string, f Field) {
	if g.Fields == nil {
		g.Fields = make(map[string]Field)
	}
	delete(g.Groups, key)
	delete(g.Extra, key)
	g.Fields[key] = f
}

// SetGroup stores sub under key.
func (g *Group) SetGroup(key string, sub Group) {
	if g.Groups == nil {
		g.Groups = make(map[string]Group)
	}
	delete(g.Fields, key)
	delete(g.Extra, key)
	g.Groups[key] = sub
}

// Clone returns a deep copy.
func (g Group) Clone() Group {
	var out Group
	if g.Fields != nil {
		out.Fields = make(map[string]Field, len(g.Fields))
		for k, f := range g.Fields {
			out.Fields[k] = f
		}
	}
	if g.Groups != nil {
		out.Groups = make(map[string]Group, len(g.Groups))
		for k, sub := range g.Groups {
			out.Groups[k] = sub.Clone()
		}
	}
	if g.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(g.Extra))
		for k, raw := range g.Extra {
			out.Extra[k] = append(json.RawMessage(nil), raw...)
		}
	}
	return out
}

func (g *Group) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*g = Group{}
	for k, v := range raw {
		switch firstByte(v) {
		case '"', 'n':
			var f Field
			if err := f.UnmarshalJSON(v); err != nil {
				return fmt.Errorf("field %q: %w", k, err)
			}
			g.Set(k, f)
		case '{':
			var sub Group
			if err := sub.UnmarshalJSON(v); err != nil {
				return fmt.Errorf("group %q: %w", k, err)
			}
			g.SetGroup(k, sub)
		default:
			if g.Extra == nil {
				g.Extra = make(map[string]json.RawMessage)
			}
			g.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return nil
}

// MarshalJSON writes keys in sorted order. State.MarshalJSON uses the registry
// order instead when it knows the category.
func (g Group) MarshalJSON() ([]byte, error) {
	return encodeGroup(g, nil, nil)
}

func encodeGroup(g Group, fields []FieldSpec, groups []GroupSpec) ([]byte, error) {
	return orderedGroup(g, fields, groups).MarshalJSON()
}

// orderedGroup lays g out with declared fields first, then declared groups, then every
// remaining key sorted.
func orderedGroup(g Group, fields []FieldSpec, groups []GroupSpec) *orderedmap.OrderedMap[string, any] {
	om := orderedmap.New[string, any]()
	emit := func(k string) {
		if _, done := om.Get(k); done {
			return
		}
		if f, ok := g.Fields[k]; ok {
			om.Set(k, f)
			return
		}
		if sub, ok := g.Groups[k]; ok {
			var subFields []FieldSpec
			for _, gs := range groups {
				if gs.Key == k {
					subFields = gs.Fields
				}
			}
			om.Set(k, orderedGroup(sub, subFields, nil))
			return
		}
		if raw, ok := g.Extra[k]; ok {
			om.Set(k, raw)
		}
	}
	for _, fs := range fields {
		emit(fs.Key)
	}
	for _, gs := range groups {
		emit(gs.Key)
	}
	for _, k := range g.Keys() {
		emit(k)
	}
	return om
}

func firstByte(b []byte) byte {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return 0
	}
	return b[0]
}
