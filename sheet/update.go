package sheet

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Update sets one declared field, addressed as "category.field" or "category.group.field".
type Update struct {
	Path  string `json:"path" jsonschema:"required"`
	Value string `json:"value" jsonschema:"required"`
}

// ValidPath reports whether path names a declared field.
func ValidPath(path string) bool {
	_, _, ok := resolvePath(path)
	return ok
}

// resolvePath returns the category of a declared field path and, for a three-part
// path, the group it lives in.
func resolvePath(path string) (CategorySpec, *GroupSpec, bool) {
	parts := strings.Split(path, ".")
	cs, ok := Lookup(Category(parts[0]))
	if !ok {
		return CategorySpec{}, nil, false
	}
	switch len(parts) {
	case 2:
		for _, fs := range cs.Fields {
			if fs.Key == parts[1] {
				return cs, nil, true
			}
		}
	case 3:
		for i, gs := range cs.Groups {
			if gs.Key != parts[1] {
				continue
			}
			for _, fs := range gs.Fields {
				if fs.Key == parts[2] {
					return cs, &cs.Groups[i], true
				}
			}
		}
	}
	return CategorySpec{}, nil, false
}

// ApplyUpdates writes each update into persisted state JSON at its path, leaving every
// other byte of the document alone. A category or nested group that is missing, null or
// empty is first seeded with its registry defaults so the write never leaves it
// partially shaped. Undeclared paths and non-object containers are rejected.
func ApplyUpdates(raw []byte, updates []Update) ([]byte, error) {
	out := raw
	if len(strings.TrimSpace(string(out))) == 0 {
		out = []byte("{}")
	}
	for _, u := range updates {
		cs, gs, ok := resolvePath(u.Path)
		if !ok {
			return nil, fmt.Errorf("ApplyUpdates: unknown field path %q", u.Path)
		}
		var err error
		cat := string(cs.Category)
		out, err = seedContainer(out, cat, cs.Defaults(), cs.Fields, cs.Groups)
		if err != nil {
			return nil, err
		}
		if gs != nil {
			out, err = seedContainer(out, cat+"."+gs.Key, defaultsOf(gs.Fields), gs.Fields, nil)
			if err != nil {
				return nil, err
			}
		}
		value := strings.TrimSpace(u.Value)
		if value == "" {
			value = SentinelTBD
		}
		out, err = sjson.SetBytes(out, u.Path, value)
		if err != nil {
			return nil, fmt.Errorf("ApplyUpdates: set %s: %w", u.Path, err)
		}
	}
	return out, nil
}

// seedContainer writes defaults at path unless an object with at least one key is
// already there.
func seedContainer(doc []byte, path string, defaults Group, fields []FieldSpec, groups []GroupSpec) ([]byte, error) {
	res := gjson.GetBytes(doc, path)
	switch {
	case res.IsObject() && len(res.Map()) > 0:
		return doc, nil
	case res.Exists() && res.Type != gjson.Null && !res.IsObject():
		return nil, fmt.Errorf("ApplyUpdates: %s is not an object", path)
	}
	b, err := encodeGroup(defaults, fields, groups)
	if err != nil {
		return nil, fmt.Errorf("ApplyUpdates: encode %s defaults: %w", path, err)
	}
	out, err := sjson.SetRawBytes(doc, path, b)
	if err != nil {
		return nil, fmt.Errorf("ApplyUpdates: seed %s: %w", path, err)
	}
	return out, nil
}
