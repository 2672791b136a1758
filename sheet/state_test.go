package sheet

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestState_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	in := `{
		"bioProfile": {"occupation": "Nurse", "hobbies": "TBD", "nickname": "Sunny"},
		"measurements": {"circumferences": {"bust": "34 in"}, "notes": {"custom": "x"}},
		"characterName": "Sarah",
		"characterAge": "27",
		"characterGender": "female",
		"health": 80,
		"numUsers": 1,
		"worldDate": "Day 3",
		"worldTime": null,
		"hostFlags": {"pinned":true},
		"previousState": {"characterName": "Sarah", "health": 100}
	}`
	st := mustDecode(t, in)

	first, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back State
	if err := json.Unmarshal(first, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(st, back); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	second, err := json.Marshal(back)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("encoding not stable:\n%s\n%s", first, second)
	}
}

func TestState_UnmarshalDetails(t *testing.T) {
	t.Parallel()

	st := mustDecode(t, `{
		"appearance": {"hairColor": null, "eyeColor": "TBD", "build": "lean", "tags": ["a"]},
		"posture": null,
		"characterAge": 31,
		"characterGender": "Hermaphrodite",
		"luck": 12.0,
		"mystery": 7
	}`)

	app, ok := st.Category(Appearance)
	if !ok {
		t.Fatalf("appearance missing")
	}
	for _, k := range []string{"hairColor", "eyeColor"} {
		f, ok := app.Field(k)
		if !ok || f.Known() {
			t.Fatalf("%s=%v (present %v), want Unknown", k, f, ok)
		}
	}
	if f, _ := app.Field("build"); f != Value("lean") {
		t.Fatalf("build=%v, want lean", f)
	}
	if string(app.Extra["tags"]) != `["a"]` {
		t.Fatalf("tags extra=%s", app.Extra["tags"])
	}
	if _, ok := st.Category(Posture); ok {
		t.Fatalf("null posture should be absent")
	}
	if st.CharacterAge == nil || *st.CharacterAge != "31" {
		t.Fatalf("characterAge=%v, want 31", st.CharacterAge)
	}
	if st.EffectiveGender() != GenderFutanari {
		t.Fatalf("gender=%s, want futanari", st.EffectiveGender())
	}
	if st.Stat(StatLuck) != 12 {
		t.Fatalf("luck=%d, want 12", st.Stat(StatLuck))
	}
	if string(st.Extra["mystery"]) != "7" {
		t.Fatalf("mystery extra=%s", st.Extra["mystery"])
	}
}

func TestState_InvalidGenderIgnored(t *testing.T) {
	t.Parallel()

	st := mustDecode(t, `{"characterGender": "robot"}`)
	if st.CharacterGender != nil {
		t.Fatalf("characterGender=%v, want nil", *st.CharacterGender)
	}
	if st.EffectiveGender() != DefaultGender {
		t.Fatalf("effective gender=%s, want %s", st.EffectiveGender(), DefaultGender)
	}
}

func TestState_MarshalOrder(t *testing.T) {
	t.Parallel()

	st := Hydrate(State{})
	b, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var keys []string
	dec := json.NewDecoder(bytes.NewReader(b))
	if _, err := dec.Token(); err != nil {
		t.Fatalf("Token: %v", err)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			t.Fatalf("Token: %v", err)
		}
		keys = append(keys, tok.(string))
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			t.Fatalf("Decode: %v", err)
		}
	}
	if keys[0] != string(BioProfile) || keys[1] != string(Appearance) {
		t.Fatalf("keys start %v, want registry order", keys[:2])
	}
	want := map[string]bool{keyWorldDate: true, keyWorldTime: true, keyPreviousState: true, "health": true}
	for _, k := range keys {
		delete(want, k)
	}
	if len(want) != 0 {
		t.Fatalf("missing keys %v in %v", want, keys)
	}
}

func TestGroup_Equal(t *testing.T) {
	t.Parallel()

	var a, b Group
	if !a.Equal(Group{Fields: map[string]Field{}}) {
		t.Fatalf("nil and empty groups differ")
	}
	a.Set("x", Value("1"))
	b.Set("x", Unknown())
	if a.Equal(b) {
		t.Fatalf("known and unknown fields compare equal")
	}
	b.Set("x", Value("1"))
	if !a.Equal(b) {
		t.Fatalf("equal groups differ")
	}
}

func TestState_CloneIsDeep(t *testing.T) {
	t.Parallel()

	st := Hydrate(mustDecode(t, `{"characterName":"Sarah","measurements":{"verticals":{"inseam":"30 in"}}}`))
	cp := st.Clone()

	m := cp.Categories[Measurements]
	v := m.Groups["verticals"]
	v.Set("inseam", Value("31 in"))
	*cp.CharacterName = "Ana"
	cp.Stats[StatLuck] = 1

	if f, _ := st.Categories[Measurements].Groups["verticals"].Field("inseam"); f != Value("30 in") {
		t.Fatalf("original inseam=%v after mutating clone", f)
	}
	if *st.CharacterName != "Sarah" || st.Stat(StatLuck) != 10 {
		t.Fatalf("original mutated through clone")
	}
}

func TestState_WrongShapedKeysGoToExtra(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		key  string
	}{
		{"string category", `{"bioProfile":"legacy"}`, "bioProfile"},
		{"array category", `{"posture":["a"]}`, "posture"},
		{"string stat", `{"luck":"high"}`, "luck"},
		{"object stat", `{"health":{"max":100}}`, "health"},
		{"numeric name", `{"characterName":42}`, keyCharacterName},
		{"string user count", `{"numUsers":"two"}`, keyNumUsers},
		{"scalar snapshot", `{"previousState":"gone"}`, keyPreviousState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var st State
			if err := json.Unmarshal([]byte(tt.in), &st); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			var want map[string]json.RawMessage
			if err := json.Unmarshal([]byte(tt.in), &want); err != nil {
				t.Fatalf("Unmarshal want: %v", err)
			}
			if diff := cmp.Diff(want, st.Extra); diff != "" {
				t.Fatalf("extra (-want +got):\n%s", diff)
			}
		})
	}
}

func TestState_WrongShapedKeysHydrateToDefaults(t *testing.T) {
	t.Parallel()

	st := Hydrate(mustDecode(t, `{"bioProfile":"legacy","luck":"high","health":55}`))

	bio, ok := st.Category(BioProfile)
	if !ok || !bio.Equal(Defaults(BioProfile)) {
		t.Fatalf("bioProfile=%+v, want defaults", bio)
	}
	if st.Stat(StatLuck) != 10 {
		t.Fatalf("luck=%d, want 10", st.Stat(StatLuck))
	}
	if st.Stat(StatHealth) != 55 {
		t.Fatalf("health=%d, want 55", st.Stat(StatHealth))
	}

	b, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	seen := make(map[string]int)
	dec := json.NewDecoder(bytes.NewReader(b))
	if _, err := dec.Token(); err != nil {
		t.Fatalf("Token: %v", err)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			t.Fatalf("Token: %v", err)
		}
		seen[tok.(string)]++
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			t.Fatalf("Decode: %v", err)
		}
	}
	for k, n := range seen {
		if n != 1 {
			t.Fatalf("key %s written %d times", k, n)
		}
	}

	var back State
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Stat(StatLuck) != 10 {
		t.Fatalf("luck after round trip=%d, want 10", back.Stat(StatLuck))
	}
	if _, ok := back.Extra["luck"]; ok {
		t.Fatalf("shadowed luck survived in extra: %s", back.Extra["luck"])
	}
}

func TestState_NullFieldWrittenAsTBD(t *testing.T) {
	t.Parallel()

	st := mustDecode(t, `{"appearance":{"hairColor":null,"build":"lean"}}`)
	b, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back struct {
		Appearance map[string]*string `json:"appearance"`
	}
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got := back.Appearance["hairColor"]; got == nil || *got != SentinelTBD {
		t.Fatalf("hairColor=%v, want %q", got, SentinelTBD)
	}
	if got := back.Appearance["build"]; got == nil || *got != "lean" {
		t.Fatalf("build=%v, want lean", got)
	}
}
