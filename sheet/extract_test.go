package sheet

import "testing"

func strp(s string) *string { return &s }

func TestExtractIdentity(t *testing.T) {
	t.Parallel()

	male := GenderMale
	tests := []struct {
		name       string
		persona    Persona
		existing   *Gender
		wantName   *string
		wantAge    string
		wantGender Gender
	}{
		{
			name:       "name and age from intro",
			persona:    Persona{Text: "Hi, I'm Sarah, I am 27 years old"},
			wantName:   strp("Sarah"),
			wantAge:    "27",
			wantGender: GenderFemale,
		},
		{
			name:       "my name is, case-insensitive introducer",
			persona:    Persona{Text: "MY NAME IS Lena and I'm 1 year old"},
			wantName:   strp("Lena"),
			wantAge:    "1",
			wantGender: GenderFemale,
		},
		{
			name:       "lower-case word is not a name",
			persona:    Persona{DisplayName: "Kit", Text: "i am tired"},
			wantName:   strp("Kit"),
			wantAge:    AgeUnknown,
			wantGender: GenderFemale,
		},
		{
			name:       "no display name leaves name undefined",
			persona:    Persona{Text: "just vibes"},
			wantName:   nil,
			wantAge:    AgeUnknown,
			wantGender: GenderFemale,
		},
		{
			name:       "futa normalises",
			persona:    Persona{Text: "gender: futa"},
			wantAge:    AgeUnknown,
			wantGender: GenderFutanari,
		},
		{
			name:       "hermaphrodite normalises",
			persona:    Persona{Text: "Sex hermaphrodite"},
			wantAge:    AgeUnknown,
			wantGender: GenderFutanari,
		},
		{
			name:       "i am male",
			persona:    Persona{Text: "I am male, 40 years old"},
			wantAge:    "40",
			wantGender: GenderMale,
		},
		{
			name:       "female is not read as male",
			persona:    Persona{Text: "gender: Female"},
			wantAge:    AgeUnknown,
			wantGender: GenderFemale,
		},
		{
			name:       "gender word is not a name",
			persona:    Persona{DisplayName: "Sam", Text: "I'm Male, 30 years old"},
			wantName:   strp("Sam"),
			wantAge:    "30",
			wantGender: GenderMale,
		},
		{
			name:       "name after a gender intro",
			persona:    Persona{Text: "I am Female. My name is Ana"},
			wantName:   strp("Ana"),
			wantAge:    AgeUnknown,
			wantGender: GenderFemale,
		},
		{
			name:       "persisted gender beats default",
			persona:    Persona{Text: "nothing here"},
			existing:   &male,
			wantAge:    AgeUnknown,
			wantGender: GenderMale,
		},
		{
			name:       "text beats persisted gender",
			persona:    Persona{Text: "I'm futanari"},
			existing:   &male,
			wantAge:    AgeUnknown,
			wantGender: GenderFutanari,
		},
		{
			name:       "empty text",
			persona:    Persona{},
			wantAge:    AgeUnknown,
			wantGender: GenderFemale,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ExtractIdentity(tt.persona, tt.existing)
			switch {
			case tt.wantName == nil && got.Name != nil:
				t.Fatalf("Name=%q, want nil", *got.Name)
			case tt.wantName != nil && (got.Name == nil || *got.Name != *tt.wantName):
				t.Fatalf("Name=%v, want %q", got.Name, *tt.wantName)
			}
			if got.Age != tt.wantAge {
				t.Fatalf("Age=%q, want %q", got.Age, tt.wantAge)
			}
			if got.Gender != tt.wantGender {
				t.Fatalf("Gender=%q, want %q", got.Gender, tt.wantGender)
			}
		})
	}
}

func TestExtractWorldTime(t *testing.T) {
	t.Parallel()

	wt := ExtractWorldTime("Current Date: March 3rd, 2024. Some other sentence.")
	if wt.Date == nil || *wt.Date != "March 3rd, 2024" {
		t.Fatalf("Date=%v, want March 3rd, 2024", wt.Date)
	}
	if wt.Time != nil {
		t.Fatalf("Time=%q, want nil", *wt.Time)
	}

	wt = ExtractWorldTime("The tavern is loud.\ntime:   dusk  \ndate: Year 12 of the Reign\n")
	if wt.Date == nil || *wt.Date != "Year 12 of the Reign" {
		t.Fatalf("Date=%v", wt.Date)
	}
	if wt.Time == nil || *wt.Time != "dusk" {
		t.Fatalf("Time=%v", wt.Time)
	}

	wt = ExtractWorldTime("We need an update: soon")
	if wt.Date != nil {
		t.Fatalf("Date=%q, want nil for 'update:'", *wt.Date)
	}

	if wt := ExtractWorldTime(""); wt.Date != nil || wt.Time != nil {
		t.Fatalf("empty scenario produced %+v", wt)
	}
}

func TestRules_Ordered(t *testing.T) {
	t.Parallel()

	rules := Rules()
	want := []ExtractionTarget{TargetName, TargetAge, TargetGender, TargetWorldDate, TargetWorldTime}
	if len(rules) != len(want) {
		t.Fatalf("len(Rules())=%d, want %d", len(rules), len(want))
	}
	for i, r := range rules {
		if r.Target != want[i] {
			t.Fatalf("rule %d target=%s, want %s", i, r.Target, want[i])
		}
	}
	if rules[1].Fallback != AgeUnknown {
		t.Fatalf("age fallback=%q", rules[1].Fallback)
	}
}
