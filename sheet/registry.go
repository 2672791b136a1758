package sheet

// Category names a top-level, independently defaulted group of stat fields.
type Category string

const (
	BioProfile        Category = "bioProfile"
	Appearance        Category = "appearance"
	Measurements      Category = "measurements"
	Skeletal          Category = "skeletal"
	Musculature       Category = "musculature"
	Physiology        Category = "physiology"
	Neurological      Category = "neurological"
	Posture           Category = "posture"
	SoftTissue        Category = "softTissue"
	VaginalPhysiology Category = "vaginalPhysiology"
	AnalPhysiology    Category = "analPhysiology"
	PenilePhysiology  Category = "penilePhysiology"
	OrgasmTypes       Category = "orgasmTypes"
	MultipleOrgasm    Category = "multipleOrgasm"
	Positional        Category = "positional"
	Emotional         Category = "emotional"
	FluidDynamics     Category = "fluidDynamics"
	ClothingSizes     Category = "clothingSizes"
	ClothingFit       Category = "clothingFit"
	CurrentOutfit     Category = "currentOutfit"
	Advanced          Category = "advanced"
)

// Part groups categories for display; section ordinals restart in every part.
type Part string

const (
	PartProfile  Part = "Profile"
	PartBody     Part = "Body"
	PartIntimate Part = "Intimate"
	PartMind     Part = "Mind"
	PartWardrobe Part = "Wardrobe"
	PartExtras   Part = "Extras"
)

const (
	sentinelVolume = "0 mL"
	sentinelTime   = "N/A"
)

// FieldSpec declares one field: its key, display label, default, and layout hint.
type FieldSpec struct {
	Key      string
	Label    string
	Default  Field
	LongForm bool

	// OnlyFor restricts visibility to these genders. Empty means always visible.
	OnlyFor []Gender
}

// VisibleFor reports whether the field is shown for g.
func (fs FieldSpec) VisibleFor(g Gender) bool { return genderAllowed(fs.OnlyFor, g) }

// GroupSpec declares a nested group inside a category.
type GroupSpec struct {
	Key    string
	Title  string
	Fields []FieldSpec
}

// CategorySpec is the registry entry for one category.
type CategorySpec struct {
	Category Category
	Part     Part
	Title    string
	Fields   []FieldSpec
	Groups   []GroupSpec
	OnlyFor  []Gender
}

// VisibleFor reports whether the category is shown for g.
func (cs CategorySpec) VisibleFor(g Gender) bool { return genderAllowed(cs.OnlyFor, g) }

// Labels maps field keys to display labels.
func (cs CategorySpec) Labels() map[string]string {
	out := make(map[string]string, len(cs.Fields))
	for _, f := range cs.Fields {
		out[f.Key] = f.Label
	}
	return out
}

// LongForm is the set of field keys rendered beneath their label.
func (cs CategorySpec) LongForm() map[string]bool {
	out := make(map[string]bool)
	for _, f := range cs.Fields {
		if f.LongForm {
			out[f.Key] = true
		}
	}
	return out
}

// Defaults returns a fresh group with every declared field at its default.
func (cs CategorySpec) Defaults() Group {
	g := defaultsOf(cs.Fields)
	for _, gs := range cs.Groups {
		g.SetGroup(gs.Key, defaultsOf(gs.Fields))
	}
	return g
}

func defaultsOf(fields []FieldSpec) Group {
	g := Group{Fields: make(map[string]Field, len(fields))}
	for _, f := range fields {
		g.Fields[f.Key] = f.Default
	}
	return g
}

func genderAllowed(only []Gender, g Gender) bool {
	if len(only) == 0 {
		return true
	}
	for _, o := range only {
		if o == g {
			return true
		}
	}
	return false
}

func tbd(key, label string) FieldSpec { return FieldSpec{Key: key, Label: label, Default: Unknown()} }

func long(key, label string) FieldSpec {
	return FieldSpec{Key: key, Label: label, Default: Unknown(), LongForm: true}
}

func volume(key, label string) FieldSpec {
	return FieldSpec{Key: key, Label: label, Default: Value(sentinelVolume)}
}

func timeOf(key, label string) FieldSpec {
	return FieldSpec{Key: key, Label: label, Default: Value(sentinelTime)}
}

var (
	withVagina = []Gender{GenderFemale, GenderFutanari}
	withPenis  = []Gender{GenderMale, GenderFutanari}
)

var registry = []CategorySpec{
	{Category: BioProfile, Part: PartProfile, Title: "Bio Profile", Fields: []FieldSpec{
		tbd("fullName", "Full Name"),
		tbd("age", "Age"),
		tbd("species", "Species"),
		tbd("ethnicity", "Ethnicity"),
		tbd("occupation", "Occupation"),
		tbd("birthday", "Birthday"),
		tbd("zodiacSign", "Zodiac Sign"),
		tbd("sexualOrientation", "Sexual Orientation"),
		tbd("relationshipStatus", "Relationship Status"),
		long("background", "Background"),
	}},
	{Category: Appearance, Part: PartProfile, Title: "Appearance", Fields: []FieldSpec{
		tbd("height", "Height"),
		tbd("weight", "Weight"),
		tbd("bodyType", "Body Type"),
		tbd("skinTone", "Skin Tone"),
		tbd("hairColor", "Hair Color"),
		tbd("hairStyle", "Hair Style"),
		tbd("eyeColor", "Eye Color"),
		tbd("faceShape", "Face Shape"),
		long("distinguishingFeatures", "Distinguishing Features"),
		long("overallImpression", "Overall Impression"),
	}},
	{Category: Measurements, Part: PartProfile, Title: "Measurements", Groups: []GroupSpec{
		{Key: "circumferences", Title: "Circumferences", Fields: []FieldSpec{
			tbd("bust", "Bust"),
			tbd("underbust", "Underbust"),
			tbd("waist", "Waist"),
			tbd("hips", "Hips"),
			tbd("thigh", "Thigh"),
			tbd("calf", "Calf"),
			tbd("upperArm", "Upper Arm"),
			tbd("neck", "Neck"),
		}},
		{Key: "verticals", Title: "Verticals", Fields: []FieldSpec{
			tbd("torsoLength", "Torso Length"),
			tbd("inseam", "Inseam"),
			tbd("armLength", "Arm Length"),
			tbd("shoulderToWaist", "Shoulder to Waist"),
		}},
		{Key: "crossSection", Title: "Cross Section", Fields: []FieldSpec{
			tbd("shoulderWidth", "Shoulder Width"),
			tbd("chestDepth", "Chest Depth"),
			tbd("hipWidth", "Hip Width"),
		}},
	}},
	{Category: Skeletal, Part: PartBody, Title: "Skeletal Structure", Fields: []FieldSpec{
		tbd("frameSize", "Frame Size"),
		tbd("boneDensity", "Bone Density"),
		tbd("shoulderStructure", "Shoulder Structure"),
		tbd("ribcage", "Ribcage"),
		tbd("pelvisShape", "Pelvis Shape"),
		long("limbProportions", "Limb Proportions"),
	}},
	{Category: Musculature, Part: PartBody, Title: "Musculature", Fields: []FieldSpec{
		tbd("muscleTone", "Muscle Tone"),
		tbd("bodyFat", "Body Fat"),
		tbd("coreStrength", "Core Strength"),
		tbd("upperBody", "Upper Body"),
		tbd("lowerBody", "Lower Body"),
		tbd("flexibility", "Flexibility"),
	}},
	{Category: Physiology, Part: PartBody, Title: "Physiology", Fields: []FieldSpec{
		tbd("restingHeartRate", "Resting Heart Rate"),
		tbd("bloodPressure", "Blood Pressure"),
		tbd("bodyTemperature", "Body Temperature"),
		tbd("metabolism", "Metabolism"),
		tbd("lungCapacity", "Lung Capacity"),
		long("hormonalProfile", "Hormonal Profile"),
	}},
	{Category: Neurological, Part: PartBody, Title: "Neurological", Fields: []FieldSpec{
		tbd("touchSensitivity", "Touch Sensitivity"),
		tbd("painThreshold", "Pain Threshold"),
		tbd("reflexResponse", "Reflex Response"),
		long("sensoryProfile", "Sensory Profile"),
	}},
	{Category: Posture, Part: PartBody, Title: "Posture", Fields: []FieldSpec{
		tbd("standing", "Standing"),
		tbd("sitting", "Sitting"),
		tbd("gait", "Gait"),
		long("bodyLanguage", "Body Language"),
	}},
	{Category: SoftTissue, Part: PartBody, Title: "Soft Tissue", Fields: []FieldSpec{
		tbd("skinTexture", "Skin Texture"),
		tbd("skinElasticity", "Skin Elasticity"),
		tbd("tissueFirmness", "Tissue Firmness"),
		long("fatDistribution", "Fat Distribution"),
	}},
	{Category: VaginalPhysiology, Part: PartIntimate, Title: "Vaginal Physiology", OnlyFor: withVagina, Fields: []FieldSpec{
		tbd("depth", "Depth"),
		tbd("width", "Width"),
		tbd("elasticity", "Elasticity"),
		tbd("lubrication", "Lubrication"),
		tbd("sensitivity", "Sensitivity"),
		long("notes", "Notes"),
	}},
	{Category: AnalPhysiology, Part: PartIntimate, Title: "Anal Physiology", Fields: []FieldSpec{
		tbd("depth", "Depth"),
		tbd("elasticity", "Elasticity"),
		tbd("sensitivity", "Sensitivity"),
		long("notes", "Notes"),
	}},
	{Category: PenilePhysiology, Part: PartIntimate, Title: "Penile Physiology", OnlyFor: withPenis, Fields: []FieldSpec{
		tbd("flaccidLength", "Flaccid Length"),
		tbd("erectLength", "Erect Length"),
		tbd("girth", "Girth"),
		tbd("sensitivity", "Sensitivity"),
		tbd("refractoryPeriod", "Refractory Period"),
		long("notes", "Notes"),
	}},
	{Category: OrgasmTypes, Part: PartIntimate, Title: "Orgasm Response", Fields: []FieldSpec{
		tbd("responseType", "Response Type"),
		tbd("intensity", "Intensity"),
		tbd("duration", "Duration"),
		tbd("recoveryTime", "Recovery Time"),
		long("notes", "Notes"),
	}},
	{Category: MultipleOrgasm, Part: PartIntimate, Title: "Multi-Orgasm Cycle", Fields: []FieldSpec{
		tbd("capacity", "Capacity"),
		tbd("interval", "Interval"),
		tbd("cycleCount", "Cycle Count"),
		timeOf("lastOccurrence", "Last Occurrence"),
		tbd("fatigueThreshold", "Fatigue Threshold"),
	}},
	{Category: Positional, Part: PartIntimate, Title: "Positional Mapping", Fields: []FieldSpec{
		tbd("flexibilityLimits", "Flexibility Limits"),
		long("preferredPositions", "Preferred Positions"),
		long("comfortNotes", "Comfort Notes"),
	}},
	{Category: Emotional, Part: PartMind, Title: "Emotional Traits", Fields: []FieldSpec{
		tbd("temperament", "Temperament"),
		tbd("confidence", "Confidence"),
		tbd("attachmentStyle", "Attachment Style"),
		tbd("stressResponse", "Stress Response"),
		tbd("currentMood", "Current Mood"),
		long("triggers", "Triggers"),
	}},
	{Category: FluidDynamics, Part: PartMind, Title: "Fluid Dynamics", Fields: []FieldSpec{
		volume("saliva", "Saliva"),
		volume("sweat", "Sweat"),
		volume("tears", "Tears"),
		{Key: "vaginal", Label: "Vaginal", Default: Value(sentinelVolume), OnlyFor: withVagina},
		timeOf("lastReplenished", "Last Replenished"),
	}},
	{Category: ClothingSizes, Part: PartWardrobe, Title: "Clothing Sizes", Fields: []FieldSpec{
		tbd("topSize", "Top Size"),
		tbd("braSize", "Bra Size"),
		tbd("bottomSize", "Bottom Size"),
		tbd("dressSize", "Dress Size"),
		tbd("shoeSize", "Shoe Size"),
		tbd("ringSize", "Ring Size"),
	}},
	{Category: ClothingFit, Part: PartWardrobe, Title: "Clothing Fit", Fields: []FieldSpec{
		tbd("topFit", "Top Fit"),
		tbd("bottomFit", "Bottom Fit"),
		tbd("preferredFit", "Preferred Fit"),
		long("comfortNotes", "Comfort Notes"),
	}},
	{Category: CurrentOutfit, Part: PartWardrobe, Title: "Current Outfit", Fields: []FieldSpec{
		tbd("top", "Top"),
		tbd("bottom", "Bottom"),
		tbd("underwear", "Underwear"),
		tbd("footwear", "Footwear"),
		tbd("accessories", "Accessories"),
		long("description", "Description"),
	}},
	{Category: Advanced, Part: PartExtras, Title: "Advanced Traits", Fields: []FieldSpec{
		long("specialTraits", "Special Traits"),
		long("abilities", "Abilities"),
		long("limitations", "Limitations"),
		long("notes", "Notes"),
	}},
}

var registryIndex = func() map[Category]int {
	m := make(map[Category]int, len(registry))
	for i, cs := range registry {
		m[cs.Category] = i
	}
	return m
}()

// Categories returns every registered category in declaration order.
func Categories() []Category {
	out := make([]Category, len(registry))
	for i, cs := range registry {
		out[i] = cs.Category
	}
	return out
}

// Lookup returns the registry entry for c.
func Lookup(c Category) (CategorySpec, bool) {
	i, ok := registryIndex[c]
	if !ok {
		return CategorySpec{}, false
	}
	return registry[i], true
}

// Defaults returns a fresh default group for c, or an empty group for an unknown category.
func Defaults(c Category) Group {
	cs, ok := Lookup(c)
	if !ok {
		return Group{}
	}
	return cs.Defaults()
}

// IsCategory reports whether key names a registered category.
func IsCategory(key string) bool {
	_, ok := registryIndex[Category(key)]
	return ok
}
