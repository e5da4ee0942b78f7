package domain

// TextureClass identifies a USDA soil texture triangle class.
type TextureClass int

const (
	TextureSand TextureClass = iota
	TextureLoamySand
	TextureSandyLoam
	TextureLoam
	TextureSiltLoam
	TextureSandyClayLoam
	TextureClayLoam
	TextureSiltyClayLoam
	TextureSandyClay
	TextureSiltyClay
	TextureClay
)

// String returns the wire identifier for the class.
func (tc TextureClass) String() string {
	switch tc {
	case TextureSand:
		return "Sand"
	case TextureLoamySand:
		return "LoamySand"
	case TextureSandyLoam:
		return "SandyLoam"
	case TextureLoam:
		return "Loam"
	case TextureSiltLoam:
		return "SiltLoam"
	case TextureSandyClayLoam:
		return "SandyClayLoam"
	case TextureClayLoam:
		return "ClayLoam"
	case TextureSiltyClayLoam:
		return "SiltyClayLoam"
	case TextureSandyClay:
		return "SandyClay"
	case TextureSiltyClay:
		return "SiltyClay"
	case TextureClay:
		return "Clay"
	default:
		return "Loam"
	}
}

// DisplayName returns the human-readable label for the class. The mobile
// client localizes these keys; the service ships the English defaults.
func (tc TextureClass) DisplayName() string {
	switch tc {
	case TextureSand:
		return "Sand"
	case TextureLoamySand:
		return "Loamy Sand"
	case TextureSandyLoam:
		return "Sandy Loam"
	case TextureLoam:
		return "Loam"
	case TextureSiltLoam:
		return "Silt Loam"
	case TextureSandyClayLoam:
		return "Sandy Clay Loam"
	case TextureClayLoam:
		return "Clay Loam"
	case TextureSiltyClayLoam:
		return "Silty Clay Loam"
	case TextureSandyClay:
		return "Sandy Clay"
	case TextureSiltyClay:
		return "Silty Clay"
	case TextureClay:
		return "Clay"
	default:
		return "Loam"
	}
}

// MarshalText lets TextureClass serialize as its wire identifier in JSON.
func (tc TextureClass) MarshalText() ([]byte, error) {
	return []byte(tc.String()), nil
}

// UnmarshalText parses the wire identifier; unknown names become Loam,
// mirroring the classifier's neutral default.
func (tc *TextureClass) UnmarshalText(text []byte) error {
	name := string(text)
	for c := TextureSand; c <= TextureClay; c++ {
		if c.String() == name {
			*tc = c
			return nil
		}
	}
	*tc = TextureLoam
	return nil
}

// Confidence grades how trustworthy a derived result is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Source records where a detection result came from.
type Source string

const (
	SourceAPI      Source = "api"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)

// SoilLayerValue is one measurement of one property over one depth band.
type SoilLayerValue struct {
	Label         string  `json:"label"`
	TopDepthCm    float64 `json:"topDepthCm"`
	BottomDepthCm float64 `json:"bottomDepthCm"`
	ValuePercent  float64 `json:"valuePercent"`
}

// SoilProfile is the raw multi-depth signal for one coordinate. The three
// sequences are parallel arrays of equal length, sorted ascending by top
// depth, so a profile fetched once can be re-aggregated for any root depth.
type SoilProfile struct {
	Clay []SoilLayerValue `json:"clay"`
	Sand []SoilLayerValue `json:"sand"`
	Silt []SoilLayerValue `json:"silt"`
}

// Empty reports whether the profile carries no layers at all.
func (p SoilProfile) Empty() bool {
	return len(p.Clay) == 0 && len(p.Sand) == 0 && len(p.Silt) == 0
}

// SoilGridsResult is the public answer of a soil detection.
type SoilGridsResult struct {
	Clay           float64      `json:"clay"`
	Sand           float64      `json:"sand"`
	Silt           float64      `json:"silt"`
	TextureClass   TextureClass `json:"textureClass"`
	RootDepthCm    float64      `json:"rootDepthCm"`
	Confidence     Confidence   `json:"confidence"`
	MatchedSoilRef *SoilRef     `json:"matchedSoilRef,omitempty"`
	Source         Source       `json:"source"`
}

// SlopeResult is the answer of a terrain slope estimation.
type SlopeResult struct {
	SlopePercent    float64    `json:"slopePercent"`
	ElevationMeters float64    `json:"elevationMeters"`
	Confidence      Confidence `json:"confidence"`
}

// CustomSoilParameters are hydraulic parameters estimated from texture.
// They are derived on demand and never persisted by this service.
type CustomSoilParameters struct {
	Name                string  `json:"name"`
	FieldCapacityPct    float64 `json:"fieldCapacityPct"`
	WiltingPointPct     float64 `json:"wiltingPointPct"`
	InfiltrationRateMmH float64 `json:"infiltrationRateMmH"`
	BulkDensityGcm3     float64 `json:"bulkDensityGcm3"`
	OrganicMatterPct    float64 `json:"organicMatterPct"`
}

// SoilRef points at an entry of the bundled soil reference database.
type SoilRef struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	AvailableWaterMmM   float64 `json:"available_water_mm_m"`
	InfiltrationRateMmH float64 `json:"infiltration_rate_mm_h"`
}

// SoilDatabase matches a texture class against the reference database.
// The database content itself is an external collaborator.
type SoilDatabase interface {
	MatchTexture(tc TextureClass) (SoilRef, bool)
}
