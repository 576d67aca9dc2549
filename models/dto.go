package models

const (
	DefaultOccasion = "casual"
	DefaultSeason   = "all-year"
	DefaultStyle    = "comfortable"
)

type WeatherIn struct {
	Temperature *float64 `json:"temperature"`
	Condition   string   `json:"condition"`
}

// OutfitPreference is a per-request parameter set, never persisted.
type OutfitPreference struct {
	Occasion string     `json:"occasion"`
	Season   string     `json:"season"`
	Style    string     `json:"style"`
	Weather  *WeatherIn `json:"weather"`
}

// Normalized falls back to the defaults for any missing field. Malformed
// preferences are repaired here, never rejected.
func (p OutfitPreference) Normalized() OutfitPreference {
	if p.Occasion == "" {
		p.Occasion = DefaultOccasion
	}
	if p.Season == "" {
		p.Season = DefaultSeason
	}
	if p.Style == "" {
		p.Style = DefaultStyle
	}
	return p
}

// OutfitCandidate is one generated proposal. Ids are unique per response
// batch; the candidate only exists in the response unless saved explicitly.
type OutfitCandidate struct {
	ID          string     `json:"id"`
	Occasion    string     `json:"occasion"`
	Season      string     `json:"season"`
	Style       string     `json:"style"`
	Weather     *WeatherIn `json:"weather,omitempty"`
	ItemIDs     []uint     `json:"item_ids"`
	Confidence  float64    `json:"confidence"`
	Description string     `json:"description"`
}

type OutfitGenerateIn struct {
	Occasion string     `json:"occasion" validate:"omitempty,max=50"`
	Season   string     `json:"season" validate:"omitempty,max=50"`
	Style    string     `json:"style" validate:"omitempty,max=50"`
	Weather  *WeatherIn `json:"weather"`
	Count    int        `json:"count" validate:"omitempty,min=1,max=10"`
}

type OutfitFeedOut struct {
	Success  bool              `json:"success"`
	Outfits  []OutfitCandidate `json:"outfits"`
	Count    int               `json:"count"`
	Message  string            `json:"message,omitempty"`
	Fallback bool              `json:"fallback,omitempty"`
}

type SaveOutfitIn struct {
	Occasion    string  `json:"occasion" validate:"omitempty,max=50"`
	Season      string  `json:"season" validate:"omitempty,max=50"`
	Style       string  `json:"style" validate:"omitempty,max=50"`
	ItemIDs     []uint  `json:"item_ids" validate:"required,min=1"`
	Confidence  float64 `json:"confidence" validate:"omitempty,min=0,max=1"`
	Description string  `json:"description" validate:"omitempty,max=500"`
}
