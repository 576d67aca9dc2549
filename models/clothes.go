package models

import "github.com/lib/pq"

type ClothingItem struct {
	JsonModel
	Name     string `json:"name"`
	Category string `json:"category"` // raw tag, resolved to a slot via SlotForCategory

	Colors    pq.StringArray `gorm:"type:text[]" json:"colors"`
	Seasons   pq.StringArray `gorm:"type:text[]" json:"seasons"`
	Occasions pq.StringArray `gorm:"type:text[]" json:"occasions"`

	Brand     *string `json:"brand"`
	Size      *string `json:"size"`
	Price     float64 `gorm:"default:0" json:"price"`
	WearCount int     `gorm:"default:0" json:"wear_count"`
	Favorite  bool    `gorm:"default:false" json:"favorite"`

	ImageKey    *string `json:"image_key"`
	ImageStatus string  `json:"image_status"` // draft, uploaded

	Owner   UserAccount `json:"-"`
	OwnerID uint        `json:"-"`
}

// HasOccasion reports whether the item is tagged for the given occasion.
func (c ClothingItem) HasOccasion(occasion string) bool {
	for _, tag := range c.Occasions {
		if tag == occasion {
			return true
		}
	}
	return false
}

// HasSeason reports whether the item is tagged for the given season.
func (c ClothingItem) HasSeason(season string) bool {
	for _, tag := range c.Seasons {
		if tag == season {
			return true
		}
	}
	return false
}

type SavedOutfit struct {
	JsonModel
	Owner   UserAccount `json:"-"`
	OwnerID uint        `json:"-"`

	Occasion string `json:"occasion"`
	Season   string `json:"season"`
	Style    string `json:"style"`

	ItemIDs     pq.Int64Array `gorm:"type:bigint[]" json:"item_ids"`
	Confidence  float64       `json:"confidence"`
	Description string        `gorm:"type:text" json:"description"`

	// filled asynchronously by the stylist worker
	StylistNotes       *string `gorm:"type:text" json:"stylist_notes"`
	EnrichStatus       string  `json:"enrich_status"` // pending, completed, failed
	EnrichRetryTimes   int     `json:"enrich_retry_times"`
	EnrichErrorMessage *string `json:"enrich_error_message"`
}
