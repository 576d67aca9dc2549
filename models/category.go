package models

import (
	"strings"

	"github.com/go-playground/validator"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Slot is one of the five canonical buckets an outfit is assembled from.
// Items whose category maps to no slot are kept in the closet but skipped
// during composition.
type Slot string

const (
	SlotTop       Slot = "top"
	SlotBottom    Slot = "bottom"
	SlotOuterwear Slot = "outerwear"
	SlotFootwear  Slot = "footwear"
	SlotAccessory Slot = "accessory"
)

var AllSlots = []Slot{SlotTop, SlotBottom, SlotOuterwear, SlotFootwear, SlotAccessory}

var lowerCaser = cases.Lower(language.English)
var TitleCaser = cases.Title(language.English)

// categorySlots maps every raw category tag the mobile clients send to its
// canonical slot. The clients historically sent whatever label the user
// picked, so synonyms accumulate here instead of in the composer.
var categorySlots = map[string]Slot{
	"top":        SlotTop,
	"shirt":      SlotTop,
	"t-shirt":    SlotTop,
	"tshirt":     SlotTop,
	"tee":        SlotTop,
	"blouse":     SlotTop,
	"sweater":    SlotTop,
	"tank":       SlotTop,
	"polo":       SlotTop,
	"dress":      SlotTop,

	"bottom":   SlotBottom,
	"pants":    SlotBottom,
	"jeans":    SlotBottom,
	"trousers": SlotBottom,
	"shorts":   SlotBottom,
	"skirt":    SlotBottom,
	"leggings": SlotBottom,

	"outerwear": SlotOuterwear,
	"jacket":    SlotOuterwear,
	"coat":      SlotOuterwear,
	"hoodie":    SlotOuterwear,
	"blazer":    SlotOuterwear,
	"cardigan":  SlotOuterwear,

	"footwear": SlotFootwear,
	"shoes":    SlotFootwear,
	"sneakers": SlotFootwear,
	"boots":    SlotFootwear,
	"sandals":  SlotFootwear,
	"heels":    SlotFootwear,

	"accessory":   SlotAccessory,
	"accessories": SlotAccessory,
	"hat":         SlotAccessory,
	"cap":         SlotAccessory,
	"scarf":       SlotAccessory,
	"belt":        SlotAccessory,
	"bag":         SlotAccessory,
	"jewelry":     SlotAccessory,
	"watch":       SlotAccessory,
}

// SlotForCategory resolves a raw category tag to its slot. The second return
// is false for unknown tags ("other", typos, future client labels).
func SlotForCategory(category string) (Slot, bool) {
	slot, ok := categorySlots[lowerCaser.String(strings.TrimSpace(category))]
	return slot, ok
}

func ValidateCategory(fl validator.FieldLevel) bool {
	return ValidateCategoryRaw(fl.Field().String())
}

// ValidateCategoryRaw accepts any known synonym plus the explicit "other"
// tag. "other" items are stored but never composed into outfits.
func ValidateCategoryRaw(value string) bool {
	if lowerCaser.String(strings.TrimSpace(value)) == "other" {
		return true
	}
	_, ok := SlotForCategory(value)
	return ok
}
