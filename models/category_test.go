package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotForCategorySynonyms(t *testing.T) {
	cases := map[string]Slot{
		"shirt":    SlotTop,
		"T-Shirt":  SlotTop,
		"  tee  ":  SlotTop,
		"dress":    SlotTop,
		"jeans":    SlotBottom,
		"Skirt":    SlotBottom,
		"hoodie":   SlotOuterwear,
		"coat":     SlotOuterwear,
		"sneakers": SlotFootwear,
		"heels":    SlotFootwear,
		"belt":     SlotAccessory,
		"watch":    SlotAccessory,
	}
	for category, want := range cases {
		slot, ok := SlotForCategory(category)
		assert.True(t, ok, "category %q should resolve", category)
		assert.Equal(t, want, slot, "category %q", category)
	}
}

func TestSlotForCategoryUnknown(t *testing.T) {
	for _, category := range []string{"other", "spaceship", ""} {
		_, ok := SlotForCategory(category)
		assert.False(t, ok, "category %q should not resolve", category)
	}
}

func TestValidateCategoryRaw(t *testing.T) {
	assert.True(t, ValidateCategoryRaw("shirt"))
	assert.True(t, ValidateCategoryRaw("Other"))
	assert.False(t, ValidateCategoryRaw("spaceship"))
}

func TestOutfitPreferenceNormalized(t *testing.T) {
	pref := OutfitPreference{}.Normalized()
	assert.Equal(t, DefaultOccasion, pref.Occasion)
	assert.Equal(t, DefaultSeason, pref.Season)
	assert.Equal(t, DefaultStyle, pref.Style)

	custom := OutfitPreference{Occasion: "formal"}.Normalized()
	assert.Equal(t, "formal", custom.Occasion)
	assert.Equal(t, DefaultSeason, custom.Season)
}
