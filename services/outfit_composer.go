package services

import (
	"fmt"
	"math/rand"

	"vestioapi/models"

	"github.com/google/uuid"
)

const (
	// Below this temperature an available outerwear piece is always added.
	ColdWeatherThresholdF = 70.0

	outerwearPickChance = 0.5
	accessoryPickChance = 0.4

	confidenceFloor = 0.85
	confidenceBand  = 0.10

	DefaultOutfitCount = 3
)

// OutfitComposer assembles outfit candidates from a closet snapshot. It is a
// pure function of its inputs plus the injected randomness source, so a
// seeded source makes generation reproducible. Not safe for concurrent use,
// build one per request.
type OutfitComposer struct {
	rng *rand.Rand
}

func NewOutfitComposer(src rand.Source) *OutfitComposer {
	return &OutfitComposer{rng: rand.New(src)}
}

// Compose generates up to count candidates for the given preference. Items
// failing the occasion/season filter or mapping to no known slot are skipped.
// Candidates without both a top and a bottom are discarded, so fewer than
// count candidates can come back. An empty closet yields an empty slice, not
// an error. Duplicate item combinations are allowed and differ by confidence.
func (oc *OutfitComposer) Compose(items []models.ClothingItem, pref models.OutfitPreference, count int) []models.OutfitCandidate {
	pref = pref.Normalized()
	if count <= 0 {
		count = DefaultOutfitCount
	}

	slots := map[models.Slot][]models.ClothingItem{}
	for _, item := range items {
		if !oc.eligible(item, pref) {
			continue
		}
		slot, ok := models.SlotForCategory(item.Category)
		if !ok {
			continue
		}
		slots[slot] = append(slots[slot], item)
	}

	candidates := []models.OutfitCandidate{}
	for i := 0; i < count; i++ {
		candidate, ok := oc.buildCandidate(slots, pref)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates
}

func (oc *OutfitComposer) eligible(item models.ClothingItem, pref models.OutfitPreference) bool {
	if pref.Occasion != "" && !item.HasOccasion(pref.Occasion) {
		return false
	}
	if pref.Season != "" && pref.Season != models.DefaultSeason && !item.HasSeason(pref.Season) {
		return false
	}
	return true
}

func (oc *OutfitComposer) buildCandidate(slots map[models.Slot][]models.ClothingItem, pref models.OutfitPreference) (models.OutfitCandidate, bool) {
	top, hasTop := oc.pick(slots[models.SlotTop])
	bottom, hasBottom := oc.pick(slots[models.SlotBottom])
	// an outfit without both anchor pieces is not an outfit
	if !hasTop || !hasBottom {
		return models.OutfitCandidate{}, false
	}

	itemIDs := []uint{top.ID, bottom.ID}
	var outerwear *models.ClothingItem
	if oc.coldWeather(pref) || oc.rng.Float64() < outerwearPickChance {
		if picked, ok := oc.pick(slots[models.SlotOuterwear]); ok {
			itemIDs = append(itemIDs, picked.ID)
			outerwear = &picked
		}
	}
	if footwear, ok := oc.pick(slots[models.SlotFootwear]); ok {
		itemIDs = append(itemIDs, footwear.ID)
	}
	if oc.rng.Float64() < accessoryPickChance {
		if accessory, ok := oc.pick(slots[models.SlotAccessory]); ok {
			itemIDs = append(itemIDs, accessory.ID)
		}
	}

	id, err := uuid.NewRandomFromReader(oc.rng)
	if err != nil {
		// rand.Rand never fails to read
		return models.OutfitCandidate{}, false
	}

	return models.OutfitCandidate{
		ID:          id.String(),
		Occasion:    pref.Occasion,
		Season:      pref.Season,
		Style:       pref.Style,
		Weather:     pref.Weather,
		ItemIDs:     itemIDs,
		Confidence:  confidenceFloor + oc.rng.Float64()*confidenceBand,
		Description: oc.describe(top, bottom, outerwear, pref),
	}, true
}

// pick selects one item uniformly, ok=false for an empty slot.
func (oc *OutfitComposer) pick(items []models.ClothingItem) (models.ClothingItem, bool) {
	if len(items) == 0 {
		return models.ClothingItem{}, false
	}
	return items[oc.rng.Intn(len(items))], true
}

func (oc *OutfitComposer) coldWeather(pref models.OutfitPreference) bool {
	return pref.Weather != nil && pref.Weather.Temperature != nil &&
		*pref.Weather.Temperature < ColdWeatherThresholdF
}

func (oc *OutfitComposer) describe(top, bottom models.ClothingItem, outerwear *models.ClothingItem, pref models.OutfitPreference) string {
	description := fmt.Sprintf("A %s %s look built around %s and %s", pref.Style, pref.Occasion, top.Name, bottom.Name)
	if outerwear != nil {
		description += fmt.Sprintf(", layered with %s", outerwear.Name)
	}
	return description
}
