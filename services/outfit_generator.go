package services

import (
	"context"

	"vestioapi/models"
)

// GenerationOutcome distinguishes "no items yet" and "nothing composable"
// from real failures; both are successes with an explanatory message.
type GenerationOutcome struct {
	Candidates    []models.OutfitCandidate
	EmptyWardrobe bool
	Message       string
}

// OutfitGenerator is the composition layer between the item catalog and the
// composer. Stateless, no caching: every call re-fetches the closet. Accessor
// failures propagate unchanged in kind, with no internal retry.
type OutfitGenerator struct {
	Catalog  CatalogProvider
	Composer *OutfitComposer
}

func (g *OutfitGenerator) GenerateForUser(ctx context.Context, ownerID uint, pref models.OutfitPreference, count int) (*GenerationOutcome, error) {
	items, err := g.Catalog.FetchItems(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	// never compose from an abandoned fetch
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return &GenerationOutcome{
			Candidates:    []models.OutfitCandidate{},
			EmptyWardrobe: true,
			Message:       "Your closet is empty. Add a few items first!",
		}, nil
	}
	candidates := g.Composer.Compose(items, pref, count)
	if len(candidates) == 0 {
		return &GenerationOutcome{
			Candidates: []models.OutfitCandidate{},
			Message:    "Couldn't put a full outfit together. Add at least one top and one bottom for this occasion.",
		}, nil
	}
	return &GenerationOutcome{Candidates: candidates}, nil
}
