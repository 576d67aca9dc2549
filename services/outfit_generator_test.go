package services

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"vestioapi/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	items   []models.ClothingItem
	err     error
	fetched int
}

func (s *stubCatalog) FetchItems(ctx context.Context, ownerID uint) ([]models.ClothingItem, error) {
	s.fetched++
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

func TestGenerateForUserSuccess(t *testing.T) {
	catalog := &stubCatalog{items: fullCloset()}
	generator := OutfitGenerator{Catalog: catalog, Composer: NewOutfitComposer(rand.NewSource(1))}

	outcome, err := generator.GenerateForUser(context.Background(), 1, models.OutfitPreference{}, 3)

	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.False(t, outcome.EmptyWardrobe)
	assert.Empty(t, outcome.Message)
	assert.Len(t, outcome.Candidates, 3)
	assert.Equal(t, 1, catalog.fetched)
}

func TestGenerateForUserEmptyWardrobe(t *testing.T) {
	catalog := &stubCatalog{items: []models.ClothingItem{}}
	generator := OutfitGenerator{Catalog: catalog, Composer: NewOutfitComposer(rand.NewSource(1))}

	outcome, err := generator.GenerateForUser(context.Background(), 1, models.OutfitPreference{}, 3)

	require.NoError(t, err, "an empty wardrobe is not an error")
	assert.True(t, outcome.EmptyWardrobe)
	assert.Empty(t, outcome.Candidates)
	assert.NotEmpty(t, outcome.Message)
}

func TestGenerateForUserNothingComposable(t *testing.T) {
	catalog := &stubCatalog{items: []models.ClothingItem{
		testItem(1, "White Sneakers", "sneakers", nil, nil),
		testItem(2, "Leather Belt", "belt", nil, nil),
	}}
	generator := OutfitGenerator{Catalog: catalog, Composer: NewOutfitComposer(rand.NewSource(1))}

	outcome, err := generator.GenerateForUser(context.Background(), 1, models.OutfitPreference{}, 3)

	require.NoError(t, err)
	assert.False(t, outcome.EmptyWardrobe)
	assert.Empty(t, outcome.Candidates)
	assert.NotEmpty(t, outcome.Message)
}

func TestGenerateForUserCatalogUnavailable(t *testing.T) {
	catalog := &stubCatalog{err: fmt.Errorf("%w: connection refused", ErrCatalogUnavailable)}
	generator := OutfitGenerator{Catalog: catalog, Composer: NewOutfitComposer(rand.NewSource(1))}

	outcome, err := generator.GenerateForUser(context.Background(), 1, models.OutfitPreference{}, 3)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
	assert.Nil(t, outcome)
}

func TestGenerateForUserCancelledBetweenFetchAndCompose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	catalog := &cancellingCatalog{items: fullCloset(), cancel: cancel}
	generator := OutfitGenerator{Catalog: catalog, Composer: NewOutfitComposer(rand.NewSource(1))}

	outcome, err := generator.GenerateForUser(ctx, 1, models.OutfitPreference{}, 3)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, outcome)
}

// cancellingCatalog cancels the request context while the fetch is in flight.
type cancellingCatalog struct {
	items  []models.ClothingItem
	cancel context.CancelFunc
}

func (s *cancellingCatalog) FetchItems(ctx context.Context, ownerID uint) ([]models.ClothingItem, error) {
	s.cancel()
	return s.items, nil
}
