package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"vestioapi/dbhelper"
	"vestioapi/models"
	"vestioapi/services"
	"vestioapi/test"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOutfitsOk(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, &test.AWSProviderMock{}, nil, nil, test.URLCacheMock{})
	user := test.FakeUser(db)

	test.FakeItem(db, user.ID, "White Tee", "t-shirt", nil, nil)
	test.FakeItem(db, user.ID, "Blue Oxford", "shirt", nil, nil)
	test.FakeItem(db, user.ID, "Black Jeans", "jeans", nil, nil)
	test.FakeItem(db, user.ID, "White Sneakers", "sneakers", nil, nil)

	reqBody := models.OutfitGenerateIn{Count: 3}
	req := test.NewJSONAuthRequest("POST", "/outfits/generate", userPk(user), reqBody)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var response models.OutfitFeedOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, 3, response.Count)
	require.Len(t, response.Outfits, 3)
	for _, outfit := range response.Outfits {
		assert.NotEmpty(t, outfit.ID)
		assert.GreaterOrEqual(t, outfit.Confidence, 0.85)
		assert.Less(t, outfit.Confidence, 0.95)
		assert.GreaterOrEqual(t, len(outfit.ItemIDs), 2)
		assert.Equal(t, models.DefaultOccasion, outfit.Occasion)
	}
}

func TestGenerateOutfitsEmptyWardrobe(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, &test.AWSProviderMock{}, nil, nil, test.URLCacheMock{})
	user := test.FakeUser(db)

	req := test.NewJSONAuthRequest("POST", "/outfits/generate", userPk(user), models.OutfitGenerateIn{})
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, "empty wardrobe is a success, not an error")
	var response models.OutfitFeedOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, 0, response.Count)
	assert.Empty(t, response.Outfits)
	assert.NotEmpty(t, response.Message)
}

func TestGenerateOutfitsNoValidCandidate(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, &test.AWSProviderMock{}, nil, nil, test.URLCacheMock{})
	user := test.FakeUser(db)

	// footwear only, nothing to anchor an outfit on
	test.FakeItem(db, user.ID, "White Sneakers", "sneakers", nil, nil)
	test.FakeItem(db, user.ID, "Boots", "boots", nil, nil)

	req := test.NewJSONAuthRequest("POST", "/outfits/generate", userPk(user), models.OutfitGenerateIn{Count: 5})
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response models.OutfitFeedOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Empty(t, response.Outfits)
	assert.NotEmpty(t, response.Message)
}

func TestGenerateOutfitsOccasionFromRequest(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, &test.AWSProviderMock{}, nil, nil, test.URLCacheMock{})
	user := test.FakeUser(db)

	test.FakeItem(db, user.ID, "Dress Shirt", "shirt", []string{"formal"}, nil)
	test.FakeItem(db, user.ID, "Suit Pants", "pants", []string{"formal"}, nil)
	test.FakeItem(db, user.ID, "Gym Shorts", "shorts", []string{"sport"}, nil)

	req := test.NewJSONAuthRequest("POST", "/outfits/generate", userPk(user), models.OutfitGenerateIn{Occasion: "formal", Count: 2})
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response models.OutfitFeedOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Outfits, 2)
	for _, outfit := range response.Outfits {
		assert.Equal(t, "formal", outfit.Occasion)
	}
}

type unavailableCatalog struct{}

func (unavailableCatalog) FetchItems(ctx context.Context, ownerID uint) ([]models.ClothingItem, error) {
	return nil, fmt.Errorf("%w: connection refused", services.ErrCatalogUnavailable)
}

func TestGenerateOutfitsCatalogUnavailable(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	user := test.FakeUser(db)

	e := echo.New()
	v := validator.New()
	v.RegisterValidation("platform", models.ValidatePlatform)
	v.RegisterValidation("category", models.ValidateCategory)
	e.Validator = &CustomValidator{validator: v}

	req := test.NewJSONRequest("POST", "/outfits/generate", models.OutfitGenerateIn{Count: 3})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("__db", db)
	c.Set("currentUser", *user)

	controller := OutfitsController{
		Catalog:    unavailableCatalog{},
		RandSource: func() rand.Source { return rand.NewSource(1) },
	}
	require.NoError(t, controller.GenerateOutfits(c))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var response models.OutfitFeedOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.False(t, response.Success)
	assert.True(t, response.Fallback)
	assert.Empty(t, response.Outfits)
	assert.NotEmpty(t, response.Message)
}

func TestListSavedOutfitsScopedToOwner(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, &test.AWSProviderMock{}, nil, nil, test.URLCacheMock{})
	user := test.FakeUser(db)
	stranger := test.FakeUserV2(db, "Stranger", "stranger@example.com")

	mine := models.SavedOutfit{OwnerID: user.ID, Occasion: "casual", Season: "all-year", Style: "comfortable", ItemIDs: []int64{1, 2}, Confidence: 0.9, EnrichStatus: "pending"}
	theirs := models.SavedOutfit{OwnerID: stranger.ID, Occasion: "formal", Season: "all-year", Style: "sharp", ItemIDs: []int64{3, 4}, Confidence: 0.9, EnrichStatus: "pending"}
	require.NoError(t, db.Create(&mine).Error)
	require.NoError(t, db.Create(&theirs).Error)

	req := test.NewJSONAuthRequest("GET", "/outfits/saved", userPk(user), "")
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response []SavedOutfitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, mine.ID, response[0].ID)
	assert.Equal(t, "pending", response[0].EnrichStatus)
}

func TestSaveOutfitRejectsForeignItems(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, &test.AWSProviderMock{}, nil, nil, test.URLCacheMock{})
	user := test.FakeUser(db)
	stranger := test.FakeUserV2(db, "Stranger", "stranger@example.com")
	item := test.FakeItem(db, stranger.ID, "Their Shirt", "shirt", nil, nil)

	reqBody := models.SaveOutfitIn{ItemIDs: []uint{item.ID}, Confidence: 0.9}
	req := test.NewJSONAuthRequest("POST", "/outfits/save", userPk(user), reqBody)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSaveOutfitRequiresItems(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, &test.AWSProviderMock{}, nil, nil, test.URLCacheMock{})
	user := test.FakeUser(db)

	reqBody := models.SaveOutfitIn{ItemIDs: []uint{}}
	req := test.NewJSONAuthRequest("POST", "/outfits/save", userPk(user), reqBody)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteSavedOutfit(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := SetupServer(db, test.GoogleServiceMock{}, &test.AWSProviderMock{}, nil, nil, test.URLCacheMock{})
	user := test.FakeUser(db)

	outfit := models.SavedOutfit{OwnerID: user.ID, Occasion: "casual", Season: "all-year", Style: "comfortable", ItemIDs: []int64{1, 2}, Confidence: 0.9, EnrichStatus: "pending"}
	require.NoError(t, db.Create(&outfit).Error)

	req := test.NewJSONAuthRequest("DELETE", fmt.Sprintf("/outfits/saved/%v", outfit.ID), userPk(user), "")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	db.Model(&models.SavedOutfit{}).Where("id = ?", outfit.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	// second delete is a 404, never someone else's row
	rec2 := httptest.NewRecorder()
	e.ServeHTTP(rec2, test.NewJSONAuthRequest("DELETE", fmt.Sprintf("/outfits/saved/%v", outfit.ID), userPk(user), ""))
	assert.Equal(t, http.StatusNotFound, rec2.Code)
}
