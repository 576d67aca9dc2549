package controllers

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"vestioapi/models"
	"vestioapi/services"
	"vestioapi/tasks"

	firebase "firebase.google.com/go/v4"
	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type SavedOutfitResponse struct {
	ID           uint    `json:"id"`
	Occasion     string  `json:"occasion"`
	Season       string  `json:"season"`
	Style        string  `json:"style"`
	ItemIDs      []int64 `json:"item_ids"`
	Confidence   float64 `json:"confidence"`
	Description  string  `json:"description"`
	StylistNotes *string `json:"stylist_notes"`
	EnrichStatus string  `json:"enrich_status"`
	CreatedAt    string  `json:"created_at"`
}

type OutfitsController struct {
	FirebaseApp *firebase.App

	// overridden in tests for deterministic generation
	RandSource func() rand.Source
	Catalog    services.CatalogProvider
}

func (controller *OutfitsController) OutfitRoutes(g *echo.Group) {
	g.POST("/generate", controller.GenerateOutfits)
	g.POST("/save", controller.SaveOutfit)
	g.GET("/saved", controller.ListSavedOutfits)
	g.DELETE("/saved/:outfitId", controller.DeleteSavedOutfit)
}

func (controller *OutfitsController) GenerateOutfits(c echo.Context) error {
	var req models.OutfitGenerateIn
	if err := c.Bind(&req); err != nil {
		// malformed preference payloads degrade to defaults, never fail
		fmt.Println("Malformed outfit request, falling back to defaults:", err)
		req = models.OutfitGenerateIn{}
	}
	if err := c.Validate(req); err != nil {
		req = models.OutfitGenerateIn{Weather: req.Weather}
	}

	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}

	pref := models.OutfitPreference{
		Occasion: req.Occasion,
		Season:   req.Season,
		Style:    req.Style,
		Weather:  req.Weather,
	}
	// style quiz answers fill the gaps before the global defaults do
	if pref.Occasion == "" && user.FavoriteOccasion != nil {
		pref.Occasion = *user.FavoriteOccasion
	}
	if pref.Season == "" && user.FavoriteSeason != nil {
		pref.Season = *user.FavoriteSeason
	}
	if pref.Style == "" && user.FavoriteStyle != nil {
		pref.Style = *user.FavoriteStyle
	}
	pref = pref.Normalized()

	catalog := controller.Catalog
	if catalog == nil {
		catalog = &services.DBCatalogService{DB: db}
	}
	randSource := controller.RandSource
	if randSource == nil {
		randSource = func() rand.Source { return rand.NewSource(time.Now().UnixNano()) }
	}
	generator := services.OutfitGenerator{
		Catalog:  catalog,
		Composer: services.NewOutfitComposer(randSource()),
	}

	outcome, err := generator.GenerateForUser(c.Request().Context(), user.ID, pref, req.Count)
	if err != nil {
		if errors.Is(err, services.ErrCatalogUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, models.OutfitFeedOut{
				Success:  false,
				Outfits:  []models.OutfitCandidate{},
				Fallback: true,
				Message:  "The closet service is temporarily unavailable, please try again shortly.",
			})
		}
		if errors.Is(err, services.ErrCatalogForbidden) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Not allowed"})
		}
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to generate outfits, please try again"})
	}

	return c.JSON(http.StatusOK, models.OutfitFeedOut{
		Success: true,
		Outfits: outcome.Candidates,
		Count:   len(outcome.Candidates),
		Message: outcome.Message,
	})
}

func (controller *OutfitsController) SaveOutfit(c echo.Context) error {
	var req models.SaveOutfitIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}

	// only own items can land in a saved outfit
	var ownedCount int64
	if err := db.Model(&models.ClothingItem{}).Where("owner_id = ? AND id IN ?", user.ID, req.ItemIDs).Count(&ownedCount).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to verify items"})
	}
	if ownedCount != int64(len(req.ItemIDs)) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Some of the items do not belong to your closet"})
	}

	itemIds := make(pq.Int64Array, 0, len(req.ItemIDs))
	for _, id := range req.ItemIDs {
		itemIds = append(itemIds, int64(id))
	}
	pref := models.OutfitPreference{Occasion: req.Occasion, Season: req.Season, Style: req.Style}.Normalized()
	outfit := models.SavedOutfit{
		OwnerID:      user.ID,
		Occasion:     pref.Occasion,
		Season:       pref.Season,
		Style:        pref.Style,
		ItemIDs:      itemIds,
		Confidence:   req.Confidence,
		Description:  req.Description,
		EnrichStatus: "pending",
	}
	if err := db.Create(&outfit).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to save the outfit, please try again"})
	}

	asynqClient, ok := c.Get("__asynqclient").(*asynq.Client)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Service is not available, please try again a bit later"})
	}
	task, err := tasks.NewOutfitDescribeTask(outfit.ID)
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Sorry, could not start styling notes, please try again"})
	}
	info, err := asynqClient.Enqueue(task, asynq.MaxRetry(3), asynq.Queue("closet"))
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Sorry, could not start styling notes, please try again"})
	}
	fmt.Println("[Queue] Outfit describe task submitted, Outfit ID: ", outfit.ID, " Task ID: ", info.ID)

	return c.JSON(http.StatusCreated, savedOutfitResponse(outfit))
}

func (controller *OutfitsController) ListSavedOutfits(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}
	var outfits []models.SavedOutfit
	if err := db.Where("owner_id = ?", user.ID).Order("id desc").Find(&outfits).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch outfits"})
	}
	response := make([]SavedOutfitResponse, 0, len(outfits))
	for _, outfit := range outfits {
		response = append(response, savedOutfitResponse(outfit))
	}
	return c.JSON(http.StatusOK, response)
}

func (controller *OutfitsController) DeleteSavedOutfit(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}
	var outfitId uint
	if err := echo.PathParamsBinder(c).Uint("outfitId", &outfitId).BindError(); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid outfit id"})
	}
	result := db.Where("id = ? AND owner_id = ?", outfitId, user.ID).Delete(&models.SavedOutfit{})
	if result.Error != nil {
		sentry.CaptureException(result.Error)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to delete the outfit, please try again"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Outfit not found"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Outfit deleted"})
}

func savedOutfitResponse(outfit models.SavedOutfit) SavedOutfitResponse {
	return SavedOutfitResponse{
		ID:           outfit.ID,
		Occasion:     outfit.Occasion,
		Season:       outfit.Season,
		Style:        outfit.Style,
		ItemIDs:      outfit.ItemIDs,
		Confidence:   outfit.Confidence,
		Description:  outfit.Description,
		StylistNotes: outfit.StylistNotes,
		EnrichStatus: outfit.EnrichStatus,
		CreatedAt:    outfit.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
