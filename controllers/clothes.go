package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

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

type CreateClothingIn struct {
	Name      string   `json:"name" validate:"required,max=100"`
	Category  string   `json:"category" validate:"required,category"`
	Colors    []string `json:"colors" validate:"omitempty,max=10"`
	Seasons   []string `json:"seasons" validate:"omitempty,max=10"`
	Occasions []string `json:"occasions" validate:"omitempty,max=10"`
	Brand     *string  `json:"brand" validate:"omitempty,max=100"`
	Size      *string  `json:"size" validate:"omitempty,max=20"`
	Price     float64  `json:"price" validate:"omitempty,min=0"`
	FileName  *string  `json:"file_name" validate:"omitempty,max=200"`
}

type UpdateClothingIn struct {
	Name      *string   `json:"name" validate:"omitempty,max=100"`
	Category  *string   `json:"category" validate:"omitempty,category"`
	Colors    *[]string `json:"colors" validate:"omitempty,max=10"`
	Seasons   *[]string `json:"seasons" validate:"omitempty,max=10"`
	Occasions *[]string `json:"occasions" validate:"omitempty,max=10"`
	Brand     *string   `json:"brand" validate:"omitempty,max=100"`
	Size      *string   `json:"size" validate:"omitempty,max=20"`
	Price     *float64  `json:"price" validate:"omitempty,min=0"`
	Favorite  *bool     `json:"favorite"`
}

type ClothingResponse struct {
	ID        uint     `json:"id"`
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Colors    []string `json:"colors"`
	Seasons   []string `json:"seasons"`
	Occasions []string `json:"occasions"`
	Brand     *string  `json:"brand"`
	Size      *string  `json:"size"`
	Price     float64  `json:"price"`
	WearCount int      `json:"wear_count"`
	Favorite  bool     `json:"favorite"`
	Uri       *string  `json:"uri,omitempty"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

type ClothingCreatedResponse struct {
	ClothingResponse ClothingResponse `json:"item"`
	FileUploadUrl    string           `json:"file_upload_url,omitempty"`
}

type ClothesListResponse struct {
	Tops        []ClothingResponse `json:"tops"`
	Bottoms     []ClothingResponse `json:"bottoms"`
	Outerwear   []ClothingResponse `json:"outerwear"`
	Footwear    []ClothingResponse `json:"footwear"`
	Accessories []ClothingResponse `json:"accessories"`
	Other       []ClothingResponse `json:"other"`
}

type ClothesController struct {
	AWSService  services.AWSServiceProvider
	FirebaseApp *firebase.App
	URLCache    services.URLCacheServiceProvider
}

func (controller *ClothesController) ClothingRoutes(g *echo.Group) {
	g.POST("/items", controller.CreateClothing)
	g.GET("/items", controller.ListClothes)
	g.PUT("/items/:itemId", controller.UpdateClothing)
	g.DELETE("/items/:itemId", controller.DeleteClothing)
	g.POST("/items/:itemId/wear", controller.MarkWorn)
	g.POST("/items/:itemId/favorite", controller.ToggleFavorite)
}

func (controller *ClothesController) CreateClothing(c echo.Context) error {
	var req CreateClothingIn
	if err := c.Bind(&req); err != nil {
		fmt.Println(err)
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

	item := models.ClothingItem{
		Name:        req.Name,
		Category:    req.Category,
		Colors:      pq.StringArray(req.Colors),
		Seasons:     pq.StringArray(req.Seasons),
		Occasions:   pq.StringArray(req.Occasions),
		Brand:       req.Brand,
		Size:        req.Size,
		Price:       req.Price,
		OwnerID:     user.ID,
		ImageStatus: "draft",
	}
	// default so fresh items show up in default generation requests
	if len(item.Occasions) == 0 {
		item.Occasions = pq.StringArray{models.DefaultOccasion}
	}

	var uploadUrl string
	if req.FileName != nil && *req.FileName != "" {
		var bucketName = services.GetEnv("R2_BUCKET_NAME", "")
		safeFileName := fmt.Sprintf("items/%v/%s", user.ID, *req.FileName)
		var presignErr error
		uploadUrl, presignErr = controller.AWSService.PresignLink(context.Background(), bucketName, safeFileName)
		if presignErr != nil {
			log.Printf("Unable to presign upload for %s!, %s", item.Name, presignErr)
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"message": "Error while creating item with attachment",
			})
		}
		item.ImageKey = &safeFileName
	}

	if err := db.Create(&item).Error; err != nil {
		sentry.CaptureException(err)
		return err
	}

	if item.ImageKey != nil {
		asynqClient, ok := c.Get("__asynqclient").(*asynq.Client)
		if !ok {
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Service is not available, please try again a bit later"})
		}
		task, err := tasks.NewItemUploadedTask(item.ID)
		if err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Sorry, could not process the item, please try again"})
		}
		info, err := asynqClient.Enqueue(task, asynq.MaxRetry(3), asynq.Queue("closet"))
		if err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Sorry, could not process the item, please try again"})
		}
		fmt.Println("[Queue] Item upload task submitted, Item ID: ", item.ID, " Task ID: ", info.ID)
	}

	return c.JSON(http.StatusCreated, ClothingCreatedResponse{
		ClothingResponse: clothingResponse(item, nil),
		FileUploadUrl:    uploadUrl,
	})
}

func (controller *ClothesController) ListClothes(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}

	var items []models.ClothingItem
	if err := db.Where("owner_id = ?", user.ID).Order("id").Find(&items).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch items"})
	}

	processedResponses := controller.populatePresignedClothingImages(c.Request().Context(), items)

	response := ClothesListResponse{
		Tops:        []ClothingResponse{},
		Bottoms:     []ClothingResponse{},
		Outerwear:   []ClothingResponse{},
		Footwear:    []ClothingResponse{},
		Accessories: []ClothingResponse{},
		Other:       []ClothingResponse{},
	}
	for _, resp := range processedResponses {
		slot, known := models.SlotForCategory(resp.Category)
		if !known {
			response.Other = append(response.Other, resp)
			continue
		}
		switch slot {
		case models.SlotTop:
			response.Tops = append(response.Tops, resp)
		case models.SlotBottom:
			response.Bottoms = append(response.Bottoms, resp)
		case models.SlotOuterwear:
			response.Outerwear = append(response.Outerwear, resp)
		case models.SlotFootwear:
			response.Footwear = append(response.Footwear, resp)
		case models.SlotAccessory:
			response.Accessories = append(response.Accessories, resp)
		}
	}
	return c.JSON(http.StatusOK, response)
}

func (controller *ClothesController) UpdateClothing(c echo.Context) error {
	var req UpdateClothingIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	item, db, ok := controller.ownedItem(c)
	if !ok {
		return nil
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.Colors != nil {
		item.Colors = pq.StringArray(*req.Colors)
	}
	if req.Seasons != nil {
		item.Seasons = pq.StringArray(*req.Seasons)
	}
	if req.Occasions != nil {
		item.Occasions = pq.StringArray(*req.Occasions)
	}
	if req.Brand != nil {
		item.Brand = req.Brand
	}
	if req.Size != nil {
		item.Size = req.Size
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Favorite != nil {
		item.Favorite = *req.Favorite
	}
	if err := db.Save(&item).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to update the item, please try again"})
	}
	return c.JSON(http.StatusOK, clothingResponse(*item, nil))
}

func (controller *ClothesController) DeleteClothing(c echo.Context) error {
	item, db, ok := controller.ownedItem(c)
	if !ok {
		return nil
	}
	if err := db.Delete(&item).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to delete the item, please try again"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Item deleted"})
}

func (controller *ClothesController) MarkWorn(c echo.Context) error {
	item, db, ok := controller.ownedItem(c)
	if !ok {
		return nil
	}
	if err := db.Model(&item).Update("wear_count", gorm.Expr("wear_count + 1")).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to update the item, please try again"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"id": item.ID, "wear_count": item.WearCount + 1})
}

func (controller *ClothesController) ToggleFavorite(c echo.Context) error {
	item, db, ok := controller.ownedItem(c)
	if !ok {
		return nil
	}
	item.Favorite = !item.Favorite
	if err := db.Save(&item).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to update the item, please try again"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"id": item.ID, "favorite": item.Favorite})
}

// ownedItem binds :itemId and fetches it scoped to the current user. On
// failure the response is already written and ok is false.
func (controller *ClothesController) ownedItem(c echo.Context) (*models.ClothingItem, *gorm.DB, bool) {
	user, userOk := c.Get("currentUser").(models.UserAccount)
	if !userOk {
		c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return nil, nil, false
	}
	db, dbOk := c.Get("__db").(*gorm.DB)
	if !dbOk {
		c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
		return nil, nil, false
	}
	var itemId uint
	if err := echo.PathParamsBinder(c).Uint("itemId", &itemId).BindError(); err != nil {
		c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid item id"})
		return nil, nil, false
	}
	var item models.ClothingItem
	result := db.Where("id = ? AND owner_id = ?", itemId, user.ID).Take(&item)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, map[string]string{"error": "Item not found"})
		return nil, nil, false
	}
	if result.Error != nil {
		sentry.CaptureException(result.Error)
		c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch the item"})
		return nil, nil, false
	}
	return &item, db, true
}

// populatePresignedClothingImages enriches raw items with presigned read
// URLs concurrently, with a direct R2 fallback when the cache layer itself
// fails.
func (controller *ClothesController) populatePresignedClothingImages(ctx context.Context, items []models.ClothingItem) []ClothingResponse {
	if len(items) == 0 {
		return []ClothingResponse{}
	}

	var wg sync.WaitGroup
	processedResponses := make([]ClothingResponse, len(items))
	bucketName := services.GetEnv("R2_BUCKET_NAME", "")

	for i, clothingItem := range items {
		wg.Add(1)
		go func(index int, item models.ClothingItem) {
			defer wg.Done()

			var imageUrl string
			if item.ImageKey != nil && *item.ImageKey != "" {
				objectKey := *item.ImageKey
				url, err := controller.URLCache.GetReadURL(ctx, objectKey)
				if err == nil {
					imageUrl = url
				} else {
					log.Printf("CACHE WARNING: Cache system failed for key '%s': %v. Triggering manual R2 fallback.", objectKey, err)
					sentry.WithScope(func(scope *sentry.Scope) {
						scope.SetTag("failure_type", "cache_system")
						scope.SetExtra("objectKey", objectKey)
						sentry.CaptureException(err)
					})
					fallbackUrl, fallbackErr := controller.AWSService.GetPresignedR2FileReadURL(ctx, bucketName, objectKey)
					if fallbackErr != nil {
						log.Printf("CRITICAL: Manual R2 fallback also failed for key '%s': %v", objectKey, fallbackErr)
						sentry.CaptureException(fallbackErr)
						// imageUrl stays empty, the listing still succeeds
					} else {
						imageUrl = fallbackUrl
					}
				}
			}
			processedResponses[index] = clothingResponse(item, &imageUrl)
		}(i, clothingItem)
	}

	wg.Wait()
	return processedResponses
}

func clothingResponse(item models.ClothingItem, uri *string) ClothingResponse {
	return ClothingResponse{
		ID:        item.ID,
		Name:      item.Name,
		Category:  item.Category,
		Colors:    item.Colors,
		Seasons:   item.Seasons,
		Occasions: item.Occasions,
		Brand:     item.Brand,
		Size:      item.Size,
		Price:     item.Price,
		WearCount: item.WearCount,
		Favorite:  item.Favorite,
		Uri:       uri,
		CreatedAt: item.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: item.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
