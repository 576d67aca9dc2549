package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"vestioapi/models"
	"vestioapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type ProfileController struct {
	AWSService services.AWSServiceProvider
	URLCache   services.URLCacheServiceProvider
}

func (controller *ProfileController) ProfileRoutes(g *echo.Group) {
	g.GET("/me", controller.Me)
	g.PUT("/me", controller.UpdateProfile)
	g.PUT("/settings", controller.UpdateSettings)
	g.PUT("/style", controller.UpdateStylePreferences)
	g.POST("/push", controller.RegisterPushToken)
	g.POST("/avatar", controller.UploadAvatar)
	g.DELETE("/account", controller.DeleteAccount)
}

func (controller *ProfileController) Me(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}

	var itemCount, outfitCount int64
	db.Model(&models.ClothingItem{}).Where("owner_id = ?", user.ID).Count(&itemCount)
	db.Model(&models.SavedOutfit{}).Where("owner_id = ?", user.ID).Count(&outfitCount)

	avatar := user.AvatarURL
	if avatar != nil && !isAbsoluteURL(*avatar) {
		url, err := controller.URLCache.GetReadURL(c.Request().Context(), *avatar)
		if err != nil {
			fmt.Println("Error presigning avatar for user", user.ID, err)
			avatar = nil
		} else {
			avatar = &url
		}
	}

	return c.JSON(http.StatusOK, models.UserMeOut{
		Id:                   UIntToStr(user.ID),
		Name:                 user.Name,
		Email:                user.Email,
		AvatarURL:            avatar,
		ReceiveNotifications: user.ReceiveNotifications,
		FavoriteOccasion:     user.FavoriteOccasion,
		FavoriteSeason:       user.FavoriteSeason,
		FavoriteStyle:        user.FavoriteStyle,
		ItemCount:            itemCount,
		SavedOutfitCount:     outfitCount,
	})
}

func (controller *ProfileController) UpdateProfile(c echo.Context) error {
	var req models.ProfileIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db := c.Get("__db").(*gorm.DB)
	user.Name = req.Name
	if err := db.Save(&user).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update profile"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Profile updated"})
}

func (controller *ProfileController) UpdateSettings(c echo.Context) error {
	var req models.UserSettingsIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db := c.Get("__db").(*gorm.DB)
	user.ReceiveNotifications = req.ReceiveNotifications
	if err := db.Save(&user).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update settings"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Settings updated"})
}

func (controller *ProfileController) UpdateStylePreferences(c echo.Context) error {
	var req models.StylePreferencesIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db := c.Get("__db").(*gorm.DB)
	if req.FavoriteOccasion != nil {
		user.FavoriteOccasion = req.FavoriteOccasion
	}
	if req.FavoriteSeason != nil {
		user.FavoriteSeason = req.FavoriteSeason
	}
	if req.FavoriteStyle != nil {
		user.FavoriteStyle = req.FavoriteStyle
	}
	if err := db.Save(&user).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update style preferences"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"favorite_occasion": user.FavoriteOccasion,
		"favorite_season":   user.FavoriteSeason,
		"favorite_style":    user.FavoriteStyle,
	})
}

func (controller *ProfileController) RegisterPushToken(c echo.Context) error {
	var req models.UserPushIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db := c.Get("__db").(*gorm.DB)

	var existing models.UserPushToken
	r := db.Where("user_account_id = ? AND token = ?", user.ID, req.Token).Limit(1).Find(&existing)
	if r.Error != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to register device"})
	}
	if r.RowsAffected > 0 {
		existing.Active = true
		existing.Platform = models.Platform(req.Platform)
		db.Save(&existing)
		return c.JSON(http.StatusOK, map[string]string{"message": "Device already registered"})
	}
	token := models.UserPushToken{
		UserAccountID: user.ID,
		Platform:      models.Platform(req.Platform),
		Token:         req.Token,
		Active:        true,
	}
	if err := db.Create(&token).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to register device"})
	}
	fmt.Println("Registered push token for user", user.ID, "platform", req.Platform)
	return c.JSON(http.StatusCreated, map[string]string{"message": "Device registered"})
}

type AvatarUploadIn struct {
	FileName string `json:"file_name" validate:"required,max=200"`
}

// UploadAvatar hands the client a presigned PUT link and stores the object
// key right away. The read side presigns lazily through the cache.
func (controller *ProfileController) UploadAvatar(c echo.Context) error {
	var req AvatarUploadIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db := c.Get("__db").(*gorm.DB)

	key := fmt.Sprintf("avatars/%v/%v", user.ID, req.FileName)
	uploadUrl, err := controller.AWSService.PresignLink(c.Request().Context(), services.GetEnv("R2_BUCKET_NAME", ""), key)
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to prepare upload"})
	}
	user.AvatarURL = &key
	if err := db.Save(&user).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update profile"})
	}
	return c.JSON(http.StatusOK, map[string]string{"upload_url": uploadUrl})
}

// DeleteAccount marks the account and detaches auth identities; the closet
// contents are purged by the nightly cleanup once the grace period passes.
func (controller *ProfileController) DeleteAccount(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db := c.Get("__db").(*gorm.DB)
	now := time.Now()
	user.ConfirmedDeleteDate = &now
	user.Banned = true
	if err := db.Save(&user).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete account"})
	}
	db.Model(&models.UserPushToken{}).Where("user_account_id = ?", user.ID).Update("active", false)
	fmt.Println("Account deletion confirmed for user", user.ID)
	return c.JSON(http.StatusOK, map[string]string{"message": "Account scheduled for deletion"})
}

func isAbsoluteURL(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}
