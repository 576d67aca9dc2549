package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"vestioapi/models"
	"vestioapi/services"

	firebase "firebase.google.com/go/v4"
	apple "github.com/Timothylock/go-signin-with-apple/apple"
	"github.com/getsentry/sentry-go"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type AuthController struct {
	Google      services.GoogleServiceProvider
	AWSService  services.AWSServiceProvider
	FirebaseApp *firebase.App
}

func (m *AuthController) AuthRoutes(g *echo.Group) {
	g.POST("/google/v2", m.GoogleSignIn)
	g.POST("/apple", m.AppleSignIn)
	g.POST("/refresh", m.RefreshToken)
}

// GoogleSignIn is a two-step flow: ?verify=true validates the id token and
// creates a STARTED_AUTH stub for a new user; the second call without
// verify finishes onboarding with the profile fields.
func (m *AuthController) GoogleSignIn(c echo.Context) (err error) {
	googleCreds := new(models.GoogleAuthSignIn)
	signUp := new(models.SignUpIn)
	if c.QueryParam("verify") == "true" {
		if err := c.Bind(googleCreds); err != nil {
			return err
		}
		if !models.ValidatePlatformRaw(googleCreds.Platform) {
			return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Please provide proper platform parameter"})
		}
		if err = c.Validate(googleCreds); err != nil {
			return err
		}
	} else {
		if err := c.Bind(signUp); err != nil {
			return err
		}
		if !models.ValidatePlatformRaw(signUp.Platform) {
			return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Please provide proper platform parameter"})
		}
		if err = c.Validate(signUp); err != nil {
			return err
		}
	}
	idToken := IfThenElse(googleCreds.IdToken == "", signUp.IdToken, googleCreds.IdToken).(string)
	platform := IfThenElse(googleCreds.Platform == "", signUp.Platform, googleCreds.Platform).(string)
	payload, err := m.Google.ValidateIdToken(context.Background(), idToken, os.Getenv("GOOGLE_CLIENT_ID"))
	if err != nil {
		fmt.Println(err)
		return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Couldn't verify credentials"})
	}
	sub, ok := payload.Claims["sub"]
	if !ok {
		sentry.CaptureMessage(fmt.Sprintf("Error when fetching user data %s", payload.Claims))
		return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Couldn't verify credentials"})
	}
	var googleId string = sub.(string)

	googleEmail, ok := payload.Claims["email"].(string)
	if !ok {
		sentry.CaptureMessage(fmt.Sprintf("Error when fetching user data email %s", payload.Claims))
		return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Couldn't verify credentials"})
	}
	pictureUrl, _ := payload.Claims["picture"].(string)
	googleName, _ := payload.Claims["name"].(string)

	db := c.Get("__db").(*gorm.DB)
	var user *models.UserAccount
	r := db.Where("google_id = ?", googleId).Limit(1).Find(&user)
	if r.Error != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"message": "Internal server error"})
	}

	if c.QueryParam("verify") == "true" {
		if r.RowsAffected > 0 {
			if user.Banned {
				return echo.ErrForbidden
			}
			user.LastIp = c.RealIP()
			db.Save(&user)
			return m.signInResponse(c, user, googleEmail, user.Status == "STARTED_AUTH")
		}
		// known email, first google sign in
		r := db.Where("email = ?", googleEmail).Limit(1).Find(&user)
		if r.RowsAffected > 0 {
			user.GoogleID = googleId
			if user.AvatarURL == nil && pictureUrl != "" {
				user.AvatarURL = &pictureUrl
			}
			user.LastIp = c.RealIP()
			user.Platform = models.Platform(platform)
			db.Save(&user)
			return m.signInResponse(c, user, googleEmail, user.Status == "STARTED_AUTH")
		}
		user = &models.UserAccount{
			Name:     googleName,
			Email:    googleEmail,
			GoogleID: googleId,
			Platform: models.Platform(platform),
			LastIp:   c.RealIP(),
			Status:   "STARTED_AUTH",
		}
		if pictureUrl != "" {
			user.AvatarURL = &pictureUrl
		}
		db.Create(&user)
		return m.signInResponse(c, user, googleEmail, true)
	}

	// signup step
	if r.RowsAffected == 0 {
		c.Logger().Warnf("Error when finishing user creation, no user found in database %s %s", googleEmail, googleId)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"message": "Sorry, something wrong happened, please try again!"})
	}
	user.Name = signUp.Name
	user.UTMSource = signUp.UTMSource
	user.Status = "FINISHED_AUTH"
	db.Save(&user)
	fmt.Println("User onboarding finished google: ", googleEmail, googleId)
	return m.signInResponse(c, user, googleEmail, true)
}

func (m *AuthController) AppleSignIn(c echo.Context) error {
	var req models.AppleAuthRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	teamID := services.GetEnv("APPLE_TEAM_ID", "")
	keyID := services.GetEnv("APPLE_KEY_ID", "")
	clientID := services.GetEnv("APPLE_CLIENT_ID", "")

	secret, err := services.DecodeBase64EnvPrivateKey("APPLE_SIGNIN_PKEY_BASE64")
	if err != nil {
		log.Println("Error getting Apple private key:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	secret, err = apple.GenerateClientSecret(secret, teamID, clientID, keyID)
	if err != nil {
		log.Println("Error generating Apple client secret:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	client := apple.New()
	vReq := apple.AppValidationTokenRequest{
		ClientID:     clientID,
		ClientSecret: secret,
		Code:         req.AuthorizationCode,
	}
	var resp apple.ValidationResponse
	err = client.VerifyAppToken(context.Background(), vReq, &resp)
	if err != nil {
		fmt.Println("error verifying: " + err.Error())
		return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Couldn't verify credentials"})
	}
	if resp.Error != "" {
		fmt.Printf("apple returned an error: %s - %s\n", resp.Error, resp.ErrorDescription)
		return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Couldn't verify credentials through Apple"})
	}

	appleId, err := apple.GetUniqueID(resp.IDToken)
	if err != nil {
		fmt.Println("failed to get unique ID: " + err.Error())
		return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Couldn't get your unique identifier"})
	}
	claim, err := apple.GetClaims(resp.IDToken)
	if err != nil {
		fmt.Println("failed to get claims: " + err.Error())
		return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Couldn't get your information"})
	}
	appleEmail, _ := (*claim)["email"].(string)

	db := c.Get("__db").(*gorm.DB)
	var user *models.UserAccount
	var r *gorm.DB
	if appleEmail == "" {
		r = db.Where("apple_id = ?", appleId).Limit(1).Find(&user)
	} else {
		r = db.Where("apple_id = ? or email = ?", appleId, appleEmail).Limit(1).Find(&user)
	}
	if r.Error != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"message": "Internal server error"})
	}
	if r.RowsAffected > 0 {
		if user.Banned {
			return echo.ErrForbidden
		}
		user.AppleID = appleId
		user.LastIp = c.RealIP()
		user.Platform = models.Platform(req.Platform)
		db.Save(&user)
		return m.signInResponse(c, user, user.Email, user.Status == "STARTED_AUTH")
	}
	if appleEmail == "" {
		fmt.Println("[Apple signin] New user but no email in claims")
		return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Apple provided no email for a first sign in. Please try again or contact support."})
	}
	name, _ := (*claim)["name"].(string)
	if name == "" {
		name = appleEmail
	}
	user = &models.UserAccount{
		Name:     name,
		Email:    appleEmail,
		AppleID:  appleId,
		Platform: models.Platform(req.Platform),
		LastIp:   c.RealIP(),
		Status:   "STARTED_AUTH",
	}
	db.Create(&user)
	return m.signInResponse(c, user, appleEmail, true)
}

func (m *AuthController) RefreshToken(c echo.Context) error {
	var req models.RefreshIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	token, err := jwt.Parse(req.RefreshToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Invalid refresh token"})
	}
	claims := token.Claims.(jwt.MapClaims)
	userId, _ := claims["sub"].(string)
	if userId == "" {
		return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Invalid refresh token"})
	}
	db := c.Get("__db").(*gorm.DB)
	var user models.UserAccount
	r := db.Where("ID = ?", userId).Limit(1).Find(&user)
	if r.RowsAffected == 0 || user.Banned {
		return echo.ErrForbidden
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"access_token": GenerateUserToken(UIntToStr(user.ID), c),
	})
}

func (m *AuthController) signInResponse(c echo.Context, user *models.UserAccount, email string, isNew bool) error {
	refreshToken, err := GenerateRefreshToken(fmt.Sprint(user.ID))
	if err != nil {
		fmt.Println(err)
		return echo.ErrInternalServerError
	}
	avatar := ""
	if user.AvatarURL != nil {
		avatar = *user.AvatarURL
	}
	return c.JSON(http.StatusOK, models.SignInOut{
		Email:        email,
		Id:           UIntToStr(user.ID),
		New:          isNew,
		Avatar:       avatar,
		AccessToken:  GenerateUserToken(UIntToStr(user.ID), c),
		RefreshToken: refreshToken,
	})
}
