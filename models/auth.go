package models

import "time"

type JsonModel struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GoogleAuthSignIn struct {
	IdToken  string `json:"idToken" validate:"required"`
	Platform string `json:"platform" validate:"required"`
}

type AppleAuthRequest struct {
	IdentityToken     string `json:"identity_token" validate:"required"`
	Platform          string `json:"platform" validate:"required"`
	AuthorizationCode string `json:"authorization_code" validate:"required"`
}

type SignUpIn struct {
	ProfileIn
	IdToken  string `json:"idToken" validate:"required"`
	Platform string `json:"platform" validate:"required"`
}

type ProfileIn struct {
	Name      string `json:"name" validate:"required"`
	UTMSource string `json:"utm_source" validate:"omitempty,max=100"`
}

type SignInOut struct {
	Email string `json:"email"`

	// empty until the signup step finishes
	Id string `json:"id"`

	New          bool   `json:"new"`
	Avatar       string `json:"avatar"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshIn struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type UserMeOut struct {
	Id                   string  `json:"id"`
	Name                 string  `json:"name"`
	Email                string  `json:"email"`
	Status               string  `json:"-"`
	AvatarURL            *string `json:"avatar_url"`
	ReceiveNotifications bool    `json:"receive_notifications"`
	FavoriteOccasion     *string `json:"favorite_occasion"`
	FavoriteSeason       *string `json:"favorite_season"`
	FavoriteStyle        *string `json:"favorite_style"`
	ItemCount            int64   `json:"item_count"`
	SavedOutfitCount     int64   `json:"saved_outfit_count"`
}
