package models

import "time"

type UserAccount struct {
	JsonModel
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"unique"`
	Banned   bool   `gorm:"default:false" json:"-"`
	LastIp   string `json:"-"`
	//"STARTED_AUTH", "FINISHED_AUTH"
	Status    string   `json:"-"`
	GoogleID  string   `json:"-"`
	AppleID   string   `json:"-"`
	UTMSource string   `json:"utm_source"`
	Platform  Platform `sql:"type:ENUM('ios', 'android', 'web')" json:"platform"`

	Subscription        *string    `json:"subscription"`
	ExpirationDate      *time.Time `json:"-"`
	ConfirmedDeleteDate *time.Time `json:"-"`

	ReceiveNotifications bool    `json:"receive_notifications"`
	AvatarURL            *string `json:"avatar_url"`

	// style quiz answers, used as outfit request defaults
	FavoriteOccasion *string `json:"favorite_occasion"`
	FavoriteSeason   *string `json:"favorite_season"`
	FavoriteStyle    *string `json:"favorite_style"`
}

type UserPushToken struct {
	JsonModel
	UserAccountID uint
	UserAccount   UserAccount `json:"user_account"`
	Platform      Platform    `sql:"type:ENUM('ios', 'android', 'web')" json:"platform"`
	Token         string      `json:"token"`
	Active        bool        `gorm:"default:false" json:"-"`
}

type UserPushIn struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required,platform"`
}

type UserSettingsIn struct {
	ReceiveNotifications bool `json:"receive_notifications"`
}

type StylePreferencesIn struct {
	FavoriteOccasion *string `json:"favorite_occasion" validate:"omitempty,max=50"`
	FavoriteSeason   *string `json:"favorite_season" validate:"omitempty,max=50"`
	FavoriteStyle    *string `json:"favorite_style" validate:"omitempty,max=50"`
}
