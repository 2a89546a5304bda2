package httpdto

import (
	"time"

	"github.com/google/uuid"

	"gebeya-market/internal/domain/user"
)

type UserResponse struct {
	ID               uuid.UUID      `json:"id"`
	TelegramID       int64          `json:"telegram_id"`
	Username         string         `json:"username,omitempty"`
	FirstName        string         `json:"first_name"`
	LastName         string         `json:"last_name,omitempty"`
	PhotoURL         string         `json:"photo_url,omitempty"`
	Phone            string         `json:"phone,omitempty"`
	IsPhoneVerified  bool           `json:"is_phone_verified"`
	City             string         `json:"city"`
	Area             string         `json:"area,omitempty"`
	Rating           float64        `json:"rating"`
	TotalSales       int            `json:"total_sales"`
	TotalListings    int            `json:"total_listings"`
	IsVerifiedSeller bool           `json:"is_verified_seller"`
	HasPasscode      bool           `json:"has_passcode"`
	Settings         map[string]any `json:"settings,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

func NewUserResponse(u user.User) UserResponse {
	return UserResponse{
		ID:               u.ID,
		TelegramID:       u.TelegramID,
		Username:         u.Username.String,
		FirstName:        u.FirstName,
		LastName:         u.LastName.String,
		PhotoURL:         u.PhotoURL.String,
		Phone:            u.Phone.String,
		IsPhoneVerified:  u.IsPhoneVerified,
		City:             u.City,
		Area:             u.Area.String,
		Rating:           u.Rating,
		TotalSales:       u.TotalSales,
		TotalListings:    u.TotalListings,
		IsVerifiedSeller: u.IsVerifiedSeller,
		HasPasscode:      u.PasscodeHash.Valid,
		Settings:         u.Settings,
		CreatedAt:        u.CreatedAt,
	}
}

type UpdateProfileRequest struct {
	City *string `json:"city"`
	Area *string `json:"area"`
}

type VerifyPhoneRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
}

type UpdateSettingsRequest struct {
	Settings map[string]any `json:"settings" binding:"required"`
}

type PasscodeRequest struct {
	Passcode string `json:"passcode" binding:"required"`
}
