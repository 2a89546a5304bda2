package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gebeya-market/internal/services"
	"gebeya-market/internal/transport/httpdto"
)

type AuthHandler struct {
	service *services.AuthService
}

func NewAuthHandler(service *services.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Telegram exchanges a WebApp initData payload for an access token.
func (h *AuthHandler) Telegram(c *gin.Context) {
	var req httpdto.TelegramAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	res, err := h.service.AuthenticateTelegram(c.Request.Context(), req.InitData)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.AuthResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   res.ExpiresIn,
		User:        httpdto.NewUserResponse(res.User),
	}))
}
