package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gebeya-market/internal/services"
	"gebeya-market/internal/transport/httpdto"
)

type UserHandler struct {
	service *services.UserService
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	u, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewUserResponse(u)))
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req httpdto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	u, err := h.service.UpdateProfile(c.Request.Context(), userID, services.UpdateProfileInput{
		City: req.City,
		Area: req.Area,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewUserResponse(u)))
}

// VerifyPhone records a phone number shared via the Telegram contact flow.
func (h *UserHandler) VerifyPhone(c *gin.Context) {
	var req httpdto.VerifyPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	u, err := h.service.VerifyPhone(c.Request.Context(), userID, req.PhoneNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewUserResponse(u)))
}

func (h *UserHandler) UpdateSettings(c *gin.Context) {
	var req httpdto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	u, err := h.service.UpdateSettings(c.Request.Context(), userID, req.Settings)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewUserResponse(u)))
}

func (h *UserHandler) SetPasscode(c *gin.Context) {
	var req httpdto.PasscodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.service.SetPasscode(c.Request.Context(), userID, req.Passcode); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *UserHandler) VerifyPasscode(c *gin.Context) {
	var req httpdto.PasscodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.service.VerifyPasscode(c.Request.Context(), userID, req.Passcode); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *UserHandler) RemovePasscode(c *gin.Context) {
	var req httpdto.PasscodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.service.RemovePasscode(c.Request.Context(), userID, req.Passcode); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}
