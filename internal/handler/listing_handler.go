package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gebeya-market/internal/repository"
	"gebeya-market/internal/services"
	"gebeya-market/internal/transport/httpdto"
)

type ListingHandler struct {
	service *services.ListingService
}

func NewListingHandler(service *services.ListingService) *ListingHandler {
	return &ListingHandler{service: service}
}

func (h *ListingHandler) Create(c *gin.Context) {
	var req httpdto.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	l, err := h.service.CreateListing(c.Request.Context(), userID, services.CreateListingInput{
		CategoryID:   req.CategoryID,
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Condition:    req.Condition,
		IsNegotiable: req.IsNegotiable,
		City:         req.City,
		Area:         req.Area,
		Images:       req.Images,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.NewListingResponse(l)))
}

func (h *ListingHandler) List(c *gin.Context) {
	filter := repository.ListingFilter{
		City:  c.Query("city"),
		Query: c.Query("query"),
	}
	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid category id", "INVALID_REQUEST"))
			return
		}
		filter.CategoryID = id
	}
	filter.Page, _ = strconv.Atoi(c.Query("page"))
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))

	items, total, err := h.service.ListListings(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(
		httpdto.NewPage(httpdto.NewListingResponses(items), total, filter.Page, filter.Limit),
	))
}

func (h *ListingHandler) GetByID(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid listing id", "INVALID_REQUEST"))
		return
	}

	l, err := h.service.GetListing(c.Request.Context(), listingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewListingResponse(l)))
}

func (h *ListingHandler) Mine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.service.MyListings(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewListingResponses(items)))
}

func (h *ListingHandler) Update(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid listing id", "INVALID_REQUEST"))
		return
	}

	var req httpdto.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	l, err := h.service.UpdateListing(c.Request.Context(), listingID, userID, services.UpdateListingInput{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Condition:    req.Condition,
		IsNegotiable: req.IsNegotiable,
		Area:         req.Area,
		Images:       req.Images,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewListingResponse(l)))
}

func (h *ListingHandler) UpdateStatus(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid listing id", "INVALID_REQUEST"))
		return
	}

	var req httpdto.UpdateListingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.service.UpdateStatus(c.Request.Context(), listingID, userID, req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *ListingHandler) Delete(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid listing id", "INVALID_REQUEST"))
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.service.DeleteListing(c.Request.Context(), listingID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *ListingHandler) Categories(c *gin.Context) {
	categories, err := h.service.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]httpdto.CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		out = append(out, httpdto.NewCategoryResponse(cat))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(out))
}
