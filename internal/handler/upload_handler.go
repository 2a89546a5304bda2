package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gebeya-market/internal/storage"
	"gebeya-market/internal/transport/httpdto"
)

const maxUploadBytes = 10 << 20

type UploadHandler struct {
	storage *storage.Client
}

func NewUploadHandler(s *storage.Client) *UploadHandler {
	return &UploadHandler{storage: s}
}

// Upload accepts a multipart image under the "file" field and stores it.
func (h *UploadHandler) Upload(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("uploads are not configured", "STORE_UNAVAILABLE"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("file field is required", "INVALID_REQUEST"))
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("file too large", "INVALID_REQUEST"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("could not read file", "INVALID_REQUEST"))
		return
	}
	defer file.Close()

	key, publicURL, err := h.storage.Upload(c.Request.Context(), file, fileHeader.Header.Get("Content-Type"), fileHeader.Size)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.UploadResponse{URL: publicURL, Key: key}))
}

// Presign hands the client a signed PUT URL for direct-to-bucket uploads.
func (h *UploadHandler) Presign(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("uploads are not configured", "STORE_UNAVAILABLE"))
		return
	}

	var req httpdto.PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	uploadURL, key, err := h.storage.PresignPut(c.Request.Context(), req.FileName, req.ContentType)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.PresignResponse{
		UploadURL: uploadURL,
		PublicURL: h.storage.FileURL(key),
		Key:       key,
	}))
}
