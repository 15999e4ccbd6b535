package api

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/willemhelmet/prompt-pugalists/internal/constants"
	"github.com/willemhelmet/prompt-pugalists/internal/logging"
)

// Uploader hosts an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, imageBytes []byte) (string, error)
}

// maxUploadBytes caps accepted image size (8 MiB).
const maxUploadBytes = 8 << 20

// UploadHandler proxies character and environment art to the image host.
type UploadHandler struct {
	uploader Uploader
}

func NewUploadHandler(uploader Uploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

// Upload accepts a multipart "image" field and returns the hosted URL.
func (h *UploadHandler) Upload(c *gin.Context) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrUploadMissingImage})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil || len(data) == 0 || len(data) > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}

	url, err := h.uploader.Upload(c.Request.Context(), data)
	if err != nil {
		logging.Error("image upload failed", err, nil)
		c.JSON(http.StatusBadGateway, gin.H{constants.JSONKeyError: constants.ErrFailedUpload})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
