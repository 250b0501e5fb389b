package handler

import (
	"errors"
	"net/http"

	"storefront/internal/logging"
	"storefront/internal/middleware"
	"storefront/internal/storage"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

type UploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type UploadHandler struct {
	store storage.ObjectStore
	guard *middleware.Authenticator
}

// NewUploadHandler accepts a nil store; uploads then answer 503.
func NewUploadHandler(store storage.ObjectStore, guard *middleware.Authenticator) *UploadHandler {
	return &UploadHandler{store: store, guard: guard}
}

func (h *UploadHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/admin/uploads", h.guard.RequireStaff(), h.Upload)
}

// Upload godoc
// @Summary      Upload an image
// @Description  Stores a jpeg, png, webp or gif of at most 5 MB and returns its public URL
// @Tags         admin-uploads
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file    formData  file    true   "Image"
// @Param        folder  formData  string  false  "Target folder, defaults to uploads"
// @Success      201     {object}  response.Response{data=handler.UploadResponse}
// @Failure      400     {object}  response.Response
// @Failure      503     {object}  response.Response
// @Router       /admin/uploads [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, response.Error(http.StatusServiceUnavailable, "Încărcarea fișierelor nu este configurată"))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxImageSize+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "Fișierul lipsește sau este prea mare")
		return
	}
	if fh.Size > storage.MaxImageSize {
		badRequest(c, "Imaginea poate avea cel mult 5 MB")
		return
	}
	key, err := storage.ImageKey(c.PostForm("folder"), fh.Header.Get("Content-Type"))
	if errors.Is(err, storage.ErrUnsupportedType) {
		badRequest(c, "Sunt acceptate doar imagini JPEG, PNG, WebP sau GIF")
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	ctx := c.Request.Context()
	if err := h.store.Put(ctx, key, f, fh.Size, fh.Header.Get("Content-Type")); err != nil {
		respondError(c, err)
		return
	}
	logging.FromContext(ctx).InfoContext(ctx, "image uploaded", "key", key, "size", fh.Size)
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, UploadResponse{Key: key, URL: h.store.URL(key)}))
}
