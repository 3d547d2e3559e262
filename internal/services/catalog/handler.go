package catalog

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"restaurant-orders/internal/apperror"
	"restaurant-orders/internal/auth"
	"restaurant-orders/internal/httpresp"
	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
)

// MaxPhotoSize caps the size of an uploaded dish photo
const MaxPhotoSize = 10 << 20

// Handler handles HTTP requests for the dish catalog
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new catalog handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Register mounts the catalog routes on r
func (h *Handler) Register(r gin.IRouter) {
	dishes := r.Group("/dishes")
	dishes.GET("", h.List)
	dishes.POST("", h.Create)
	dishes.GET("/:id", h.Get)
	dishes.PUT("/:id", h.Update)
	dishes.DELETE("/:id", h.Delete)
	dishes.POST("/:id/photo", h.UploadPhoto)
}

// List handles GET /dishes
func (h *Handler) List(c *gin.Context) {
	var filter models.DishFilter
	var err error

	if filter.MinPrice, err = queryInt(c, "min_price"); err != nil {
		httpresp.Error(c, err)
		return
	}
	if filter.MaxPrice, err = queryInt(c, "max_price"); err != nil {
		httpresp.Error(c, err)
		return
	}

	resp, err := h.service.List(httpresp.Context(c), auth.FromContext(c), filter)
	if err != nil {
		h.fail(c, "list_dishes_failed", err)
		return
	}
	httpresp.JSON(c, http.StatusOK, resp)
}

// Get handles GET /dishes/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := httpresp.ParamID(c, "id")
	if err != nil {
		httpresp.Error(c, err)
		return
	}

	dish, err := h.service.Get(httpresp.Context(c), id)
	if err != nil {
		h.fail(c, "get_dish_failed", err)
		return
	}
	httpresp.JSON(c, http.StatusOK, dish)
}

// Create handles POST /dishes
func (h *Handler) Create(c *gin.Context) {
	var req models.CreateDishRequest
	if err := httpresp.BindJSON(c, &req); err != nil {
		httpresp.Error(c, err)
		return
	}

	dish, err := h.service.Create(httpresp.Context(c), auth.FromContext(c), &req)
	if err != nil {
		h.fail(c, "create_dish_failed", err)
		return
	}
	httpresp.JSON(c, http.StatusCreated, dish)
}

// Update handles PUT /dishes/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := httpresp.ParamID(c, "id")
	if err != nil {
		httpresp.Error(c, err)
		return
	}

	var req models.UpdateDishRequest
	if err := httpresp.BindJSON(c, &req); err != nil {
		httpresp.Error(c, err)
		return
	}

	dish, err := h.service.Update(httpresp.Context(c), auth.FromContext(c), id, &req)
	if err != nil {
		h.fail(c, "update_dish_failed", err)
		return
	}
	httpresp.JSON(c, http.StatusOK, dish)
}

// Delete handles DELETE /dishes/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := httpresp.ParamID(c, "id")
	if err != nil {
		httpresp.Error(c, err)
		return
	}

	if _, err := h.service.Delete(httpresp.Context(c), auth.FromContext(c), id); err != nil {
		h.fail(c, "delete_dish_failed", err)
		return
	}
	httpresp.NoContent(c)
}

// UploadPhoto handles POST /dishes/:id/photo with a multipart "photo" field
func (h *Handler) UploadPhoto(c *gin.Context) {
	id, err := httpresp.ParamID(c, "id")
	if err != nil {
		httpresp.Error(c, err)
		return
	}

	header, err := c.FormFile("photo")
	if err != nil {
		httpresp.Error(c, apperror.Validation("photo", "photo is required"))
		return
	}
	if header.Size > MaxPhotoSize {
		httpresp.Error(c, apperror.Validation("photo", "photo is too large"))
		return
	}

	file, err := header.Open()
	if err != nil {
		h.fail(c, "photo_read_failed", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxPhotoSize+1))
	if err != nil {
		h.fail(c, "photo_read_failed", err)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	resp, err := h.service.ReplacePhoto(httpresp.Context(c), auth.FromContext(c), id, data, contentType, header.Filename)
	if err != nil {
		h.fail(c, "photo_upload_failed", err)
		return
	}
	httpresp.JSON(c, http.StatusOK, resp)
}

func (h *Handler) fail(c *gin.Context, action string, err error) {
	if apperror.KindOf(err) == apperror.KindInternal {
		h.logger.Error(action, "Request failed", httpresp.RequestID(c), err, map[string]interface{}{
			"path": c.FullPath(),
		})
	}
	httpresp.Error(c, err)
}

func queryInt(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperror.Validation(name, "must be an integer")
	}
	return &v, nil
}
