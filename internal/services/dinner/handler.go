package dinner

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"restaurant-orders/internal/apperror"
	"restaurant-orders/internal/auth"
	"restaurant-orders/internal/httpresp"
	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/models"
)

const dateLayout = "2006-01-02"

// Handler handles HTTP requests for dinners and their line items
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new dinner handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Register mounts the dinner routes on r
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/dishes/:id/draft", h.AddDishToDraft)

	dinners := r.Group("/dinners")
	dinners.GET("", h.List)
	dinners.PUT("", h.Upsert)
	dinners.GET("/:id", h.Get)
	dinners.DELETE("/:id", h.Delete)
	dinners.PUT("/:id/form", h.Form)
	dinners.PUT("/:id/complete", h.Complete)
	dinners.PUT("/:id/edit", h.Edit)
	dinners.GET("/:id/receipt", h.Receipt)
	dinners.GET("/:id/qr", h.QRCode)
	dinners.PUT("/:id/dishes/:dish_id", h.UpdateLineItem)
	dinners.DELETE("/:id/dishes/:dish_id", h.DeleteLineItem)
}

// AddDishToDraft handles POST /dishes/:id/draft
func (h *Handler) AddDishToDraft(c *gin.Context) {
	dishID, err := httpresp.ParamID(c, "id")
	if err != nil {
		httpresp.Error(c, err)
		return
	}

	item, err := h.service.AddDishToDraft(httpresp.Context(c), auth.FromContext(c), dishID)
	if err != nil {
		h.fail(c, "add_to_draft_failed", err)
		return
	}
	httpresp.JSON(c, http.StatusCreated, item)
}

// List handles GET /dinners
func (h *Handler) List(c *gin.Context) {
	filter, err := parseDinnerFilter(c)
	if err != nil {
		httpresp.Error(c, err)
		return
	}

	dinners, err := h.service.List(httpresp.Context(c), auth.FromContext(c), filter)
	if err != nil {
		h.fail(c, "list_dinners_failed", err)
		return
	}
	if dinners == nil {
		dinners = []models.Dinner{}
	}
	httpresp.JSON(c, http.StatusOK, dinners)
}

// Upsert handles PUT /dinners
func (h *Handler) Upsert(c *gin.Context) {
	var req models.UpsertDinnerRequest
	if err := httpresp.BindJSON(c, &req); err != nil {
		httpresp.Error(c, err)
		return
	}

	dinner, err := h.service.Upsert(httpresp.Context(c), auth.FromContext(c), &req)
	if err != nil {
		h.fail(c, "upsert_dinner_failed", err)
		return
	}

	status := http.StatusOK
	if req.ID == nil {
		status = http.StatusCreated
	}
	httpresp.JSON(c, status, dinner)
}

// Get handles GET /dinners/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := httpresp.ParamID(c, "id")
	if err != nil {
		httpresp.Error(c, err)
		return
	}

	detail, err := h.service.Get(httpresp.Context(c), auth.FromContext(c), id)
	if err != nil {
		h.fail(c, "get_dinner_failed", err)
		return
	}
	httpresp.JSON(c, http.StatusOK, detail)
}

// Delete handles DELETE /dinners/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := httpresp.ParamID(c, "id")
	if err != nil {
		httpresp.Error(c, err)
		return
	}

	if _, err := h.service.SoftDelete(httpresp.Context(c), auth.FromContext(c), id); err != nil {
		h.fail(c, "delete_dinner_failed", err)
		return
	}
	httpresp.NoContent(c)
}

// Form handles PUT /dinners/:id/form
func (h *Handler) Form(c *gin.Context) {
	h.transition(c, "form_dinner_failed", h.service.Form)
}

// Complete handles PUT /dinners/:id/complete, which completes or rejects
func (h *Handler) Complete(c *gin.Context) {
	h.transition(c, "complete_dinner_failed", h.service.CompleteOrReject)
}

type transitionFunc func(ctx context.Context, caller *auth.Identity, id int64, req *models.TransitionRequest) (*models.Dinner, error)

func (h *Handler) transition(c *gin.Context, action string, fn transitionFunc) {
	id, err := httpresp.ParamID(c, "id")
	if err != nil {
		httpresp.Error(c, err)
		return
	}

	var req models.TransitionRequest
	if err := httpresp.BindJSON(c, &req); err != nil {
		httpresp.Error(c, err)
		return
	}

	dinner, err := fn(httpresp.Context(c), auth.FromContext(c), id, &req)
	if err != nil {
		h.fail(c, action, err)
		return
	}
	httpresp.JSON(c, http.StatusOK, dinner)
}

// Edit handles PUT /dinners/:id/edit
func (h *Handler) Edit(c *gin.Context) {
	id, err := httpresp.ParamID(c, "id")
	if err != nil {
		httpresp.Error(c, err)
		return
	}

	var req models.EditDinnerRequest
	if err := httpresp.BindJSON(c, &req); err != nil {
		httpresp.Error(c, err)
		return
	}

	dinner, err := h.service.Edit(httpresp.Context(c), auth.FromContext(c), id, &req)
	if err != nil {
		h.fail(c, "edit_dinner_failed", err)
		return
	}
	httpresp.JSON(c, http.StatusOK, dinner)
}

// Receipt handles GET /dinners/:id/receipt
func (h *Handler) Receipt(c *gin.Context) {
	id, err := httpresp.ParamID(c, "id")
	if err != nil {
		httpresp.Error(c, err)
		return
	}

	receipt, err := h.service.Receipt(httpresp.Context(c), auth.FromContext(c), id)
	if err != nil {
		h.fail(c, "receipt_failed", err)
		return
	}
	httpresp.JSON(c, http.StatusOK, receipt)
}

// QRCode handles GET /dinners/:id/qr
func (h *Handler) QRCode(c *gin.Context) {
	id, err := httpresp.ParamID(c, "id")
	if err != nil {
		httpresp.Error(c, err)
		return
	}

	png, err := h.service.MinimalCode(httpresp.Context(c), auth.FromContext(c), id)
	if err != nil {
		h.fail(c, "qr_code_failed", err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// UpdateLineItem handles PUT /dinners/:id/dishes/:dish_id
func (h *Handler) UpdateLineItem(c *gin.Context) {
	dinnerID, dishID, err := lineItemParams(c)
	if err != nil {
		httpresp.Error(c, err)
		return
	}

	var req models.UpdateLineItemRequest
	if err := httpresp.BindJSON(c, &req); err != nil {
		httpresp.Error(c, err)
		return
	}

	item, err := h.service.UpdateLineItem(httpresp.Context(c), auth.FromContext(c), dinnerID, dishID, &req)
	if err != nil {
		h.fail(c, "update_line_item_failed", err)
		return
	}
	httpresp.JSON(c, http.StatusOK, item)
}

// DeleteLineItem handles DELETE /dinners/:id/dishes/:dish_id
func (h *Handler) DeleteLineItem(c *gin.Context) {
	dinnerID, dishID, err := lineItemParams(c)
	if err != nil {
		httpresp.Error(c, err)
		return
	}

	if err := h.service.DeleteLineItem(httpresp.Context(c), auth.FromContext(c), dinnerID, dishID); err != nil {
		h.fail(c, "delete_line_item_failed", err)
		return
	}
	httpresp.NoContent(c)
}

// fail logs unexpected errors and writes the error response
func (h *Handler) fail(c *gin.Context, action string, err error) {
	if apperror.KindOf(err) == apperror.KindInternal {
		h.logger.Error(action, "Request failed", httpresp.RequestID(c), err, map[string]interface{}{
			"path": c.FullPath(),
		})
	}
	httpresp.Error(c, err)
}

func lineItemParams(c *gin.Context) (int64, int64, error) {
	dinnerID, err := httpresp.ParamID(c, "id")
	if err != nil {
		return 0, 0, err
	}
	dishID, err := httpresp.ParamID(c, "dish_id")
	if err != nil {
		return 0, 0, err
	}
	return dinnerID, dishID, nil
}

func parseDinnerFilter(c *gin.Context) (models.DinnerFilter, error) {
	var filter models.DinnerFilter

	if v := c.Query("date_from"); v != "" {
		t, err := parseDate(v, false)
		if err != nil {
			return filter, apperror.Validation("date_from", "must be YYYY-MM-DD or RFC 3339")
		}
		filter.DateFrom = &t
	}

	if v := c.Query("date_to"); v != "" {
		t, err := parseDate(v, true)
		if err != nil {
			return filter, apperror.Validation("date_to", "must be YYYY-MM-DD or RFC 3339")
		}
		filter.DateTo = &t
	}

	if v := c.Query("status"); v != "" {
		status, err := models.ParseDinnerStatus(strings.ToLower(v))
		if err != nil {
			return filter, apperror.Validation("status", err.Error())
		}
		filter.Status = &status
	}

	return filter, nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. A bare date used
// as an upper bound covers the whole day.
func parseDate(value string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(dateLayout, value); err == nil {
		if endOfDay {
			return t.Add(24*time.Hour - time.Nanosecond), nil
		}
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
