package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"measurement-service/internal/apperror"
	"measurement-service/internal/lineitem"
	mid "measurement-service/internal/middleware"
	"measurement-service/internal/measurement"
	"measurement-service/internal/report"
	"measurement-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// MeasurementHandler serves the measurement API of the authenticated tenant
type MeasurementHandler struct {
	service *measurement.Service
}

// NewMeasurementHandler creates a handler over service
func NewMeasurementHandler(service *measurement.Service) *MeasurementHandler {
	return &MeasurementHandler{service: service}
}

// Register mounts the routes on g. g must run the auth middleware.
func (h *MeasurementHandler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/pending", h.ListPending)
	g.GET("/completed", h.ListCompleted)
	g.GET("/completed/export", h.ExportCompleted)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id/status", h.SetStatus)
	g.PUT("/:id/complete", h.Complete)
	g.DELETE("/:id", h.Delete)
}

// CreateRequest is the body of POST /measurements
type CreateRequest struct {
	ClientID    uint            `json:"client_id"`
	AddressID   uint            `json:"address_id"`
	ScheduledAt string          `json:"scheduled_at"`
	Note        string          `json:"note"`
	Items       []lineitem.Item `json:"items"`
	ProductID   *uint           `json:"product_id"`
}

// UpdateRequest is the body of PUT /measurements/:id. Absent fields are kept.
type UpdateRequest struct {
	ClientID    *uint                         `json:"client_id"`
	AddressID   *uint                         `json:"address_id"`
	ProductID   measurement.Optional[uint]    `json:"product_id"`
	ScheduledAt *string                       `json:"scheduled_at"`
	Note        *string                       `json:"note"`
	Items       *[]lineitem.Item              `json:"items"`
	Height      measurement.Optional[float64] `json:"height"`
	Width       measurement.Optional[float64] `json:"width"`
	Status      *string                       `json:"status"`
}

// StatusRequest is the body of PATCH /measurements/:id/status
type StatusRequest struct {
	Status string `json:"status"`
}

// CompleteRequest is the body of PUT /measurements/:id/complete
type CompleteRequest struct {
	Note   string          `json:"note"`
	Items  []lineitem.Item `json:"items"`
	Height *float64        `json:"height"`
	Width  *float64        `json:"width"`
}

// List returns every measurement of the tenant
func (h *MeasurementHandler) List(c echo.Context) error {
	return h.search(c, "")
}

// ListPending returns the pending measurements
func (h *MeasurementHandler) ListPending(c echo.Context) error {
	return h.search(c, measurement.StatusPending)
}

// ListCompleted returns the completed measurements matching q, from and to
func (h *MeasurementHandler) ListCompleted(c echo.Context) error {
	return h.search(c, measurement.StatusCompleted)
}

func (h *MeasurementHandler) search(c echo.Context, status measurement.Status) error {
	tenantID, ok := mid.GetTenantIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	q, err := h.query(c, status)
	if err != nil {
		return respondError(c, err)
	}

	records, err := h.service.Search(c.Request().Context(), tenantID, q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

// ExportCompleted streams the completed measurements as a spreadsheet
func (h *MeasurementHandler) ExportCompleted(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID, ok := mid.GetTenantIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	q, err := h.query(c, measurement.StatusCompleted)
	if err != nil {
		return respondError(c, err)
	}

	records, err := h.service.Search(c.Request().Context(), tenantID, q)
	if err != nil {
		return respondError(c, err)
	}

	data, err := report.CompletedExport(records, h.service.Location())
	if err != nil {
		return respondError(c, fmt.Errorf("build export: %w", err))
	}

	filename := fmt.Sprintf("measurements-completed-%s.xlsx", time.Now().In(h.service.Location()).Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))

	log.Info("Completed measurements exported",
		zap.Uint("tenant_id", tenantID),
		zap.Int("rows", len(records)),
		zap.Int("bytes", len(data)))
	return c.Blob(http.StatusOK, xlsxContentType, data)
}

// Get returns one measurement
func (h *MeasurementHandler) Get(c echo.Context) error {
	tenantID, ok := mid.GetTenantIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}

	record, err := h.service.Get(c.Request().Context(), tenantID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// Create schedules a measurement
func (h *MeasurementHandler) Create(c echo.Context) error {
	tenantID, ok := mid.GetTenantIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, invalidBody(c, err))
	}

	if req.ClientID == 0 || req.AddressID == 0 {
		return respondError(c, apperror.Validation(apperror.CodeMissingFields, "client, address and scheduled date are required"))
	}
	scheduledAt, err := measurement.ParseScheduledAt(req.ScheduledAt, h.service.Location())
	if err != nil {
		return respondError(c, err)
	}

	record, err := h.service.Create(c.Request().Context(), tenantID, measurement.CreateInput{
		ClientID:    req.ClientID,
		AddressID:   req.AddressID,
		ScheduledAt: scheduledAt,
		Note:        req.Note,
		Items:       req.Items,
		ProductID:   req.ProductID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, record)
}

// Update applies a partial change
func (h *MeasurementHandler) Update(c echo.Context) error {
	tenantID, ok := mid.GetTenantIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, invalidBody(c, err))
	}

	patch := measurement.Patch{
		ClientID:  req.ClientID,
		AddressID: req.AddressID,
		ProductID: req.ProductID,
		Note:      req.Note,
		Items:     req.Items,
		Height:    req.Height,
		Width:     req.Width,
		Status:    req.Status,
	}
	if req.ScheduledAt != nil {
		scheduledAt, err := measurement.ParseScheduledAt(*req.ScheduledAt, h.service.Location())
		if err != nil {
			return respondError(c, err)
		}
		patch.ScheduledAt = &scheduledAt
	}

	record, err := h.service.Update(c.Request().Context(), tenantID, id, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// SetStatus overrides the status
func (h *MeasurementHandler) SetStatus(c echo.Context) error {
	tenantID, ok := mid.GetTenantIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, invalidBody(c, err))
	}

	record, err := h.service.SetStatus(c.Request().Context(), tenantID, id, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// Complete stores the final items and marks the measurement completed
func (h *MeasurementHandler) Complete(c echo.Context) error {
	tenantID, ok := mid.GetTenantIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req CompleteRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, invalidBody(c, err))
	}

	record, err := h.service.Complete(c.Request().Context(), tenantID, id, measurement.CompleteInput{
		Note:   req.Note,
		Items:  req.Items,
		Height: req.Height,
		Width:  req.Width,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// Delete removes a measurement
func (h *MeasurementHandler) Delete(c echo.Context) error {
	tenantID, ok := mid.GetTenantIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := h.service.Delete(c.Request().Context(), tenantID, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// query reads q, from and to. de and ate are older names of from and to.
func (h *MeasurementHandler) query(c echo.Context, status measurement.Status) (measurement.Query, error) {
	q := measurement.Query{Status: status, Term: c.QueryParam("q")}

	from, err := h.day(c, "from", "de")
	if err != nil {
		return q, err
	}
	to, err := h.day(c, "to", "ate")
	if err != nil {
		return q, err
	}
	q.From, q.To = from, to
	return q, nil
}

func (h *MeasurementHandler) day(c echo.Context, names ...string) (*time.Time, error) {
	for _, name := range names {
		value := c.QueryParam(name)
		if value == "" {
			continue
		}
		day, err := measurement.ParseDay(value, h.service.Location())
		if err != nil {
			return nil, err
		}
		return &day, nil
	}
	return nil, nil
}

func unauthorized(c echo.Context) error {
	logger.FromEcho(c).Warn("Request reached handler without tenant")
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token does not identify a company"})
}

func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation(apperror.CodeInvalidID, "id must be a positive integer")
	}
	return uint(id), nil
}

func invalidBody(c echo.Context, err error) error {
	logger.FromEcho(c).Warn("Invalid request body", zap.Error(err))
	return apperror.Validation(apperror.CodeInvalidBody, "request body is not valid JSON")
}

// respondError writes application errors as 400 or 404 with their code, and
// anything else as an opaque 500
func respondError(c echo.Context, err error) error {
	if appErr, ok := apperror.As(err); ok {
		status := http.StatusBadRequest
		if appErr.Kind == apperror.KindNotFound {
			status = http.StatusNotFound
		}
		return c.JSON(status, echo.Map{"error": appErr.Message, "code": appErr.Code})
	}

	logger.FromEcho(c).Error("Request failed",
		zap.String("path", c.Path()),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}
