package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/totegamma/guardiansos"
	"github.com/totegamma/guardiansos/internal/domain"
	"github.com/totegamma/guardiansos/internal/present/rest/middleware"
	"github.com/totegamma/guardiansos/internal/present/rest/presenter"
	"github.com/totegamma/guardiansos/internal/service"
	"github.com/totegamma/guardiansos/internal/usecase"
)

type Handler struct {
	config   domain.Config
	capture  *usecase.CaptureUsecase
	alert    *usecase.AlertUsecase
	location *usecase.LocationUsecase
	presence *usecase.PresenceUsecase
	watch    *usecase.WatchUsecase
	signal   *service.SignalService
}

// NewHandler builds the HTTP surface. signal is nil when no redis is
// configured; /realtime then answers 503.
func NewHandler(
	config domain.Config,
	capture *usecase.CaptureUsecase,
	alert *usecase.AlertUsecase,
	location *usecase.LocationUsecase,
	presence *usecase.PresenceUsecase,
	watch *usecase.WatchUsecase,
	signal *service.SignalService,
) *Handler {
	return &Handler{
		config:   config,
		capture:  capture,
		alert:    alert,
		location: location,
		presence: presence,
		watch:    watch,
		signal:   signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, auth *middleware.AuthMiddleware) {
	e.GET("/health", h.handleHealth)
	e.GET("/socket", h.handleSocket)
	e.GET("/realtime", h.handleRealtime)

	api := e.Group("/api", auth.IdentifyIdentity, middleware.Restrict)
	api.POST("/sos/trigger", h.handleTrigger)
	api.POST("/sos/cancel", h.handleCancel)
	api.GET("/sos/active", h.handleActive)
	api.GET("/evidence", h.handleEvidenceList)
	api.POST("/evidence/upload", h.handleEvidenceUpload)
}

func (h *Handler) handleHealth(c echo.Context) error {
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleTrigger(c echo.Context) error {
	ctx := c.Request().Context()
	requester, _ := middleware.RequesterID(ctx)

	var req guardiansos.TriggerRequest
	err := c.Bind(&req)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	level, ok := domain.ParseAlertLevel(req.Level)
	if !ok {
		return presenter.BadRequestMessage(c, "invalid level")
	}

	incident, err := h.alert.Trigger(ctx, requester, usecase.TriggerInput{
		Level:    level,
		Location: req.Location,
		Battery:  req.Battery,
		Network:  req.Network,
	})
	if err != nil {
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, incident)
}

func (h *Handler) handleCancel(c echo.Context) error {
	ctx := c.Request().Context()
	requester, _ := middleware.RequesterID(ctx)

	_, err := h.alert.Cancel(ctx, requester)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, echo.Map{"msg": "SOS Cancelled"})
}

func (h *Handler) handleActive(c echo.Context) error {
	ctx := c.Request().Context()
	requester, _ := middleware.RequesterID(ctx)

	incident, err := h.alert.Active(ctx, requester)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "no active incident")
		}
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, incident)
}

func (h *Handler) handleEvidenceList(c echo.Context) error {
	ctx := c.Request().Context()
	requester, _ := middleware.RequesterID(ctx)

	evidence, err := h.capture.List(ctx, requester)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, evidence)
}

func (h *Handler) handleEvidenceUpload(c echo.Context) error {
	ctx := c.Request().Context()
	requester, _ := middleware.RequesterID(ctx)

	file, err := c.FormFile("file")
	if err != nil {
		return presenter.BadRequestMessage(c, "No file uploaded")
	}
	src, err := file.Open()
	if err != nil {
		return presenter.BadRequest(c, err)
	}
	defer src.Close()

	var location *guardiansos.Location
	lat, latErr := strconv.ParseFloat(c.FormValue("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.FormValue("lng"), 64)
	if latErr == nil && lngErr == nil {
		location = &guardiansos.Location{Lat: lat, Lng: lng, Address: c.FormValue("address")}
	}

	batchID := c.FormValue("batchId")
	if batchID == "" {
		batchID = uuid.NewString()
	}
	deviceID := c.FormValue("deviceId")
	if deviceID == "" {
		deviceID = "upload"
	}

	evidence, err := h.capture.Upload(ctx, usecase.UploadInput{
		UserID:    requester,
		MediaKind: c.FormValue("type"),
		BatchID:   batchID,
		DeviceID:  deviceID,
		Location:  location,
		Body:      src,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return presenter.BadRequest(c, err)
		}
		return presenter.InternalError(c, err)
	}

	return c.JSON(http.StatusCreated, evidence)
}
