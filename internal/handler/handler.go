package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/togocar/fleet-service/internal/errs"
	"github.com/togocar/fleet-service/internal/model"
	"github.com/togocar/fleet-service/pkg/auth"
	md "github.com/togocar/fleet-service/pkg/middleware"
	"github.com/togocar/fleet-service/pkg/validate"
)

type Handler struct {
	fleetSvc FleetService
	log      *zap.Logger
}

func New(fleetSvc FleetService, log *zap.Logger) *Handler {
	return &Handler{
		fleetSvc: fleetSvc,
		log:      log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.GET("/reservations/availability/check", h.CheckAvailability, md.AuthContext)
	api.POST("/reservations", h.CreateReservation, md.AuthContext)
	api.GET("/reservations/me", h.GetMyReservations, md.AuthContext)
	api.GET("/reservations", h.GetReservations, md.AuthContext, md.AdminOnly)
	api.POST("/reservations/:id/pickup", h.MarkPickedUp, md.AuthContext, md.AdminOnly)
	api.POST("/reservations/:id/return", h.MarkReturned, md.AuthContext, md.AdminOnly)
	api.DELETE("/reservations/:id/cancel", h.CancelReservation, md.AuthContext)

	api.GET("/vehicles", h.ListVehicles, md.AuthContext)
	api.GET("/vehicles/:id", h.GetVehicle, md.AuthContext)
	api.POST("/vehicles", h.CreateVehicle, md.AuthContext, md.AdminOnly)
	api.PATCH("/vehicles/:id", h.UpdateVehicle, md.AuthContext, md.AdminOnly)
	api.DELETE("/vehicles/:id", h.DeleteVehicle, md.AuthContext, md.AdminOnly)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) CheckAvailability(c echo.Context) error {
	vehicleID := c.QueryParam("vehicleId")
	if _, err := uuid.Parse(vehicleID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "vehicleId must be a uuid")
	}
	start, err := time.Parse(time.RFC3339, c.QueryParam("startDate"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "startDate must be an RFC3339 timestamp")
	}
	end, err := time.Parse(time.RFC3339, c.QueryParam("endDate"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "endDate must be an RFC3339 timestamp")
	}

	res, err := h.fleetSvc.CheckAvailability(c.Request().Context(), vehicleID, start, end)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) CreateReservation(c echo.Context) error {
	var req model.CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	caller, err := auth.FromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	req.UserID = caller.ID

	res, err := h.fleetSvc.CreateReservation(ctx, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) GetReservations(c echo.Context) error {
	items, err := h.fleetSvc.GetReservations(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetMyReservations(c echo.Context) error {
	ctx := c.Request().Context()
	caller, err := auth.FromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	items, err := h.fleetSvc.GetMyReservations(ctx, caller.ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

// pathID extracts and validates the :id path parameter. Ids are uuid
// columns, so a malformed value is rejected here instead of surfacing
// as a database error.
func pathID(c echo.Context) (string, error) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "id must be a uuid")
	}
	return id, nil
}

func (h *Handler) MarkPickedUp(c echo.Context) error {
	reservationID, err := pathID(c)
	if err != nil {
		return err
	}
	res, err := h.fleetSvc.MarkPickedUp(c.Request().Context(), reservationID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) MarkReturned(c echo.Context) error {
	reservationID, err := pathID(c)
	if err != nil {
		return err
	}
	res, err := h.fleetSvc.MarkReturned(c.Request().Context(), reservationID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) CancelReservation(c echo.Context) error {
	reservationID, err := pathID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	caller, err := auth.FromContext(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	res, err := h.fleetSvc.CancelReservation(ctx, caller.ID, caller.IsAdmin(), reservationID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// httpError maps the domain error taxonomy onto HTTP statuses.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, errs.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrPreconditionFailed):
		return echo.NewHTTPError(http.StatusPreconditionFailed, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
