package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/togocar/fleet-service/internal/model"
)

func (h *Handler) ListVehicles(c echo.Context) error {
	items, err := h.fleetSvc.ListVehicles(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetVehicle(c echo.Context) error {
	vehicleID, err := pathID(c)
	if err != nil {
		return err
	}
	v, err := h.fleetSvc.GetVehicle(c.Request().Context(), vehicleID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) CreateVehicle(c echo.Context) error {
	var req model.CreateVehicleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.fleetSvc.CreateVehicle(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) UpdateVehicle(c echo.Context) error {
	vehicleID, err := pathID(c)
	if err != nil {
		return err
	}
	var req model.UpdateVehicleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.fleetSvc.UpdateVehicle(c.Request().Context(), vehicleID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) DeleteVehicle(c echo.Context) error {
	vehicleID, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.fleetSvc.DeleteVehicle(c.Request().Context(), vehicleID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
