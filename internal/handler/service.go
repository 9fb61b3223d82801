package handler

import (
	"context"
	"time"

	"github.com/togocar/fleet-service/internal/model"
	"github.com/togocar/fleet-service/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type FleetService interface {
	CheckAvailability(ctx context.Context, vehicleID string, start, end time.Time) (model.AvailabilityResult, error)
	CreateReservation(ctx context.Context, req model.CreateReservationRequest) (model.Reservation, error)
	GetReservations(ctx context.Context) ([]model.Reservation, error)
	GetMyReservations(ctx context.Context, userID string) ([]model.Reservation, error)
	MarkPickedUp(ctx context.Context, reservationID string) (model.Reservation, error)
	MarkReturned(ctx context.Context, reservationID string) (model.Reservation, error)
	CancelReservation(ctx context.Context, callerID string, isAdmin bool, reservationID string) (model.Reservation, error)

	GetVehicle(ctx context.Context, vehicleID string) (model.Vehicle, error)
	ListVehicles(ctx context.Context) ([]model.Vehicle, error)
	CreateVehicle(ctx context.Context, req model.CreateVehicleRequest) (model.Vehicle, error)
	UpdateVehicle(ctx context.Context, vehicleID string, req model.UpdateVehicleRequest) (model.Vehicle, error)
	DeleteVehicle(ctx context.Context, vehicleID string) error
}

var _ FleetService = (*service.Service)(nil)
