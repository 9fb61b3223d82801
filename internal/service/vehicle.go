package service

import (
	"context"

	"github.com/togocar/fleet-service/internal/model"
)

func (s *Service) GetVehicle(ctx context.Context, vehicleID string) (model.Vehicle, error) {
	return s.repo.GetVehicle(ctx, vehicleID)
}

func (s *Service) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
	return s.repo.ListVehicles(ctx)
}

func (s *Service) CreateVehicle(ctx context.Context, req model.CreateVehicleRequest) (model.Vehicle, error) {
	return s.repo.CreateVehicle(ctx, req)
}

func (s *Service) UpdateVehicle(ctx context.Context, vehicleID string, req model.UpdateVehicleRequest) (model.Vehicle, error) {
	return s.repo.UpdateVehicle(ctx, vehicleID, req)
}

func (s *Service) DeleteVehicle(ctx context.Context, vehicleID string) error {
	return s.repo.DeleteVehicle(ctx, vehicleID)
}
