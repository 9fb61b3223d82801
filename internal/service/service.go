package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/togocar/fleet-service/internal/errs"
	"github.com/togocar/fleet-service/internal/model"
	"github.com/togocar/fleet-service/internal/repository"
	"github.com/togocar/fleet-service/pkg/kafka"
)

// EventPublisher emits reservation lifecycle events. Publishing is
// fire-and-forget: a broker outage must never fail a booking.
type EventPublisher interface {
	Publish(ctx context.Context, event kafka.ReservationEvent)
}

type Service struct {
	log    *zap.Logger
	repo   repository.Repository
	events EventPublisher
	now    func() time.Time
}

type Option func(*Service)

func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo repository.Repository, events EventPublisher, log *zap.Logger, ops ...Option) *Service {
	s := &Service{
		log:    log,
		repo:   repo,
		events: events,
		now:    time.Now,
	}
	for _, op := range ops {
		op(s)
	}
	return s
}

// CheckAvailability is the advisory read: it reports whether the vehicle is
// free over [start, end], who blocks it, and which same-category vehicles are
// free instead. It never reserves anything; admission re-checks on create.
func (s *Service) CheckAvailability(ctx context.Context, vehicleID string, start, end time.Time) (model.AvailabilityResult, error) {
	if !end.After(start) {
		return model.AvailabilityResult{}, errors.Wrap(errs.ErrValidation, "endDate must be after startDate")
	}

	vehicle, err := s.repo.GetVehicle(ctx, vehicleID)
	if err != nil {
		return model.AvailabilityResult{}, err
	}

	conflicts, err := s.repo.FindActiveConflicts(ctx, vehicleID, start, end)
	if err != nil {
		return model.AvailabilityResult{}, err
	}

	result := model.AvailabilityResult{
		IsAvailable:  len(conflicts) == 0,
		Vehicle:      vehicle,
		Conflicts:    conflicts,
		Alternatives: []model.Vehicle{},
	}
	if result.Conflicts == nil {
		result.Conflicts = []model.Conflict{}
	}
	if result.IsAvailable {
		return result, nil
	}

	candidates, err := s.repo.ListVehiclesByCategory(ctx, vehicle.Category, model.VehicleAvailable, []string{vehicleID})
	if err != nil {
		return model.AvailabilityResult{}, err
	}
	for _, candidate := range candidates {
		busy, err := s.repo.HasActiveConflict(ctx, candidate.ID, start, end)
		if err != nil {
			return model.AvailabilityResult{}, err
		}
		if !busy {
			result.Alternatives = append(result.Alternatives, candidate)
		}
	}
	return result, nil
}

// CreateReservation admits a booking. The repository re-checks conflicts
// inside one transaction, so a stale availability check cannot produce two
// overlapping reservations.
func (s *Service) CreateReservation(ctx context.Context, req model.CreateReservationRequest) (model.Reservation, error) {
	if req.StartDate.Before(s.now()) {
		return model.Reservation{}, errors.Wrap(errs.ErrValidation, "startDate cannot be in the past")
	}
	if !req.EndDate.After(req.StartDate) {
		return model.Reservation{}, errors.Wrap(errs.ErrValidation, "endDate must be after startDate")
	}

	vehicle, err := s.repo.GetVehicle(ctx, req.VehicleID)
	if err != nil {
		return model.Reservation{}, err
	}
	if vehicle.Status != model.VehicleAvailable {
		return model.Reservation{}, errors.Wrap(errs.ErrConflict, "vehicle is not in service")
	}

	res, err := s.repo.CreateReservation(ctx, req)
	if err != nil {
		return model.Reservation{}, err
	}
	res.Vehicle = &vehicle

	s.publish(ctx, res)
	return res, nil
}

func (s *Service) GetReservations(ctx context.Context) ([]model.Reservation, error) {
	return s.repo.ListReservations(ctx)
}

func (s *Service) GetMyReservations(ctx context.Context, userID string) ([]model.Reservation, error) {
	return s.repo.ListUserReservations(ctx, userID)
}

// MarkPickedUp advances CONFIRMED -> IN_PROGRESS.
func (s *Service) MarkPickedUp(ctx context.Context, reservationID string) (model.Reservation, error) {
	res, err := s.repo.UpdateStatus(ctx, reservationID,
		[]model.ReservationStatus{model.StatusConfirmed}, model.StatusInProgress)
	if err != nil {
		return model.Reservation{}, err
	}
	s.publish(ctx, res)
	return res, nil
}

// MarkReturned advances IN_PROGRESS -> COMPLETED.
func (s *Service) MarkReturned(ctx context.Context, reservationID string) (model.Reservation, error) {
	res, err := s.repo.UpdateStatus(ctx, reservationID,
		[]model.ReservationStatus{model.StatusInProgress}, model.StatusCompleted)
	if err != nil {
		return model.Reservation{}, err
	}
	s.publish(ctx, res)
	return res, nil
}

// CancelReservation cancels a PENDING or CONFIRMED reservation. Only the
// owner may cancel, unless the caller is an operator. The record is kept:
// cancellation is a status change, never a delete.
func (s *Service) CancelReservation(ctx context.Context, callerID string, isAdmin bool, reservationID string) (model.Reservation, error) {
	current, err := s.repo.GetReservation(ctx, reservationID)
	if err != nil {
		return model.Reservation{}, err
	}
	if current.UserID != callerID && !isAdmin {
		return model.Reservation{}, errors.Wrap(errs.ErrForbidden, "not the reservation owner")
	}

	res, err := s.repo.UpdateStatus(ctx, reservationID,
		[]model.ReservationStatus{model.StatusPending, model.StatusConfirmed}, model.StatusCancelled)
	if err != nil {
		return model.Reservation{}, err
	}
	s.publish(ctx, res)
	return res, nil
}

func (s *Service) publish(ctx context.Context, res model.Reservation) {
	s.events.Publish(ctx, kafka.ReservationEvent{
		ReservationID: res.ID,
		VehicleID:     res.VehicleID,
		UserID:        res.UserID,
		Status:        string(res.Status),
		OccurredAt:    s.now().UTC(),
	})
}
