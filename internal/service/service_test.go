package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/togocar/fleet-service/internal/errs"
	"github.com/togocar/fleet-service/internal/model"
	mock_repository "github.com/togocar/fleet-service/internal/repository/mocks"
	"github.com/togocar/fleet-service/internal/service"
	"github.com/togocar/fleet-service/pkg/kafka"
)

func date(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

type recordPublisher struct {
	events []kafka.ReservationEvent
}

func (p *recordPublisher) Publish(_ context.Context, event kafka.ReservationEvent) {
	p.events = append(p.events, event)
}

const (
	vehicleX   = "0b273aca-8046-4a32-9e1d-0f903fb0a28c"
	vehicleW   = "5f9a3a1d-38c8-4f1b-a9a4-1de1b7fca019"
	vehicleZ   = "90b7f819-80f4-4b6f-8f62-3aa68b01b01a"
	userA      = "a3d1f3a1-3b44-45d2-89df-9c9d013c2b11"
	userB      = "b7a7e9a2-64cf-4a0a-8a9e-3f2301f7f001"
	resvR1     = "c1a2b3c4-d5e6-47f8-90ab-cdef01234567"
	fixedClock = "2024-05-01T00:00:00Z"
)

func newService(t *testing.T) (*service.Service, *mock_repository.MockRepository, *recordPublisher) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	repo := mock_repository.NewMockRepository(ctrl)
	pub := &recordPublisher{}
	svc := service.NewService(repo, pub, zap.NewExample().Named("test"),
		service.WithNow(func() time.Time { return date(fixedClock) }))
	return svc, repo, pub
}

func sedanX() model.Vehicle {
	return model.Vehicle{
		ID:       vehicleX,
		Brand:    "Toyota",
		Model:    "Corolla",
		Year:     2023,
		Plate:    "TG-1000-A",
		Category: model.CategorySedan,
		Status:   model.VehicleAvailable,
	}
}

func TestService_CheckAvailability_InvalidWindow(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t)

	_, err := svc.CheckAvailability(context.Background(), vehicleX,
		date("2024-05-22T00:00:00Z"), date("2024-05-20T00:00:00Z"))
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.CheckAvailability(context.Background(), vehicleX,
		date("2024-05-20T00:00:00Z"), date("2024-05-20T00:00:00Z"))
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestService_CheckAvailability_Free(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newService(t)

	start, end := date("2024-05-20T00:00:00Z"), date("2024-05-25T00:00:00Z")
	repo.EXPECT().GetVehicle(gomock.Any(), vehicleX).Return(sedanX(), nil)
	repo.EXPECT().FindActiveConflicts(gomock.Any(), vehicleX, start, end).Return(nil, nil)

	res, err := svc.CheckAvailability(context.Background(), vehicleX, start, end)
	require.NoError(t, err)
	require.True(t, res.IsAvailable)
	require.Equal(t, sedanX(), res.Vehicle)
	require.Empty(t, res.Conflicts)
	require.Empty(t, res.Alternatives)
}

func TestService_CheckAvailability_SuggestsSameCategoryAlternatives(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newService(t)

	start, end := date("2024-05-20T00:00:00Z"), date("2024-05-25T00:00:00Z")
	target := sedanX()
	target.Category = model.CategorySUV

	free := model.Vehicle{ID: vehicleW, Category: model.CategorySUV, Status: model.VehicleAvailable}
	busy := model.Vehicle{ID: vehicleZ, Category: model.CategorySUV, Status: model.VehicleAvailable}

	conflicts := []model.Conflict{{
		Start:    date("2024-05-19T00:00:00Z"),
		End:      date("2024-05-21T00:00:00Z"),
		BookedBy: "Jean Dupont",
		Reason:   "client visit",
	}}

	repo.EXPECT().GetVehicle(gomock.Any(), vehicleX).Return(target, nil)
	repo.EXPECT().FindActiveConflicts(gomock.Any(), vehicleX, start, end).Return(conflicts, nil)
	repo.EXPECT().ListVehiclesByCategory(gomock.Any(), model.CategorySUV, model.VehicleAvailable, []string{vehicleX}).
		Return([]model.Vehicle{free, busy}, nil)
	repo.EXPECT().HasActiveConflict(gomock.Any(), vehicleW, start, end).Return(false, nil)
	repo.EXPECT().HasActiveConflict(gomock.Any(), vehicleZ, start, end).Return(true, nil)

	res, err := svc.CheckAvailability(context.Background(), vehicleX, start, end)
	require.NoError(t, err)
	require.False(t, res.IsAvailable)
	require.Equal(t, conflicts, res.Conflicts)
	require.Equal(t, []model.Vehicle{free}, res.Alternatives)
}

func TestService_CheckAvailability_InProgressRentalOccupies(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newService(t)

	// a vehicle already picked up keeps blocking the window until returned
	start, end := date("2024-05-20T00:00:00Z"), date("2024-05-25T00:00:00Z")
	conflicts := []model.Conflict{{
		ID:       resvR1,
		Start:    date("2024-05-18T00:00:00Z"),
		End:      date("2024-05-22T00:00:00Z"),
		BookedBy: "Jean Dupont",
		Reason:   "airport shuttle",
	}}

	repo.EXPECT().GetVehicle(gomock.Any(), vehicleX).Return(sedanX(), nil)
	repo.EXPECT().FindActiveConflicts(gomock.Any(), vehicleX, start, end).Return(conflicts, nil)
	repo.EXPECT().ListVehiclesByCategory(gomock.Any(), model.CategorySedan, model.VehicleAvailable, []string{vehicleX}).
		Return(nil, nil)

	res, err := svc.CheckAvailability(context.Background(), vehicleX, start, end)
	require.NoError(t, err)
	require.False(t, res.IsAvailable)
	require.Equal(t, conflicts, res.Conflicts)
}

func TestService_CheckAvailability_Idempotent(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newService(t)

	start, end := date("2024-05-20T00:00:00Z"), date("2024-05-25T00:00:00Z")
	repo.EXPECT().GetVehicle(gomock.Any(), vehicleX).Return(sedanX(), nil).Times(2)
	repo.EXPECT().FindActiveConflicts(gomock.Any(), vehicleX, start, end).Return(nil, nil).Times(2)

	first, err := svc.CheckAvailability(context.Background(), vehicleX, start, end)
	require.NoError(t, err)
	second, err := svc.CheckAvailability(context.Background(), vehicleX, start, end)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestService_CheckAvailability_VehicleNotFound(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newService(t)

	start, end := date("2024-05-20T00:00:00Z"), date("2024-05-25T00:00:00Z")
	repo.EXPECT().GetVehicle(gomock.Any(), vehicleX).Return(model.Vehicle{}, errs.ErrNotFound)

	_, err := svc.CheckAvailability(context.Background(), vehicleX, start, end)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestService_CreateReservation_Validation(t *testing.T) {
	t.Parallel()
	svc, _, pub := newService(t)

	// start before now
	_, err := svc.CreateReservation(context.Background(), model.CreateReservationRequest{
		VehicleID: vehicleX,
		UserID:    userB,
		StartDate: date("2024-04-30T00:00:00Z"),
		EndDate:   date("2024-05-02T00:00:00Z"),
		Reason:    "trip",
	})
	require.ErrorIs(t, err, errs.ErrValidation)

	// end before start
	_, err = svc.CreateReservation(context.Background(), model.CreateReservationRequest{
		VehicleID: vehicleX,
		UserID:    userB,
		StartDate: date("2024-05-22T00:00:00Z"),
		EndDate:   date("2024-05-21T00:00:00Z"),
		Reason:    "trip",
	})
	require.ErrorIs(t, err, errs.ErrValidation)

	require.Empty(t, pub.events)
}

func TestService_CreateReservation_VehicleOutOfService(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newService(t)

	v := sedanX()
	v.Status = model.VehicleMaintenance
	repo.EXPECT().GetVehicle(gomock.Any(), vehicleX).Return(v, nil)

	_, err := svc.CreateReservation(context.Background(), model.CreateReservationRequest{
		VehicleID: vehicleX,
		UserID:    userB,
		StartDate: date("2024-05-21T00:00:00Z"),
		EndDate:   date("2024-05-23T00:00:00Z"),
		Reason:    "trip",
	})
	require.ErrorIs(t, err, errs.ErrConflict)
}

// Vehicle X holds R1 [2024-05-20T08:00Z, 2024-05-22T18:00Z] CONFIRMED.
// A request overlapping R1 loses with a conflict; a disjoint later window wins.
func TestService_CreateReservation_ConcreteScenario(t *testing.T) {
	t.Parallel()
	svc, repo, pub := newService(t)

	overlapping := model.CreateReservationRequest{
		VehicleID: vehicleX,
		UserID:    userB,
		StartDate: date("2024-05-21T00:00:00Z"),
		EndDate:   date("2024-05-23T00:00:00Z"),
		Reason:    "trip",
	}
	repo.EXPECT().GetVehicle(gomock.Any(), vehicleX).Return(sedanX(), nil)
	repo.EXPECT().CreateReservation(gomock.Any(), overlapping).
		Return(model.Reservation{}, errs.ErrConflict)

	_, err := svc.CreateReservation(context.Background(), overlapping)
	require.ErrorIs(t, err, errs.ErrConflict)
	require.Empty(t, pub.events)

	disjoint := model.CreateReservationRequest{
		VehicleID: vehicleX,
		UserID:    userB,
		StartDate: date("2024-05-23T00:00:00Z"),
		EndDate:   date("2024-05-24T00:00:00Z"),
		Reason:    "trip",
	}
	created := model.Reservation{
		ID:        resvR1,
		VehicleID: vehicleX,
		UserID:    userB,
		StartDate: disjoint.StartDate,
		EndDate:   disjoint.EndDate,
		Reason:    "trip",
		Status:    model.StatusConfirmed,
	}
	repo.EXPECT().GetVehicle(gomock.Any(), vehicleX).Return(sedanX(), nil)
	repo.EXPECT().CreateReservation(gomock.Any(), disjoint).Return(created, nil)

	res, err := svc.CreateReservation(context.Background(), disjoint)
	require.NoError(t, err)
	require.Equal(t, model.StatusConfirmed, res.Status)
	require.NotNil(t, res.Vehicle)
	require.Equal(t, vehicleX, res.Vehicle.ID)

	require.Len(t, pub.events, 1)
	require.Equal(t, resvR1, pub.events[0].ReservationID)
	require.Equal(t, string(model.StatusConfirmed), pub.events[0].Status)
}

func TestService_MarkPickedUp(t *testing.T) {
	t.Parallel()
	svc, repo, pub := newService(t)

	picked := model.Reservation{ID: resvR1, VehicleID: vehicleX, UserID: userB, Status: model.StatusInProgress}
	repo.EXPECT().UpdateStatus(gomock.Any(), resvR1,
		[]model.ReservationStatus{model.StatusConfirmed}, model.StatusInProgress).
		Return(picked, nil)

	res, err := svc.MarkPickedUp(context.Background(), resvR1)
	require.NoError(t, err)
	require.Equal(t, model.StatusInProgress, res.Status)
	require.Len(t, pub.events, 1)
}

// Returning a reservation that was never picked up must fail and change nothing.
func TestService_MarkReturned_WrongState(t *testing.T) {
	t.Parallel()
	svc, repo, pub := newService(t)

	repo.EXPECT().UpdateStatus(gomock.Any(), resvR1,
		[]model.ReservationStatus{model.StatusInProgress}, model.StatusCompleted).
		Return(model.Reservation{}, errs.ErrPreconditionFailed)

	_, err := svc.MarkReturned(context.Background(), resvR1)
	require.ErrorIs(t, err, errs.ErrPreconditionFailed)
	require.Empty(t, pub.events)
}

func TestService_CancelReservation_Owner(t *testing.T) {
	t.Parallel()
	svc, repo, pub := newService(t)

	current := model.Reservation{ID: resvR1, VehicleID: vehicleX, UserID: userB, Status: model.StatusConfirmed}
	cancelled := current
	cancelled.Status = model.StatusCancelled

	repo.EXPECT().GetReservation(gomock.Any(), resvR1).Return(current, nil)
	repo.EXPECT().UpdateStatus(gomock.Any(), resvR1,
		[]model.ReservationStatus{model.StatusPending, model.StatusConfirmed}, model.StatusCancelled).
		Return(cancelled, nil)

	res, err := svc.CancelReservation(context.Background(), userB, false, resvR1)
	require.NoError(t, err)
	require.Equal(t, model.StatusCancelled, res.Status)
	require.Len(t, pub.events, 1)
}

func TestService_CancelReservation_NotOwner(t *testing.T) {
	t.Parallel()
	svc, repo, pub := newService(t)

	current := model.Reservation{ID: resvR1, VehicleID: vehicleX, UserID: userB, Status: model.StatusConfirmed}
	repo.EXPECT().GetReservation(gomock.Any(), resvR1).Return(current, nil)

	_, err := svc.CancelReservation(context.Background(), userA, false, resvR1)
	require.ErrorIs(t, err, errs.ErrForbidden)
	require.Empty(t, pub.events)
}

func TestService_CancelReservation_AdminOverride(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newService(t)

	current := model.Reservation{ID: resvR1, VehicleID: vehicleX, UserID: userB, Status: model.StatusConfirmed}
	cancelled := current
	cancelled.Status = model.StatusCancelled

	repo.EXPECT().GetReservation(gomock.Any(), resvR1).Return(current, nil)
	repo.EXPECT().UpdateStatus(gomock.Any(), resvR1,
		[]model.ReservationStatus{model.StatusPending, model.StatusConfirmed}, model.StatusCancelled).
		Return(cancelled, nil)

	_, err := svc.CancelReservation(context.Background(), userA, true, resvR1)
	require.NoError(t, err)
}

func TestService_CancelReservation_TerminalState(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newService(t)

	current := model.Reservation{ID: resvR1, VehicleID: vehicleX, UserID: userB, Status: model.StatusCompleted}
	repo.EXPECT().GetReservation(gomock.Any(), resvR1).Return(current, nil)
	repo.EXPECT().UpdateStatus(gomock.Any(), resvR1,
		[]model.ReservationStatus{model.StatusPending, model.StatusConfirmed}, model.StatusCancelled).
		Return(model.Reservation{}, errs.ErrPreconditionFailed)

	_, err := svc.CancelReservation(context.Background(), userB, false, resvR1)
	require.ErrorIs(t, err, errs.ErrPreconditionFailed)
}
