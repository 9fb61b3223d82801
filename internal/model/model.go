package model

import (
	"time"
)

type VehicleCategory string

const (
	CategorySedan      VehicleCategory = "SEDAN"
	CategorySUV        VehicleCategory = "SUV"
	CategoryVan        VehicleCategory = "VAN"
	CategoryPickup     VehicleCategory = "PICKUP"
	CategoryMotorcycle VehicleCategory = "MOTORCYCLE"
	CategoryTruck      VehicleCategory = "TRUCK"
	CategoryBus        VehicleCategory = "BUS"
	CategoryOther      VehicleCategory = "OTHER"
)

// VehicleStatus is fleet service eligibility, not booking occupancy:
// an AVAILABLE vehicle can still be fully booked for a given window.
type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "AVAILABLE"
	VehicleRented      VehicleStatus = "RENTED"
	VehicleMaintenance VehicleStatus = "MAINTENANCE"
)

type ReservationStatus string

const (
	StatusPending    ReservationStatus = "PENDING"
	StatusConfirmed  ReservationStatus = "CONFIRMED"
	StatusInProgress ReservationStatus = "IN_PROGRESS"
	StatusCompleted  ReservationStatus = "COMPLETED"
	StatusCancelled  ReservationStatus = "CANCELLED"
)

// ActiveStatuses are the statuses that occupy a vehicle for overlap checks.
// IN_PROGRESS is included: a picked-up vehicle is still occupied.
var ActiveStatuses = []ReservationStatus{StatusPending, StatusConfirmed, StatusInProgress}

// Overlaps reports whether [aStart, aEnd] and [bStart, bEnd] conflict.
// Boundaries are inclusive: a reservation ending exactly when another
// starts is a conflict.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

type Vehicle struct {
	ID        string          `json:"id" db:"id"`
	Brand     string          `json:"brand" db:"brand"`
	Model     string          `json:"model" db:"model"`
	Year      int             `json:"year" db:"year"`
	Plate     string          `json:"plate" db:"plate"`
	Category  VehicleCategory `json:"category" db:"category"`
	Status    VehicleStatus   `json:"status" db:"status"`
	ImageURL  *string         `json:"imageUrl" db:"image_url"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

type Reservation struct {
	ID        string            `json:"id" db:"id"`
	VehicleID string            `json:"vehicleId" db:"vehicle_id"`
	UserID    string            `json:"userId" db:"user_id"`
	StartDate time.Time         `json:"startDate" db:"start_date"`
	EndDate   time.Time         `json:"endDate" db:"end_date"`
	Reason    string            `json:"reason" db:"reason"`
	Status    ReservationStatus `json:"status" db:"status"`
	CreatedAt time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time         `json:"updatedAt" db:"updated_at"`

	Vehicle *Vehicle `json:"vehicle,omitempty" db:"-"`
}

// Conflict is one existing booking that blocks a requested window. The
// booker's display name and reason are exposed on purpose so the requester
// can negotiate directly (trusted fleet context).
type Conflict struct {
	ID       string    `json:"-" db:"id"`
	Start    time.Time `json:"start" db:"start_date"`
	End      time.Time `json:"end" db:"end_date"`
	BookedBy string    `json:"bookedBy" db:"booked_by"`
	Reason   string    `json:"reason" db:"reason"`
}

type AvailabilityResult struct {
	IsAvailable  bool       `json:"isAvailable"`
	Vehicle      Vehicle    `json:"vehicle"`
	Conflicts    []Conflict `json:"conflicts"`
	Alternatives []Vehicle  `json:"alternatives"`
}

type CreateReservationRequest struct {
	VehicleID string    `json:"vehicleId" validate:"required,uuid"`
	StartDate time.Time `json:"startDate" validate:"required"`
	EndDate   time.Time `json:"endDate" validate:"required"`
	Reason    string    `json:"reason" validate:"required"`
	UserID    string    `json:"-"`
}

type CreateVehicleRequest struct {
	Brand    string          `json:"brand" validate:"required"`
	Model    string          `json:"model" validate:"required"`
	Year     int             `json:"year" validate:"required,gte=1950"`
	Plate    string          `json:"plate" validate:"required"`
	Category VehicleCategory `json:"category" validate:"required,oneof=SEDAN SUV VAN PICKUP MOTORCYCLE TRUCK BUS OTHER"`
	ImageURL *string         `json:"imageUrl"`
}

type UpdateVehicleRequest struct {
	Brand    *string          `json:"brand"`
	Model    *string          `json:"model"`
	Year     *int             `json:"year" validate:"omitempty,gte=1950"`
	Plate    *string          `json:"plate"`
	Category *VehicleCategory `json:"category" validate:"omitempty,oneof=SEDAN SUV VAN PICKUP MOTORCYCLE TRUCK BUS OTHER"`
	Status   *VehicleStatus   `json:"status" validate:"omitempty,oneof=AVAILABLE RENTED MAINTENANCE"`
	ImageURL *string          `json:"imageUrl"`
}
