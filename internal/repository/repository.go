package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/togocar/fleet-service/internal/errs"
	"github.com/togocar/fleet-service/internal/model"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	GetVehicle(ctx context.Context, vehicleID string) (model.Vehicle, error)
	ListVehicles(ctx context.Context) ([]model.Vehicle, error)
	ListVehiclesByCategory(ctx context.Context, category model.VehicleCategory, status model.VehicleStatus, excluding []string) ([]model.Vehicle, error)
	CreateVehicle(ctx context.Context, req model.CreateVehicleRequest) (model.Vehicle, error)
	UpdateVehicle(ctx context.Context, vehicleID string, req model.UpdateVehicleRequest) (model.Vehicle, error)
	DeleteVehicle(ctx context.Context, vehicleID string) error

	FindActiveConflicts(ctx context.Context, vehicleID string, start, end time.Time) ([]model.Conflict, error)
	HasActiveConflict(ctx context.Context, vehicleID string, start, end time.Time) (bool, error)
	CreateReservation(ctx context.Context, req model.CreateReservationRequest) (model.Reservation, error)
	GetReservation(ctx context.Context, reservationID string) (model.Reservation, error)
	ListReservations(ctx context.Context) ([]model.Reservation, error)
	ListUserReservations(ctx context.Context, userID string) ([]model.Reservation, error)
	UpdateStatus(ctx context.Context, reservationID string, from []model.ReservationStatus, to model.ReservationStatus) (model.Reservation, error)
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	vehicleTableName     = `vehicle`
	reservationTableName = `reservation`
	usersTableName       = `users`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// activeWindow selects reservations occupying the vehicle over [start, end].
// Boundaries are inclusive on both sides: start_date <= end AND end_date >= start.
func activeWindow(vehicleID string, start, end time.Time) sq.And {
	return sq.And{
		sq.Eq{"r.vehicle_id": vehicleID},
		sq.Eq{"r.status": model.ActiveStatuses},
		sq.LtOrEq{"r.start_date": end},
		sq.GtOrEq{"r.end_date": start},
	}
}

func (r *repository) FindActiveConflicts(ctx context.Context, vehicleID string, start, end time.Time) ([]model.Conflict, error) {
	query, args, err := qb.Select("r.id", "r.start_date", "r.end_date", "r.reason",
		"u.first_name || ' ' || u.last_name as booked_by").
		From(reservationTableName + " r").
		Join(usersTableName + " u on u.id = r.user_id").
		Where(activeWindow(vehicleID, start, end)).
		OrderBy("r.start_date").
		ToSql()
	if err != nil {
		return nil, err
	}

	var conflicts []model.Conflict
	if err := r.db.SelectContext(ctx, &conflicts, query, args...); err != nil {
		r.log.Error("FindActiveConflicts", zap.Error(err), zap.String("q", query), zap.Any("args", args))
		return nil, err
	}
	return conflicts, nil
}

func (r *repository) HasActiveConflict(ctx context.Context, vehicleID string, start, end time.Time) (bool, error) {
	inner, args, err := qb.Select("1").
		From(reservationTableName + " r").
		Where(activeWindow(vehicleID, start, end)).
		ToSql()
	if err != nil {
		return false, err
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, "select exists ("+inner+")", args...); err != nil {
		return false, err
	}
	return exists, nil
}

// CreateReservation is the atomic check-and-insert primitive. The vehicle row
// is locked for the duration of the transaction, so two concurrent requests
// for overlapping windows serialize here and exactly one wins.
func (r *repository) CreateReservation(ctx context.Context, req model.CreateReservationRequest) (model.Reservation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Reservation{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	var status model.VehicleStatus
	if err := tx.GetContext(ctx, &status,
		`select status from vehicle where id = $1 for update`, req.VehicleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, errs.ErrNotFound
		}
		return model.Reservation{}, err
	}
	if status != model.VehicleAvailable {
		return model.Reservation{}, errors.Wrap(errs.ErrConflict, "vehicle is not in service")
	}

	inner, args, err := qb.Select("1").
		From(reservationTableName + " r").
		Where(activeWindow(req.VehicleID, req.StartDate, req.EndDate)).
		ToSql()
	if err != nil {
		return model.Reservation{}, err
	}
	var conflict bool
	if err := tx.GetContext(ctx, &conflict, "select exists ("+inner+")", args...); err != nil {
		return model.Reservation{}, err
	}
	if conflict {
		return model.Reservation{}, errors.Wrap(errs.ErrConflict, "vehicle is not available for this window")
	}

	query, args, err := qb.Insert(reservationTableName).
		Columns("id", "vehicle_id", "user_id", "start_date", "end_date", "reason", "status").
		Values(uuid.New(), req.VehicleID, req.UserID, req.StartDate, req.EndDate, req.Reason, model.StatusConfirmed).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Reservation{}, err
	}
	var res model.Reservation
	if err := tx.GetContext(ctx, &res, query, args...); err != nil {
		r.log.Error("CreateReservation", zap.Error(err), zap.String("q", query), zap.Any("args", args))
		return model.Reservation{}, mapPgError(err)
	}
	if err := tx.Commit(); err != nil {
		return model.Reservation{}, err
	}
	return res, nil
}

func (r *repository) GetReservation(ctx context.Context, reservationID string) (model.Reservation, error) {
	query, args, err := qb.Select("*").
		From(reservationTableName).
		Where(sq.Eq{"id": reservationID}).
		ToSql()
	if err != nil {
		return model.Reservation{}, err
	}
	var res model.Reservation
	if err := r.db.GetContext(ctx, &res, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, errs.ErrNotFound
		}
		return model.Reservation{}, err
	}
	return res, nil
}

func (r *repository) ListReservations(ctx context.Context) ([]model.Reservation, error) {
	return r.listReservations(ctx)
}

func (r *repository) ListUserReservations(ctx context.Context, userID string) ([]model.Reservation, error) {
	return r.listReservations(ctx, sq.Eq{"r.user_id": userID})
}

// reservationRow carries the joined vehicle columns of a listing query.
type reservationRow struct {
	model.Reservation
	VehID       string                `db:"v_id"`
	VehBrand    string                `db:"v_brand"`
	VehModel    string                `db:"v_model"`
	VehYear     int                   `db:"v_year"`
	VehPlate    string                `db:"v_plate"`
	VehCategory model.VehicleCategory `db:"v_category"`
	VehStatus   model.VehicleStatus   `db:"v_status"`
	VehImageURL *string               `db:"v_image_url"`
	VehCreated  time.Time             `db:"v_created_at"`
	VehUpdated  time.Time             `db:"v_updated_at"`
}

func (r *repository) listReservations(ctx context.Context, where ...sq.Sqlizer) ([]model.Reservation, error) {
	q := qb.Select(
		"r.id", "r.vehicle_id", "r.user_id", "r.start_date", "r.end_date", "r.reason", "r.status", "r.created_at", "r.updated_at",
		"v.id as v_id", "v.brand as v_brand", "v.model as v_model", "v.year as v_year", "v.plate as v_plate",
		"v.category as v_category", "v.status as v_status", "v.image_url as v_image_url",
		"v.created_at as v_created_at", "v.updated_at as v_updated_at").
		From(reservationTableName + " r").
		Join(vehicleTableName + " v on v.id = r.vehicle_id").
		OrderBy("r.start_date desc")
	for _, w := range where {
		q = q.Where(w)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []reservationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.Error("listReservations", zap.Error(err), zap.String("q", query), zap.Any("args", args))
		return nil, err
	}
	items := make([]model.Reservation, 0, len(rows))
	for _, row := range rows {
		res := row.Reservation
		res.Vehicle = &model.Vehicle{
			ID:        row.VehID,
			Brand:     row.VehBrand,
			Model:     row.VehModel,
			Year:      row.VehYear,
			Plate:     row.VehPlate,
			Category:  row.VehCategory,
			Status:    row.VehStatus,
			ImageURL:  row.VehImageURL,
			CreatedAt: row.VehCreated,
			UpdatedAt: row.VehUpdated,
		}
		items = append(items, res)
	}
	return items, nil
}

// UpdateStatus is a conditional atomic update: it mutates nothing unless the
// current status is one of from.
func (r *repository) UpdateStatus(ctx context.Context, reservationID string, from []model.ReservationStatus, to model.ReservationStatus) (model.Reservation, error) {
	query, args, err := qb.Update(reservationTableName).
		Set("status", to).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": reservationID, "status": from}).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Reservation{}, err
	}

	var res model.Reservation
	if err := r.db.GetContext(ctx, &res, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// distinguish a missing reservation from an illegal transition
			if _, getErr := r.GetReservation(ctx, reservationID); getErr != nil {
				return model.Reservation{}, getErr
			}
			return model.Reservation{}, errs.ErrPreconditionFailed
		}
		return model.Reservation{}, err
	}
	return res, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation, pgerrcode.SerializationFailure:
			return errors.Wrap(errs.ErrConflict, pgErr.Detail)
		case pgerrcode.CheckViolation, pgerrcode.InvalidTextRepresentation:
			return errors.Wrap(errs.ErrValidation, pgErr.Detail)
		case pgerrcode.ForeignKeyViolation:
			// a reservation referencing an unknown user or vehicle
			return errors.Wrap(errs.ErrValidation, pgErr.Detail)
		}
	}
	return err
}
