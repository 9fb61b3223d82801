package repository

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/togocar/fleet-service/internal/errs"
	"github.com/togocar/fleet-service/internal/model"
)

var vehicleColumns = []string{"id", "brand", "model", "year", "plate", "category", "status", "image_url", "created_at", "updated_at"}

func (r *repository) GetVehicle(ctx context.Context, vehicleID string) (model.Vehicle, error) {
	query, args, err := qb.Select(vehicleColumns...).
		From(vehicleTableName).
		Where(sq.Eq{"id": vehicleID}).
		ToSql()
	if err != nil {
		return model.Vehicle{}, err
	}

	var v model.Vehicle
	if err := r.db.GetContext(ctx, &v, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Vehicle{}, errs.ErrNotFound
		}
		return model.Vehicle{}, err
	}
	return v, nil
}

func (r *repository) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
	query, args, err := qb.Select(vehicleColumns...).
		From(vehicleTableName).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, err
	}

	var items []model.Vehicle
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}

// ListVehiclesByCategory returns candidate vehicles in creation order, which
// keeps the alternative listing deterministic.
func (r *repository) ListVehiclesByCategory(ctx context.Context, category model.VehicleCategory, status model.VehicleStatus, excluding []string) ([]model.Vehicle, error) {
	q := qb.Select(vehicleColumns...).
		From(vehicleTableName).
		Where(sq.Eq{"category": category, "status": status}).
		OrderBy("created_at", "id")
	if len(excluding) > 0 {
		q = q.Where(sq.NotEq{"id": excluding})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	var items []model.Vehicle
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.log.Error("ListVehiclesByCategory", zap.Error(err), zap.String("q", query), zap.Any("args", args))
		return nil, err
	}
	return items, nil
}

func (r *repository) CreateVehicle(ctx context.Context, req model.CreateVehicleRequest) (model.Vehicle, error) {
	query, args, err := qb.Insert(vehicleTableName).
		Columns("id", "brand", "model", "year", "plate", "category", "image_url").
		Values(uuid.New(), req.Brand, req.Model, req.Year, req.Plate, req.Category, req.ImageURL).
		Suffix("returning " + sqlColumns()).
		ToSql()
	if err != nil {
		return model.Vehicle{}, err
	}

	var v model.Vehicle
	if err := r.db.GetContext(ctx, &v, query, args...); err != nil {
		return model.Vehicle{}, mapPgError(err)
	}
	return v, nil
}

func (r *repository) UpdateVehicle(ctx context.Context, vehicleID string, req model.UpdateVehicleRequest) (model.Vehicle, error) {
	q := qb.Update(vehicleTableName).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": vehicleID}).
		Suffix("returning " + sqlColumns())
	if req.Brand != nil {
		q = q.Set("brand", *req.Brand)
	}
	if req.Model != nil {
		q = q.Set("model", *req.Model)
	}
	if req.Year != nil {
		q = q.Set("year", *req.Year)
	}
	if req.Plate != nil {
		q = q.Set("plate", *req.Plate)
	}
	if req.Category != nil {
		q = q.Set("category", *req.Category)
	}
	if req.Status != nil {
		q = q.Set("status", *req.Status)
	}
	if req.ImageURL != nil {
		q = q.Set("image_url", *req.ImageURL)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.Vehicle{}, err
	}
	var v model.Vehicle
	if err := r.db.GetContext(ctx, &v, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Vehicle{}, errs.ErrNotFound
		}
		return model.Vehicle{}, mapPgError(err)
	}
	return v, nil
}

func (r *repository) DeleteVehicle(ctx context.Context, vehicleID string) error {
	query, args, err := qb.Delete(vehicleTableName).
		Where(sq.Eq{"id": vehicleID}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapPgError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func sqlColumns() string {
	return strings.Join(vehicleColumns, ", ")
}
