package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/togocar/fleet-service/internal/errs"
	"github.com/togocar/fleet-service/internal/model"
)

// The occupancy predicate must count every open reservation, including
// ones already picked up, with inclusive boundaries on both sides.
func TestActiveWindow(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)

	sql, args, err := activeWindow("8b5c3a1e-27a4-4f4e-9d2b-5a3f1c9e0d77", start, end).ToSql()
	require.NoError(t, err)

	require.Contains(t, sql, "r.status IN (?,?,?)")
	require.Contains(t, sql, "r.start_date <= ?")
	require.Contains(t, sql, "r.end_date >= ?")
	require.Subset(t, args, []any{model.StatusPending, model.StatusConfirmed, model.StatusInProgress})
}

func TestMapPgError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code string
		want error
	}{
		{"unique violation", pgerrcode.UniqueViolation, errs.ErrConflict},
		{"serialization failure", pgerrcode.SerializationFailure, errs.ErrConflict},
		{"check violation", pgerrcode.CheckViolation, errs.ErrValidation},
		{"foreign key violation", pgerrcode.ForeignKeyViolation, errs.ErrValidation},
		{"malformed uuid literal", pgerrcode.InvalidTextRepresentation, errs.ErrValidation},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := mapPgError(&pgconn.PgError{Code: tt.code, Detail: tt.name})
			require.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("unrelated errors pass through", func(t *testing.T) {
		t.Parallel()
		require.ErrorIs(t, mapPgError(sql.ErrNoRows), sql.ErrNoRows)
	})
}
