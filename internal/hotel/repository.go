package hotel

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/db"
)

// Repository defines methods for accessing hotel data.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Hotel, error)
	Update(ctx context.Context, h *Hotel) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository creates a new hotel repository.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var hotelColumns = []string{"id", "name", "timezone", "to_char(check_in_time, 'HH24:MI')", "to_char(check_out_time, 'HH24:MI')", "is_active", "created_at"}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Hotel, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(hotelColumns...).
		From("public.hotels").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"is_active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get hotel query failed: %w", err)
	}

	var h Hotel
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).
		Scan(&h.ID, &h.Name, &h.Timezone, &h.CheckInTime, &h.CheckOutTime, &h.IsActive, &h.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get hotel failed: %w", err)
	}
	return &h, nil
}

func (r *pgxRepository) Update(ctx context.Context, h *Hotel) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.hotels").
		Set("name", h.Name).
		Set("timezone", h.Timezone).
		Set("check_in_time", h.CheckInTime).
		Set("check_out_time", h.CheckOutTime).
		Set("is_active", h.IsActive).
		Where(squirrel.Eq{"id": h.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update hotel query failed: %w", err)
	}

	ct, err := db.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update hotel failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
