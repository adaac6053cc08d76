package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/db"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
)

// Repository reads the two inputs of the availability formula.
type Repository interface {
	// CountSellable counts rooms of the type that satisfy the sellable invariant.
	CountSellable(ctx context.Context, hotelID, roomTypeID string) (int, error)
	// ListBlocking returns inventory-blocking bookings of the type overlapping [start, end).
	ListBlocking(ctx context.Context, hotelID, roomTypeID string, start, end time.Time) ([]*domain.Booking, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) CountSellable(ctx context.Context, hotelID, roomTypeID string) (int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("count(*)").
		From("public.rooms").
		Where(squirrel.Eq{
			"hotel_id":             hotelID,
			"room_type_id":         roomTypeID,
			"is_active":            true,
			"is_out_of_order":      false,
			"maintenance_required": false,
			"turnover_status":      []domain.RoomStatus{domain.RoomAvailable, domain.RoomReadyForGuest},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count sellable query failed: %w", err)
	}

	var n int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sellable rooms failed: %w", err)
	}
	return n, nil
}

func (r *pgxRepository) ListBlocking(ctx context.Context, hotelID, roomTypeID string, start, end time.Time) ([]*domain.Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "status", "check_in", "check_out", "checked_in_at", "checked_out_at").
		From("public.bookings").
		Where(squirrel.Eq{"hotel_id": hotelID, "room_type_id": roomTypeID}).
		Where(squirrel.Lt{"check_in": end}).
		Where(squirrel.Gt{"check_out": start}).
		Where(squirrel.Or{
			squirrel.And{
				squirrel.Eq{"status": domain.BookingConfirmed},
				squirrel.Eq{"checked_out_at": nil},
			},
			squirrel.And{
				squirrel.NotEq{"checked_in_at": nil},
				squirrel.Eq{"checked_out_at": nil},
			},
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list blocking bookings query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list blocking bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b := &domain.Booking{HotelID: hotelID, RoomTypeID: roomTypeID}
		if err := rows.Scan(&b.ID, &b.Status, &b.CheckIn, &b.CheckOut, &b.CheckedInAt, &b.CheckedOutAt); err != nil {
			return nil, fmt.Errorf("scan blocking booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list blocking bookings failed: %w", err)
	}
	return bookings, nil
}
