package roomtype

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/db"
)

type Repository interface {
	GetByID(ctx context.Context, hotelID, id string) (*RoomType, error)
	List(ctx context.Context, filter Filter) ([]*RoomType, int, error)
	// LockByID serializes booking acceptance for one room type. Must run inside a transaction.
	LockByID(ctx context.Context, hotelID, id string) (*RoomType, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var roomTypeColumns = []string{"id", "hotel_id", "name", "description", "max_occupancy", "created_at"}

func (r *pgxRepository) GetByID(ctx context.Context, hotelID, id string) (*RoomType, error) {
	return r.getOne(ctx, hotelID, id, "")
}

func (r *pgxRepository) LockByID(ctx context.Context, hotelID, id string) (*RoomType, error) {
	return r.getOne(ctx, hotelID, id, "FOR UPDATE")
}

func (r *pgxRepository) getOne(ctx context.Context, hotelID, id, suffix string) (*RoomType, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	builder := psql.Select(roomTypeColumns...).
		From("public.room_types").
		Where(squirrel.Eq{"hotel_id": hotelID, "id": id})
	if suffix != "" {
		builder = builder.Suffix(suffix)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get room type query failed: %w", err)
	}

	var rt RoomType
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).
		Scan(&rt.ID, &rt.HotelID, &rt.Name, &rt.Description, &rt.MaxOccupancy, &rt.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, db.MapError(fmt.Errorf("get room type failed: %w", err))
	}
	return &rt, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*RoomType, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	queryBuilder := psql.Select(append(roomTypeColumns, "count(*) OVER() as total_count")...).
		From("public.room_types").
		Where(squirrel.Eq{"hotel_id": filter.HotelID})

	orderBy := "name"
	if filter.SortBy != "" {
		orderBy = filter.SortBy
	}
	orderDir := "ASC"
	if filter.SortOrder != "" {
		orderDir = filter.SortOrder
	}
	queryBuilder = queryBuilder.OrderBy(orderBy + " " + orderDir)

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	queryBuilder = queryBuilder.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list room types query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list room types failed: %w", err)
	}
	defer rows.Close()

	var rts []*RoomType
	var total int
	for rows.Next() {
		var rt RoomType
		if err := rows.Scan(&rt.ID, &rt.HotelID, &rt.Name, &rt.Description, &rt.MaxOccupancy, &rt.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan room type failed: %w", err)
		}
		rts = append(rts, &rt)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list room types failed: %w", err)
	}
	return rts, total, nil
}
