package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/db"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
)

// Repository defines methods for accessing room data. Every method filters by hotel first.
type Repository interface {
	GetByID(ctx context.Context, hotelID, id string) (*domain.Room, error)
	List(ctx context.Context, filter Filter) ([]*domain.Room, int, error)

	// LockByID and LockByIDs take row locks and must run inside a transaction.
	// LockByIDs returns rooms ordered by ascending ID, the engine-wide lock order.
	LockByID(ctx context.Context, hotelID, id string) (*domain.Room, error)
	LockByIDs(ctx context.Context, hotelID string, ids []string) ([]*domain.Room, error)

	// UpdateStatus persists turnover_status and its side fields. Only the
	// room service calls it.
	UpdateStatus(ctx context.Context, r *domain.Room) error
	// UpdateAssignment persists the booking linkage and assignment_version.
	UpdateAssignment(ctx context.Context, r *domain.Room) error

	InsertEvent(ctx context.Context, e *domain.RoomStatusEvent) error
	ListEvents(ctx context.Context, hotelID, roomID string, filter EventFilter) ([]*domain.RoomStatusEvent, int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository creates a new room repository.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var roomColumns = []string{
	"r.id", "r.hotel_id", "r.room_type_id", "COALESCE(rt.name, '')", "r.number", "r.floor",
	"r.turnover_status", "r.is_active", "r.is_out_of_order", "r.maintenance_required",
	"r.assigned_booking_id", "r.assigned_at", "r.assigned_by", "r.assignment_version",
	"r.last_cleaned_at", "r.cleaned_by", "r.last_inspected_at", "r.inspected_by",
	"r.created_at", "r.updated_at",
}

func selectRooms() squirrel.SelectBuilder {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	return psql.Select(roomColumns...).
		From("public.rooms r").
		LeftJoin("public.room_types rt ON rt.id = r.room_type_id")
}

func scanRoom(row pgx.Row, extra ...any) (*domain.Room, error) {
	var r domain.Room
	dest := []any{
		&r.ID, &r.HotelID, &r.RoomTypeID, &r.RoomTypeName, &r.Number, &r.Floor,
		&r.TurnoverStatus, &r.IsActive, &r.IsOutOfOrder, &r.MaintenanceRequired,
		&r.AssignedBookingID, &r.AssignedAt, &r.AssignedBy, &r.AssignmentVersion,
		&r.LastCleanedAt, &r.CleanedBy, &r.LastInspectedAt, &r.InspectedBy,
		&r.CreatedAt, &r.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, hotelID, id string) (*domain.Room, error) {
	query, args, err := selectRooms().
		Where(squirrel.Eq{"r.hotel_id": hotelID, "r.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get room query failed: %w", err)
	}
	return r.queryOne(ctx, query, args...)
}

func (r *pgxRepository) LockByID(ctx context.Context, hotelID, id string) (*domain.Room, error) {
	query, args, err := selectRooms().
		Where(squirrel.Eq{"r.hotel_id": hotelID, "r.id": id}).
		Suffix("FOR UPDATE OF r").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lock room query failed: %w", err)
	}
	return r.queryOne(ctx, query, args...)
}

func (r *pgxRepository) queryOne(ctx context.Context, query string, args ...any) (*domain.Room, error) {
	room, err := scanRoom(db.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, db.MapError(fmt.Errorf("get room failed: %w", err))
	}
	return room, nil
}

func (r *pgxRepository) LockByIDs(ctx context.Context, hotelID string, ids []string) ([]*domain.Room, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := selectRooms().
		Where(squirrel.Eq{"r.hotel_id": hotelID, "r.id": ids}).
		OrderBy("r.id ASC").
		Suffix("FOR UPDATE OF r").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lock rooms query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, db.MapError(fmt.Errorf("lock rooms failed: %w", err))
	}
	defer rows.Close()

	var rooms []*domain.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room failed: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(fmt.Errorf("lock rooms failed: %w", err))
	}
	if len(rooms) != len(ids) {
		return nil, ErrNotFound
	}
	return rooms, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*domain.Room, int, error) {
	query := selectRooms().Column("count(*) OVER() AS total_count").
		Where(squirrel.Eq{"r.hotel_id": filter.HotelID})

	if filter.RoomTypeID != "" {
		query = query.Where(squirrel.Eq{"r.room_type_id": filter.RoomTypeID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"r.turnover_status": filter.Status})
	}
	if filter.ActiveOnly {
		query = query.Where(squirrel.Eq{"r.is_active": true})
	}
	if filter.SellableOnly {
		query = query.Where(squirrel.Eq{
			"r.is_active":            true,
			"r.is_out_of_order":      false,
			"r.maintenance_required": false,
			"r.turnover_status":      []domain.RoomStatus{domain.RoomAvailable, domain.RoomReadyForGuest},
		})
	}

	orderBy := "r.number"
	if filter.SortBy != "" {
		orderBy = "r." + filter.SortBy
	}
	orderDir := "ASC"
	if filter.SortOrder != "" {
		orderDir = filter.SortOrder
	}
	query = query.OrderBy(orderBy + " " + orderDir)

	// Pagination; PageSize < 0 returns every row.
	if filter.PageSize >= 0 {
		if filter.Page < 1 {
			filter.Page = 1
		}
		if filter.PageSize == 0 {
			filter.PageSize = 20
		}
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list rooms query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list rooms failed: %w", err)
	}
	defer rows.Close()

	var rooms []*domain.Room
	var total int
	for rows.Next() {
		room, err := scanRoom(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan room failed: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list rooms failed: %w", err)
	}
	return rooms, total, nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, room *domain.Room) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.rooms").
		Set("turnover_status", room.TurnoverStatus).
		Set("is_out_of_order", room.IsOutOfOrder).
		Set("maintenance_required", room.MaintenanceRequired).
		Set("last_cleaned_at", room.LastCleanedAt).
		Set("cleaned_by", room.CleanedBy).
		Set("last_inspected_at", room.LastInspectedAt).
		Set("inspected_by", room.InspectedBy).
		Set("updated_at", room.UpdatedAt).
		Where(squirrel.Eq{"hotel_id": room.HotelID, "id": room.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update room status query failed: %w", err)
	}

	ct, err := db.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return db.MapError(fmt.Errorf("update room status failed: %w", err))
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) UpdateAssignment(ctx context.Context, room *domain.Room) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.rooms").
		Set("assigned_booking_id", room.AssignedBookingID).
		Set("assigned_at", room.AssignedAt).
		Set("assigned_by", room.AssignedBy).
		Set("assignment_version", room.AssignmentVersion).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"hotel_id": room.HotelID, "id": room.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update room assignment query failed: %w", err)
	}

	ct, err := db.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return db.MapError(fmt.Errorf("update room assignment failed: %w", err))
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) InsertEvent(ctx context.Context, e *domain.RoomStatusEvent) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.room_status_events").
		Columns("hotel_id", "room_id", "from_status", "to_status", "actor_id", "source", "note", "booking_id", "created_at").
		Values(e.HotelID, e.RoomID, e.FromStatus, e.ToStatus, e.ActorID, e.Source, e.Note, e.BookingID, e.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert room event query failed: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&e.ID); err != nil {
		return db.MapError(fmt.Errorf("insert room event failed: %w", err))
	}
	return nil
}

func (r *pgxRepository) ListEvents(ctx context.Context, hotelID, roomID string, filter EventFilter) ([]*domain.RoomStatusEvent, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"id", "hotel_id", "room_id", "from_status", "to_status", "actor_id", "source", "note", "booking_id", "created_at",
		"count(*) OVER() AS total_count",
	).
		From("public.room_status_events").
		Where(squirrel.Eq{"hotel_id": hotelID, "room_id": roomID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(filter.PageSize)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list room events query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list room events failed: %w", err)
	}
	defer rows.Close()

	var events []*domain.RoomStatusEvent
	var total int
	for rows.Next() {
		var e domain.RoomStatusEvent
		if err := rows.Scan(
			&e.ID, &e.HotelID, &e.RoomID, &e.FromStatus, &e.ToStatus, &e.ActorID, &e.Source, &e.Note, &e.BookingID, &e.CreatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan room event failed: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list room events failed: %w", err)
	}
	return events, total, nil
}
