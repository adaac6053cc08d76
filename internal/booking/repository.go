package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/db"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, hotelID, id string) (*domain.Booking, error)
	// LockByID reads the booking with a row lock. Must run inside a transaction.
	LockByID(ctx context.Context, hotelID, id string) (*domain.Booking, error)
	List(ctx context.Context, filter Filter) ([]*domain.Booking, int, error)
	Update(ctx context.Context, b *domain.Booking) error

	// ListAssignedOverlapping returns inventory-blocking bookings assigned to
	// one of roomIDs whose stay intersects [start, end).
	// excludeBookingID is used to ignore the booking being assigned.
	ListAssignedOverlapping(ctx context.Context, hotelID string, roomIDs []string, start, end time.Time, excludeBookingID string) ([]*domain.Booking, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var bookingColumns = []string{
	"id", "hotel_id", "room_type_id", "guest_id", "check_in", "check_out", "arrival_at",
	"adults", "children", "status", "total_amount", "currency",
	"authorization_ref", "capture_ref", "voided_at", "refund_ref",
	"assigned_room_id", "checked_in_at", "checked_out_at",
	"cancelled_at", "cancellation_reason", "cancellation_fee", "refund_amount", "decline_reason",
	"policy_snapshot", "notes", "created_at", "updated_at",
}

func scanBooking(row pgx.Row, extra ...any) (*domain.Booking, error) {
	var (
		b           domain.Booking
		snapshotRaw []byte
		notesRaw    []byte
	)
	dest := []any{
		&b.ID, &b.HotelID, &b.RoomTypeID, &b.GuestID, &b.CheckIn, &b.CheckOut, &b.ArrivalAt,
		&b.Adults, &b.Children, &b.Status, &b.TotalAmount, &b.Currency,
		&b.AuthorizationRef, &b.CaptureRef, &b.VoidedAt, &b.RefundRef,
		&b.AssignedRoomID, &b.CheckedInAt, &b.CheckedOutAt,
		&b.CancelledAt, &b.CancellationReason, &b.CancellationFee, &b.RefundAmount, &b.DeclineReason,
		&snapshotRaw, &notesRaw, &b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(snapshotRaw, &b.PolicySnapshot); err != nil {
		return nil, fmt.Errorf("decode policy snapshot failed: %w", err)
	}
	if len(notesRaw) > 0 {
		if err := json.Unmarshal(notesRaw, &b.Notes); err != nil {
			return nil, fmt.Errorf("decode booking notes failed: %w", err)
		}
	}
	return &b, nil
}

func (r *pgxRepository) Create(ctx context.Context, b *domain.Booking) error {
	snapshot, err := json.Marshal(b.PolicySnapshot)
	if err != nil {
		return fmt.Errorf("encode policy snapshot failed: %w", err)
	}
	notes, err := json.Marshal(b.Notes)
	if err != nil {
		return fmt.Errorf("encode booking notes failed: %w", err)
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.bookings").
		Columns("hotel_id", "room_type_id", "guest_id", "check_in", "check_out", "arrival_at",
			"adults", "children", "status", "total_amount", "currency", "policy_snapshot", "notes").
		Values(b.HotelID, b.RoomTypeID, b.GuestID, b.CheckIn, b.CheckOut, b.ArrivalAt,
			b.Adults, b.Children, b.Status, b.TotalAmount, b.Currency, snapshot, notes).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return db.MapError(fmt.Errorf("create booking failed: %w", err))
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, hotelID, id string) (*domain.Booking, error) {
	return r.getOne(ctx, hotelID, id, "")
}

func (r *pgxRepository) LockByID(ctx context.Context, hotelID, id string) (*domain.Booking, error) {
	return r.getOne(ctx, hotelID, id, "FOR UPDATE")
}

func (r *pgxRepository) getOne(ctx context.Context, hotelID, id, suffix string) (*domain.Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	builder := psql.Select(bookingColumns...).
		From("public.bookings").
		Where(squirrel.Eq{"hotel_id": hotelID, "id": id})
	if suffix != "" {
		builder = builder.Suffix(suffix)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(db.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, db.MapError(fmt.Errorf("get booking failed: %w", err))
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*domain.Booking, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(append(bookingColumns, "count(*) OVER() as total_count")...).
		From("public.bookings").
		Where(squirrel.Eq{"hotel_id": filter.HotelID})

	if filter.GuestID != "" {
		query = query.Where(squirrel.Eq{"guest_id": filter.GuestID})
	}
	if filter.RoomTypeID != "" {
		query = query.Where(squirrel.Eq{"room_type_id": filter.RoomTypeID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}
	// Date range filtering (intersection logic)
	if filter.From != nil {
		query = query.Where(squirrel.Gt{"check_out": *filter.From})
	}
	if filter.To != nil {
		query = query.Where(squirrel.Lt{"check_in": *filter.To})
	}

	// Sorting
	orderBy := "check_in"
	if filter.SortBy != "" {
		orderBy = filter.SortBy
	}
	orderDir := "DESC"
	if filter.SortOrder != "" {
		orderDir = filter.SortOrder
	}
	query = query.OrderBy(orderBy + " " + orderDir)

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*domain.Booking
	var total int
	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	return bookings, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, b *domain.Booking) error {
	notes, err := json.Marshal(b.Notes)
	if err != nil {
		return fmt.Errorf("encode booking notes failed: %w", err)
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("status", b.Status).
		Set("authorization_ref", b.AuthorizationRef).
		Set("capture_ref", b.CaptureRef).
		Set("voided_at", b.VoidedAt).
		Set("refund_ref", b.RefundRef).
		Set("assigned_room_id", b.AssignedRoomID).
		Set("checked_in_at", b.CheckedInAt).
		Set("checked_out_at", b.CheckedOutAt).
		Set("cancelled_at", b.CancelledAt).
		Set("cancellation_reason", b.CancellationReason).
		Set("cancellation_fee", b.CancellationFee).
		Set("refund_amount", b.RefundAmount).
		Set("decline_reason", b.DeclineReason).
		Set("notes", notes).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"hotel_id": b.HotelID, "id": b.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return db.MapError(fmt.Errorf("update booking failed: %w", err))
	}
	return nil
}

func (r *pgxRepository) ListAssignedOverlapping(ctx context.Context, hotelID string, roomIDs []string, start, end time.Time, excludeBookingID string) ([]*domain.Booking, error) {
	if len(roomIDs) == 0 {
		return nil, nil
	}

	// Logic:
	// 1. Assigned to one of the rooms
	// 2. Blocks inventory: confirmed and not checked out, or in stay
	// 3. Nights overlap: (NewStart < ExistingEnd) AND (NewEnd > ExistingStart)
	// 4. Exclude specific ID (for reassignments)
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(bookingColumns...).
		From("public.bookings").
		Where(squirrel.Eq{"hotel_id": hotelID, "assigned_room_id": roomIDs}).
		Where(squirrel.Eq{"checked_out_at": nil}).
		Where(squirrel.Or{
			squirrel.Eq{"status": domain.BookingConfirmed},
			squirrel.NotEq{"checked_in_at": nil},
		}).
		Where(squirrel.Lt{"check_in": end}).
		Where(squirrel.Gt{"check_out": start})
	if excludeBookingID != "" {
		query = query.Where(squirrel.NotEq{"id": excludeBookingID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build overlap query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, db.MapError(fmt.Errorf("check overlap failed: %w", err))
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("check overlap failed: %w", err)
	}
	return bookings, nil
}
