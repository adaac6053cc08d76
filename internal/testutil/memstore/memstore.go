// Package memstore is an in-memory stand-in for the Postgres repositories,
// used by service tests. Transactions are serialized by one mutex, which
// gives the same mutual exclusion the row locks give in production, and a
// failed transaction restores the state it started from.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/booking"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/cancellation"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/hotel"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/room"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/roomtype"
)

type txKey struct{}

type state struct {
	hotels    map[string]hotel.Hotel
	roomTypes map[string]roomtype.RoomType
	rooms     map[string]domain.Room
	bookings  map[string]domain.Booking
	policies  map[string]domain.CancellationPolicy
	events    []domain.RoomStatusEvent
}

func (s *state) clone() *state {
	cp := &state{
		hotels:    make(map[string]hotel.Hotel, len(s.hotels)),
		roomTypes: make(map[string]roomtype.RoomType, len(s.roomTypes)),
		rooms:     make(map[string]domain.Room, len(s.rooms)),
		bookings:  make(map[string]domain.Booking, len(s.bookings)),
		policies:  make(map[string]domain.CancellationPolicy, len(s.policies)),
		events:    append([]domain.RoomStatusEvent(nil), s.events...),
	}
	for k, v := range s.hotels {
		cp.hotels[k] = v
	}
	for k, v := range s.roomTypes {
		cp.roomTypes[k] = v
	}
	for k, v := range s.rooms {
		cp.rooms[k] = v
	}
	for k, v := range s.bookings {
		cp.bookings[k] = copyBooking(v)
	}
	for k, v := range s.policies {
		cp.policies[k] = v.Clone()
	}
	return cp
}

// Store holds every table. The zero value is not usable; call New.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   *state
	now  func() time.Time
}

func New() *Store {
	return &Store{
		st: &state{
			hotels:    map[string]hotel.Hotel{},
			roomTypes: map[string]roomtype.RoomType{},
			rooms:     map[string]domain.Room{},
			bookings:  map[string]domain.Booking{},
			policies:  map[string]domain.CancellationPolicy{},
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithTx implements db.TxManager. Nested calls join the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	saved := s.st.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.st = saved
		s.mu.Unlock()
		return err
	}
	return nil
}

// write runs a mutation, taking the transaction lock when the caller has none.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if ctx.Value(txKey{}) == nil {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func (s *Store) read(fn func(st *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.st)
}

// === Seeding ===

func (s *Store) AddHotel(h hotel.Hotel) *hotel.Hotel {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.Timezone == "" {
		h.Timezone = "UTC"
	}
	if h.CheckInTime == "" {
		h.CheckInTime = "15:00"
	}
	if h.CheckOutTime == "" {
		h.CheckOutTime = "11:00"
	}
	h.CreatedAt = s.now()
	s.read(func(st *state) { st.hotels[h.ID] = h })
	return &h
}

func (s *Store) AddRoomType(rt roomtype.RoomType) *roomtype.RoomType {
	if rt.ID == "" {
		rt.ID = uuid.NewString()
	}
	if rt.MaxOccupancy == 0 {
		rt.MaxOccupancy = 2
	}
	rt.CreatedAt = s.now()
	s.read(func(st *state) { st.roomTypes[rt.ID] = rt })
	return &rt
}

// AddRoom stores a room. Rooms default to active and AVAILABLE.
func (s *Store) AddRoom(r domain.Room) *domain.Room {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.TurnoverStatus == "" {
		r.TurnoverStatus = domain.RoomAvailable
	}
	r.CreatedAt = s.now()
	r.UpdatedAt = r.CreatedAt
	s.read(func(st *state) {
		if rt, ok := st.roomTypes[r.RoomTypeID]; ok {
			r.RoomTypeName = rt.Name
		}
		st.rooms[r.ID] = r
	})
	return &r
}

// PutBooking stores b as is, bypassing the service. Used to arrange fixtures.
func (s *Store) PutBooking(b domain.Booking) *domain.Booking {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now()
		b.UpdatedAt = b.CreatedAt
	}
	s.read(func(st *state) { st.bookings[b.ID] = copyBooking(b) })
	cp := copyBooking(b)
	return &cp
}

// Room returns the current copy of a room, or nil.
func (s *Store) Room(id string) *domain.Room {
	var out *domain.Room
	s.read(func(st *state) {
		if r, ok := st.rooms[id]; ok {
			out = &r
		}
	})
	return out
}

// Booking returns the current copy of a booking, or nil.
func (s *Store) Booking(id string) *domain.Booking {
	var out *domain.Booking
	s.read(func(st *state) {
		if b, ok := st.bookings[id]; ok {
			cp := copyBooking(b)
			out = &cp
		}
	})
	return out
}

// StatusEvents returns every room status event in insertion order.
func (s *Store) StatusEvents() []domain.RoomStatusEvent {
	var out []domain.RoomStatusEvent
	s.read(func(st *state) { out = append(out, st.events...) })
	return out
}

func copyBooking(b domain.Booking) domain.Booking {
	b.Notes = append([]domain.BookingNote(nil), b.Notes...)
	b.PolicySnapshot = b.PolicySnapshot.Clone()
	return b
}

func paginate(page, pageSize, n int) (int, int) {
	if pageSize < 0 {
		return 0, n
	}
	if page < 1 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start > n {
		start = n
	}
	end := start + pageSize
	if end > n {
		end = n
	}
	return start, end
}

// === Hotels ===

type HotelRepo struct{ s *Store }

func (s *Store) Hotels() hotel.Repository { return HotelRepo{s} }

func (r HotelRepo) GetByID(_ context.Context, id string) (*hotel.Hotel, error) {
	var out *hotel.Hotel
	r.s.read(func(st *state) {
		if h, ok := st.hotels[id]; ok {
			out = &h
		}
	})
	if out == nil {
		return nil, hotel.ErrNotFound
	}
	return out, nil
}

func (r HotelRepo) Update(ctx context.Context, h *hotel.Hotel) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.hotels[h.ID]; !ok {
			return hotel.ErrNotFound
		}
		st.hotels[h.ID] = *h
		return nil
	})
}

// === Room types ===

type RoomTypeRepo struct{ s *Store }

func (s *Store) RoomTypes() roomtype.Repository { return RoomTypeRepo{s} }

func (r RoomTypeRepo) GetByID(_ context.Context, hotelID, id string) (*roomtype.RoomType, error) {
	var out *roomtype.RoomType
	r.s.read(func(st *state) {
		if rt, ok := st.roomTypes[id]; ok && rt.HotelID == hotelID {
			out = &rt
		}
	})
	if out == nil {
		return nil, roomtype.ErrNotFound
	}
	return out, nil
}

func (r RoomTypeRepo) LockByID(ctx context.Context, hotelID, id string) (*roomtype.RoomType, error) {
	return r.GetByID(ctx, hotelID, id)
}

func (r RoomTypeRepo) List(_ context.Context, filter roomtype.Filter) ([]*roomtype.RoomType, int, error) {
	var all []*roomtype.RoomType
	r.s.read(func(st *state) {
		for _, rt := range st.roomTypes {
			if rt.HotelID == filter.HotelID {
				rt := rt
				all = append(all, &rt)
			}
		}
	})
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	start, end := paginate(filter.Page, filter.PageSize, len(all))
	return all[start:end], len(all), nil
}

// === Rooms ===

type RoomRepo struct{ s *Store }

func (s *Store) Rooms() RoomRepo { return RoomRepo{s} }

var _ room.Repository = RoomRepo{}

func (r RoomRepo) GetByID(_ context.Context, hotelID, id string) (*domain.Room, error) {
	var out *domain.Room
	r.s.read(func(st *state) {
		if rm, ok := st.rooms[id]; ok && rm.HotelID == hotelID {
			out = &rm
		}
	})
	if out == nil {
		return nil, room.ErrNotFound
	}
	return out, nil
}

func (r RoomRepo) LockByID(ctx context.Context, hotelID, id string) (*domain.Room, error) {
	return r.GetByID(ctx, hotelID, id)
}

func (r RoomRepo) LockByIDs(_ context.Context, hotelID string, ids []string) ([]*domain.Room, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	var out []*domain.Room
	r.s.read(func(st *state) {
		for _, id := range sorted {
			if rm, ok := st.rooms[id]; ok && rm.HotelID == hotelID {
				out = append(out, &rm)
			}
		}
	})
	if len(out) != len(sorted) {
		return nil, room.ErrNotFound
	}
	return out, nil
}

func (r RoomRepo) List(_ context.Context, filter room.Filter) ([]*domain.Room, int, error) {
	var all []*domain.Room
	r.s.read(func(st *state) {
		for _, rm := range st.rooms {
			if rm.HotelID != filter.HotelID {
				continue
			}
			if filter.RoomTypeID != "" && rm.RoomTypeID != filter.RoomTypeID {
				continue
			}
			if filter.Status != "" && rm.TurnoverStatus != filter.Status {
				continue
			}
			if filter.ActiveOnly && !rm.IsActive {
				continue
			}
			if filter.SellableOnly && !rm.IsSellable() {
				continue
			}
			rm := rm
			all = append(all, &rm)
		}
	})

	desc := strings.EqualFold(filter.SortOrder, "DESC")
	sort.Slice(all, func(i, j int) bool {
		if desc {
			return all[i].Number > all[j].Number
		}
		return all[i].Number < all[j].Number
	})
	start, end := paginate(filter.Page, filter.PageSize, len(all))
	return all[start:end], len(all), nil
}

func (r RoomRepo) UpdateStatus(ctx context.Context, rm *domain.Room) error {
	return r.s.write(ctx, func(st *state) error {
		cur, ok := st.rooms[rm.ID]
		if !ok {
			return room.ErrNotFound
		}
		cur.TurnoverStatus = rm.TurnoverStatus
		cur.IsOutOfOrder = rm.IsOutOfOrder
		cur.MaintenanceRequired = rm.MaintenanceRequired
		cur.LastCleanedAt = rm.LastCleanedAt
		cur.CleanedBy = rm.CleanedBy
		cur.LastInspectedAt = rm.LastInspectedAt
		cur.InspectedBy = rm.InspectedBy
		cur.UpdatedAt = rm.UpdatedAt
		st.rooms[rm.ID] = cur
		return nil
	})
}

func (r RoomRepo) UpdateAssignment(ctx context.Context, rm *domain.Room) error {
	return r.s.write(ctx, func(st *state) error {
		cur, ok := st.rooms[rm.ID]
		if !ok {
			return room.ErrNotFound
		}
		cur.AssignedBookingID = rm.AssignedBookingID
		cur.AssignedAt = rm.AssignedAt
		cur.AssignedBy = rm.AssignedBy
		cur.AssignmentVersion = rm.AssignmentVersion
		cur.UpdatedAt = r.s.now()
		st.rooms[rm.ID] = cur
		return nil
	})
}

func (r RoomRepo) InsertEvent(ctx context.Context, e *domain.RoomStatusEvent) error {
	return r.s.write(ctx, func(st *state) error {
		e.ID = uuid.NewString()
		st.events = append(st.events, *e)
		return nil
	})
}

func (r RoomRepo) ListEvents(_ context.Context, hotelID, roomID string, filter room.EventFilter) ([]*domain.RoomStatusEvent, int, error) {
	var all []*domain.RoomStatusEvent
	r.s.read(func(st *state) {
		for i := len(st.events) - 1; i >= 0; i-- {
			e := st.events[i]
			if e.HotelID == hotelID && e.RoomID == roomID {
				all = append(all, &e)
			}
		}
	})
	start, end := paginate(filter.Page, filter.PageSize, len(all))
	return all[start:end], len(all), nil
}

// === Bookings ===

type BookingRepo struct{ s *Store }

func (s *Store) Bookings() booking.Repository { return BookingRepo{s} }

func (r BookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	return r.s.write(ctx, func(st *state) error {
		b.ID = uuid.NewString()
		b.CreatedAt = r.s.now()
		b.UpdatedAt = b.CreatedAt
		st.bookings[b.ID] = copyBooking(*b)
		return nil
	})
}

func (r BookingRepo) GetByID(_ context.Context, hotelID, id string) (*domain.Booking, error) {
	var out *domain.Booking
	r.s.read(func(st *state) {
		if b, ok := st.bookings[id]; ok && b.HotelID == hotelID {
			cp := copyBooking(b)
			out = &cp
		}
	})
	if out == nil {
		return nil, booking.ErrNotFound
	}
	return out, nil
}

func (r BookingRepo) LockByID(ctx context.Context, hotelID, id string) (*domain.Booking, error) {
	return r.GetByID(ctx, hotelID, id)
}

func (r BookingRepo) List(_ context.Context, filter booking.Filter) ([]*domain.Booking, int, error) {
	var all []*domain.Booking
	r.s.read(func(st *state) {
		for _, b := range st.bookings {
			if b.HotelID != filter.HotelID {
				continue
			}
			if filter.GuestID != "" && b.GuestID != filter.GuestID {
				continue
			}
			if filter.RoomTypeID != "" && b.RoomTypeID != filter.RoomTypeID {
				continue
			}
			if filter.Status != "" && b.Status != filter.Status {
				continue
			}
			if filter.From != nil && !b.CheckOut.After(*filter.From) {
				continue
			}
			if filter.To != nil && !b.CheckIn.Before(*filter.To) {
				continue
			}
			cp := copyBooking(b)
			all = append(all, &cp)
		}
	})
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CheckIn.Equal(all[j].CheckIn) {
			return all[i].CheckIn.Before(all[j].CheckIn)
		}
		return all[i].ID < all[j].ID
	})
	start, end := paginate(filter.Page, filter.PageSize, len(all))
	return all[start:end], len(all), nil
}

// Update enforces the same no-overlap rule as the exclusion constraint.
func (r BookingRepo) Update(ctx context.Context, b *domain.Booking) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.bookings[b.ID]; !ok {
			return booking.ErrNotFound
		}
		if b.AssignedRoomID != nil && b.BlocksInventory() {
			for _, other := range st.bookings {
				if other.ID == b.ID || other.AssignedRoomID == nil || *other.AssignedRoomID != *b.AssignedRoomID {
					continue
				}
				if other.BlocksInventory() && other.Overlaps(b.CheckIn, b.CheckOut) {
					return domain.ErrOverlapConflict
				}
			}
		}
		b.UpdatedAt = r.s.now()
		st.bookings[b.ID] = copyBooking(*b)
		return nil
	})
}

func (r BookingRepo) ListAssignedOverlapping(_ context.Context, hotelID string, roomIDs []string, start, end time.Time, excludeBookingID string) ([]*domain.Booking, error) {
	wanted := make(map[string]bool, len(roomIDs))
	for _, id := range roomIDs {
		wanted[id] = true
	}

	var out []*domain.Booking
	r.s.read(func(st *state) {
		for _, b := range st.bookings {
			if b.HotelID != hotelID || b.ID == excludeBookingID || b.AssignedRoomID == nil || !wanted[*b.AssignedRoomID] {
				continue
			}
			if b.BlocksInventory() && b.Overlaps(start, end) {
				cp := copyBooking(b)
				out = append(out, &cp)
			}
		}
	})
	return out, nil
}

// === Availability ===

type AvailabilityRepo struct{ s *Store }

func (s *Store) Availability() AvailabilityRepo { return AvailabilityRepo{s} }

func (r AvailabilityRepo) CountSellable(_ context.Context, hotelID, roomTypeID string) (int, error) {
	n := 0
	r.s.read(func(st *state) {
		for _, rm := range st.rooms {
			if rm.HotelID == hotelID && rm.RoomTypeID == roomTypeID && rm.IsSellable() {
				n++
			}
		}
	})
	return n, nil
}

func (r AvailabilityRepo) ListBlocking(_ context.Context, hotelID, roomTypeID string, start, end time.Time) ([]*domain.Booking, error) {
	var out []*domain.Booking
	r.s.read(func(st *state) {
		for _, b := range st.bookings {
			if b.HotelID == hotelID && b.RoomTypeID == roomTypeID && b.BlocksInventory() && b.Overlaps(start, end) {
				cp := copyBooking(b)
				out = append(out, &cp)
			}
		}
	})
	return out, nil
}

// === Cancellation policies ===

type PolicyRepo struct{ s *Store }

func (s *Store) Policies() cancellation.Repository { return PolicyRepo{s} }

func (r PolicyRepo) GetByHotel(_ context.Context, hotelID string) (*domain.CancellationPolicy, error) {
	var out *domain.CancellationPolicy
	r.s.read(func(st *state) {
		if p, ok := st.policies[hotelID]; ok {
			cp := p.Clone()
			out = &cp
		}
	})
	if out == nil {
		return nil, cancellation.ErrPolicyNotFound
	}
	return out, nil
}

func (r PolicyRepo) Upsert(ctx context.Context, p *domain.CancellationPolicy) error {
	return r.s.write(ctx, func(st *state) error {
		if cur, ok := st.policies[p.HotelID]; ok {
			p.ID = cur.ID
		} else {
			p.ID = uuid.NewString()
		}
		p.UpdatedAt = r.s.now()
		st.policies[p.HotelID] = p.Clone()
		return nil
	})
}
