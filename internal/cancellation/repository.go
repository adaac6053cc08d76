package cancellation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/db"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
)

// Repository stores each hotel's live cancellation policy.
type Repository interface {
	GetByHotel(ctx context.Context, hotelID string) (*domain.CancellationPolicy, error)
	Upsert(ctx context.Context, p *domain.CancellationPolicy) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) GetByHotel(ctx context.Context, hotelID string) (*domain.CancellationPolicy, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "hotel_id", "name", "tiers", "default_tier", "updated_at").
		From("public.cancellation_policies").
		Where(squirrel.Eq{"hotel_id": hotelID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get policy query failed: %w", err)
	}

	var (
		p          domain.CancellationPolicy
		tiersRaw   []byte
		defaultRaw []byte
	)
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).
		Scan(&p.ID, &p.HotelID, &p.Name, &tiersRaw, &defaultRaw, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPolicyNotFound
		}
		return nil, fmt.Errorf("get policy failed: %w", err)
	}

	if err := json.Unmarshal(tiersRaw, &p.Tiers); err != nil {
		return nil, fmt.Errorf("decode policy tiers failed: %w", err)
	}
	if len(defaultRaw) > 0 && string(defaultRaw) != "null" {
		var d domain.PolicyTier
		if err := json.Unmarshal(defaultRaw, &d); err != nil {
			return nil, fmt.Errorf("decode policy default failed: %w", err)
		}
		p.Default = &d
	}
	return &p, nil
}

func (r *pgxRepository) Upsert(ctx context.Context, p *domain.CancellationPolicy) error {
	tiers, err := json.Marshal(p.Tiers)
	if err != nil {
		return fmt.Errorf("encode policy tiers failed: %w", err)
	}
	var def []byte
	if p.Default != nil {
		if def, err = json.Marshal(p.Default); err != nil {
			return fmt.Errorf("encode policy default failed: %w", err)
		}
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.cancellation_policies").
		Columns("hotel_id", "name", "tiers", "default_tier", "updated_at").
		Values(p.HotelID, p.Name, tiers, def, squirrel.Expr("now()")).
		Suffix(`ON CONFLICT (hotel_id) DO UPDATE
			SET name = EXCLUDED.name, tiers = EXCLUDED.tiers, default_tier = EXCLUDED.default_tier, updated_at = now()
			RETURNING id, updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert policy query failed: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&p.ID, &p.UpdatedAt); err != nil {
		return db.MapError(fmt.Errorf("upsert policy failed: %w", err))
	}
	return nil
}
