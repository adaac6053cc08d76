package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
)

func TestMapError(t *testing.T) {
	plain := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"deadlock is retryable conflict", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, domain.ErrConflict},
		{"serialization failure is retryable conflict", fmt.Errorf("commit: %w", &pgconn.PgError{Code: pgerrcode.SerializationFailure}), domain.ErrConflict},
		{"exclusion violation is overlap", &pgconn.PgError{Code: pgerrcode.ExclusionViolation}, domain.ErrOverlapConflict},
		{"unknown pg error passes through", &pgconn.PgError{Code: pgerrcode.UndefinedTable}, nil},
		{"non pg error passes through", plain, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if tt.want == nil {
				assert.Same(t, tt.err, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err, "cause must stay reachable")
		})
	}
}
