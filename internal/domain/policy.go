package domain

import "time"

// FeeMode selects how a cancellation fee is computed from the booking total.
type FeeMode string

const (
	FeeNone       FeeMode = "none"
	FeeFixed      FeeMode = "fixed"
	FeePercentage FeeMode = "percentage"
	FeeFirstNight FeeMode = "first_night"
	FeeFullAmount FeeMode = "full_amount"
)

func (m FeeMode) Valid() bool {
	switch m {
	case FeeNone, FeeFixed, FeePercentage, FeeFirstNight, FeeFullAmount:
		return true
	}
	return false
}

// PolicyTier applies when at least HoursBeforeCheckIn hours remain before arrival.
type PolicyTier struct {
	HoursBeforeCheckIn int     `json:"hours_before_check_in"`
	FeeMode            FeeMode `json:"fee_mode"`
	Percentage         float64 `json:"percentage,omitempty"`
	FixedAmount        int64   `json:"fixed_amount,omitempty"`
}

// CancellationPolicy is a hotel's cancellation terms. Bookings keep a copy by
// value, so edits to the live policy never reach existing bookings.
type CancellationPolicy struct {
	ID        string       `json:"id,omitempty"`
	HotelID   string       `json:"hotel_id,omitempty"`
	Name      string       `json:"name"`
	Tiers     []PolicyTier `json:"tiers"`
	Default   *PolicyTier  `json:"default,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Clone returns a deep copy safe to store as a snapshot.
func (p CancellationPolicy) Clone() CancellationPolicy {
	cp := p
	cp.Tiers = append([]PolicyTier(nil), p.Tiers...)
	if p.Default != nil {
		d := *p.Default
		cp.Default = &d
	}
	return cp
}
