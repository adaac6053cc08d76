package hotel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrivalAt(t *testing.T) {
	h := &Hotel{Timezone: "Europe/Paris", CheckInTime: "15:00"}

	got, err := h.ArrivalAt(time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// Paris is UTC+2 in July.
	assert.Equal(t, time.Date(2026, 7, 14, 13, 0, 0, 0, time.UTC), got)
}

func TestLocalDate(t *testing.T) {
	h := &Hotel{Timezone: "Asia/Taipei", CheckInTime: "15:00"}

	// 20:00 UTC on the 1st is already the 2nd in Taipei.
	got, err := h.LocalDate(time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), got)
}

func TestArrivalAtRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name  string
		hotel Hotel
	}{
		{"unknown zone", Hotel{Timezone: "Mars/Olympus", CheckInTime: "15:00"}},
		{"bad clock", Hotel{Timezone: "UTC", CheckInTime: "3pm"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.hotel.ArrivalAt(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
			assert.Error(t, err)
		})
	}
}
