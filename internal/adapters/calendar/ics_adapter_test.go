package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/nando-scheduler/backend/internal/clock"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestICSEncoder_Encode(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	enc := NewICSEncoder(clock.NewFixed(now))

	reservations := []*entities.Reservation{
		{
			ID:           "res-1",
			Title:        "Standup",
			StartTime:    time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
			EndTime:      time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC),
			ResourceID:   "room-1",
			UserID:       "u1",
			Participants: []string{"ann@example.com"},
			Context:      &entities.ReservationContext{ResourceName: "Room A", SiteName: "HQ"},
		},
	}

	out, err := enc.Encode("My reservations", reservations)
	require.NoError(t, err)

	body := string(out)
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "METHOD:PUBLISH")
	assert.Contains(t, body, "BEGIN:VEVENT")
	assert.Contains(t, body, "UID:res-1@coworking-scheduler")
	assert.Contains(t, body, "SUMMARY:Standup")
	assert.Contains(t, body, "DTSTART:20261019T090000Z")
	assert.Contains(t, body, "DTEND:20261019T093000Z")
	assert.Contains(t, body, "DTSTAMP:20261019T080000Z")
	assert.Contains(t, body, "mailto:ann@example.com")
	assert.Contains(t, body, "LOCATION:Room A")
	assert.Equal(t, 1, strings.Count(body, "BEGIN:VEVENT"))
}

func TestICSEncoder_EncodeEmpty(t *testing.T) {
	enc := NewICSEncoder(clock.NewFixed(time.Now()))

	out, err := enc.Encode("", nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), "BEGIN:VCALENDAR")
	assert.NotContains(t, string(out), "BEGIN:VEVENT")
}

func TestICSEncoder_RejectsInvertedInterval(t *testing.T) {
	enc := NewICSEncoder(clock.NewFixed(time.Now()))
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	_, err := enc.Encode("x", []*entities.Reservation{{ID: "bad", StartTime: start, EndTime: start}})
	assert.ErrorIs(t, err, entities.ErrInvalidInterval)
}
