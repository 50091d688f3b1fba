package calendar

import (
	"fmt"
	"strings"

	ics "github.com/arran4/golang-ical"
	"github.com/nando-scheduler/backend/internal/clock"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/domain/providers"
)

const (
	productID = "-//nando-scheduler//reservations//EN"
	uidDomain = "coworking-scheduler"
)

// ICSEncoder implements providers.CalendarEncoder using golang-ical
type ICSEncoder struct {
	clock clock.Clock
}

// NewICSEncoder creates a new iCalendar encoder
func NewICSEncoder(clk clock.Clock) providers.CalendarEncoder {
	return &ICSEncoder{clock: clk}
}

// Encode renders one VEVENT per reservation. All instants are written in UTC.
func (e *ICSEncoder) Encode(calendarName string, reservations []*entities.Reservation) ([]byte, error) {
	cal := ics.NewCalendarFor(productID)
	cal.SetProductId(productID)
	cal.SetMethod(ics.MethodPublish)
	if calendarName != "" {
		cal.SetName(calendarName)
		cal.SetXWRCalName(calendarName)
	}

	stamp := e.clock.Now()
	for _, r := range reservations {
		if r == nil {
			continue
		}
		if err := entities.ValidateInterval(r.StartTime, r.EndTime); err != nil {
			return nil, fmt.Errorf("reservation %s: %w", r.ID, err)
		}

		event := cal.AddEvent(EventUID(r.ID))
		event.SetDtStampTime(stamp)
		event.SetStartAt(r.StartTime)
		event.SetEndAt(r.EndTime)
		if !r.CreatedAt.IsZero() {
			event.SetCreatedTime(r.CreatedAt)
		}
		if !r.UpdatedAt.IsZero() {
			event.SetModifiedAt(r.UpdatedAt)
		}
		event.SetSummary(r.Title)
		if r.Description != "" {
			event.SetDescription(r.Description)
		}
		if loc := location(r); loc != "" {
			event.SetLocation(loc)
		}
		event.SetStatus(ics.ObjectStatusConfirmed)
		for _, p := range r.Participants {
			event.AddAttendee(p, ics.WithRSVP(false))
		}
	}

	return []byte(cal.Serialize()), nil
}

// EventUID returns the stable UID of a reservation's VEVENT
func EventUID(reservationID string) string {
	return reservationID + "@" + uidDomain
}

func location(r *entities.Reservation) string {
	if r.Context == nil {
		return ""
	}
	parts := make([]string, 0, 2)
	if r.Context.ResourceName != "" {
		parts = append(parts, r.Context.ResourceName)
	}
	if r.Context.SiteName != "" {
		parts = append(parts, r.Context.SiteName)
	}
	return strings.Join(parts, ", ")
}
