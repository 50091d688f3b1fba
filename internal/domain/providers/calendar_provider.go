package providers

import (
	"github.com/nando-scheduler/backend/internal/domain/entities"
)

// CalendarEncoder renders reservations as an iCalendar feed
type CalendarEncoder interface {
	Encode(calendarName string, reservations []*entities.Reservation) ([]byte, error)
}
