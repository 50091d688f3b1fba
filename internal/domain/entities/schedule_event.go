package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// ScheduleEventType represents the type of schedule change
type ScheduleEventType string

const (
	ScheduleEventReservationCreated ScheduleEventType = "reservation_created"
	ScheduleEventReservationUpdated ScheduleEventType = "reservation_updated"
	ScheduleEventReservationDeleted ScheduleEventType = "reservation_deleted"
	ScheduleEventResourceUpdated    ScheduleEventType = "resource_updated"
	ScheduleEventResourceDeleted    ScheduleEventType = "resource_deleted"
)

// ScheduleEvent is published whenever a reservation or resource changes.
// Reservation details are limited to ids and times; clients
// refetch to apply visibility rules.
type ScheduleEvent struct {
	ID            string            `json:"id"`
	EventType     ScheduleEventType `json:"event_type"`
	ResourceID    string            `json:"resource_id"`
	ReservationID string            `json:"reservation_id,omitempty"`
	StartTime     *time.Time        `json:"start_time,omitempty"`
	EndTime       *time.Time        `json:"end_time,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

// NewReservationEvent builds an event for a reservation change
func NewReservationEvent(eventType ScheduleEventType, r *Reservation, at time.Time) *ScheduleEvent {
	start, end := r.StartTime, r.EndTime
	return &ScheduleEvent{
		ID:            generateEventID(at),
		EventType:     eventType,
		ResourceID:    r.ResourceID,
		ReservationID: r.ID,
		StartTime:     &start,
		EndTime:       &end,
		Timestamp:     at,
	}
}

// NewResourceEvent builds an event for a resource change
func NewResourceEvent(eventType ScheduleEventType, resourceID string, at time.Time) *ScheduleEvent {
	return &ScheduleEvent{
		ID:         generateEventID(at),
		EventType:  eventType,
		ResourceID: resourceID,
		Timestamp:  at,
	}
}

func generateEventID(at time.Time) string {
	return at.UTC().Format("20060102150405") + "-" + randomString(8)
}

func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
