package entities

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

var (
	// ErrInvalidInterval is returned when a reservation does not start before it ends.
	ErrInvalidInterval = errors.New("start time must be before end time")

	// ErrMissingTimes is returned when either bound of the interval is unset.
	ErrMissingTimes = errors.New("start time and end time are required")
)

// ReservationBucket classifies a reservation relative to an instant.
type ReservationBucket string

const (
	BucketPast    ReservationBucket = "past"
	BucketCurrent ReservationBucket = "current"
	BucketFuture  ReservationBucket = "future"
)

// Reservation is a time-bounded booking of a resource by a user,
// optionally shared with participants by email.
type Reservation struct {
	ID           string              `json:"id" db:"id"`
	Title        string              `json:"title" db:"title"`
	Description  string              `json:"description" db:"description"`
	StartTime    time.Time           `json:"start_time" db:"start_time"`
	EndTime      time.Time           `json:"end_time" db:"end_time"`
	ResourceID   string              `json:"resource_id" db:"resource_id"`
	UserID       string              `json:"user_id" db:"user_id"`
	Participants []string            `json:"participants" db:"participants"`
	Context      *ReservationContext `json:"context,omitempty" db:"-"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" db:"updated_at"`
}

// ReservationContext is the resource -> site -> team chain a reservation
// belongs to.
type ReservationContext struct {
	ResourceName string `json:"resource_name"`
	SiteID       string `json:"site_id"`
	SiteName     string `json:"site_name"`
	TeamID       string `json:"team_id"`
	TeamName     string `json:"team_name"`
}

// ValidateInterval checks that start and end are set and start < end.
func ValidateInterval(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return ErrMissingTimes
	}
	if !start.Before(end) {
		return ErrInvalidInterval
	}
	return nil
}

// Bucket classifies the reservation at now. Both bounds are inclusive to
// current, so a reservation is always in exactly one bucket and moves
// future -> current -> past as now advances.
func (r *Reservation) Bucket(now time.Time) ReservationBucket {
	switch {
	case r.EndTime.Before(now):
		return BucketPast
	case r.StartTime.After(now):
		return BucketFuture
	default:
		return BucketCurrent
	}
}

// Overlaps reports whether the reservation intersects the half-open
// interval [start, end).
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && start.Before(r.EndTime)
}

// Duration returns the length of the reservation.
func (r *Reservation) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// ReservationBuckets groups reservations by bucket.
type ReservationBuckets struct {
	Past    []*Reservation `json:"past"`
	Current []*Reservation `json:"current"`
	Future  []*Reservation `json:"future"`
}

// BucketReservations splits reservations into buckets at now, keeping the
// input order within each bucket.
func BucketReservations(now time.Time, reservations []*Reservation) ReservationBuckets {
	buckets := ReservationBuckets{
		Past:    []*Reservation{},
		Current: []*Reservation{},
		Future:  []*Reservation{},
	}
	for _, r := range reservations {
		if r == nil {
			continue
		}
		switch r.Bucket(now) {
		case BucketPast:
			buckets.Past = append(buckets.Past, r)
		case BucketCurrent:
			buckets.Current = append(buckets.Current, r)
		case BucketFuture:
			buckets.Future = append(buckets.Future, r)
		}
	}
	return buckets
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeParticipants trims, lower-cases and de-duplicates participant
// emails, dropping blanks. Order of first appearance is kept.
func NormalizeParticipants(emails []string) ([]string, error) {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, raw := range emails {
		email := NormalizeEmail(raw)
		if email == "" {
			continue
		}
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, &InvalidParticipantError{Email: raw}
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out, nil
}

// InvalidParticipantError reports a participant that is not an email address.
type InvalidParticipantError struct {
	Email string
}

func (e *InvalidParticipantError) Error() string {
	return "invalid participant email: " + e.Email
}
