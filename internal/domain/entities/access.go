package entities

import "time"

// Requester is the authenticated caller of an operation.
type Requester struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Authenticated reports whether the requester carries a user id.
func (q Requester) Authenticated() bool {
	return q.UserID != ""
}

// ReservationPermissions tells a client which actions to offer.
type ReservationPermissions struct {
	CanView   bool `json:"can_view"`
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

// IsOwnedBy reports whether the requester created the reservation. An empty
// id never matches.
func (r *Reservation) IsOwnedBy(q Requester) bool {
	return q.UserID != "" && r.UserID == q.UserID
}

// HasParticipant reports whether email is listed as a participant.
func (r *Reservation) HasParticipant(email string) bool {
	email = NormalizeEmail(email)
	if email == "" {
		return false
	}
	for _, p := range r.Participants {
		if NormalizeEmail(p) == email {
			return true
		}
	}
	return false
}

// VisibleTo reports whether the requester is the owner or a participant.
func (r *Reservation) VisibleTo(q Requester) bool {
	return r.IsOwnedBy(q) || r.HasParticipant(q.Email)
}

// CanEdit allows the owner to edit until the reservation has fully elapsed.
func (r *Reservation) CanEdit(q Requester, now time.Time) bool {
	return r.IsOwnedBy(q) && now.Before(r.EndTime)
}

// CanDelete allows the owner to delete only before the reservation starts.
func (r *Reservation) CanDelete(q Requester, now time.Time) bool {
	return r.IsOwnedBy(q) && now.Before(r.StartTime)
}

// Permissions evaluates every gate at now.
func (r *Reservation) Permissions(q Requester, now time.Time) ReservationPermissions {
	return ReservationPermissions{
		CanView:   r.VisibleTo(q),
		CanEdit:   r.CanEdit(q, now),
		CanDelete: r.CanDelete(q, now),
	}
}

// FilterVisible returns the reservations the requester may see.
func FilterVisible(q Requester, reservations []*Reservation) []*Reservation {
	visible := make([]*Reservation, 0, len(reservations))
	for _, r := range reservations {
		if r != nil && r.VisibleTo(q) {
			visible = append(visible, r)
		}
	}
	return visible
}
