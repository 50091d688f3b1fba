package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nando-scheduler/backend/internal/clock"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/domain/providers"
	"github.com/nando-scheduler/backend/internal/domain/repositories"
	"github.com/nando-scheduler/backend/internal/infrastructure/observability"
	apperrors "github.com/nando-scheduler/backend/pkg/errors"
)

const (
	maxCalendarSpan = 93 * 24 * time.Hour
	exportName      = "My reservations"
)

// ReservationInput carries the fields of a new reservation
type ReservationInput struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ResourceID   string    `json:"resource_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Participants []string  `json:"participants"`
}

// ReservationPatch carries a partial update; nil fields are left unchanged
type ReservationPatch struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	StartTime    *time.Time `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	Participants *[]string  `json:"participants"`
}

// ReservationView is a reservation with what the requester may do to it
type ReservationView struct {
	*entities.Reservation
	Bucket      entities.ReservationBucket      `json:"bucket"`
	Permissions entities.ReservationPermissions `json:"permissions"`
}

// BucketedReservations groups a requester's reservations by time bucket
type BucketedReservations struct {
	Now     time.Time          `json:"now"`
	Past    []*ReservationView `json:"past"`
	Current []*ReservationView `json:"current"`
	Future  []*ReservationView `json:"future"`
}

// ReservationService handles reservations. Every mutation re-evaluates the
// mutation gate against the stored reservation before writing.
type ReservationService struct {
	reservations repositories.ReservationRepository
	resources    repositories.ResourceRepository
	teams        repositories.TeamRepository
	eventBus     providers.EventBus
	calendar     providers.CalendarEncoder
	clock        clock.Clock
	metrics      *observability.Metrics
}

// NewReservationService creates a new reservation service. eventBus, calendar and metrics may be nil.
func NewReservationService(
	reservations repositories.ReservationRepository,
	resources repositories.ResourceRepository,
	teams repositories.TeamRepository,
	eventBus providers.EventBus,
	calendar providers.CalendarEncoder,
	clk clock.Clock,
	metrics *observability.Metrics,
) *ReservationService {
	return &ReservationService{
		reservations: reservations,
		resources:    resources,
		teams:        teams,
		eventBus:     eventBus,
		calendar:     calendar,
		clock:        clk,
		metrics:      metrics,
	}
}

// CreateReservation books a resource for the requester
func (s *ReservationService) CreateReservation(ctx context.Context, requester entities.Requester, in ReservationInput) (*ReservationView, error) {
	if err := requireAuthenticated(requester); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if err := required(title, "title"); err != nil {
		return nil, err
	}
	if err := required(in.ResourceID, "resource id"); err != nil {
		return nil, err
	}
	if err := validateInterval(in.StartTime, in.EndTime); err != nil {
		return nil, err
	}
	participants, err := normalizeParticipants(in.Participants)
	if err != nil {
		return nil, err
	}

	loc, err := s.resources.GetLocation(ctx, in.ResourceID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.teams, loc.TeamID, requester); err != nil {
		return nil, hideForeign(err, "resource not found")
	}

	start, end := in.StartTime.UTC(), in.EndTime.UTC()
	if err := s.checkOverlap(ctx, in.ResourceID, start, end, ""); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	reservation := &entities.Reservation{
		ID:           uuid.NewString(),
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		StartTime:    start,
		EndTime:      end,
		ResourceID:   in.ResourceID,
		UserID:       requester.UserID,
		Participants: participants,
		Context:      loc.ReservationContext(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.reservations.Create(ctx, reservation); err != nil {
		s.recordConflict(ctx, err, in.ResourceID)
		return nil, err
	}

	publishScheduleEvent(ctx, s.eventBus, entities.NewReservationEvent(entities.ScheduleEventReservationCreated, reservation, now))
	return s.view(requester, reservation, now), nil
}

// GetReservation returns a reservation visible to the requester. Invisible
// reservations are reported as not found.
func (s *ReservationService) GetReservation(ctx context.Context, requester entities.Requester, id string) (*ReservationView, error) {
	reservation, err := s.loadVisible(ctx, requester, id)
	if err != nil {
		return nil, err
	}
	return s.view(requester, reservation, s.clock.Now()), nil
}

// UpdateReservation applies a patch. Only the owner may edit, and only
// until the reservation has ended.
func (s *ReservationService) UpdateReservation(ctx context.Context, requester entities.Requester, id string, patch ReservationPatch) (*ReservationView, error) {
	existing, err := s.loadVisible(ctx, requester, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if !existing.CanEdit(requester, now) {
		observability.RecordMutationDenied(ctx, s.metrics, "update")
		return nil, apperrors.NewForbiddenError(editDeniedReason(existing, requester))
	}

	updated := *existing
	if patch.Title != nil {
		updated.Title = strings.TrimSpace(*patch.Title)
		if err := required(updated.Title, "title"); err != nil {
			return nil, err
		}
	}
	if patch.Description != nil {
		updated.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.StartTime != nil {
		updated.StartTime = patch.StartTime.UTC()
	}
	if patch.EndTime != nil {
		updated.EndTime = patch.EndTime.UTC()
	}
	if err := validateInterval(updated.StartTime, updated.EndTime); err != nil {
		return nil, err
	}
	if patch.Participants != nil {
		participants, err := normalizeParticipants(*patch.Participants)
		if err != nil {
			return nil, err
		}
		updated.Participants = participants
	}

	if !updated.StartTime.Equal(existing.StartTime) || !updated.EndTime.Equal(existing.EndTime) {
		if err := s.checkOverlap(ctx, updated.ResourceID, updated.StartTime, updated.EndTime, updated.ID); err != nil {
			return nil, err
		}
	}

	updated.UpdatedAt = now
	if err := s.reservations.Update(ctx, &updated); err != nil {
		s.recordConflict(ctx, err, updated.ResourceID)
		return nil, err
	}

	publishScheduleEvent(ctx, s.eventBus, entities.NewReservationEvent(entities.ScheduleEventReservationUpdated, &updated, now))
	return s.view(requester, &updated, now), nil
}

// DeleteReservation cancels a reservation. Only the owner may delete, and
// only before it starts.
func (s *ReservationService) DeleteReservation(ctx context.Context, requester entities.Requester, id string) error {
	existing, err := s.loadVisible(ctx, requester, id)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	if !existing.CanDelete(requester, now) {
		observability.RecordMutationDenied(ctx, s.metrics, "delete")
		return apperrors.NewForbiddenError(deleteDeniedReason(existing, requester))
	}

	if err := s.reservations.Delete(ctx, id); err != nil {
		return err
	}

	publishScheduleEvent(ctx, s.eventBus, entities.NewReservationEvent(entities.ScheduleEventReservationDeleted, existing, now))
	return nil
}

// ListMyReservations returns the reservations the requester owns or takes
// part in, bucketed at the current instant
func (s *ReservationService) ListMyReservations(ctx context.Context, requester entities.Requester) (*BucketedReservations, error) {
	if err := requireAuthenticated(requester); err != nil {
		return nil, err
	}
	list, err := s.reservations.ListForRequester(ctx, requester, repositories.ReservationFilter{})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	buckets := entities.BucketReservations(now, entities.FilterVisible(requester, list))
	return &BucketedReservations{
		Now:     now,
		Past:    s.views(requester, buckets.Past, now),
		Current: s.views(requester, buckets.Current, now),
		Future:  s.views(requester, buckets.Future, now),
	}, nil
}

// ListCalendar returns visible reservations overlapping [from, to),
// optionally restricted to one site
func (s *ReservationService) ListCalendar(ctx context.Context, requester entities.Requester, from, to time.Time, siteID string) ([]*ReservationView, error) {
	if err := requireAuthenticated(requester); err != nil {
		return nil, err
	}
	if err := validateInterval(from, to); err != nil {
		return nil, err
	}
	if to.Sub(from) > maxCalendarSpan {
		return nil, apperrors.NewValidationError(fmt.Sprintf("calendar range cannot exceed %d days", int(maxCalendarSpan.Hours()/24)))
	}

	from, to = from.UTC(), to.UTC()
	list, err := s.reservations.ListForRequester(ctx, requester, repositories.ReservationFilter{
		SiteID: siteID,
		From:   &from,
		To:     &to,
	})
	if err != nil {
		return nil, err
	}

	visible := make([]*entities.Reservation, 0, len(list))
	for _, r := range entities.FilterVisible(requester, list) {
		if r.Overlaps(from, to) {
			visible = append(visible, r)
		}
	}
	return s.views(requester, visible, s.clock.Now()), nil
}

// ExportICS renders every reservation visible to the requester as an iCalendar feed
func (s *ReservationService) ExportICS(ctx context.Context, requester entities.Requester) ([]byte, error) {
	if err := requireAuthenticated(requester); err != nil {
		return nil, err
	}
	if s.calendar == nil {
		return nil, apperrors.NewInternalError("calendar export is not configured", nil)
	}
	list, err := s.reservations.ListForRequester(ctx, requester, repositories.ReservationFilter{})
	if err != nil {
		return nil, err
	}

	out, err := s.calendar.Encode(exportName, entities.FilterVisible(requester, list))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode calendar", err)
	}
	return out, nil
}

func (s *ReservationService) loadVisible(ctx context.Context, requester entities.Requester, id string) (*entities.Reservation, error) {
	if err := requireAuthenticated(requester); err != nil {
		return nil, err
	}
	reservation, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !reservation.VisibleTo(requester) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("reservation with id %s not found", id))
	}
	return reservation, nil
}

func (s *ReservationService) checkOverlap(ctx context.Context, resourceID string, start, end time.Time, excludeID string) error {
	clashes, err := s.reservations.ListOverlapping(ctx, resourceID, start, end, excludeID)
	if err != nil {
		return err
	}
	for _, other := range clashes {
		if other.ID == excludeID || !other.Overlaps(start, end) {
			continue
		}
		observability.RecordReservationConflict(ctx, s.metrics, resourceID)
		return apperrors.NewConflictError(fmt.Sprintf("resource is already reserved from %s to %s",
			other.StartTime.UTC().Format(time.RFC3339), other.EndTime.UTC().Format(time.RFC3339)))
	}
	return nil
}

// recordConflict counts conflicts raised by the database constraint when
// two writers race past checkOverlap
func (s *ReservationService) recordConflict(ctx context.Context, err error, resourceID string) {
	if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
		observability.RecordReservationConflict(ctx, s.metrics, resourceID)
	}
}

func (s *ReservationService) view(requester entities.Requester, r *entities.Reservation, now time.Time) *ReservationView {
	return &ReservationView{
		Reservation: r,
		Bucket:      r.Bucket(now),
		Permissions: r.Permissions(requester, now),
	}
}

func (s *ReservationService) views(requester entities.Requester, list []*entities.Reservation, now time.Time) []*ReservationView {
	out := make([]*ReservationView, 0, len(list))
	for _, r := range list {
		out = append(out, s.view(requester, r, now))
	}
	return out
}

func validateInterval(start, end time.Time) error {
	if err := entities.ValidateInterval(start, end); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

func normalizeParticipants(emails []string) ([]string, error) {
	participants, err := entities.NormalizeParticipants(emails)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	return participants, nil
}

func editDeniedReason(r *entities.Reservation, requester entities.Requester) string {
	if !r.IsOwnedBy(requester) {
		return "only the organizer can edit this reservation"
	}
	return "reservations cannot be edited after they end"
}

func deleteDeniedReason(r *entities.Reservation, requester entities.Requester) string {
	if !r.IsOwnedBy(requester) {
		return "only the organizer can delete this reservation"
	}
	return "reservations cannot be deleted once they have started"
}
