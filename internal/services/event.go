package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clubroom/apiserver/internal/apperr"
	"github.com/clubroom/apiserver/internal/mq"
	"github.com/clubroom/apiserver/internal/store"
	"github.com/clubroom/apiserver/types"
	"go.uber.org/zap"
)

// EventRepository defines persistence operations for club events.
type EventRepository interface {
	ListByClub(ctx context.Context, clubID int, filter types.EventFilter) ([]types.Event, error)
	Get(ctx context.Context, clubID, id int) (types.Event, error)
	Create(ctx context.Context, event types.Event) (types.Event, error)
	Update(ctx context.Context, event types.Event) (types.Event, error)
	Delete(ctx context.Context, clubID, id int) error
}

type NewEvent struct {
	Title       string
	Description string
	Date        time.Time
}

type EventUpdate struct {
	Title       *string
	Description *string
	Date        *time.Time
}

// EventService encapsulates event use-cases. The finished flag is derived
// from the event date and the service clock on every read and write.
type EventService struct {
	events EventRepository
	now    func() time.Time
	notifier
}

func NewEventService(events EventRepository, publisher ActivityPublisher, logger *zap.Logger) *EventService {
	return &EventService{
		events:   events,
		now:      time.Now,
		notifier: newNotifier(publisher, logger),
	}
}

func (s *EventService) List(ctx context.Context, clubID int, filter types.EventFilter) ([]types.Event, error) {
	if filter.Order == "" {
		filter.Order = types.SortDesc
	}
	filter.Now = s.now()
	events, err := s.events.ListByClub(ctx, clubID, filter)
	if err != nil {
		return nil, fmt.Errorf("list events of club %d: %w", clubID, err)
	}
	for i := range events {
		events[i].Finished = types.FinishedAt(events[i].Date, filter.Now)
	}
	return events, nil
}

func (s *EventService) Get(ctx context.Context, clubID, id int) (types.Event, error) {
	event, err := s.events.Get(ctx, clubID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Event{}, apperr.NotFound("Event not found")
		}
		return types.Event{}, fmt.Errorf("get event %d: %w", id, err)
	}
	event.Finished = types.FinishedAt(event.Date, s.now())
	return event, nil
}

// Create schedules a new event. Its date must not be in the past.
func (s *EventService) Create(ctx context.Context, actorID, clubID int, in NewEvent) (types.Event, error) {
	now := s.now()
	if in.Date.Before(now) {
		return types.Event{}, apperr.InvalidInput("Invalid data provided", apperr.Issue{Field: "date", Message: "Event is too old"})
	}
	event, err := s.events.Create(ctx, types.Event{
		Title:       in.Title,
		Description: in.Description,
		Date:        in.Date,
		Finished:    types.FinishedAt(in.Date, now),
		ClubID:      clubID,
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidReference) {
			return types.Event{}, apperr.NotFound("Club not found")
		}
		return types.Event{}, fmt.Errorf("create event: %w", err)
	}

	s.notify(ctx, mq.Activity{
		Kind:       mq.ActivityEventScheduled,
		ClubID:     clubID,
		ActorID:    actorID,
		SubjectID:  event.ID,
		OccurredAt: event.CreatedAt,
	})
	return event, nil
}

func (s *EventService) Update(ctx context.Context, clubID, id int, in EventUpdate) (types.Event, error) {
	event, err := s.Get(ctx, clubID, id)
	if err != nil {
		return types.Event{}, err
	}
	if in.Title != nil {
		event.Title = *in.Title
	}
	if in.Description != nil {
		event.Description = *in.Description
	}
	if in.Date != nil {
		event.Date = *in.Date
	}
	event.Finished = types.FinishedAt(event.Date, s.now())

	updated, err := s.events.Update(ctx, event)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Event{}, apperr.NotFound("Event not found")
		}
		return types.Event{}, fmt.Errorf("update event %d: %w", id, err)
	}
	return updated, nil
}

func (s *EventService) Delete(ctx context.Context, clubID, id int) error {
	if err := s.events.Delete(ctx, clubID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Event not found")
		}
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	return nil
}
