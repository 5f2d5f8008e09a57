package store

import (
	"context"
	"time"

	"github.com/clubroom/apiserver/types"
	"github.com/jmoiron/sqlx"
)

// EventRepository handles persistence for club events.
type EventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, title, description, date, finished, club_id, created_at, updated_at`

func (r *EventRepository) ListByClub(ctx context.Context, clubID int, filter types.EventFilter) ([]types.Event, error) {
	// Order is interpolated, so only the two known values are accepted.
	order := "DESC"
	if filter.Order == types.SortAsc {
		order = "ASC"
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE club_id = $1`
	args := []any{clubID}
	if filter.Finished != nil {
		now := filter.Now
		if now.IsZero() {
			now = time.Now()
		}
		query += ` AND (date < $2) = $3`
		args = append(args, now, *filter.Finished)
	}
	query += ` ORDER BY date ` + order + `, id ` + order

	events := []types.Event{}
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *EventRepository) Get(ctx context.Context, clubID, id int) (types.Event, error) {
	const query = `SELECT ` + eventColumns + ` FROM events WHERE id = $1 AND club_id = $2`
	var event types.Event
	if err := r.db.GetContext(ctx, &event, query, id, clubID); err != nil {
		return types.Event{}, classify(err)
	}
	return event, nil
}

func (r *EventRepository) Create(ctx context.Context, event types.Event) (types.Event, error) {
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	const query = `
		INSERT INTO events (title, description, date, finished, club_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowxContext(
		ctx,
		query,
		event.Title,
		event.Description,
		event.Date,
		event.Finished,
		event.ClubID,
		event.CreatedAt,
		event.UpdatedAt,
	).Scan(&event.ID); err != nil {
		return types.Event{}, classify(err)
	}
	return event, nil
}

func (r *EventRepository) Update(ctx context.Context, event types.Event) (types.Event, error) {
	event.UpdatedAt = time.Now()

	const query = `
		UPDATE events
		SET title = $1,
			description = $2,
			date = $3,
			finished = $4,
			updated_at = $5
		WHERE id = $6 AND club_id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		event.Title,
		event.Description,
		event.Date,
		event.Finished,
		event.UpdatedAt,
		event.ID,
		event.ClubID,
	)
	if err != nil {
		return types.Event{}, classify(err)
	}
	if err := expectAffected(result); err != nil {
		return types.Event{}, err
	}
	return event, nil
}

func (r *EventRepository) Delete(ctx context.Context, clubID, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1 AND club_id = $2`, id, clubID)
	if err != nil {
		return classify(err)
	}
	return expectAffected(result)
}
