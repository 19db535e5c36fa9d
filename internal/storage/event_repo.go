package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kipper0508/escape-bot/internal/match"
	"github.com/kipper0508/escape-bot/internal/model"
	"github.com/kipper0508/escape-bot/internal/validate"
)

// EventRepo provides operations for Event entities.
type EventRepo struct {
	db  *DB
	now func() time.Time
}

// NewEventRepo creates a new event repository.
func NewEventRepo(db *DB) *EventRepo {
	return &EventRepo{db: db, now: time.Now}
}

// Create stores a new event with a generated key.
func (r *EventRepo) Create(ctx context.Context, event *model.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate.Struct(event); err != nil {
		return err
	}
	if event.Key == "" {
		event.Key = model.GenerateEventKey(uuid.New().String())
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.now()
	}
	return r.db.Set(event)
}

// Get retrieves an event by id.
func (r *EventRepo) Get(ctx context.Context, id string) (*model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	event := &model.Event{}
	if err := r.db.Get(model.GenerateEventKey(id), event); err != nil {
		return nil, err
	}
	return event, nil
}

// List retrieves all events.
func (r *EventRepo) List(ctx context.Context) ([]*model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return GetAllByPrefix(r.db, model.PrefixEvent+":", func() *model.Event {
		return &model.Event{}
	})
}

// FindByCreator retrieves every event owned by the creator.
func (r *EventRepo) FindByCreator(ctx context.Context, creator model.Creator) ([]*model.Event, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	var result []*model.Event
	for _, e := range all {
		if e.OwnedBy(creator) {
			result = append(result, e)
		}
	}
	return result, nil
}

// FindUpcoming retrieves the creator's events after now, earliest first.
func (r *EventRepo) FindUpcoming(ctx context.Context, creator model.Creator, now time.Time) ([]*model.Event, error) {
	events, err := r.FindByCreator(ctx, creator)
	if err != nil {
		return nil, err
	}
	return match.Upcoming(events, now), nil
}

// FindHistory retrieves the creator's events before now, earliest first.
func (r *EventRepo) FindHistory(ctx context.Context, creator model.Creator, now time.Time) ([]*model.Event, error) {
	events, err := r.FindByCreator(ctx, creator)
	if err != nil {
		return nil, err
	}
	return match.History(events, now), nil
}

// FindNeedingReminder retrieves future group events not yet reminded.
func (r *EventRepo) FindNeedingReminder(ctx context.Context, now time.Time) ([]*model.Event, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	var result []*model.Event
	for _, e := range all {
		if !e.Reminded && e.CreatorKind == model.CreatorGroup && e.EventTime.After(now) {
			result = append(result, e)
		}
	}
	return match.Upcoming(result, now), nil
}

// MarkReminded flips the reminded flag. It is a no-op for events already reminded.
func (r *EventRepo) MarkReminded(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return Update(r.db, model.GenerateEventKey(id), func() *model.Event {
		return &model.Event{}
	}, func(e *model.Event) error {
		e.Reminded = true
		return nil
	})
}

// Delete removes an event by id.
func (r *EventRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Delete(model.GenerateEventKey(id))
}

// Ping reports whether the underlying database is usable.
func (r *EventRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
