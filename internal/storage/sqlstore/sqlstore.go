// Package sqlstore provides the SQLite-backed event store.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/kipper0508/escape-bot/internal/model"
	"github.com/kipper0508/escape-bot/internal/storage"
	"github.com/kipper0508/escape-bot/internal/validate"
)

const dsnParams = "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"

const eventColumns = `id, title, description, location, event_time, remind_before_minutes,
	reminded, created_at, creator_id, creator_kind`

// Store is an event store backed by database/sql.
type Store struct {
	sql *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the SQLite database at path and migrates it.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// sqlite serializes writers; a single connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if err := MigrateUp(db, migrationFiles, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run event migrations: %w", err)
	}
	return New(db), nil
}

// New wraps an already migrated database handle.
func New(db *sql.DB) *Store {
	return &Store{sql: db, now: time.Now}
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.sql.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.sql.PingContext(ctx)
}

// Create stores a new event with a generated key.
func (s *Store) Create(ctx context.Context, event *model.Event) error {
	if err := validate.Struct(event); err != nil {
		return err
	}
	if event.Key == "" {
		event.Key = model.GenerateEventKey(uuid.New().String())
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now()
	}

	_, err := s.sql.ExecContext(ctx,
		`insert into events (`+eventColumns+`) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID(), event.Title, event.Description, event.Location,
		event.EventTime.Unix(), event.RemindBeforeMinutes, event.Reminded,
		event.CreatedAt.Unix(), event.CreatorID, string(event.CreatorKind),
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// Get retrieves an event by id.
func (s *Store) Get(ctx context.Context, id string) (*model.Event, error) {
	row := s.sql.QueryRowContext(ctx, `select `+eventColumns+` from events where id = ?`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrKeyNotFound
	}
	return e, err
}

// List retrieves all events ordered by event time.
func (s *Store) List(ctx context.Context) ([]*model.Event, error) {
	return s.query(ctx, `select `+eventColumns+` from events order by event_time`)
}

// FindByCreator retrieves every event owned by the creator.
func (s *Store) FindByCreator(ctx context.Context, creator model.Creator) ([]*model.Event, error) {
	return s.query(ctx,
		`select `+eventColumns+` from events
		where creator_kind = ? and creator_id = ? order by event_time`,
		string(creator.Kind), creator.ID)
}

// FindUpcoming retrieves the creator's events after now, earliest first.
func (s *Store) FindUpcoming(ctx context.Context, creator model.Creator, now time.Time) ([]*model.Event, error) {
	return s.query(ctx,
		`select `+eventColumns+` from events
		where creator_kind = ? and creator_id = ? and event_time > ? order by event_time`,
		string(creator.Kind), creator.ID, now.Unix())
}

// FindHistory retrieves the creator's events before now, earliest first.
func (s *Store) FindHistory(ctx context.Context, creator model.Creator, now time.Time) ([]*model.Event, error) {
	return s.query(ctx,
		`select `+eventColumns+` from events
		where creator_kind = ? and creator_id = ? and event_time < ? order by event_time`,
		string(creator.Kind), creator.ID, now.Unix())
}

// FindNeedingReminder retrieves future group events not yet reminded.
func (s *Store) FindNeedingReminder(ctx context.Context, now time.Time) ([]*model.Event, error) {
	return s.query(ctx,
		`select `+eventColumns+` from events
		where reminded = 0 and creator_kind = ? and event_time > ? order by event_time`,
		string(model.CreatorGroup), now.Unix())
}

// MarkReminded flips the reminded flag. It is a no-op for events already reminded.
func (s *Store) MarkReminded(ctx context.Context, id string) error {
	res, err := s.sql.ExecContext(ctx, `update events set reminded = 1 where id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark event reminded: %w", err)
	}
	return requireRow(res)
}

// Delete removes an event by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.sql.ExecContext(ctx, `delete from events where id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return requireRow(res)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]*model.Event, error) {
	rows, err := s.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (*model.Event, error) {
	var (
		e                  model.Event
		id, kind           string
		eventTime, created int64
	)
	err := row.Scan(&id, &e.Title, &e.Description, &e.Location, &eventTime,
		&e.RemindBeforeMinutes, &e.Reminded, &created, &e.CreatorID, &kind)
	if err != nil {
		return nil, err
	}
	e.Key = model.GenerateEventKey(id)
	e.EventTime = time.Unix(eventTime, 0)
	e.CreatedAt = time.Unix(created, 0)
	e.CreatorKind = model.CreatorKind(kind)
	return &e, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return storage.ErrKeyNotFound
	}
	return nil
}
