package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gatherly/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{DB: db}
}

const eventColumns = `id, organizer_id, title, description, datetime, end_datetime, location, city, category, capacity, status, is_trending, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*domain.Event, error) {
	e := &domain.Event{}
	var endsAt sql.NullTime
	var capacity sql.NullInt64
	err := row.Scan(&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.StartsAt, &endsAt,
		&e.Location, &e.City, &e.Category, &capacity, &e.Status, &e.IsTrending, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if endsAt.Valid {
		e.EndsAt = &endsAt.Time
	}
	if capacity.Valid {
		c := int(capacity.Int64)
		e.Capacity = &c
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	query := `
		INSERT INTO events (id, organizer_id, title, description, datetime, end_datetime, location, city, category, capacity, status, is_trending, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.DB.ExecContext(ctx, query,
		e.ID, e.OrganizerID, e.Title, e.Description, e.StartsAt, e.EndsAt,
		e.Location, e.City, e.Category, e.Capacity, e.Status, e.IsTrending, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// visibilityClause applies the event select rule as a row filter: active
// rows for everyone, any status for the organizer.
func visibilityClause(viewer domain.Principal, col string, args *[]interface{}) string {
	if viewer.IsAnonymous() {
		return col + "status = 'active'"
	}
	*args = append(*args, viewer.ID)
	return fmt.Sprintf("(%[1]sstatus = 'active' OR %[1]sorganizer_id = $%[2]d)", col, len(*args))
}

// eventFilterClauses builds WHERE clauses for filter; col qualifies column
// names for joined queries ("" or "e.").
func eventFilterClauses(filter domain.EventFilter, col string, args *[]interface{}) []string {
	var where []string
	if filter.City != "" {
		*args = append(*args, "%"+filter.City+"%")
		where = append(where, fmt.Sprintf("%scity ILIKE $%d", col, len(*args)))
	}
	if filter.Category != "" {
		*args = append(*args, filter.Category)
		where = append(where, fmt.Sprintf("%scategory = $%d", col, len(*args)))
	}
	if filter.Search != "" {
		*args = append(*args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(%[1]stitle ILIKE $%[2]d OR %[1]sdescription ILIKE $%[2]d)", col, len(*args)))
	}
	if !filter.After.IsZero() {
		*args = append(*args, filter.After)
		where = append(where, fmt.Sprintf("%sdatetime >= $%d", col, len(*args)))
	}
	return where
}

func (r *eventRepository) List(ctx context.Context, viewer domain.Principal, filter domain.EventFilter) ([]*domain.Event, error) {
	args := []interface{}{}
	where := []string{visibilityClause(viewer, "", &args)}
	where = append(where, eventFilterClauses(filter, "", &args)...)
	query := `SELECT ` + eventColumns + ` FROM events WHERE ` + strings.Join(where, " AND ") + ` ORDER BY datetime ASC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) ListByOrganizerID(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE organizer_id = $1 ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) ListTrending(ctx context.Context, after time.Time, limit int) ([]*domain.EventWithStats, error) {
	query := `
		SELECT e.id, e.organizer_id, e.title, e.description, e.datetime, e.end_datetime, e.location, e.city, e.category, e.capacity, e.status, e.is_trending, e.created_at, e.updated_at,
		       COUNT(r.id) AS rsvp_count, p.name, p.email
		FROM events e
		JOIN profiles p ON p.id = e.organizer_id
		LEFT JOIN rsvps r ON r.event_id = e.id
		WHERE e.status = 'active' AND e.datetime >= $1
		GROUP BY e.id, p.name, p.email
		ORDER BY e.is_trending DESC, COUNT(r.id) DESC
		LIMIT $2
	`
	return r.queryStats(ctx, query, after, limit)
}

func (r *eventRepository) queryStats(ctx context.Context, query string, args ...interface{}) ([]*domain.EventWithStats, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.EventWithStats, 0)
	for rows.Next() {
		s := &domain.EventWithStats{}
		var endsAt sql.NullTime
		var capacity sql.NullInt64
		if err := rows.Scan(&s.ID, &s.OrganizerID, &s.Title, &s.Description, &s.StartsAt, &endsAt,
			&s.Location, &s.City, &s.Category, &capacity, &s.Status, &s.IsTrending, &s.CreatedAt, &s.UpdatedAt,
			&s.RSVPCount, &s.OrganizerName, &s.OrganizerEmail); err != nil {
			return nil, err
		}
		if endsAt.Valid {
			s.EndsAt = &endsAt.Time
		}
		if capacity.Valid {
			c := int(capacity.Int64)
			s.Capacity = &c
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *eventRepository) ListWithStats(ctx context.Context, viewer domain.Principal, filter domain.EventFilter) ([]*domain.EventWithStats, error) {
	args := []interface{}{}
	where := []string{visibilityClause(viewer, "e.", &args)}
	where = append(where, eventFilterClauses(filter, "e.", &args)...)
	query := `
		SELECT e.id, e.organizer_id, e.title, e.description, e.datetime, e.end_datetime, e.location, e.city, e.category, e.capacity, e.status, e.is_trending, e.created_at, e.updated_at,
		       COUNT(r.id) AS rsvp_count, p.name, p.email
		FROM events e
		JOIN profiles p ON p.id = e.organizer_id
		LEFT JOIN rsvps r ON r.event_id = e.id
		WHERE ` + strings.Join(where, " AND ") + `
		GROUP BY e.id, p.name, p.email
		ORDER BY e.datetime ASC
	`
	return r.queryStats(ctx, query, args...)
}

func (r *eventRepository) Update(ctx context.Context, id string, upd domain.EventUpdate) (*domain.Event, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{}
	n := 1
	add := func(col string, val interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, n))
		args = append(args, val)
		n++
	}
	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.StartsAt != nil {
		add("datetime", *upd.StartsAt)
	}
	if upd.EndsAt != nil {
		add("end_datetime", *upd.EndsAt)
	}
	if upd.Location != nil {
		add("location", *upd.Location)
	}
	if upd.City != nil {
		add("city", *upd.City)
	}
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.Capacity != nil {
		add("capacity", *upd.Capacity)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if n == 1 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE events SET %s
		WHERE id = $%d
		RETURNING `+eventColumns,
		strings.Join(setClauses, ", "), n)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, mapWriteError(err)
	}
	return e, nil
}

// Delete removes the event and its rsvps atomically.
func (r *eventRepository) Delete(ctx context.Context, id string) error {
	return runTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM rsvps WHERE event_id = $1`, id); err != nil {
			return &domain.ReferentialError{Reference: "cascade failed: rsvps"}
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
		if err != nil {
			return mapWriteError(err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}
