package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"gatherly/internal/domain"
)

type rsvpRepository struct {
	DB *sql.DB
}

func NewRSVPRepository(db *sql.DB) domain.RSVPRepository {
	return &rsvpRepository{DB: db}
}

// Create inserts the rsvp in the same transaction that checks the event.
// The event row is locked, so racing rsvps for the last seat serialize and
// the capacity count stays accurate.
func (r *rsvpRepository) Create(ctx context.Context, rsvp *domain.RSVP) error {
	if rsvp.ID == "" {
		rsvp.ID = uuid.NewString()
	}
	return runTx(ctx, r.DB, func(tx *sql.Tx) error {
		var status domain.EventStatus
		var capacity sql.NullInt64
		err := tx.QueryRowContext(ctx,
			`SELECT status, capacity FROM events WHERE id = $1 FOR UPDATE`,
			rsvp.EventID).Scan(&status, &capacity)
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.ReferentialError{Reference: "event does not exist"}
		}
		if err != nil {
			return err
		}
		if status != domain.EventStatusActive {
			return domain.NewValidationError("event", "cannot rsvp to an inactive event")
		}
		if capacity.Valid {
			var count int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM rsvps WHERE event_id = $1`, rsvp.EventID).Scan(&count); err != nil {
				return err
			}
			if count >= int(capacity.Int64) {
				return domain.NewValidationError("event", "event is at full capacity")
			}
		}
		query := `
			INSERT INTO rsvps (id, event_id, user_id, created_at)
			VALUES ($1, $2, $3, $4)
		`
		if _, err := tx.ExecContext(ctx, query, rsvp.ID, rsvp.EventID, rsvp.UserID, rsvp.CreatedAt); err != nil {
			return mapWriteError(err)
		}
		return nil
	})
}

func (r *rsvpRepository) Delete(ctx context.Context, eventID, userID string) error {
	query := `DELETE FROM rsvps WHERE event_id = $1 AND user_id = $2`
	result, err := r.DB.ExecContext(ctx, query, eventID, userID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *rsvpRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.RSVP, error) {
	query := `
		SELECT id, event_id, user_id, created_at
		FROM rsvps
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	rsvps := make([]*domain.RSVP, 0)
	for rows.Next() {
		rsvp := &domain.RSVP{}
		if err := rows.Scan(&rsvp.ID, &rsvp.EventID, &rsvp.UserID, &rsvp.CreatedAt); err != nil {
			return nil, err
		}
		rsvps = append(rsvps, rsvp)
	}
	return rsvps, rows.Err()
}

func (r *rsvpRepository) CountByEventID(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM rsvps WHERE event_id = $1`, eventID).Scan(&count)
	return count, err
}

func (r *rsvpRepository) Exists(ctx context.Context, eventID, userID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM rsvps WHERE event_id = $1 AND user_id = $2)`,
		eventID, userID).Scan(&exists)
	return exists, err
}
