package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"gatherly/internal/domain"
)

type messageRepository struct {
	DB *sql.DB
}

func NewMessageRepository(db *sql.DB) domain.MessageRepository {
	return &messageRepository{DB: db}
}

// Create inserts the message in the same transaction that verifies the
// author's membership. The membership row is locked, so a concurrent removal
// cannot slip between the guard and the insert.
func (r *messageRepository) Create(ctx context.Context, m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return runTx(ctx, r.DB, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2 FOR UPDATE`,
			m.GroupID, m.UserID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.AuthorizationError{Entity: "message", Operation: "insert"}
		}
		if err != nil {
			return err
		}
		query := `
			INSERT INTO messages (id, group_id, user_id, content, is_deleted, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		if _, err := tx.ExecContext(ctx, query, m.ID, m.GroupID, m.UserID, m.Content, m.IsDeleted, m.CreatedAt); err != nil {
			return mapWriteError(err)
		}
		return nil
	})
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	query := `
		SELECT id, group_id, user_id, content, is_deleted, created_at
		FROM messages
		WHERE id = $1
	`
	m := &domain.Message{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.GroupID, &m.UserID, &m.Content, &m.IsDeleted, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// ListByGroupID pages backwards through non-deleted history. The newest
// window is selected first, then reversed so callers get oldest-first order.
func (r *messageRepository) ListByGroupID(ctx context.Context, groupID string, params domain.HistoryParams) ([]*domain.Message, error) {
	params = params.Normalize()
	query := `
		SELECT id, group_id, user_id, content, is_deleted, created_at
		FROM messages
		WHERE group_id = $1 AND is_deleted = FALSE
	`
	args := []interface{}{groupID}
	if params.BeforeID != "" {
		query += ` AND created_at < (SELECT created_at FROM messages WHERE id = $2)`
		args = append(args, params.BeforeID)
	}
	args = append(args, params.Limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	msgs := make([]*domain.Message, 0)
	for rows.Next() {
		m := &domain.Message{}
		if err := rows.Scan(&m.ID, &m.GroupID, &m.UserID, &m.Content, &m.IsDeleted, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *messageRepository) SoftDelete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `UPDATE messages SET is_deleted = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
