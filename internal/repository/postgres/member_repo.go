package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"gatherly/internal/domain"
)

type groupMemberRepository struct {
	DB *sql.DB
}

func NewGroupMemberRepository(db *sql.DB) domain.GroupMemberRepository {
	return &groupMemberRepository{DB: db}
}

func (r *groupMemberRepository) Add(ctx context.Context, m *domain.GroupMember) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	query := `
		INSERT INTO group_members (id, group_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.DB.ExecContext(ctx, query, m.ID, m.GroupID, m.UserID, m.Role, m.JoinedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// Remove deletes one membership, refusing to leave the group without an
// admin. When the subject is an admin, every admin row of the group is
// locked before counting, so two co-admins racing to leave serialize and the
// second sees the first one gone.
func (r *groupMemberRepository) Remove(ctx context.Context, groupID, userID string) error {
	return runTx(ctx, r.DB, func(tx *sql.Tx) error {
		var role domain.GroupRole
		err := tx.QueryRowContext(ctx,
			`SELECT role FROM group_members WHERE group_id = $1 AND user_id = $2 FOR UPDATE`,
			groupID, userID).Scan(&role)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		if role == domain.GroupRoleAdmin {
			rows, err := tx.QueryContext(ctx,
				`SELECT user_id FROM group_members WHERE group_id = $1 AND role = 'admin' FOR UPDATE`,
				groupID)
			if err != nil {
				return err
			}
			admins := 0
			for rows.Next() {
				var id string
				if err := rows.Scan(&id); err != nil {
					rows.Close()
					return err
				}
				admins++
			}
			rows.Close()
			if err := rows.Err(); err != nil {
				return err
			}
			if admins == 1 {
				return domain.NewValidationError("membership", "cannot remove the only admin")
			}
		}
		_, err = tx.ExecContext(ctx,
			`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
		return err
	})
}

func (r *groupMemberRepository) GetRole(ctx context.Context, groupID, userID string) (domain.GroupRole, error) {
	var role domain.GroupRole
	err := r.DB.QueryRowContext(ctx,
		`SELECT role FROM group_members WHERE group_id = $1 AND user_id = $2`,
		groupID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return role, nil
}

func (r *groupMemberRepository) ListByGroupID(ctx context.Context, groupID string) ([]*domain.GroupMemberInfo, error) {
	query := `
		SELECT m.id, m.group_id, m.user_id, m.role, m.joined_at, p.name, p.email, p.avatar_url
		FROM group_members m
		JOIN profiles p ON p.id = m.user_id
		WHERE m.group_id = $1
		ORDER BY m.joined_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	members := make([]*domain.GroupMemberInfo, 0)
	for rows.Next() {
		m := &domain.GroupMemberInfo{}
		var avatar sql.NullString
		if err := rows.Scan(&m.ID, &m.GroupID, &m.UserID, &m.Role, &m.JoinedAt, &m.Name, &m.Email, &avatar); err != nil {
			return nil, err
		}
		if avatar.Valid {
			m.AvatarURL = &avatar.String
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *groupMemberRepository) CountByGroupID(ctx context.Context, groupID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM group_members WHERE group_id = $1`, groupID).Scan(&count)
	return count, err
}

func (r *groupMemberRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`,
		groupID, userID).Scan(&exists)
	return exists, err
}

func (r *groupMemberRepository) IsAdmin(ctx context.Context, groupID, userID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2 AND role = 'admin')`,
		groupID, userID).Scan(&exists)
	return exists, err
}
