package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"gatherly/internal/domain"
)

type groupRepository struct {
	DB *sql.DB
}

func NewGroupRepository(db *sql.DB) domain.GroupRepository {
	return &groupRepository{DB: db}
}

const groupColumns = `id, creator_id, name, description, category, avatar_url, is_public, created_at, updated_at`

func scanGroup(row interface{ Scan(...any) error }) (*domain.Group, error) {
	g := &domain.Group{}
	var desc, category, avatar sql.NullString
	err := row.Scan(&g.ID, &g.CreatorID, &g.Name, &desc, &category, &avatar, &g.IsPublic, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		g.Description = &desc.String
	}
	if category.Valid {
		g.Category = &category.String
	}
	if avatar.Valid {
		g.AvatarURL = &avatar.String
	}
	return g, nil
}

// Create inserts the group and the creator's admin membership in one
// transaction. The membership is system-performed provisioning, not a
// user-authorizable insert.
func (r *groupRepository) Create(ctx context.Context, g *domain.Group) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return runTx(ctx, r.DB, func(tx *sql.Tx) error {
		query := `
			INSERT INTO groups (id, creator_id, name, description, category, avatar_url, is_public, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		if _, err := tx.ExecContext(ctx, query,
			g.ID, g.CreatorID, g.Name, g.Description, g.Category, g.AvatarURL, g.IsPublic, g.CreatedAt, g.UpdatedAt); err != nil {
			return mapWriteError(err)
		}
		member := `
			INSERT INTO group_members (id, group_id, user_id, role, joined_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		if _, err := tx.ExecContext(ctx, member,
			uuid.NewString(), g.ID, g.CreatorID, domain.GroupRoleAdmin, g.CreatedAt); err != nil {
			return mapWriteError(err)
		}
		return nil
	})
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE id = $1`
	g, err := scanGroup(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

// groupVisibility applies the group select rule as a row filter: public
// rows for everyone, private rows for their creator.
func groupVisibility(viewer domain.Principal, col string, args *[]interface{}) string {
	if viewer.IsAnonymous() {
		return col + "is_public = TRUE"
	}
	*args = append(*args, viewer.ID)
	return fmt.Sprintf("(%[1]sis_public = TRUE OR %[1]screator_id = $%[2]d)", col, len(*args))
}

func groupFilterClauses(filter domain.GroupFilter, col string, args *[]interface{}) []string {
	var where []string
	if filter.Category != "" {
		*args = append(*args, filter.Category)
		where = append(where, fmt.Sprintf("%scategory = $%d", col, len(*args)))
	}
	if filter.Search != "" {
		*args = append(*args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(%[1]sname ILIKE $%[2]d OR %[1]sdescription ILIKE $%[2]d)", col, len(*args)))
	}
	return where
}

func (r *groupRepository) List(ctx context.Context, viewer domain.Principal, filter domain.GroupFilter) ([]*domain.Group, error) {
	args := []interface{}{}
	where := []string{groupVisibility(viewer, "", &args)}
	where = append(where, groupFilterClauses(filter, "", &args)...)
	query := `SELECT ` + groupColumns + ` FROM groups WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_at DESC`
	return r.queryGroups(ctx, query, args...)
}

func (r *groupRepository) ListByMemberID(ctx context.Context, userID string) ([]*domain.Group, error) {
	query := `
		SELECT g.id, g.creator_id, g.name, g.description, g.category, g.avatar_url, g.is_public, g.created_at, g.updated_at
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY m.joined_at DESC
	`
	return r.queryGroups(ctx, query, userID)
}

func (r *groupRepository) queryGroups(ctx context.Context, query string, args ...interface{}) ([]*domain.Group, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	groups := make([]*domain.Group, 0)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *groupRepository) Update(ctx context.Context, id string, upd domain.GroupUpdate) (*domain.Group, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{}
	n := 1
	add := func(col string, val interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, n))
		args = append(args, val)
		n++
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.AvatarURL != nil {
		add("avatar_url", *upd.AvatarURL)
	}
	if upd.IsPublic != nil {
		add("is_public", *upd.IsPublic)
	}
	if n == 1 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE groups SET %s
		WHERE id = $%d
		RETURNING `+groupColumns,
		strings.Join(setClauses, ", "), n)
	g, err := scanGroup(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, mapWriteError(err)
	}
	return g, nil
}

// Delete removes the group, its memberships and its messages atomically.
func (r *groupRepository) Delete(ctx context.Context, id string) error {
	return runTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE group_id = $1`, id); err != nil {
			return &domain.ReferentialError{Reference: "cascade failed: messages"}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = $1`, id); err != nil {
			return &domain.ReferentialError{Reference: "cascade failed: group_members"}
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
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

func (r *groupRepository) ListWithStats(ctx context.Context, viewer domain.Principal, filter domain.GroupFilter) ([]*domain.GroupWithStats, error) {
	args := []interface{}{}
	where := []string{groupVisibility(viewer, "g.", &args)}
	where = append(where, groupFilterClauses(filter, "g.", &args)...)
	query := `
		SELECT g.id, g.creator_id, g.name, g.description, g.category, g.avatar_url, g.is_public, g.created_at, g.updated_at,
		       COUNT(m.id) AS member_count, p.name
		FROM groups g
		JOIN profiles p ON p.id = g.creator_id
		LEFT JOIN group_members m ON m.group_id = g.id
		WHERE ` + strings.Join(where, " AND ") + `
		GROUP BY g.id, p.name
		ORDER BY g.created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.GroupWithStats, 0)
	for rows.Next() {
		s := &domain.GroupWithStats{}
		var desc, category, avatar sql.NullString
		if err := rows.Scan(&s.ID, &s.CreatorID, &s.Name, &desc, &category, &avatar, &s.IsPublic,
			&s.CreatedAt, &s.UpdatedAt, &s.MemberCount, &s.CreatorName); err != nil {
			return nil, err
		}
		if desc.Valid {
			s.Description = &desc.String
		}
		if category.Valid {
			s.Category = &category.String
		}
		if avatar.Valid {
			s.AvatarURL = &avatar.String
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
