package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gatherly/internal/domain"
)

type profileRepository struct {
	DB *sql.DB
}

func NewProfileRepository(db *sql.DB) domain.ProfileRepository {
	return &profileRepository{DB: db}
}

const profileColumns = `id, email, name, role, avatar_url, bio, location, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (*domain.Profile, error) {
	p := &domain.Profile{}
	var avatar, bio, location sql.NullString
	err := row.Scan(&p.ID, &p.Email, &p.Name, &p.Role, &avatar, &bio, &location, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if avatar.Valid {
		p.AvatarURL = &avatar.String
	}
	if bio.Valid {
		p.Bio = &bio.String
	}
	if location.Valid {
		p.Location = &location.String
	}
	return p, nil
}

func (r *profileRepository) CreateIfAbsent(ctx context.Context, p *domain.Profile) (bool, error) {
	query := `
		INSERT INTO profiles (id, email, name, role, avatar_url, bio, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	result, err := r.DB.ExecContext(ctx, query,
		p.ID, p.Email, p.Name, p.Role, p.AvatarURL, p.Bio, p.Location, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return false, mapWriteError(err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	p, err := scanProfile(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`
	p, err := scanProfile(r.DB.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *profileRepository) Update(ctx context.Context, id string, upd domain.ProfileUpdate) (*domain.Profile, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{}
	n := 1
	if upd.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", n))
		args = append(args, *upd.Name)
		n++
	}
	if upd.Bio != nil {
		setClauses = append(setClauses, fmt.Sprintf("bio = $%d", n))
		args = append(args, *upd.Bio)
		n++
	}
	if upd.Location != nil {
		setClauses = append(setClauses, fmt.Sprintf("location = $%d", n))
		args = append(args, *upd.Location)
		n++
	}
	if upd.AvatarURL != nil {
		setClauses = append(setClauses, fmt.Sprintf("avatar_url = $%d", n))
		args = append(args, *upd.AvatarURL)
		n++
	}
	if n == 1 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE profiles SET %s
		WHERE id = $%d
		RETURNING `+profileColumns,
		strings.Join(setClauses, ", "), n)
	p, err := scanProfile(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, mapWriteError(err)
	}
	return p, nil
}

func (r *profileRepository) UpdateRole(ctx context.Context, id string, role domain.ProfileRole) (*domain.Profile, error) {
	query := `
		UPDATE profiles SET role = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + profileColumns
	p, err := scanProfile(r.DB.QueryRowContext(ctx, query, id, role))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, mapWriteError(err)
	}
	return p, nil
}

// DeleteCascade removes the profile and everything hanging off it in one
// transaction: chat and memberships in groups it created, those groups,
// rsvps on events it organizes, those events, then the profile's own rows.
func (r *profileRepository) DeleteCascade(ctx context.Context, id string) error {
	return runTx(ctx, r.DB, func(tx *sql.Tx) error {
		steps := []struct {
			ref   string
			query string
		}{
			{"messages in owned groups", `DELETE FROM messages WHERE group_id IN (SELECT id FROM groups WHERE creator_id = $1)`},
			{"memberships in owned groups", `DELETE FROM group_members WHERE group_id IN (SELECT id FROM groups WHERE creator_id = $1)`},
			{"owned groups", `DELETE FROM groups WHERE creator_id = $1`},
			{"rsvps on owned events", `DELETE FROM rsvps WHERE event_id IN (SELECT id FROM events WHERE organizer_id = $1)`},
			{"owned events", `DELETE FROM events WHERE organizer_id = $1`},
			{"authored messages", `DELETE FROM messages WHERE user_id = $1`},
			{"memberships", `DELETE FROM group_members WHERE user_id = $1`},
			{"rsvps", `DELETE FROM rsvps WHERE user_id = $1`},
		}
		for _, step := range steps {
			if _, err := tx.ExecContext(ctx, step.query, id); err != nil {
				return &domain.ReferentialError{Reference: "cascade failed: " + step.ref}
			}
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
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
