package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Roles stored in the users.role enum column.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

// User mirrors the 'users' table.  RefreshToken is the single current
// refresh token slot: issuing a new token overwrites it, nil means no live
// session.
type User struct {
	ID           uint64
	Username     string
	Email        string
	PasswordHash string
	Avatar       string
	RefreshToken *string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user with the default role and returns the stored record.
// The password must already be hashed by the caller.
func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash, avatar string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password, avatar, role) VALUES (?,?,?,?,?)",
		username, email, passwordHash, avatar, RoleUser)
	if err != nil {
		// MySQL 1062 = duplicate entry on the unique email index
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return User{}, ErrEmailExists
		}
		return User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,username,email,password,avatar,refresh_token,role,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,username,email,password,avatar,refresh_token,role,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id))
}

// UpdateRefreshToken overwrites the user's refresh token slot.  Passing nil
// clears the slot, which revokes the current session.
func (r *UserRepo) UpdateRefreshToken(ctx context.Context, userID uint64, token *string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token=?, updated_at=CURRENT_TIMESTAMP WHERE id=?",
		token, userID)
	return err
}

func (r *UserRepo) scanOne(row *sql.Row) (User, error) {
	var (
		u         User
		avatar    sql.NullString
		refresh   sql.NullString
		updatedAt sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &avatar, &refresh, &u.Role, &u.CreatedAt, &updatedAt)
	if err != nil {
		return User{}, err
	}
	u.Avatar = avatar.String
	if refresh.Valid {
		u.RefreshToken = &refresh.String
	}
	if updatedAt.Valid {
		u.UpdatedAt = &updatedAt.Time
	}
	return u, nil
}
