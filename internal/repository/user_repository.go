package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/photo-share-backend/internal/model"
)

// UserRepo persists account records in the 'users' table.  Token columns are
// nullable: an account that never logged in, or whose refresh token was
// invalidated, carries NULL in both.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,username,email,password_hash,role,confirmed,access_token,refresh_token,created_at,updated_at"

// Create inserts a new unconfirmed user and returns its ID.  The password
// must already be hashed by the caller.
func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash string, role model.Role) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role, confirmed) VALUES (?,?,?,?,FALSE)",
		username, email, passwordHash, string(role))
	if err != nil {
		// MySQL reports unique violations as error 1062; the message names
		// the violated key, which tells email and username apart.
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") {
			if strings.Contains(msg, "username") {
				return 0, ErrUsernameExists
			}
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// UpdateTokens stores a freshly issued access/refresh pair, superseding
// whatever pair was stored before.
func (r *UserRepo) UpdateTokens(ctx context.Context, id uint64, access, refresh string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET access_token=?, refresh_token=?, updated_at=NOW() WHERE id=?",
		access, refresh, id)
	return err
}

// ClearTokens nulls out both stored tokens, forcing a re-login.  Used when a
// superseded refresh token is replayed.
func (r *UserRepo) ClearTokens(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET access_token=NULL, refresh_token=NULL, updated_at=NOW() WHERE id=?", id)
	return err
}

// SetConfirmed marks the account's email address as confirmed.
func (r *UserRepo) SetConfirmed(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET confirmed=TRUE, updated_at=NOW() WHERE email=?", email)
	return err
}

// UpdatePassword overwrites the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=NOW() WHERE id=?", passwordHash, id)
	return err
}

// scanOne maps a single row onto a model.User.  sql.ErrNoRows passes through
// untouched so callers can translate it to their own "unknown user" error.
func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var (
		u       model.User
		role    string
		access  sql.NullString
		refresh sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role,
		&u.Confirmed, &access, &refresh, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if parsed, ok := model.ParseRole(role); ok {
		u.Role = parsed
	} else {
		u.Role = model.RoleUser
	}
	u.AccessToken = access.String
	u.RefreshToken = refresh.String
	return u, nil
}
