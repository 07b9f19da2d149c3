package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/photo-share-backend/internal/model"
)

// BanRepo persists revoked access tokens in the 'ban_list' table.  Rows are
// append-only: logout and ban insert, the expiry sweeper deletes, nothing
// updates in place.
type BanRepo struct{ DB *sql.DB }

func NewBanRepo(db *sql.DB) *BanRepo { return &BanRepo{DB: db} }

// Add appends a revocation entry for the given access token.
func (r *BanRepo) Add(ctx context.Context, accessToken, reason string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO ban_list (access_token, reason) VALUES (?,?)", accessToken, reason)
	return err
}

// All returns every current revocation entry.  The ban cache calls this to
// build its snapshot; the sweeper calls it to find aged-out rows.
func (r *BanRepo) All(ctx context.Context) ([]model.BanRecord, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, access_token, reason FROM ban_list")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.BanRecord
	for rows.Next() {
		var rec model.BanRecord
		if err := rows.Scan(&rec.ID, &rec.AccessToken, &rec.Reason); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Exists reports whether the given access token has a revocation entry.
// Used by the diagnostics endpoint; the request path goes through the cache.
func (r *BanRepo) Exists(ctx context.Context, accessToken string) (bool, error) {
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM ban_list WHERE access_token=? LIMIT 1", accessToken).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Remove deletes the revocation entry for the given access token.
func (r *BanRepo) Remove(ctx context.Context, accessToken string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM ban_list WHERE access_token=?", accessToken)
	return err
}
