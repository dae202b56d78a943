package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/newsboard/internal/errs"
	"github.com/and161185/newsboard/internal/model"
	"github.com/and161185/newsboard/internal/session"
)

// Store implements session.Store with one row per profile.
type Store struct {
	db      *DB
	profile string
}

var _ session.Store = (*Store)(nil)

// NewStore constructs a store bound to profile.
func NewStore(db *DB, profile string) *Store { return &Store{db: db, profile: profile} }

// Load selects the profile's row.
func (s *Store) Load(ctx context.Context) (model.Session, error) {
	const q = `SELECT access_token, refresh_token, user_json FROM client_sessions WHERE profile=$1`
	var r session.Record
	if err := s.db.Pool.QueryRow(ctx, q, s.profile).Scan(&r.Access, &r.Refresh, &r.User); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Session{}, errs.ErrNoSession
		}
		return model.Session{}, err
	}
	return session.Decode(r)
}

// Save upserts the profile's row.
func (s *Store) Save(ctx context.Context, sess model.Session) error {
	r, err := session.Encode(sess)
	if err != nil {
		return err
	}
	const q = `INSERT INTO client_sessions (profile, access_token, refresh_token, user_json) VALUES ($1, $2, $3, $4) ON CONFLICT (profile) DO UPDATE SET access_token = EXCLUDED.access_token, refresh_token = EXCLUDED.refresh_token, user_json = EXCLUDED.user_json, updated_at = now()`
	_, err = s.db.Pool.Exec(ctx, q, s.profile, r.Access, r.Refresh, r.User)
	return err
}

// Clear deletes the profile's row.
func (s *Store) Clear(ctx context.Context) error {
	const q = `DELETE FROM client_sessions WHERE profile=$1`
	_, err := s.db.Pool.Exec(ctx, q, s.profile)
	return err
}
