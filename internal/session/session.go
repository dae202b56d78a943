// Package session persists the client's authentication state between invocations.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/and161185/newsboard/internal/errs"
	"github.com/and161185/newsboard/internal/model"
)

// Store reads and writes the locally persisted session. No freshness check is
// done here; only the backend decides whether a token is still valid.
type Store interface {
	// Load returns errs.ErrNoSession when nothing usable is stored and
	// errs.ErrCorruptSession when the user record cannot be parsed.
	Load(ctx context.Context) (model.Session, error)
	// Save overwrites the stored session wholesale.
	Save(ctx context.Context, s model.Session) error
	// Clear removes every stored key.
	Clear(ctx context.Context) error
}

// Record is the raw three-key form of a session: two tokens and the serialized user.
type Record struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    string `json:"user"`
}

// Encode serializes s into its stored form.
func Encode(s model.Session) (Record, error) {
	u, err := json.Marshal(s.User)
	if err != nil {
		return Record{}, fmt.Errorf("encode user: %w", err)
	}
	return Record{Access: s.AccessToken, Refresh: s.RefreshToken, User: string(u)}, nil
}

// Decode parses a stored record. A record without an access token or a user
// is reported as errs.ErrNoSession.
func Decode(r Record) (model.Session, error) {
	if r.Access == "" || r.User == "" || r.User == "null" {
		return model.Session{}, errs.ErrNoSession
	}
	var u model.User
	if err := json.Unmarshal([]byte(r.User), &u); err != nil {
		return model.Session{}, fmt.Errorf("%w: %v", errs.ErrCorruptSession, err)
	}
	return model.Session{AccessToken: r.Access, RefreshToken: r.Refresh, User: u}, nil
}
