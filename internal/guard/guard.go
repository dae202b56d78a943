// Package guard decides, per navigation, whether the stored session may enter
// a role-gated view.
package guard

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/newsboard/internal/apiclient"
	"github.com/and161185/newsboard/internal/errs"
	"github.com/and161185/newsboard/internal/model"
	"github.com/and161185/newsboard/internal/route"
	"github.com/and161185/newsboard/internal/session"
)

// LoginPath is where every rejected navigation is sent.
const LoginPath = route.Login

// Authenticator is the backend surface the guard needs.
type Authenticator interface {
	// Me validates the current access token by fetching the caller's record.
	Me(ctx context.Context) (model.User, error)
	// RefreshToken exchanges a refresh token for a new access token.
	RefreshToken(ctx context.Context, refresh string) (string, error)
}

// Verdict is the outcome of one guard evaluation.
type Verdict int

const (
	Authorized Verdict = iota
	NoSession          // no token, no user record, or unparsable user record
	WrongRole          // cached role outside the required set
	Rejected           // backend refused the token and refresh was impossible or failed
)

func (v Verdict) String() string {
	switch v {
	case Authorized:
		return "authorized"
	case NoSession:
		return "no-session"
	case WrongRole:
		return "wrong-role"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// Decision is the terminal state of a check.
type Decision struct {
	Verdict  Verdict
	Redirect string        // LoginPath unless Authorized
	Session  model.Session // the session in effect after the check
	Err      error         // why a Rejected check failed, if known
}

// Authorized reports whether the protected view may be rendered.
func (d Decision) Authorized() bool { return d.Verdict == Authorized }

// Guard evaluates sessions against role sets.
type Guard struct {
	store session.Store
	auth  Authenticator
	log   *zap.Logger
}

// New constructs a guard.
func New(store session.Store, auth Authenticator, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{store: store, auth: auth, log: log}
}

// Check runs the session check for a view requiring one of roles (empty means
// any authenticated user). A redirect never clears the stored session.
//
// The role test uses the locally cached user record, so a role changed by an
// admin is only seen after the next login.
func (g *Guard) Check(ctx context.Context, roles []model.Role) Decision {
	sess, err := g.store.Load(ctx)
	if err != nil {
		if errors.Is(err, errs.ErrCorruptSession) {
			g.log.Warn("stored user record unreadable", zap.Error(err))
		}
		return g.deny(NoSession, model.Session{})
	}

	if len(roles) > 0 && !sess.HasRole(roles) {
		return g.deny(WrongRole, sess)
	}

	_, err = g.auth.Me(apiclient.WithBearer(ctx, sess.AccessToken))
	if err == nil {
		return g.allow(sess, false)
	}
	if ctx.Err() != nil {
		return g.reject(sess, ctx.Err())
	}
	// any failure is treated as an expired token
	g.log.Debug("whoami failed", zap.Bool("token_rejected", apiclient.IsAuthFailure(err)), zap.Error(err))

	if sess.RefreshToken == "" {
		return g.reject(sess, err)
	}
	access, err := g.auth.RefreshToken(ctx, sess.RefreshToken)
	if err != nil || access == "" {
		if err == nil {
			err = errors.New("empty access token")
		}
		g.log.Debug("refresh failed", zap.Error(err))
		return g.reject(sess, fmt.Errorf("%w: %v", errs.ErrRefreshFailed, err))
	}
	sess.AccessToken = access
	if err := g.store.Save(ctx, sess); err != nil {
		g.log.Warn("persist refreshed token", zap.Error(err))
		return g.reject(sess, fmt.Errorf("save refreshed session: %w", err))
	}
	return g.allow(sess, true)
}

func (g *Guard) allow(sess model.Session, refreshed bool) Decision {
	g.log.Debug("guard", zap.Stringer("verdict", Authorized), zap.Bool("refreshed", refreshed),
		zap.String("user", sess.User.Username))
	return Decision{Verdict: Authorized, Session: sess}
}

func (g *Guard) reject(sess model.Session, err error) Decision {
	d := g.deny(Rejected, sess)
	d.Err = err
	return d
}

func (g *Guard) deny(v Verdict, sess model.Session) Decision {
	g.log.Debug("guard", zap.Stringer("verdict", v), zap.String("redirect", LoginPath))
	return Decision{Verdict: v, Redirect: LoginPath, Session: sess}
}
