package view

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/newsboard/internal/apiclient"
	"github.com/and161185/newsboard/internal/errs"
	"github.com/and161185/newsboard/internal/model"
	"github.com/and161185/newsboard/internal/route"
)

// Login exchanges credentials for a session.
type Login struct {
	env *Env
}

// NewLogin builds the login page.
func NewLogin(env *Env) *Login { return &Login{env: env} }

func (l *Login) Mount(context.Context) (string, error) { return "", nil }

// Submit logs in, persists the session and returns the landing page for the
// user's role.
func (l *Login) Submit(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", fmt.Errorf("%w: username and password are required", errs.ErrValidation)
	}
	tp, err := l.env.API.ObtainToken(ctx, username, password)
	if err != nil {
		return "", err
	}
	u, err := l.env.API.Me(apiclient.WithBearer(ctx, tp.Access))
	if err != nil {
		return "", err
	}
	sess := model.Session{AccessToken: tp.Access, RefreshToken: tp.Refresh, User: u}
	if err := l.env.Store.Save(ctx, sess); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	l.env.logger().Info("logged in", zap.String("user", u.Username), zap.String("role", string(u.Role)))
	return route.LandingFor(u.Role), nil
}

// Logout drops the stored session and sends the user to the login page.
func Logout(ctx context.Context, env *Env) (string, error) {
	if err := env.Store.Clear(ctx); err != nil {
		return "", fmt.Errorf("clear session: %w", err)
	}
	env.logger().Info("logged out")
	return route.Login, nil
}
