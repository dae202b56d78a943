// Package view holds the page controllers. A controller owns its page-local
// state, loads it on Mount and exposes the page's actions as methods. Errors
// returned by actions are meant to be shown inline; they never clear the
// session.
package view

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/newsboard/internal/apiclient"
	"github.com/and161185/newsboard/internal/errs"
	"github.com/and161185/newsboard/internal/model"
	"github.com/and161185/newsboard/internal/route"
	"github.com/and161185/newsboard/internal/session"
)

// View is a mountable page. A non-empty redirect asks the shell to navigate on.
type View interface {
	Mount(ctx context.Context) (redirect string, err error)
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// DefaultPollInterval is how often background refreshes run.
const DefaultPollInterval = 30 * time.Second

// Env carries what every controller needs.
type Env struct {
	API     *apiclient.Client
	Store   session.Store
	Log     *zap.Logger
	Confirm Confirmer
	Poll    time.Duration
}

func (e *Env) logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

func (e *Env) pollEvery() time.Duration {
	if e.Poll <= 0 {
		return DefaultPollInterval
	}
	return e.Poll
}

func (e *Env) confirm(prompt string) error {
	if e.Confirm == nil || !e.Confirm.Confirm(prompt) {
		return errs.ErrDeclined
	}
	return nil
}

// For builds the controller for a resolved route path. sess is the session
// the guard admitted (zero for public pages).
func For(path string, env *Env, sess model.Session) View {
	switch path {
	case route.Feed:
		return &Feed{env: env, sess: sess}
	case route.MyPosts:
		return &MyPosts{env: env, sess: sess}
	case route.Moderation:
		return &Pending{env: env}
	case route.Admin:
		return &Admin{env: env, Tab: TabUsers}
	case route.Profile:
		return &Profile{env: env, sess: sess}
	case route.Login:
		return &Login{env: env}
	case route.Register:
		return &Register{env: env}
	}
	return &Inviter{env: env}
}
