// Package app is the navigation shell: it resolves a path, runs the session
// check for protected routes, mounts the page and follows redirects.
package app

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/and161185/newsboard/internal/guard"
	"github.com/and161185/newsboard/internal/model"
	"github.com/and161185/newsboard/internal/route"
	"github.com/and161185/newsboard/internal/view"
)

// MaxHops bounds how many redirects one navigation may follow.
const MaxHops = 8

// ErrRedirectLoop is returned when a navigation revisits a page it already left.
var ErrRedirectLoop = errors.New("redirect loop")

// Page is the result of a navigation.
type Page struct {
	Path     string         // the page finally shown
	View     view.View      // its mounted controller
	Trail    []string       // every path visited, in order
	Decision guard.Decision // last guard decision (zero for public pages)
	Err      error          // mount or refresh error to show inline; the page is still shown
}

// App wires the guard and the page controllers together.
type App struct {
	env   *view.Env
	guard *guard.Guard
	log   *zap.Logger
	views func(path string, env *view.Env, sess model.Session) view.View
}

// New constructs the shell. The guard is built on env's store and client.
func New(env *view.Env) *App {
	log := env.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &App{env: env, guard: guard.New(env.Store, env.API, log), log: log, views: view.For}
}

// Env returns the environment shared by the pages.
func (a *App) Env() *view.Env { return a.env }

// Navigate opens path. Guard rejections and mount redirects are followed
// until a page settles.
func (a *App) Navigate(ctx context.Context, path string) (Page, error) {
	var page Page
	for hop := 0; hop <= MaxHops; hop++ {
		r := route.Resolve(path)
		if slices.Contains(page.Trail, r.Path) {
			page.Trail = append(page.Trail, r.Path)
			return page, fmt.Errorf("%w: %v", ErrRedirectLoop, page.Trail)
		}
		page.Trail = append(page.Trail, r.Path)
		page.Path = r.Path

		var sess model.Session
		if !r.Public {
			d := a.guard.Check(ctx, r.Roles)
			page.Decision = d
			if !d.Authorized() {
				a.log.Debug("navigation refused", zap.String("path", r.Path), zap.Stringer("verdict", d.Verdict))
				if d.Err != nil {
					page.Err = d.Err
				}
				path = d.Redirect
				continue
			}
			sess = d.Session
		}

		v := a.views(r.Path, a.env, sess)
		page.View = v
		next, err := v.Mount(ctx)
		if err != nil {
			page.Err = err
			return page, nil
		}
		if next == "" || route.Resolve(next).Path == r.Path {
			return page, nil
		}
		path = next
	}
	return page, fmt.Errorf("%w: more than %d hops: %v", ErrRedirectLoop, MaxHops, page.Trail)
}
