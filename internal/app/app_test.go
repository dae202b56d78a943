package app

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/newsboard/internal/apiclient"
	"github.com/and161185/newsboard/internal/errs"
	"github.com/and161185/newsboard/internal/fakeapi"
	"github.com/and161185/newsboard/internal/guard"
	"github.com/and161185/newsboard/internal/model"
	"github.com/and161185/newsboard/internal/route"
	"github.com/and161185/newsboard/internal/session"
	"github.com/and161185/newsboard/internal/view"
)

func newApp(t *testing.T) (*App, *fakeapi.Server, *session.Memory) {
	t.Helper()
	api := fakeapi.New(t)
	store := session.NewMemory()
	c, err := apiclient.New(api.BaseURL(), apiclient.StoreTokens{Store: store})
	require.NoError(t, err)
	return New(&view.Env{API: c, Store: store}), api, store
}

func TestNavigate_NoSessionGoesToLogin(t *testing.T) {
	a, api, _ := newApp(t)

	for _, p := range []string{route.Feed, route.MyPosts, route.Moderation, route.Admin, route.Profile} {
		page, err := a.Navigate(context.Background(), p)
		require.NoError(t, err)
		require.Equal(t, route.Login, page.Path, p)
		require.Equal(t, guard.NoSession, page.Decision.Verdict)
		require.IsType(t, &view.Login{}, page.View)
	}
	require.Empty(t, api.Calls())
}

func TestNavigate_WrongRoleGoesToLogin(t *testing.T) {
	a, api, store := newApp(t)
	u := api.AddUser(model.User{Username: "stu", Role: model.RoleStudent}, "pw")
	tp := api.IssueTokens(u.ID)
	require.NoError(t, store.Save(context.Background(), model.Session{AccessToken: tp.Access, RefreshToken: tp.Refresh, User: u}))

	page, err := a.Navigate(context.Background(), route.Admin)
	require.NoError(t, err)
	require.Equal(t, []string{route.Admin, route.Login}, page.Trail)
	require.Equal(t, guard.WrongRole, page.Decision.Verdict)
	require.Empty(t, api.Calls())

	// redirect never clears the session
	_, err = store.Load(context.Background())
	require.NoError(t, err)
}

func TestNavigate_ExpiredTokenIsRefreshed(t *testing.T) {
	a, api, store := newApp(t)
	u := api.AddUser(model.User{Username: "mod", Role: model.RoleModerator}, "pw")
	tp := api.IssueTokens(u.ID)
	require.NoError(t, store.Save(context.Background(), model.Session{AccessToken: tp.Access, RefreshToken: tp.Refresh, User: u}))
	api.ExpireAccess(tp.Access)

	page, err := a.Navigate(context.Background(), route.Moderation)
	require.NoError(t, err)
	require.NoError(t, page.Err)
	require.Equal(t, route.Moderation, page.Path)
	require.True(t, page.Decision.Authorized())

	sess, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, tp.Access, sess.AccessToken)
	require.Equal(t, 1, api.Count(http.MethodPost, "/api/token/refresh/"))
}

func TestNavigate_RevokedRefreshShownOnLogin(t *testing.T) {
	a, api, store := newApp(t)
	u := api.AddUser(model.User{Username: "mod", Role: model.RoleModerator}, "pw")
	tp := api.IssueTokens(u.ID)
	require.NoError(t, store.Save(context.Background(), model.Session{AccessToken: tp.Access, RefreshToken: tp.Refresh, User: u}))
	api.ExpireAccess(tp.Access)
	api.RevokeRefresh(tp.Refresh)

	page, err := a.Navigate(context.Background(), route.Moderation)
	require.NoError(t, err)
	require.Equal(t, route.Login, page.Path)
	require.Equal(t, guard.Rejected, page.Decision.Verdict)
	require.ErrorIs(t, page.Err, errs.ErrRefreshFailed)

	// the stale session stays until the user logs in again
	sess, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, tp.Access, sess.AccessToken)
}

func TestNavigate_UnknownPathIsWaitingRoom(t *testing.T) {
	a, _, _ := newApp(t)

	page, err := a.Navigate(context.Background(), "/nowhere")
	require.NoError(t, err)
	require.Equal(t, route.Inviter, page.Path)
	require.IsType(t, &view.Inviter{}, page.View)
	// check-role needs a session; the failure is shown inline
	require.ErrorIs(t, page.Err, errs.ErrUnauthorized)
}

// role-less login lands in the waiting room, which moves on once the backend
// names a page
func TestScenario_RolelessLoginThenPromotion(t *testing.T) {
	a, api, store := newApp(t)
	u := api.AddUser(model.User{Username: "newbie"}, "pw")

	landing, err := view.NewLogin(a.Env()).Submit(context.Background(), "newbie", "pw")
	require.NoError(t, err)
	require.Equal(t, route.Inviter, landing)
	sess, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, model.RoleNone, sess.User.Role)

	page, err := a.Navigate(context.Background(), landing)
	require.NoError(t, err)
	require.Equal(t, route.Inviter, page.Path)
	require.NoError(t, page.Err)

	api.SetRole(u.ID, model.RolePublisher)
	page, err = a.Navigate(context.Background(), landing)
	require.NoError(t, err)
	require.Equal(t, []string{route.Inviter, route.MyPosts}, page.Trail[:2])
	// the cached role is still empty, so the guard sends the user to log in again
	require.Equal(t, route.Login, page.Path)

	landing, err = view.NewLogin(a.Env()).Submit(context.Background(), "newbie", "pw")
	require.NoError(t, err)
	require.Equal(t, route.MyPosts, landing)
	page, err = a.Navigate(context.Background(), landing)
	require.NoError(t, err)
	require.Equal(t, route.MyPosts, page.Path)
	require.IsType(t, &view.MyPosts{}, page.View)
}

func TestScenario_ApproveSeven(t *testing.T) {
	a, api, _ := newApp(t)
	api.AddUser(model.User{Username: "mod", Role: model.RoleModerator}, "pw")
	api.News = []model.News{
		{ID: 7, Titre: "seven", Statut: model.StatutPending},
		{ID: 8, Titre: "eight", Statut: model.StatutPending},
	}

	landing, err := view.NewLogin(a.Env()).Submit(context.Background(), "mod", "pw")
	require.NoError(t, err)
	page, err := a.Navigate(context.Background(), landing)
	require.NoError(t, err)
	require.Equal(t, route.Moderation, page.Path)

	queue := page.View.(*view.Pending)
	require.Len(t, queue.News, 2)
	require.NoError(t, queue.Approve(context.Background(), 7))
	require.Equal(t, 1, api.Count(http.MethodPost, "/api/news/7/approve/"))
	for _, n := range queue.News {
		require.NotEqual(t, int64(7), n.ID)
	}
}

type bounce string

func (b bounce) Mount(context.Context) (string, error) { return string(b), nil }

func TestNavigate_LoopDetected(t *testing.T) {
	a, api, _ := newApp(t)
	a.views = func(path string, _ *view.Env, _ model.Session) view.View {
		if path == route.Login {
			return bounce(route.Register)
		}
		return bounce(route.Login)
	}

	page, err := a.Navigate(context.Background(), route.Register)
	require.ErrorIs(t, err, ErrRedirectLoop)
	require.Equal(t, []string{route.Register, route.Login, route.Register}, page.Trail)
	require.Empty(t, api.Calls())
}
