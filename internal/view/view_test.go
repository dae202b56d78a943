package view

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/and161185/newsboard/internal/apiclient"
	"github.com/and161185/newsboard/internal/errs"
	"github.com/and161185/newsboard/internal/fakeapi"
	"github.com/and161185/newsboard/internal/model"
	"github.com/and161185/newsboard/internal/route"
	"github.com/and161185/newsboard/internal/session"
)

type fixture struct {
	api   *fakeapi.Server
	store *session.Memory
	env   *Env
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	api := fakeapi.New(t)
	store := session.NewMemory()
	c, err := apiclient.New(api.BaseURL(), apiclient.StoreTokens{Store: store})
	require.NoError(t, err)
	return &fixture{api: api, store: store, env: &Env{API: c, Store: store}}
}

// loginAs registers u on the backend and stores a session for it.
func (f *fixture) loginAs(t *testing.T, u model.User) model.Session {
	t.Helper()
	u = f.api.AddUser(u, "pw")
	tp := f.api.IssueTokens(u.ID)
	sess := model.Session{AccessToken: tp.Access, RefreshToken: tp.Refresh, User: u}
	require.NoError(t, f.store.Save(context.Background(), sess))
	f.api.Reset()
	return sess
}

func ids(news []model.News) []int64 {
	out := make([]int64, 0, len(news))
	for _, n := range news {
		out = append(out, n.ID)
	}
	return out
}

func TestFilterFeed(t *testing.T) {
	news := []model.News{
		{ID: 1, Statut: model.StatutApproved, Programme: model.ProgrammeRef{ID: 3}},
		{ID: 2, Statut: model.StatutPending, Programme: model.ProgrammeRef{ID: 3}},
		{ID: 3, Statut: model.StatutApproved, Programme: model.ProgrammeRef{ID: 4}},
		{ID: 4, Statut: model.StatutRejected, Programme: model.ProgrammeRef{ID: 3}},
		{ID: 5, Statut: model.StatutApproved, Programme: model.ProgrammeRef{ID: 3, Nom: "L3"}},
	}
	require.Equal(t, []int64{1, 5}, ids(FilterFeed(news, 3)))

	reversed := []model.News{news[4], news[3], news[2], news[1], news[0]}
	require.ElementsMatch(t, []int64{1, 5}, ids(FilterFeed(reversed, 3)))

	require.Empty(t, FilterFeed(news, 0))

	// a user without a programme sees the approved items without one
	unset := []model.News{
		{ID: 1, Statut: model.StatutApproved},
		{ID: 2, Statut: model.StatutApproved, Programme: model.ProgrammeRef{ID: 3}},
		{ID: 3, Statut: model.StatutPending},
	}
	require.Equal(t, []int64{1}, ids(FilterFeed(unset, 0)))
	require.Equal(t, []int64{2}, ids(FilterFeed(unset, 3)))
}

func TestFeed_Mount(t *testing.T) {
	f := newFixture(t)
	sess := f.loginAs(t, model.User{Username: "stu", Role: model.RoleStudent, Programme: model.ProgrammeRef{ID: 3}})
	f.api.News = []model.News{
		{ID: 1, Statut: model.StatutApproved, Programme: model.ProgrammeRef{ID: 3}},
		{ID: 2, Statut: model.StatutApproved, Programme: model.ProgrammeRef{ID: 9}},
	}
	f.api.Paginate = true

	feed := NewFeed(f.env, sess)
	next, err := feed.Mount(context.Background())
	require.NoError(t, err)
	require.Empty(t, next)
	require.Equal(t, []int64{1}, ids(feed.News))
}

func TestMyPosts_MountAndSubmit(t *testing.T) {
	f := newFixture(t)
	sess := f.loginAs(t, model.User{Username: "pub", Role: model.RolePublisher})
	f.api.Programmes = []model.Programme{{ID: 3, Nom: "L3"}}
	f.api.News = []model.News{
		{ID: 1, Titre: "mine", Auteur: &model.Author{Username: "pub"}},
		{ID: 2, Titre: "theirs", Auteur: &model.Author{Username: "other"}},
	}

	m := NewMyPosts(f.env, sess)
	_, err := m.Mount(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int64{1}, ids(m.News))
	require.Len(t, m.Programmes, 1)

	// invalid form never reaches the backend
	f.api.Reset()
	_, err = m.Submit(context.Background(), model.NewsInput{Contenu: "x", Programme: 3})
	require.ErrorIs(t, err, errs.ErrValidation)
	require.Empty(t, f.api.Calls())

	empty := ""
	n, err := m.Submit(context.Background(), model.NewsInput{Titre: "Exam", Contenu: "Monday", Programme: 3, DateSouhaiteePublication: &empty})
	require.NoError(t, err)
	require.Equal(t, model.ImportanceLow, n.Importance)
	require.Equal(t, n.ID, m.News[0].ID)
	require.Len(t, m.News, 2)
	require.Contains(t, f.api.Calls()[0].Body, `"date_souhaitee_publication":null`)
}

// approving id 7 posts to its approve endpoint and the refetched queue no longer holds it
func TestPending_ApproveRefetches(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, model.User{Username: "mod", Role: model.RoleModerator})
	f.api.News = []model.News{
		{ID: 7, Titre: "seven", Statut: model.StatutPending},
		{ID: 8, Titre: "eight", Statut: model.StatutPending},
		{ID: 9, Titre: "nine", Statut: model.StatutApproved},
	}

	p := NewPending(f.env)
	_, err := p.Mount(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int64{7, 8}, ids(p.News))

	require.NoError(t, p.Approve(context.Background(), 7))
	require.Equal(t, 1, f.api.Count(http.MethodPost, "/api/news/7/approve/"))
	require.Equal(t, 2, f.api.Count(http.MethodGet, "/api/news/"))
	require.Equal(t, []int64{8}, ids(p.News))

	require.NoError(t, p.Reject(context.Background(), 8))
	require.Equal(t, 1, f.api.Count(http.MethodPost, "/api/news/8/reject/"))
	require.Empty(t, p.News)
}

func TestPending_ForbiddenForPublisher(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, model.User{Username: "pub", Role: model.RolePublisher})
	f.api.News = []model.News{{ID: 7, Statut: model.StatutPending}}

	p := NewPending(f.env)
	err := p.Approve(context.Background(), 7)
	require.ErrorIs(t, err, errs.ErrForbidden)
	n, _ := f.api.NewsByID(7)
	require.Equal(t, model.StatutPending, n.Statut)
}

func TestAdmin_DeleteDeclinedMakesNoCall(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, model.User{Username: "root", Role: model.RoleAdmin})
	victim := f.api.AddUser(model.User{Username: "bob"}, "pw")
	f.api.News = []model.News{{ID: 5}}
	f.api.Programmes = []model.Programme{{ID: 3, Nom: "L3"}}

	var prompts []string
	f.env.Confirm = ConfirmFunc(func(p string) bool { prompts = append(prompts, p); return false })
	a := NewAdmin(f.env)
	_, err := a.Mount(context.Background())
	require.NoError(t, err)
	f.api.Reset()

	require.ErrorIs(t, a.DeleteUser(context.Background(), victim.ID), errs.ErrDeclined)
	require.ErrorIs(t, a.DeleteNews(context.Background(), 5), errs.ErrDeclined)
	require.ErrorIs(t, a.DeleteProgramme(context.Background(), 3), errs.ErrDeclined)
	require.Empty(t, f.api.Calls())
	require.Len(t, prompts, 3)

	f.env.Confirm = nil
	require.ErrorIs(t, a.DeleteUser(context.Background(), victim.ID), errs.ErrDeclined)
	require.Empty(t, f.api.Calls())
}

func TestAdmin_DeleteConfirmedRefetches(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, model.User{Username: "root", Role: model.RoleAdmin})
	victim := f.api.AddUser(model.User{Username: "bob"}, "pw")
	f.env.Confirm = ConfirmFunc(func(string) bool { return true })

	a := NewAdmin(f.env)
	_, err := a.Mount(context.Background())
	require.NoError(t, err)
	require.Len(t, a.Users, 2)

	require.NoError(t, a.DeleteUser(context.Background(), victim.ID))
	require.Equal(t, 1, f.api.Count(http.MethodDelete, fmt.Sprintf("/api/users/%d/", victim.ID)))
	require.Len(t, a.Users, 1)
}

func TestAdmin_AssignRoleUpdatesLocalRow(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, model.User{Username: "root", Role: model.RoleAdmin})
	bob := f.api.AddUser(model.User{Username: "bob"}, "pw")

	a := NewAdmin(f.env)
	_, err := a.Mount(context.Background())
	require.NoError(t, err)
	f.api.Reset()

	msg, err := a.AssignRole(context.Background(), bob.ID, model.RoleModerator)
	require.NoError(t, err)
	require.NotEmpty(t, msg)
	require.Equal(t, 0, f.api.Count(http.MethodGet, "/api/users/"))
	for _, u := range a.Users {
		if u.ID == bob.ID {
			require.Equal(t, model.RoleModerator, u.Role)
		}
	}

	_, err = a.AssignRole(context.Background(), bob.ID, "janitor")
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestAdmin_SaveNewsForcesPending(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, model.User{Username: "root", Role: model.RoleAdmin})
	f.api.News = []model.News{{ID: 5, Titre: "old", Statut: model.StatutApproved, Programme: model.ProgrammeRef{ID: 3}}}

	a := NewAdmin(f.env)
	n, err := a.SaveNews(context.Background(), 5, model.NewsInput{Titre: "new", Contenu: "c", Programme: 3, Statut: model.StatutApproved})
	require.NoError(t, err)
	require.Equal(t, model.StatutPending, n.Statut)
	require.Equal(t, 1, f.api.Count(http.MethodPatch, "/api/news/5/"))
	require.Len(t, a.News, 1)

	created, err := a.SaveNews(context.Background(), 0, model.NewsInput{Titre: "fresh", Contenu: "c", Programme: 3})
	require.NoError(t, err)
	require.Equal(t, model.StatutPending, created.Statut)
	require.Len(t, a.News, 2)
}

func TestAdmin_Programmes(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, model.User{Username: "root", Role: model.RoleAdmin})
	a := NewAdmin(f.env)

	_, err := a.SaveProgramme(context.Background(), model.Programme{})
	require.ErrorIs(t, err, errs.ErrValidation)

	p, err := a.SaveProgramme(context.Background(), model.Programme{Nom: "M1", Description: "first year"})
	require.NoError(t, err)
	require.NotZero(t, p.ID)

	p.Nom = "M1 Info"
	_, err = a.SaveProgramme(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, "M1 Info", a.Programmes[0].Nom)
	require.Equal(t, "first year", a.Programmes[0].Description)
}

func TestAdmin_UsersCreateAndUpdate(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, model.User{Username: "root", Role: model.RoleAdmin})
	a := NewAdmin(f.env)

	u, err := a.CreateUser(context.Background(), model.RegisterInput{Username: "carl", Email: "carl@example.org", Password: "pw"})
	require.NoError(t, err)
	require.Len(t, a.Users, 2)

	email := "not-an-email"
	_, err = a.UpdateUser(context.Background(), u.ID, model.UserUpdate{Email: &email})
	require.ErrorIs(t, err, errs.ErrValidation)

	name := "Carl"
	updated, err := a.UpdateUser(context.Background(), u.ID, model.UserUpdate{FirstName: &name})
	require.NoError(t, err)
	require.Equal(t, "Carl", updated.FirstName)
}

func TestProfile_SetFrequency(t *testing.T) {
	f := newFixture(t)
	sess := f.loginAs(t, model.User{Username: "stu", Role: model.RoleStudent, NotificationFrequency: model.FrequencyImmediate})

	p := NewProfile(f.env, sess)
	_, err := p.Mount(context.Background())
	require.NoError(t, err)

	require.ErrorIs(t, p.SetFrequency(context.Background(), "hourly"), errs.ErrValidation)
	require.Equal(t, 0, f.api.Count(http.MethodPatch, "/api/users/me/"))

	require.NoError(t, p.SetFrequency(context.Background(), model.FrequencyWeekly))
	require.Equal(t, model.FrequencyWeekly, p.User.NotificationFrequency)
	u, _ := f.api.User(sess.User.ID)
	require.Equal(t, model.FrequencyWeekly, u.NotificationFrequency)
}

func TestProfile_SetFrequencyStudentsOnly(t *testing.T) {
	f := newFixture(t)
	sess := f.loginAs(t, model.User{Username: "pub", Role: model.RolePublisher})

	p := NewProfile(f.env, sess)
	_, err := p.Mount(context.Background())
	require.NoError(t, err)
	require.ErrorIs(t, p.SetFrequency(context.Background(), model.FrequencyDaily), errs.ErrForbidden)
	require.Equal(t, 0, f.api.Count(http.MethodPatch, "/api/users/me/"))
}

func TestLogin_LandsPerRole(t *testing.T) {
	tests := []struct {
		role model.Role
		want string
	}{
		{model.RoleAdmin, route.Admin},
		{model.RoleModerator, route.Moderation},
		{model.RolePublisher, route.MyPosts},
		{model.RoleStudent, route.Feed},
		{model.RoleNone, route.Inviter},
		{model.Role("janitor"), route.Login},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			f := newFixture(t)
			f.api.AddUser(model.User{Username: "u", Role: tt.role}, "pw")

			next, err := NewLogin(f.env).Submit(context.Background(), "u", "pw")
			require.NoError(t, err)
			require.Equal(t, tt.want, next)

			sess, err := f.store.Load(context.Background())
			require.NoError(t, err)
			require.Equal(t, tt.role, sess.User.Role)
			require.NotEmpty(t, sess.RefreshToken)
		})
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newFixture(t)
	f.api.AddUser(model.User{Username: "u"}, "pw")

	_, err := NewLogin(f.env).Submit(context.Background(), "u", "wrong")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	require.Equal(t, "No active account found with the given credentials", errs.Message(err))
	require.Equal(t, 0, f.store.Saves)

	_, err = NewLogin(f.env).Submit(context.Background(), "", "")
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, model.User{Username: "u", Role: model.RoleStudent})

	next, err := Logout(context.Background(), f.env)
	require.NoError(t, err)
	require.Equal(t, route.Login, next)
	_, err = f.store.Load(context.Background())
	require.ErrorIs(t, err, errs.ErrNoSession)
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	f.api.Programmes = []model.Programme{{ID: 3, Nom: "L3"}}
	f.store.Put(session.Record{Access: "whatever", User: `{"id":1}`})

	r := NewRegister(f.env)
	_, err := r.Mount(context.Background())
	require.NoError(t, err)
	require.Len(t, r.Programmes, 1)
	require.Empty(t, f.api.Calls()[0].Auth)

	_, err = r.Submit(context.Background(), model.RegisterInput{Username: "new", Email: "bad", Password: "pw"})
	require.ErrorIs(t, err, errs.ErrValidation)

	prog := int64(3)
	next, err := r.Submit(context.Background(), model.RegisterInput{Username: "new", Email: "new@example.org", Password: "pw", Programme: &prog})
	require.NoError(t, err)
	require.Equal(t, route.Inviter, next)

	_, err = r.Submit(context.Background(), model.RegisterInput{Username: "new", Email: "new@example.org", Password: "pw"})
	require.ErrorIs(t, err, errs.ErrValidation)
	require.Equal(t, "A user with that username already exists.", errs.Message(err))
}

func TestInviter_MountRedirects(t *testing.T) {
	f := newFixture(t)
	sess := f.loginAs(t, model.User{Username: "new"})

	next, err := NewInviter(f.env).Mount(context.Background())
	require.NoError(t, err)
	require.Empty(t, next)

	f.api.SetRole(sess.User.ID, model.RolePublisher)
	next, err = NewInviter(f.env).Mount(context.Background())
	require.NoError(t, err)
	require.Equal(t, route.MyPosts, next)
}

func TestInviter_Watch(t *testing.T) {
	f := newFixture(t)
	sess := f.loginAs(t, model.User{Username: "new"})
	f.env.Poll = 20 * time.Millisecond

	go func() {
		time.Sleep(60 * time.Millisecond)
		f.api.SetRole(sess.User.ID, model.RoleStudent)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	next, err := NewInviter(f.env).Watch(ctx)
	require.NoError(t, err)
	require.Equal(t, route.Feed, next)
}

func TestInviter_WatchStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, model.User{Username: "new"})
	f.env.Poll = 20 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := NewInviter(f.env).Watch(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNotifications(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, model.User{Username: "stu", Role: model.RoleStudent})
	f.api.Notifications = []model.Notification{
		{ID: 1, Message: "a", News: 10},
		{ID: 2, Message: "b", News: 11, Lue: true},
	}

	n := NewNotifications(f.env)
	_, err := n.Mount(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n.Unread())

	target, err := n.MarkRead(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "/news/10", target)
	require.Equal(t, 0, n.Unread())
	require.Equal(t, 1, f.api.Count(http.MethodPatch, "/api/notifications/1/"))

	_, err = n.MarkRead(context.Background(), 99)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestNotifications_WatchPollsUntilCancelled(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, model.User{Username: "stu", Role: model.RoleStudent})
	f.env.Poll = 20 * time.Millisecond

	n := NewNotifications(f.env)
	ctx, cancel := context.WithCancel(context.Background())
	refreshed := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- n.Watch(ctx, func(*Notifications) {
			select {
			case refreshed <- struct{}{}:
			default:
			}
		})
	}()

	for range 2 {
		select {
		case <-refreshed:
		case <-time.After(2 * time.Second):
			t.Fatal("no refresh")
		}
	}
	cancel()
	require.NoError(t, <-done)

	polled := f.api.Count(http.MethodGet, "/api/notifications/")
	time.Sleep(80 * time.Millisecond)
	require.Equal(t, polled, f.api.Count(http.MethodGet, "/api/notifications/"))
}

func TestFor(t *testing.T) {
	env := &Env{}
	require.IsType(t, &Feed{}, For(route.Feed, env, model.Session{}))
	require.IsType(t, &Pending{}, For(route.Moderation, env, model.Session{}))
	require.IsType(t, &Admin{}, For(route.Admin, env, model.Session{}))
	require.IsType(t, &Inviter{}, For("/elsewhere", env, model.Session{}))
}
