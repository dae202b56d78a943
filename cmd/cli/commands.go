package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/and161185/newsboard/internal/app"
	"github.com/and161185/newsboard/internal/model"
	"github.com/and161185/newsboard/internal/route"
	"github.com/and161185/newsboard/internal/session"
	"github.com/and161185/newsboard/internal/view"
)

var errUsage = errors.New("usage")

// cli runs one subcommand against the app shell.
type cli struct {
	app *app.App
	env *view.Env
	out io.Writer

	// readPassword is swapped in tests.
	readPassword func(prompt string) (string, error)
}

func (c *cli) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return c.login(ctx, args)
	case "logout":
		next, err := view.Logout(ctx, c.env)
		if err != nil {
			return err
		}
		printJSON(c.out, map[string]string{"next": next})
		return nil
	case "register":
		return c.register(ctx, args)
	case "status":
		return c.status(ctx)

	case "open":
		if len(args) != 1 {
			return errUsage
		}
		return c.show(ctx, args[0])
	case "feed":
		return c.show(ctx, route.Feed)
	case "myposts":
		return c.show(ctx, route.MyPosts)
	case "moderation":
		return c.show(ctx, route.Moderation)
	case "admin":
		return c.show(ctx, route.Admin)
	case "profile":
		return c.show(ctx, route.Profile)
	case "inviter":
		return c.inviter(ctx, args)
	case "notifications":
		return c.notifications(ctx, args)

	case "post":
		return c.post(ctx, args)
	case "approve", "reject":
		return c.moderate(ctx, cmd, args)
	case "read":
		return c.read(ctx, args)
	case "set-frequency":
		return c.setFrequency(ctx, args)
	case "user-add", "user-edit", "assign-role", "user-rm",
		"news-add", "news-edit", "news-rm",
		"programme-add", "programme-edit", "programme-rm":
		return c.admin(ctx, cmd, args)
	}
	return errUsage
}

// ---- pages ----

type pageOut struct {
	Page  string   `json:"page"`
	Trail []string `json:"trail,omitempty"`
	Error string   `json:"error,omitempty"`
	Data  any      `json:"data,omitempty"`
}

func (c *cli) render(p app.Page) {
	out := pageOut{Page: p.Path}
	if len(p.Trail) > 1 {
		out.Trail = p.Trail
	}
	if p.Err != nil {
		out.Error = p.Err.Error()
	}
	switch v := p.View.(type) {
	case *view.Feed:
		out.Data = v.News
	case *view.MyPosts:
		out.Data = map[string]any{"news": v.News, "programmes": v.Programmes}
	case *view.Pending:
		out.Data = v.News
	case *view.Admin:
		out.Data = map[string]any{"users": v.Users, "news": v.News, "programmes": v.Programmes}
	case *view.Profile:
		out.Data = v.User
	case *view.Register:
		out.Data = map[string]any{"programmes": v.Programmes}
	}
	printJSON(c.out, out)
}

// show navigates to path and prints whatever page it settles on.
func (c *cli) show(ctx context.Context, path string) error {
	page, err := c.app.Navigate(ctx, path)
	if err != nil {
		return err
	}
	c.render(page)
	return page.Err
}

// enter navigates to path for an action and insists on landing there.
func enter[T view.View](ctx context.Context, c *cli, path string) (T, error) {
	var zero T
	page, err := c.app.Navigate(ctx, path)
	if err != nil {
		return zero, err
	}
	if page.Path != path {
		return zero, fmt.Errorf("%s is not available to this session (sent to %s)", path, page.Path)
	}
	if page.Err != nil {
		return zero, page.Err
	}
	v, ok := page.View.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected view %T at %s", page.View, path)
	}
	return v, nil
}

// ---- session ----

func (c *cli) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	u := fs.String("u", "", "username")
	p := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *u == "" {
		return fmt.Errorf("need -u")
	}
	if *p == "" {
		pw, err := c.password("Password: ")
		if err != nil {
			return err
		}
		*p = pw
	}

	next, err := view.NewLogin(c.env).Submit(ctx, *u, *p)
	if err != nil {
		return err
	}
	return c.show(ctx, next)
}

func (c *cli) register(ctx context.Context, args []string) error {
	fs := newFlagSet("register")
	in := model.RegisterInput{}
	fs.StringVar(&in.Username, "u", "", "username")
	fs.StringVar(&in.Email, "email", "", "email")
	fs.StringVar(&in.Password, "p", "", "password")
	fs.StringVar(&in.FirstName, "first", "", "first name")
	fs.StringVar(&in.LastName, "last", "", "last name")
	prog := fs.Int64("programme", 0, "programme id")
	freq := fs.String("frequency", string(model.FrequencyImmediate), "notification frequency")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if in.Password == "" {
		pw, err := c.password("Password: ")
		if err != nil {
			return err
		}
		in.Password = pw
	}
	if *prog > 0 {
		in.Programme = prog
	}
	in.NotificationFrequency = model.Frequency(*freq)

	r, err := enter[*view.Register](ctx, c, route.Register)
	if err != nil {
		return err
	}
	next, err := r.Submit(ctx, in)
	if err != nil {
		return err
	}
	printJSON(c.out, map[string]string{"next": next})
	return nil
}

type statusOut struct {
	LoggedIn  bool       `json:"logged_in"`
	User      string     `json:"user,omitempty"`
	Role      model.Role `json:"role,omitempty"`
	Subject   string     `json:"subject,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Refresh   bool       `json:"has_refresh,omitempty"`
}

// status reports the stored session without contacting the backend.
func (c *cli) status(ctx context.Context) error {
	sess, err := c.env.Store.Load(ctx)
	if err != nil {
		printJSON(c.out, statusOut{})
		return nil
	}
	out := statusOut{LoggedIn: true, User: sess.User.Username, Role: sess.User.Role, Refresh: sess.RefreshToken != ""}
	if info, err := session.Inspect(sess); err == nil {
		out.Subject = info.Subject
		if !info.ExpiresAt.IsZero() {
			out.ExpiresAt = &info.ExpiresAt
		}
	}
	printJSON(c.out, out)
	return nil
}

// ---- waiting room & notifications ----

func (c *cli) inviter(ctx context.Context, args []string) error {
	fs := newFlagSet("inviter")
	watch := fs.Bool("watch", false, "wait until a role is assigned")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	page, err := c.app.Navigate(ctx, route.Inviter)
	if err != nil {
		return err
	}
	inv, ok := page.View.(*view.Inviter)
	if !*watch || !ok || page.Path != route.Inviter {
		c.render(page)
		return page.Err
	}
	next, err := inv.Watch(ctx)
	if err != nil {
		return err
	}
	return c.show(ctx, next)
}

type notificationsOut struct {
	Unread int                  `json:"unread"`
	Items  []model.Notification `json:"items"`
}

func (c *cli) notifications(ctx context.Context, args []string) error {
	fs := newFlagSet("notifications")
	watch := fs.Bool("watch", false, "keep refreshing until interrupted")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	n := view.NewNotifications(c.env)
	if _, err := n.Mount(ctx); err != nil {
		return err
	}
	dump := func(n *view.Notifications) {
		printJSON(c.out, notificationsOut{Unread: n.Unread(), Items: n.Items()})
	}
	dump(n)
	if !*watch {
		return nil
	}
	return n.Watch(ctx, dump)
}

func (c *cli) read(ctx context.Context, args []string) error {
	fs := newFlagSet("read")
	id := fs.Int64("id", 0, "notification id")
	if err := fs.Parse(args); err != nil || *id <= 0 {
		return errUsage
	}
	n := view.NewNotifications(c.env)
	if _, err := n.Mount(ctx); err != nil {
		return err
	}
	target, err := n.MarkRead(ctx, *id)
	if err != nil {
		return err
	}
	printJSON(c.out, map[string]string{"open": target})
	return nil
}

// ---- publisher, moderator, student ----

func newsFlags(fs *flag.FlagSet) func() model.NewsInput {
	title := fs.String("title", "", "title")
	content := fs.String("content", "", "content")
	prog := fs.Int64("programme", 0, "programme id")
	imp := fs.String("importance", string(model.ImportanceLow), "importance")
	date := fs.String("date", "", "wished publication date")
	return func() model.NewsInput {
		return model.NewsInput{
			Titre: *title, Contenu: *content, Programme: *prog,
			Importance: model.Importance(*imp), DateSouhaiteePublication: date,
		}
	}
}

func (c *cli) post(ctx context.Context, args []string) error {
	fs := newFlagSet("post")
	form := newsFlags(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	m, err := enter[*view.MyPosts](ctx, c, route.MyPosts)
	if err != nil {
		return err
	}
	n, err := m.Submit(ctx, form())
	if err != nil {
		return err
	}
	printJSON(c.out, n)
	return nil
}

func (c *cli) moderate(ctx context.Context, action string, args []string) error {
	fs := newFlagSet(action)
	id := fs.Int64("id", 0, "news id")
	if err := fs.Parse(args); err != nil || *id <= 0 {
		return errUsage
	}
	p, err := enter[*view.Pending](ctx, c, route.Moderation)
	if err != nil {
		return err
	}
	if action == "approve" {
		err = p.Approve(ctx, *id)
	} else {
		err = p.Reject(ctx, *id)
	}
	if err != nil {
		return err
	}
	printJSON(c.out, p.News)
	return nil
}

func (c *cli) setFrequency(ctx context.Context, args []string) error {
	fs := newFlagSet("set-frequency")
	f := fs.String("f", "", "immediate|daily|weekly")
	if err := fs.Parse(args); err != nil || *f == "" {
		return errUsage
	}
	p, err := enter[*view.Profile](ctx, c, route.Profile)
	if err != nil {
		return err
	}
	if err := p.SetFrequency(ctx, model.Frequency(*f)); err != nil {
		return err
	}
	printJSON(c.out, p.User)
	return nil
}

// ---- helpers ----

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// visited returns the names of flags given on the command line.
func visited(fs *flag.FlagSet) map[string]bool {
	m := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { m[f.Name] = true })
	return m
}

func (c *cli) password(prompt string) (string, error) {
	if c.readPassword == nil {
		return "", fmt.Errorf("need -p")
	}
	return c.readPassword(prompt)
}
