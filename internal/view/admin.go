package view

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/and161185/newsboard/internal/errs"
	"github.com/and161185/newsboard/internal/model"
	"github.com/and161185/newsboard/internal/validate"
)

// Tab selects an admin console section.
type Tab string

const (
	TabUsers      Tab = "users"
	TabNews       Tab = "news"
	TabProgrammes Tab = "programmes"
)

// Admin is the administrative console. Every mutation except AssignRole
// reloads the tab it touched; deletes ask env.Confirm first.
type Admin struct {
	env *Env

	Tab        Tab
	Users      []model.User
	News       []model.News
	Programmes []model.Programme
}

// NewAdmin builds the console on the users tab.
func NewAdmin(env *Env) *Admin { return &Admin{env: env, Tab: TabUsers} }

func (a *Admin) Mount(ctx context.Context) (string, error) {
	for _, t := range []Tab{TabUsers, TabNews, TabProgrammes} {
		if err := a.Reload(ctx, t); err != nil {
			return "", err
		}
	}
	return "", nil
}

// Reload refetches one tab.
func (a *Admin) Reload(ctx context.Context, t Tab) error {
	var err error
	switch t {
	case TabUsers:
		a.Users, err = a.env.API.ListUsers(ctx)
	case TabNews:
		a.News, err = a.env.API.ListNews(ctx)
	case TabProgrammes:
		a.Programmes, err = a.env.API.ListProgrammes(ctx)
	default:
		return fmt.Errorf("admin: unknown tab %q", t)
	}
	return err
}

// --- users ---

func (a *Admin) CreateUser(ctx context.Context, in model.RegisterInput) (model.User, error) {
	if in.NotificationFrequency == "" {
		in.NotificationFrequency = model.FrequencyImmediate
	}
	if err := validate.Struct(in); err != nil {
		return model.User{}, err
	}
	u, err := a.env.API.CreateUser(ctx, in)
	if err != nil {
		return model.User{}, err
	}
	return u, a.Reload(ctx, TabUsers)
}

func (a *Admin) UpdateUser(ctx context.Context, id int64, upd model.UserUpdate) (model.User, error) {
	if err := validate.Struct(upd); err != nil {
		return model.User{}, err
	}
	u, err := a.env.API.UpdateUser(ctx, id, upd)
	if err != nil {
		return model.User{}, err
	}
	return u, a.Reload(ctx, TabUsers)
}

// AssignRole sets a role and patches the local row instead of reloading.
func (a *Admin) AssignRole(ctx context.Context, id int64, role model.Role) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", errs.ErrValidation, role)
	}
	msg, err := a.env.API.AssignRole(ctx, id, role)
	if err != nil {
		return "", err
	}
	if i := slices.IndexFunc(a.Users, func(u model.User) bool { return u.ID == id }); i >= 0 {
		a.Users[i].Role = role
	}
	a.env.logger().Info("role assigned", zap.Int64("user", id), zap.String("role", string(role)))
	return msg, nil
}

func (a *Admin) DeleteUser(ctx context.Context, id int64) error {
	if err := a.env.confirm(fmt.Sprintf("Delete user %d?", id)); err != nil {
		return err
	}
	if err := a.env.API.DeleteUser(ctx, id); err != nil {
		return err
	}
	return a.Reload(ctx, TabUsers)
}

// --- news ---

// SaveNews creates (id == 0) or updates an item. Either way the item goes
// back to the moderation queue.
func (a *Admin) SaveNews(ctx context.Context, id int64, in model.NewsInput) (model.News, error) {
	in = normalizeNews(in)
	in.Statut = model.StatutPending
	if err := validate.Struct(in); err != nil {
		return model.News{}, err
	}
	var (
		n   model.News
		err error
	)
	if id == 0 {
		n, err = a.env.API.CreateNews(ctx, in)
	} else {
		n, err = a.env.API.UpdateNews(ctx, id, in)
	}
	if err != nil {
		return model.News{}, err
	}
	return n, a.Reload(ctx, TabNews)
}

func (a *Admin) DeleteNews(ctx context.Context, id int64) error {
	if err := a.env.confirm(fmt.Sprintf("Delete news %d?", id)); err != nil {
		return err
	}
	if err := a.env.API.DeleteNews(ctx, id); err != nil {
		return err
	}
	return a.Reload(ctx, TabNews)
}

// --- programmes ---

// SaveProgramme creates (ID == 0) or updates a programme.
func (a *Admin) SaveProgramme(ctx context.Context, p model.Programme) (model.Programme, error) {
	if err := validate.Struct(p); err != nil {
		return model.Programme{}, err
	}
	var (
		out model.Programme
		err error
	)
	if p.ID == 0 {
		out, err = a.env.API.CreateProgramme(ctx, p)
	} else {
		out, err = a.env.API.UpdateProgramme(ctx, p)
	}
	if err != nil {
		return model.Programme{}, err
	}
	return out, a.Reload(ctx, TabProgrammes)
}

func (a *Admin) DeleteProgramme(ctx context.Context, id int64) error {
	if err := a.env.confirm(fmt.Sprintf("Delete programme %d?", id)); err != nil {
		return err
	}
	if err := a.env.API.DeleteProgramme(ctx, id); err != nil {
		return err
	}
	return a.Reload(ctx, TabProgrammes)
}
