package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/and161185/newsboard/internal/model"
)

// --- auth ---

// ObtainToken exchanges credentials for a token pair.
func (c *Client) ObtainToken(ctx context.Context, username, password string) (model.TokenPair, error) {
	var tp model.TokenPair
	in := map[string]string{"username": username, "password": password}
	err := c.Do(Anonymous(ctx), http.MethodPost, "token/", in, &tp)
	return tp, err
}

// RefreshToken exchanges a refresh token for a new access token.
func (c *Client) RefreshToken(ctx context.Context, refresh string) (string, error) {
	var out struct {
		Access string `json:"access"`
	}
	if err := c.Do(Anonymous(ctx), http.MethodPost, "token/refresh/", map[string]string{"refresh": refresh}, &out); err != nil {
		return "", err
	}
	return out.Access, nil
}

// Me fetches the caller's own user record ("who am I").
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var u model.User
	err := c.Do(ctx, http.MethodGet, "users/me/", nil, &u)
	return u, err
}

// UpdateMe patches the caller's own record.
func (c *Client) UpdateMe(ctx context.Context, upd model.UserUpdate) (model.User, error) {
	var u model.User
	err := c.Do(ctx, http.MethodPatch, "users/me/", upd, &u)
	return u, err
}

// CheckRole asks the backend where a role-less user should go.
func (c *Client) CheckRole(ctx context.Context) (model.CheckRole, error) {
	var cr model.CheckRole
	err := c.Do(ctx, http.MethodGet, "check-role/", nil, &cr)
	return cr, err
}

// --- users ---

// ListUsers returns every user (admin).
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	return getList[model.User](ctx, c, "users/")
}

// CreateUser creates an account. Self-registration passes an Anonymous context.
func (c *Client) CreateUser(ctx context.Context, in model.RegisterInput) (model.User, error) {
	var u model.User
	err := c.Do(ctx, http.MethodPost, "users/", in, &u)
	return u, err
}

// UpdateUser patches a user's generic fields; roles go through AssignRole.
func (c *Client) UpdateUser(ctx context.Context, id int64, upd model.UserUpdate) (model.User, error) {
	var u model.User
	err := c.Do(ctx, http.MethodPatch, fmt.Sprintf("users/%d/", id), upd, &u)
	return u, err
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.Do(ctx, http.MethodDelete, fmt.Sprintf("users/%d/", id), nil, nil)
}

// AssignRole sets a user's role and returns the backend's confirmation text.
func (c *Client) AssignRole(ctx context.Context, id int64, role model.Role) (string, error) {
	var out struct {
		Success string `json:"success"`
	}
	err := c.Do(ctx, http.MethodPost, fmt.Sprintf("users/%d/assign-role/", id), map[string]model.Role{"role": role}, &out)
	return out.Success, err
}

// --- news ---

// ModerationAction is a per-id moderation endpoint.
type ModerationAction string

const (
	Approve ModerationAction = "approve"
	Reject  ModerationAction = "reject"
)

// ListNews returns the news collection visible to the caller.
func (c *Client) ListNews(ctx context.Context) ([]model.News, error) {
	return getList[model.News](ctx, c, "news/")
}

// CreateNews submits a news item.
func (c *Client) CreateNews(ctx context.Context, in model.NewsInput) (model.News, error) {
	var n model.News
	err := c.Do(ctx, http.MethodPost, "news/", in, &n)
	return n, err
}

// UpdateNews patches a news item.
func (c *Client) UpdateNews(ctx context.Context, id int64, in model.NewsInput) (model.News, error) {
	var n model.News
	err := c.Do(ctx, http.MethodPatch, fmt.Sprintf("news/%d/", id), in, &n)
	return n, err
}

// DeleteNews removes a news item.
func (c *Client) DeleteNews(ctx context.Context, id int64) error {
	return c.Do(ctx, http.MethodDelete, fmt.Sprintf("news/%d/", id), nil, nil)
}

// Moderate posts an approve or reject action for a news item.
func (c *Client) Moderate(ctx context.Context, id int64, action ModerationAction) error {
	if action != Approve && action != Reject {
		return fmt.Errorf("moderate: unknown action %q", action)
	}
	return c.Do(ctx, http.MethodPost, fmt.Sprintf("news/%d/%s/", id, action), nil, nil)
}

// --- programmes ---

// ListProgrammes returns every programme. Registration calls it with an Anonymous context.
func (c *Client) ListProgrammes(ctx context.Context) ([]model.Programme, error) {
	return getList[model.Programme](ctx, c, "programmes/")
}

// CreateProgramme adds a programme.
func (c *Client) CreateProgramme(ctx context.Context, p model.Programme) (model.Programme, error) {
	var out model.Programme
	err := c.Do(ctx, http.MethodPost, "programmes/", p, &out)
	return out, err
}

// UpdateProgramme patches a programme with the edited record.
func (c *Client) UpdateProgramme(ctx context.Context, p model.Programme) (model.Programme, error) {
	var out model.Programme
	err := c.Do(ctx, http.MethodPatch, fmt.Sprintf("programmes/%d/", p.ID), p, &out)
	return out, err
}

// DeleteProgramme removes a programme.
func (c *Client) DeleteProgramme(ctx context.Context, id int64) error {
	return c.Do(ctx, http.MethodDelete, fmt.Sprintf("programmes/%d/", id), nil, nil)
}

// --- notifications ---

// ListNotifications returns the caller's notifications.
func (c *Client) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	return getList[model.Notification](ctx, c, "notifications/")
}

// MarkNotificationRead flags a notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.Do(ctx, http.MethodPatch, fmt.Sprintf("notifications/%d/", id), map[string]bool{"lue": true}, nil)
}
