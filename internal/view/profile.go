package view

import (
	"context"
	"fmt"

	"github.com/and161185/newsboard/internal/errs"
	"github.com/and161185/newsboard/internal/model"
)

// Profile shows the caller's own record. Students may change how often they
// are notified.
type Profile struct {
	env  *Env
	sess model.Session

	User model.User
}

// NewProfile builds the profile page for sess.
func NewProfile(env *Env, sess model.Session) *Profile { return &Profile{env: env, sess: sess} }

func (p *Profile) Mount(ctx context.Context) (string, error) {
	u, err := p.env.API.Me(ctx)
	if err != nil {
		return "", err
	}
	p.User = u
	return "", nil
}

// SetFrequency updates the notification frequency.
func (p *Profile) SetFrequency(ctx context.Context, f model.Frequency) error {
	role := p.User.Role
	if p.User.ID == 0 {
		role = p.sess.User.Role
	}
	if role != model.RoleStudent {
		return fmt.Errorf("%w: only students choose a notification frequency", errs.ErrForbidden)
	}
	if !f.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", errs.ErrValidation, f)
	}
	u, err := p.env.API.UpdateMe(ctx, model.UserUpdate{NotificationFrequency: &f})
	if err != nil {
		return err
	}
	p.User = u
	return nil
}
