package view

import (
	"context"

	"github.com/and161185/newsboard/internal/apiclient"
	"github.com/and161185/newsboard/internal/model"
	"github.com/and161185/newsboard/internal/route"
	"github.com/and161185/newsboard/internal/validate"
)

// Register is the self-registration form. Registration does not log in;
// the new account waits for an admin to assign a role.
type Register struct {
	env *Env

	Programmes []model.Programme
}

// NewRegister builds the registration page.
func NewRegister(env *Env) *Register { return &Register{env: env} }

func (r *Register) Mount(ctx context.Context) (string, error) {
	progs, err := r.env.API.ListProgrammes(apiclient.Anonymous(ctx))
	if err != nil {
		return "", err
	}
	r.Programmes = progs
	return "", nil
}

// Submit creates the account and returns the waiting-room path.
func (r *Register) Submit(ctx context.Context, in model.RegisterInput) (string, error) {
	if in.NotificationFrequency == "" {
		in.NotificationFrequency = model.FrequencyImmediate
	}
	if in.Programme != nil && *in.Programme == 0 {
		in.Programme = nil
	}
	if err := validate.Struct(in); err != nil {
		return "", err
	}
	if _, err := r.env.API.CreateUser(apiclient.Anonymous(ctx), in); err != nil {
		return "", err
	}
	return route.Inviter, nil
}
