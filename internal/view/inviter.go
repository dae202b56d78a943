package view

import (
	"context"

	"go.uber.org/zap"

	"github.com/and161185/newsboard/internal/poll"
	"github.com/and161185/newsboard/internal/route"
)

// Inviter is the waiting room for users without a role. It asks the backend
// where the user belongs and leaves as soon as the answer is another page.
type Inviter struct {
	env *Env
}

// NewInviter builds the waiting room.
func NewInviter(env *Env) *Inviter { return &Inviter{env: env} }

func (i *Inviter) Mount(ctx context.Context) (string, error) {
	cr, err := i.env.API.CheckRole(ctx)
	if err != nil {
		return "", err
	}
	if cr.Redirect != "" && cr.Redirect != route.Inviter {
		return cr.Redirect, nil
	}
	return "", nil
}

// Watch re-checks until the backend names another page or ctx ends. Failed
// checks are logged and retried on the next tick.
func (i *Inviter) Watch(ctx context.Context) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	found := make(chan string, 1)
	s := poll.New(i.env.logger())
	err := s.Every("check-role", i.env.pollEvery(), true, func(ctx context.Context) {
		target, err := i.Mount(ctx)
		if err != nil {
			i.env.logger().Warn("check-role", zap.Error(err))
			return
		}
		if target == "" {
			return
		}
		select {
		case found <- target:
			cancel()
		default:
		}
	})
	if err != nil {
		return "", err
	}
	s.Run(ctx)

	select {
	case target := <-found:
		return target, nil
	default:
		return "", ctx.Err()
	}
}
