package view

import (
	"context"

	"go.uber.org/zap"

	"github.com/and161185/newsboard/internal/apiclient"
	"github.com/and161185/newsboard/internal/model"
)

// Pending is the moderation queue.
type Pending struct {
	env *Env

	News []model.News
}

// NewPending builds the moderation queue.
func NewPending(env *Env) *Pending { return &Pending{env: env} }

func (p *Pending) Mount(ctx context.Context) (string, error) {
	all, err := p.env.API.ListNews(ctx)
	if err != nil {
		return "", err
	}
	p.News = make([]model.News, 0, len(all))
	for _, n := range all {
		if n.Statut == model.StatutPending {
			p.News = append(p.News, n)
		}
	}
	return "", nil
}

// Approve publishes an item and reloads the queue.
func (p *Pending) Approve(ctx context.Context, id int64) error {
	return p.moderate(ctx, id, apiclient.Approve)
}

// Reject refuses an item and reloads the queue.
func (p *Pending) Reject(ctx context.Context, id int64) error {
	return p.moderate(ctx, id, apiclient.Reject)
}

func (p *Pending) moderate(ctx context.Context, id int64, action apiclient.ModerationAction) error {
	if err := p.env.API.Moderate(ctx, id, action); err != nil {
		return err
	}
	p.env.logger().Info("news moderated", zap.Int64("id", id), zap.String("action", string(action)))
	_, err := p.Mount(ctx)
	return err
}
