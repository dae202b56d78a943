package view

import (
	"context"

	"github.com/and161185/newsboard/internal/model"
)

// Feed shows the approved news of the user's programme.
type Feed struct {
	env  *Env
	sess model.Session

	News []model.News
}

// NewFeed builds a feed for sess.
func NewFeed(env *Env, sess model.Session) *Feed { return &Feed{env: env, sess: sess} }

func (f *Feed) Mount(ctx context.Context) (string, error) {
	all, err := f.env.API.ListNews(ctx)
	if err != nil {
		return "", err
	}
	f.News = FilterFeed(all, f.sess.User.Programme.ID)
	return "", nil
}

// FilterFeed keeps approved items of programme, in input order. A zero
// programme selects the items that carry no programme.
func FilterFeed(news []model.News, programme int64) []model.News {
	out := make([]model.News, 0, len(news))
	for _, n := range news {
		if n.Statut != model.StatutApproved {
			continue
		}
		if n.Programme.ID != programme {
			continue
		}
		out = append(out, n)
	}
	return out
}
