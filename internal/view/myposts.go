package view

import (
	"context"

	"go.uber.org/zap"

	"github.com/and161185/newsboard/internal/model"
	"github.com/and161185/newsboard/internal/validate"
)

// MyPosts lists the publisher's own submissions and hosts the submission form.
type MyPosts struct {
	env  *Env
	sess model.Session

	News       []model.News
	Programmes []model.Programme
}

// NewMyPosts builds the publisher page for sess.
func NewMyPosts(env *Env, sess model.Session) *MyPosts { return &MyPosts{env: env, sess: sess} }

func (m *MyPosts) Mount(ctx context.Context) (string, error) {
	all, err := m.env.API.ListNews(ctx)
	if err != nil {
		return "", err
	}
	m.News = ByAuthor(all, m.sess.User.Username)

	progs, err := m.env.API.ListProgrammes(ctx)
	if err != nil {
		return "", err
	}
	m.Programmes = progs
	return "", nil
}

// ByAuthor keeps the items written by username.
func ByAuthor(news []model.News, username string) []model.News {
	out := make([]model.News, 0, len(news))
	for _, n := range news {
		if username != "" && n.Auteur != nil && n.Auteur.Username == username {
			out = append(out, n)
		}
	}
	return out
}

// Submit validates the form, creates the item and prepends it to News.
func (m *MyPosts) Submit(ctx context.Context, in model.NewsInput) (model.News, error) {
	in = normalizeNews(in)
	if err := validate.Struct(in); err != nil {
		return model.News{}, err
	}
	n, err := m.env.API.CreateNews(ctx, in)
	if err != nil {
		return model.News{}, err
	}
	m.News = append([]model.News{n}, m.News...)
	m.env.logger().Info("news submitted", zap.Int64("id", n.ID))
	return n, nil
}

// normalizeNews applies the form defaults: low importance, no wished date.
func normalizeNews(in model.NewsInput) model.NewsInput {
	if in.Importance == "" {
		in.Importance = model.ImportanceLow
	}
	if in.DateSouhaiteePublication != nil && *in.DateSouhaiteePublication == "" {
		in.DateSouhaiteePublication = nil
	}
	return in
}
