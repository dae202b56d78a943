package view

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/newsboard/internal/errs"
	"github.com/and161185/newsboard/internal/model"
	"github.com/and161185/newsboard/internal/poll"
)

// Notifications is the navbar dropdown. It may be refreshed from a background
// poll while the owning page is shown, so its state is guarded.
type Notifications struct {
	env *Env

	mu    sync.Mutex
	items []model.Notification
}

// NewNotifications builds the dropdown.
func NewNotifications(env *Env) *Notifications { return &Notifications{env: env} }

func (n *Notifications) Mount(ctx context.Context) (string, error) {
	items, err := n.env.API.ListNotifications(ctx)
	if err != nil {
		return "", err
	}
	n.mu.Lock()
	n.items = items
	n.mu.Unlock()
	return "", nil
}

// Items returns a snapshot of the loaded notifications.
func (n *Notifications) Items() []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.items)
}

// Unread counts notifications not yet marked read.
func (n *Notifications) Unread() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, it := range n.items {
		if !it.Lue {
			c++
		}
	}
	return c
}

// MarkRead flags a notification as read and returns the path of the news it
// points at.
func (n *Notifications) MarkRead(ctx context.Context, id int64) (string, error) {
	n.mu.Lock()
	i := slices.IndexFunc(n.items, func(it model.Notification) bool { return it.ID == id })
	var news int64
	if i >= 0 {
		news = n.items[i].News
	}
	n.mu.Unlock()
	if i < 0 {
		return "", fmt.Errorf("%w: notification %d", errs.ErrNotFound, id)
	}
	if err := n.env.API.MarkNotificationRead(ctx, id); err != nil {
		return "", err
	}

	n.mu.Lock()
	// the list may have been replaced by a poll in between
	for k := range n.items {
		if n.items[k].ID == id {
			n.items[k].Lue = true
		}
	}
	n.mu.Unlock()
	return fmt.Sprintf("/news/%d", news), nil
}

// Watch refreshes the list every poll interval until ctx ends. onChange, if
// set, runs after each successful refresh.
func (n *Notifications) Watch(ctx context.Context, onChange func(*Notifications)) error {
	s := poll.New(n.env.logger())
	err := s.Every("notifications", n.env.pollEvery(), false, func(ctx context.Context) {
		if _, err := n.Mount(ctx); err != nil {
			n.env.logger().Warn("refresh notifications", zap.Error(err))
			return
		}
		if onChange != nil {
			onChange(n)
		}
	})
	if err != nil {
		return err
	}
	s.Run(ctx)
	return nil
}
