// Package route holds the client route table and the per-role landing pages.
package route

import (
	"strings"

	"github.com/and161185/newsboard/internal/model"
)

const (
	Feed       = "/"
	Login      = "/login"
	Register   = "/register"
	Inviter    = "/inviter"
	MyPosts    = "/myposts"
	Moderation = "/moderation"
	Admin      = "/admin"
	Profile    = "/profile"
)

// Route is one client-visible page. Public routes skip the session check;
// the rest require one of Roles.
type Route struct {
	Path   string
	Roles  []model.Role
	Public bool
}

var table = []Route{
	{Path: Feed, Roles: []model.Role{model.RoleStudent, model.RoleAdmin, model.RoleModerator, model.RolePublisher}},
	{Path: Login, Public: true},
	{Path: Register, Public: true},
	{Path: Inviter, Public: true},
	{Path: MyPosts, Roles: []model.Role{model.RolePublisher, model.RoleAdmin}},
	{Path: Moderation, Roles: []model.Role{model.RoleModerator, model.RoleAdmin}},
	{Path: Admin, Roles: []model.Role{model.RoleAdmin}},
	{Path: Profile, Roles: model.AllRoles},
}

// All returns the route table.
func All() []Route { return append([]Route(nil), table...) }

// Resolve maps a path to its route. Unknown paths fall through to the waiting room.
func Resolve(path string) Route {
	p := normalize(path)
	for _, r := range table {
		if r.Path == p {
			return r
		}
	}
	return table[3]
}

// LandingFor is the page a freshly logged-in user of role r is sent to.
func LandingFor(r model.Role) string {
	switch r {
	case model.RoleAdmin:
		return Admin
	case model.RoleModerator:
		return Moderation
	case model.RolePublisher:
		return MyPosts
	case model.RoleStudent:
		return Feed
	case model.RoleNone:
		return Inviter
	}
	return Login
}

func normalize(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimSpace(p)
	if p == "" {
		return Feed
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = Feed
		}
	}
	return p
}
