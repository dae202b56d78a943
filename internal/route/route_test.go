package route

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/newsboard/internal/model"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/", Feed},
		{"", Feed},
		{"/admin", Admin},
		{"/admin/", Admin},
		{"moderation", Moderation},
		{"/profile?tab=1", Profile},
		{"/news/12", Inviter},
		{"/nope", Inviter},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, Resolve(tt.in).Path)
		})
	}
}

func TestResolve_PublicAndRoles(t *testing.T) {
	for _, p := range []string{Login, Register, Inviter} {
		require.True(t, Resolve(p).Public, p)
	}
	require.ElementsMatch(t, []model.Role{model.RolePublisher, model.RoleAdmin}, Resolve(MyPosts).Roles)
	require.ElementsMatch(t, []model.Role{model.RoleModerator, model.RoleAdmin}, Resolve(Moderation).Roles)
	require.Equal(t, []model.Role{model.RoleAdmin}, Resolve(Admin).Roles)
	require.ElementsMatch(t, model.AllRoles, Resolve(Feed).Roles)
	require.ElementsMatch(t, model.AllRoles, Resolve(Profile).Roles)
}

func TestLandingFor(t *testing.T) {
	require.Equal(t, Admin, LandingFor(model.RoleAdmin))
	require.Equal(t, Moderation, LandingFor(model.RoleModerator))
	require.Equal(t, MyPosts, LandingFor(model.RolePublisher))
	require.Equal(t, Feed, LandingFor(model.RoleStudent))
	require.Equal(t, Inviter, LandingFor(model.RoleNone))
	require.Equal(t, Login, LandingFor(model.Role("janitor")))
}

func TestAll_IsACopy(t *testing.T) {
	rs := All()
	rs[0].Path = "/changed"
	require.Equal(t, Feed, Resolve("/").Path)
}
