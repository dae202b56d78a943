package fakeapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

type cleanups []func()

func (c *cleanups) Cleanup(f func()) { *c = append(*c, f) }

func TestNew_ClosedByCleaner(t *testing.T) {
	var c cleanups
	s := New(&c)
	require.Len(t, c, 1)

	resp, err := http.Get(s.BaseURL() + "programmes/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	c[0]()
	_, err = http.Get(s.BaseURL() + "programmes/")
	require.Error(t, err)
}
