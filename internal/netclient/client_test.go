package netclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Zombiegoblin4/Bastion-Browser/internal/infrastructure/resilience"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIdentityHeaders(t *testing.T) {
	var gotUA, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	c := New("1.2.0", "tok123")
	req, err := c.Request(context.Background())
	require.NoError(t, err)

	_, err = c.Execute(func() (*resty.Response, error) { return req.Get(srv.URL) })
	require.NoError(t, err)

	assert.Equal(t, "Bastion-Browser/1.2.0", gotUA)
	assert.Equal(t, "Bearer tok123", gotAuth)
}

func TestRequestWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	c := New("1.2.0", "")
	req, err := c.Request(context.Background())
	require.NoError(t, err)
	_, err = c.Execute(func() (*resty.Response, error) { return req.Get(srv.URL) })
	require.NoError(t, err)

	assert.Empty(t, gotAuth)
}

func TestBreakerStartsClosed(t *testing.T) {
	c := New("1.2.0", "")
	assert.Equal(t, resilience.StateClosed, c.BreakerState())
}
