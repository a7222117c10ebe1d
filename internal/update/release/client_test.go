package release

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Zombiegoblin4/Bastion-Browser/internal/logging"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/netclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func releaseServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept"), "application/vnd.github+json")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(url string) *Client {
	return NewClient(netclient.New("1.0.0-test", ""), url, logging.Nop())
}

func TestFetchLatestSkipsDrafts(t *testing.T) {
	srv := releaseServer(t, `[
		{"tag_name": "v2.0.0", "draft": true, "published_at": "2026-03-01T00:00:00Z"},
		{"tag_name": "v1.9.0", "draft": false, "published_at": "2026-02-01T00:00:00Z"}
	]`)

	rel, err := newTestClient(srv.URL).FetchLatest(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, rel)
	assert.Equal(t, "v1.9.0", rel.TagName)
}

func TestFetchLatestPrereleaseFilter(t *testing.T) {
	body := `[
		{"tag_name": "v2.0.0-rc.1", "prerelease": true, "published_at": "2026-03-01T00:00:00Z"},
		{"tag_name": "v1.9.0", "prerelease": false, "published_at": "2026-02-01T00:00:00Z"}
	]`

	t.Run("stable only by default", func(t *testing.T) {
		srv := releaseServer(t, body)
		rel, err := newTestClient(srv.URL).FetchLatest(context.Background(), false)
		require.NoError(t, err)
		require.NotNil(t, rel)
		assert.Equal(t, "v1.9.0", rel.TagName)
	})

	t.Run("prereleases opt in", func(t *testing.T) {
		srv := releaseServer(t, body)
		rel, err := newTestClient(srv.URL).FetchLatest(context.Background(), true)
		require.NoError(t, err)
		require.NotNil(t, rel)
		assert.Equal(t, "v2.0.0-rc.1", rel.TagName)
	})
}

func TestFetchLatestPrereleaseOnlyRepo(t *testing.T) {
	// A repo that only ships prereleases still yields one even with
	// the filter on.
	srv := releaseServer(t, `[
		{"tag_name": "v0.2.0-beta", "prerelease": true, "published_at": "2026-02-01T00:00:00Z"},
		{"tag_name": "v0.1.0-beta", "prerelease": true, "published_at": "2026-01-01T00:00:00Z"}
	]`)

	rel, err := newTestClient(srv.URL).FetchLatest(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, rel)
	assert.Equal(t, "v0.2.0-beta", rel.TagName)
}

func TestFetchLatestEmptyIndex(t *testing.T) {
	srv := releaseServer(t, `[]`)

	rel, err := newTestClient(srv.URL).FetchLatest(context.Background(), false)
	require.NoError(t, err)
	assert.Nil(t, rel)
}

func TestFetchLatestOrdersByPublishedAt(t *testing.T) {
	// created_at fills in when published_at is absent.
	srv := releaseServer(t, `[
		{"tag_name": "v1.0.0", "published_at": "2026-01-01T00:00:00Z"},
		{"tag_name": "v1.2.0", "created_at": "2026-03-01T00:00:00Z"},
		{"tag_name": "v1.1.0", "published_at": "2026-02-01T00:00:00Z"}
	]`)

	rel, err := newTestClient(srv.URL).FetchLatest(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, rel)
	assert.Equal(t, "v1.2.0", rel.TagName)
}

func TestFindAsset(t *testing.T) {
	rel := &Release{
		TagName: "v1.3.0",
		Assets: []Asset{
			{Name: "Bastion-Browser-linux.tar.gz"},
			{Name: "Bastion-Browser-win64.zip", BrowserDownloadURL: "https://example.com/b.zip"},
		},
	}

	t.Run("case insensitive match", func(t *testing.T) {
		asset := FindAsset(rel, "bastion-browser-WIN64.zip")
		require.NotNil(t, asset)
		assert.Equal(t, "https://example.com/b.zip", asset.BrowserDownloadURL)
	})

	t.Run("missing asset is nil", func(t *testing.T) {
		assert.Nil(t, FindAsset(rel, "Bastion-Browser-mac.dmg"))
		assert.Nil(t, FindAsset(nil, "anything"))
	})
}
