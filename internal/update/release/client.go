// Package release discovers the latest qualifying release in the
// remote release index and compares versions.
package release

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Zombiegoblin4/Bastion-Browser/internal/logging"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/netclient"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// Release is one entry of the remote release index.
type Release struct {
	TagName     string  `json:"tag_name"`
	Draft       bool    `json:"draft"`
	Prerelease  bool    `json:"prerelease"`
	HTMLURL     string  `json:"html_url"`
	PublishedAt string  `json:"published_at"`
	CreatedAt   string  `json:"created_at"`
	Assets      []Asset `json:"assets"`
}

// Client queries the release index.
type Client struct {
	http        *netclient.Client
	releasesURL string
	log         *logging.Logger
}

// NewClient creates a release-index client.
func NewClient(http *netclient.Client, releasesURL string, log *logging.Logger) *Client {
	return &Client{http: http, releasesURL: releasesURL, log: log}
}

// FetchLatest returns the newest qualifying release, or nil when the
// index holds none. Drafts are always excluded; prereleases are
// excluded unless allowPrerelease is set, falling back to the
// unfiltered draft-excluded pool when the filter empties it.
func (c *Client) FetchLatest(ctx context.Context, allowPrerelease bool) (*Release, error) {
	req, err := c.http.Request(ctx)
	if err != nil {
		return nil, err
	}
	req.SetHeader("Accept", "application/vnd.github+json")

	resp, err := c.http.Execute(func() (*resty.Response, error) {
		var releases []Release
		return req.SetResult(&releases).Get(c.releasesURL)
	})
	if err != nil {
		return nil, fmt.Errorf("release index fetch: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("release index fetch: HTTP %d", resp.StatusCode())
	}

	releases, ok := resp.Result().(*[]Release)
	if !ok || releases == nil {
		return nil, fmt.Errorf("release index fetch: unexpected response shape")
	}

	published := make([]Release, 0, len(*releases))
	for _, rel := range *releases {
		if !rel.Draft {
			published = append(published, rel)
		}
	}
	if len(published) == 0 {
		return nil, nil
	}

	pool := published
	if !allowPrerelease {
		stable := make([]Release, 0, len(published))
		for _, rel := range published {
			if !rel.Prerelease {
				stable = append(stable, rel)
			}
		}
		// A repo that only ever ships prereleases still gets updates.
		if len(stable) > 0 {
			pool = stable
		}
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return releaseTime(pool[i]).After(releaseTime(pool[j]))
	})

	latest := pool[0]
	c.log.Debug("resolved latest release",
		zap.String("tag", latest.TagName),
		zap.Bool("prerelease", latest.Prerelease))
	return &latest, nil
}

// FindAsset resolves a named asset on a release, matching the name
// case-insensitively. A nil result is a hard failure condition for
// the caller: a release without the expected asset cannot be used.
func FindAsset(rel *Release, assetName string) *Asset {
	if rel == nil {
		return nil
	}
	for i := range rel.Assets {
		if strings.EqualFold(rel.Assets[i].Name, assetName) {
			return &rel.Assets[i]
		}
	}
	return nil
}

// releaseTime resolves a release's ordering timestamp. Unparseable
// timestamps sort as the epoch, pushing malformed entries last.
func releaseTime(rel Release) time.Time {
	for _, raw := range []string{rel.PublishedAt, rel.CreatedAt} {
		if raw == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t
		}
	}
	return time.Unix(0, 0)
}
