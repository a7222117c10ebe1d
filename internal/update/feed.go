package update

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/Zombiegoblin4/Bastion-Browser/internal/netclient"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/shared/types"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/update/fetch"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/update/installer"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/update/release"
	"github.com/go-resty/resty/v2"
)

// feedManifest is the generic feed document: the newest version and
// the archive that carries it.
type feedManifest struct {
	Version     string `json:"version"`
	URL         string `json:"url"`
	ReleasePage string `json:"releasePage,omitempty"`
}

// feedBackend updates from a plain JSON manifest at a configured URL.
// It is the fallback for deployments that cannot reach the release
// index. The manifest's artifact must be an archive; installation
// goes through the same staged-extraction path as the archive
// backend, and re-checks run on a fixed schedule.
type feedBackend struct {
	o         *Orchestrator
	http      *netclient.Client
	fetcher   *fetch.Fetcher
	installer *installer.Installer
}

func (b *feedBackend) source() types.UpdateSource { return types.SourceFeed }

func (b *feedBackend) periodic() bool { return true }

func (b *feedBackend) check(ctx context.Context, opts CheckOptions) (checkOutcome, error) {
	o := b.o
	feedURL := o.Config().FeedURL

	o.transition(func(s *types.UpdateStatus) {
		s.State = types.UpdateChecking
		s.Source = b.source()
		s.Message = "Checking update feed"
		s.Error = ""
	})

	manifest, err := b.fetchManifest(ctx, feedURL)
	if err != nil {
		return checkOutcome{}, err
	}

	now := time.Now()
	remote := release.NormalizeVersion(manifest.Version)
	if release.CompareVersions(o.appVersion, remote) >= 0 {
		o.transition(func(s *types.UpdateStatus) {
			s.State = types.UpdateIdle
			s.Message = fmt.Sprintf("Bastion %s is up to date", o.appVersion)
			s.AvailableVersion = remote
			s.DownloadedVersion = remote
			s.ReleasePage = manifest.ReleasePage
			s.CheckedAt = &now
		})
		return checkOutcome{kind: "up-to-date"}, nil
	}

	assetName, err := feedAssetName(manifest.URL)
	if err != nil {
		return checkOutcome{}, err
	}

	meta := o.metaSnapshot()
	if !opts.Force && meta.LastTag == manifest.Version && fileExists(meta.FilePath) {
		o.transition(func(s *types.UpdateStatus) {
			s.State = types.UpdateDownloaded
			s.Message = fmt.Sprintf("Update %s ready to install", remote)
			s.AvailableVersion = remote
			s.DownloadedVersion = remote
			s.UpdateFilePath = meta.FilePath
			s.ReleasePage = manifest.ReleasePage
			s.ProgressPercent = 100
			s.CheckedAt = &now
		})
		return checkOutcome{kind: "downloaded"}, nil
	}

	if !opts.Download {
		o.transition(func(s *types.UpdateStatus) {
			s.State = types.UpdateAvailable
			s.Message = fmt.Sprintf("Update %s is available", remote)
			s.AvailableVersion = remote
			s.ReleasePage = manifest.ReleasePage
			s.CheckedAt = &now
		})
		return checkOutcome{kind: "available"}, nil
	}

	target := o.layout.ArtifactPath(manifest.Version, assetName)
	o.transition(func(s *types.UpdateStatus) {
		s.State = types.UpdateDownloading
		s.Message = progressMessage(remote, 0)
		s.AvailableVersion = remote
		s.ReleasePage = manifest.ReleasePage
		s.ProgressPercent = 0
		s.CheckedAt = &now
	})

	record, err := b.fetcher.DownloadTo(ctx, manifest.URL, target, nil)
	if err != nil {
		return checkOutcome{}, err
	}

	downloadedAt := time.Now()
	o.updateMeta(func(m *types.ReleaseMetadata) {
		m.LastTag = manifest.Version
		m.FilePath = record.SavePath
		m.DownloadedAt = &downloadedAt
		m.SizeBytes = record.ReceivedBytes
		m.AssetName = assetName
		m.ReleasePage = manifest.ReleasePage
	})
	o.appendDownloadRecord(record)
	o.transition(func(s *types.UpdateStatus) {
		s.State = types.UpdateDownloaded
		s.Message = fmt.Sprintf("Update %s downloaded", remote)
		s.DownloadedVersion = remote
		s.UpdateFilePath = record.SavePath
		s.ProgressPercent = 100
	})
	return checkOutcome{kind: "downloaded", downloadedNew: true}, nil
}

func (b *feedBackend) fetchManifest(ctx context.Context, feedURL string) (*feedManifest, error) {
	req, err := b.http.Request(ctx)
	if err != nil {
		return nil, err
	}

	var manifest feedManifest
	resp, err := b.http.Execute(func() (*resty.Response, error) {
		return req.SetResult(&manifest).Get(feedURL)
	})
	if err != nil {
		return nil, fmt.Errorf("feed fetch: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("feed fetch: HTTP %d", resp.StatusCode())
	}
	if manifest.Version == "" || manifest.URL == "" {
		return nil, fmt.Errorf("feed manifest missing version or url")
	}
	return &manifest, nil
}

func (b *feedBackend) install(ctx context.Context) (string, error) {
	o := b.o
	meta := o.metaSnapshot()
	if meta.LastTag == "" || !fileExists(meta.FilePath) {
		return "", fmt.Errorf("no downloaded update to install")
	}
	remote := release.NormalizeVersion(meta.LastTag)

	o.transition(func(s *types.UpdateStatus) {
		s.State = types.UpdateInstalling
		s.Source = b.source()
		s.Message = fmt.Sprintf("Installing update %s", remote)
		s.Error = ""
	})

	launcher, err := b.installer.Apply(ctx, meta.LastTag, meta.FilePath)
	if err != nil {
		return "", err
	}

	appliedAt := time.Now()
	o.updateMeta(func(m *types.ReleaseMetadata) {
		m.LastAppliedTag = meta.LastTag
		m.AppliedAt = &appliedAt
	})
	o.transition(func(s *types.UpdateStatus) {
		s.Message = fmt.Sprintf("Installer for %s launched, Bastion is closing", remote)
	})
	return launcher, nil
}

// feedAssetName derives the artifact's local name from the manifest
// URL path.
func feedAssetName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("feed manifest url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("feed manifest url has no file name")
	}
	return name, nil
}
