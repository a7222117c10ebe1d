package update

import (
	"context"
	"fmt"
	"time"

	"github.com/Zombiegoblin4/Bastion-Browser/internal/shared/types"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/update/fetch"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/update/installer"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/update/release"
	"go.uber.org/zap"
)

// archiveBackend updates from the release index: it resolves the
// newest qualifying release, downloads its named zip asset, and
// applies it by running the installer embedded in the archive.
type archiveBackend struct {
	o         *Orchestrator
	releases  *release.Client
	fetcher   *fetch.Fetcher
	installer *installer.Installer

	assetName   string
	releasePage string
}

func (b *archiveBackend) source() types.UpdateSource { return types.SourceGithubReleaseZip }

// Archive updates only re-check on demand; the release index is
// polled at startup, not on a timer.
func (b *archiveBackend) periodic() bool { return false }

func (b *archiveBackend) check(ctx context.Context, opts CheckOptions) (checkOutcome, error) {
	o := b.o
	cfg := o.Config()

	o.transition(func(s *types.UpdateStatus) {
		s.State = types.UpdateChecking
		s.Source = b.source()
		s.Message = "Checking for updates"
		s.Error = ""
	})

	rel, err := b.releases.FetchLatest(ctx, cfg.AllowPrerelease)
	if err != nil {
		return checkOutcome{}, err
	}
	now := time.Now()
	if rel == nil {
		o.transition(func(s *types.UpdateStatus) {
			s.State = types.UpdateIdle
			s.Message = "No releases published yet"
			s.CheckedAt = &now
		})
		return checkOutcome{kind: "none"}, nil
	}

	tag := rel.TagName
	remote := release.NormalizeVersion(tag)
	page := rel.HTMLURL
	if page == "" {
		page = b.releasePage
	}

	if release.CompareVersions(o.appVersion, remote) >= 0 {
		o.transition(func(s *types.UpdateStatus) {
			s.State = types.UpdateIdle
			s.Message = fmt.Sprintf("Bastion %s is up to date", o.appVersion)
			s.AvailableVersion = remote
			s.DownloadedVersion = remote
			s.ReleasePage = page
			s.CheckedAt = &now
		})
		return checkOutcome{kind: "up-to-date"}, nil
	}

	asset := release.FindAsset(rel, b.assetName)
	if asset == nil {
		return checkOutcome{}, fmt.Errorf("release %s has no asset %q", tag, b.assetName)
	}

	// A tag already on disk never downloads twice unless forced.
	meta := o.metaSnapshot()
	if !opts.Force && meta.LastTag == tag && fileExists(meta.FilePath) {
		if meta.LastAppliedTag == tag {
			o.transition(func(s *types.UpdateStatus) {
				s.State = types.UpdateIdle
				s.Message = fmt.Sprintf("Update %s already installed, restart pending", remote)
				s.AvailableVersion = remote
				s.ReleasePage = page
				s.CheckedAt = &now
			})
			return checkOutcome{kind: "already-applied"}, nil
		}
		o.transition(func(s *types.UpdateStatus) {
			s.State = types.UpdateDownloaded
			s.Message = fmt.Sprintf("Update %s ready to install", remote)
			s.AvailableVersion = remote
			s.DownloadedVersion = remote
			s.UpdateFilePath = meta.FilePath
			s.ReleasePage = page
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
			s.ReleasePage = page
			s.CheckedAt = &now
		})
		return checkOutcome{kind: "available"}, nil
	}

	target := o.layout.ArtifactPath(tag, asset.Name)
	o.transition(func(s *types.UpdateStatus) {
		s.State = types.UpdateDownloading
		s.Message = progressMessage(remote, 0)
		s.AvailableVersion = remote
		s.ReleasePage = page
		s.ProgressPercent = 0
		s.CheckedAt = &now
	})

	record, err := b.fetcher.DownloadTo(ctx, asset.BrowserDownloadURL, target,
		b.progressReporter(remote))
	if err != nil {
		return checkOutcome{}, err
	}

	downloadedAt := time.Now()
	o.updateMeta(func(m *types.ReleaseMetadata) {
		m.LastTag = tag
		m.FilePath = record.SavePath
		m.DownloadedAt = &downloadedAt
		m.SizeBytes = record.ReceivedBytes
		m.AssetName = asset.Name
		m.ReleasePage = page
	})
	o.appendDownloadRecord(record)
	o.transition(func(s *types.UpdateStatus) {
		s.State = types.UpdateDownloaded
		s.Message = fmt.Sprintf("Update %s downloaded", remote)
		s.DownloadedVersion = remote
		s.UpdateFilePath = record.SavePath
		s.ProgressPercent = 100
	})
	o.log.Info("update artifact downloaded",
		zap.String("tag", tag), zap.Int64("bytes", record.ReceivedBytes))
	return checkOutcome{kind: "downloaded", downloadedNew: true}, nil
}

// progressReporter throttles downloading transitions to whole-percent
// steps so the event stream is not flooded per chunk.
func (b *archiveBackend) progressReporter(version string) fetch.ProgressFunc {
	last := -1
	return func(p fetch.Progress) {
		if p.Total <= 0 {
			return
		}
		pct := int(float64(p.Received) * 100 / float64(p.Total))
		if pct == last {
			return
		}
		last = pct
		b.o.transition(func(s *types.UpdateStatus) {
			s.State = types.UpdateDownloading
			s.Message = progressMessage(version, float64(pct))
			s.ProgressPercent = float64(pct)
		})
	}
}

func (b *archiveBackend) install(ctx context.Context) (string, error) {
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
