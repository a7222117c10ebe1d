package update

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Zombiegoblin4/Bastion-Browser/internal/events"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/infrastructure/config"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/infrastructure/monitoring"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/logging"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/netclient"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/shared/paths"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/shared/types"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/store"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/update/fetch"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/update/installer"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/update/release"
	"go.uber.org/zap"
)

// recheckInterval paces scheduled re-checks for the feed backend. The
// archive backend only checks on demand or at startup.
const recheckInterval = 4 * time.Hour

// Deps carries everything the orchestrator needs. All fields are
// required except Metrics.
type Deps struct {
	Layout     paths.Layout
	Storage    *store.Store
	Bus        *events.Bus
	Log        *logging.Logger
	Metrics    *monitoring.Metrics
	HTTP       *netclient.Client
	Releases   *release.Client
	Fetcher    *fetch.Fetcher
	Installer  *installer.Installer
	Env        config.UpdateConfig
	AppVersion string
	Packaged   bool
}

// Orchestrator owns the update state machine. One status record per
// process; every transition replaces it and broadcasts the full
// snapshot. Cycles never overlap: a second check while one is in
// flight is refused rather than queued.
type Orchestrator struct {
	storage *store.Store
	bus     *events.Bus
	log     *logging.Logger
	metrics *monitoring.Metrics
	layout  paths.Layout

	appVersion string
	packaged   bool

	archive *archiveBackend
	feed    *feedBackend

	inFlight atomic.Bool

	mu     sync.RWMutex
	cfg    types.UpdateConfig
	status types.UpdateStatus
	meta   types.ReleaseMetadata

	stopOnce sync.Once
	stop     chan struct{}
}

// New creates the orchestrator, loading persisted config and release
// metadata and seeding the initial status record.
func New(deps Deps) *Orchestrator {
	o := &Orchestrator{
		storage:    deps.Storage,
		bus:        deps.Bus,
		log:        deps.Log,
		metrics:    deps.Metrics,
		layout:     deps.Layout,
		appVersion: deps.AppVersion,
		packaged:   deps.Packaged,
		stop:       make(chan struct{}),
	}

	cfg := types.DefaultUpdateConfig()
	var patch types.UpdateConfigPatch
	if o.storage.Load(paths.UpdateConfigFile, &patch) {
		cfg = patch.ApplyTo(cfg)
	}
	if cfg.FeedURL == "" {
		cfg.FeedURL = deps.Env.FeedURL
	}
	o.cfg = cfg
	o.storage.Load(paths.ReleaseMetadataFile, &o.meta)

	o.archive = &archiveBackend{
		o:           o,
		releases:    deps.Releases,
		fetcher:     deps.Fetcher,
		installer:   deps.Installer,
		assetName:   deps.Env.AssetName,
		releasePage: deps.Env.ReleasePage,
	}
	o.feed = &feedBackend{
		o:         o,
		http:      deps.HTTP,
		fetcher:   deps.Fetcher,
		installer: deps.Installer,
	}

	backend := o.activeBackend()
	seed := types.UpdateStatus{
		State:          types.UpdateIdle,
		Message:        "Updates idle",
		Source:         types.SourceNone,
		CurrentVersion: o.appVersion,
		Packaged:       o.packaged,
		UpdatedAt:      time.Now(),
	}
	if backend == nil {
		seed.State = types.UpdateDisabled
		seed.Message = "Updates are not configured"
	} else {
		seed.Source = backend.source()
	}
	o.status = seed
	return o
}

// Start kicks off the startup auto-check and the re-check loop. It
// returns immediately.
func (o *Orchestrator) Start(ctx context.Context) {
	cfg := o.Config()
	if cfg.AutoCheck {
		download := cfg.AutoDownload || (cfg.AutoApplyGithubZip && o.packaged)
		go o.Check(ctx, CheckOptions{Download: download})
	}

	go o.recheckLoop(ctx)
}

// Close stops the periodic re-check loop.
func (o *Orchestrator) Close() {
	o.stopOnce.Do(func() { close(o.stop) })
}

// recheckLoop ticks for the lifetime of the orchestrator; whether a
// tick runs a cycle is decided per tick, so config patches re-arm or
// disarm the schedule without restarting anything.
func (o *Orchestrator) recheckLoop(ctx context.Context) {
	ticker := time.NewTicker(recheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.stop:
			return
		case <-ticker.C:
			if !o.shouldRecheck() {
				continue
			}
			o.Check(ctx, CheckOptions{Download: o.Config().AutoDownload})
		}
	}
}

// shouldRecheck reports whether a scheduled tick should run a cycle.
// Only the feed backend re-checks on a timer; the archive backend
// checks on demand or at startup.
func (o *Orchestrator) shouldRecheck() bool {
	if !o.Config().AutoCheck {
		return false
	}
	b := o.activeBackend()
	return b != nil && b.periodic()
}

// Status returns the current status snapshot.
func (o *Orchestrator) Status() types.UpdateStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status
}

// Config returns the current update config.
func (o *Orchestrator) Config() types.UpdateConfig {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.cfg
}

// PatchConfig applies a partial config update, persists the merged
// config, and broadcasts it.
func (o *Orchestrator) PatchConfig(patch types.UpdateConfigPatch) *types.Result {
	o.mu.Lock()
	o.cfg = patch.ApplyTo(o.cfg)
	cfg := o.cfg
	o.mu.Unlock()

	o.storage.Save(paths.UpdateConfigFile, cfg)
	o.bus.Publish(events.TopicUpdateConfig, cfg)
	o.log.Info("update config changed",
		zap.Bool("autoCheck", cfg.AutoCheck),
		zap.Bool("useGithubReleaseZip", cfg.UseGithubReleaseZip))
	return types.Ok(map[string]interface{}{"config": cfg})
}

// Check runs one update cycle on the active backend. With Download
// set, a newer artifact is fetched in the same cycle; otherwise the
// cycle stops at the available state.
func (o *Orchestrator) Check(ctx context.Context, opts CheckOptions) *types.Result {
	backend := o.activeBackend()
	if backend == nil {
		st := o.transition(func(s *types.UpdateStatus) {
			s.State = types.UpdateDisabled
			s.Source = types.SourceNone
			s.Message = "Updates are not configured"
			s.Error = ""
		})
		return types.Ok(map[string]interface{}{"status": st})
	}

	if !o.inFlight.CompareAndSwap(false, true) {
		return types.Fail("update check already in progress")
	}
	defer o.inFlight.Store(false)

	outcome, err := backend.check(ctx, opts)
	if err != nil {
		o.metrics.RecordUpdateCheck("error")
		o.log.Warn("update check failed", zap.Error(err))
		st := o.fail(backend.source(), "Update check failed", err)
		res := types.Fail(err.Error())
		res.Data = map[string]interface{}{"status": st}
		return res
	}
	o.metrics.RecordUpdateCheck(outcome.kind)

	if outcome.downloadedNew && o.shouldAutoApply(backend) {
		if res := o.install(ctx, backend); !res.Success {
			return res
		}
	}
	return types.Ok(map[string]interface{}{"status": o.Status()})
}

// Download is a check that always fetches a newer artifact. With
// force set, an artifact already on disk is fetched again.
func (o *Orchestrator) Download(ctx context.Context, force bool) *types.Result {
	return o.Check(ctx, CheckOptions{Download: true, Force: force})
}

// Install applies the downloaded artifact via the active backend and
// hands the process over to the launcher.
func (o *Orchestrator) Install(ctx context.Context) *types.Result {
	backend := o.activeBackend()
	if backend == nil {
		return types.Fail("updates are not configured")
	}
	return o.install(ctx, backend)
}

func (o *Orchestrator) install(ctx context.Context, b backend) *types.Result {
	launcher, err := b.install(ctx)
	if err != nil {
		o.log.Warn("update install failed", zap.Error(err))
		st := o.fail(b.source(), "Update install failed", err)
		res := types.Fail(err.Error())
		res.Data = map[string]interface{}{"status": st}
		return res
	}
	return types.Ok(map[string]interface{}{
		"launcher": launcher,
		"status":   o.Status(),
	})
}

// shouldAutoApply reports whether a fresh download should immediately
// hand off to the installer. Unattended apply is opt-in and only
// meaningful for a packaged host on the archive backend.
func (o *Orchestrator) shouldAutoApply(b backend) bool {
	if b.source() != types.SourceGithubReleaseZip || !o.packaged {
		return false
	}
	cfg := o.Config()
	if !cfg.AutoApplyGithubZip {
		return false
	}
	meta := o.metaSnapshot()
	return meta.LastTag != "" && meta.LastTag != meta.LastAppliedTag
}

// activeBackend picks the backend the config selects, or nil when
// updates are unconfigured.
func (o *Orchestrator) activeBackend() backend {
	cfg := o.Config()
	switch {
	case cfg.UseGithubReleaseZip:
		return o.archive
	case cfg.FeedURL != "":
		return o.feed
	default:
		return nil
	}
}

// transition replaces the status record under the mutator, re-stamps
// the live process fields, persists nothing, and broadcasts the full
// snapshot.
func (o *Orchestrator) transition(mutate func(*types.UpdateStatus)) types.UpdateStatus {
	o.mu.Lock()
	next := o.status
	mutate(&next)
	next.CurrentVersion = o.appVersion
	next.Packaged = o.packaged
	next.UpdatedAt = time.Now()
	o.status = next
	o.mu.Unlock()

	o.metrics.RecordTransition(string(next.State))
	o.bus.Publish(events.TopicUpdateStatus, next)
	return next
}

// fail moves the machine to the error state with a human-readable
// message, keeping the last known version fields intact.
func (o *Orchestrator) fail(src types.UpdateSource, message string, err error) types.UpdateStatus {
	return o.transition(func(s *types.UpdateStatus) {
		s.State = types.UpdateError
		s.Source = src
		s.Message = message
		s.Error = err.Error()
	})
}

func (o *Orchestrator) metaSnapshot() types.ReleaseMetadata {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.meta
}

// updateMeta mutates and persists the release metadata document.
func (o *Orchestrator) updateMeta(mutate func(*types.ReleaseMetadata)) {
	o.mu.Lock()
	mutate(&o.meta)
	meta := o.meta
	o.mu.Unlock()
	o.storage.Save(paths.ReleaseMetadataFile, meta)
}

// downloadHistoryLimit caps the persisted download record list.
const downloadHistoryLimit = 20

// appendDownloadRecord persists a completed artifact download in the
// downloads document, newest last.
func (o *Orchestrator) appendDownloadRecord(record *types.DownloadRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var records []types.DownloadRecord
	o.storage.Load(paths.DownloadsFile, &records)
	records = append(records, *record)
	if len(records) > downloadHistoryLimit {
		records = records[len(records)-downloadHistoryLimit:]
	}
	o.storage.Save(paths.DownloadsFile, records)
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// progressMessage formats the downloading message with whole-percent
// granularity.
func progressMessage(version string, pct float64) string {
	return fmt.Sprintf("Downloading update %s (%d%%)", version, int(pct))
}
