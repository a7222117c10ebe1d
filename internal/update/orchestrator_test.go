package update

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Zombiegoblin4/Bastion-Browser/internal/events"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/infrastructure/config"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/logging"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/netclient"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/shared/paths"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/shared/types"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/store"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/update/fetch"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/update/installer"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/update/release"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAsset = "Bastion-Browser-win64.zip"

// releaseFixture serves a one-release index plus its asset and counts
// asset downloads.
type releaseFixture struct {
	srv       *httptest.Server
	downloads atomic.Int64
	indexBody func() string
	assetBody []byte
}

func newReleaseFixture(t *testing.T, tag string) *releaseFixture {
	t.Helper()
	f := &releaseFixture{assetBody: []byte("update archive payload")}
	mux := http.NewServeMux()
	mux.HandleFunc("/releases", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, f.indexBody())
	})
	mux.HandleFunc("/asset", func(w http.ResponseWriter, r *http.Request) {
		f.downloads.Add(1)
		w.Write(f.assetBody)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)

	f.indexBody = func() string {
		return fmt.Sprintf(`[{
			"tag_name": %q,
			"html_url": "https://example.com/releases/%s",
			"published_at": "2026-08-01T00:00:00Z",
			"assets": [{"name": %q, "browser_download_url": %q, "size": 22}]
		}]`, tag, tag, testAsset, f.srv.URL+"/asset")
	}
	return f
}

func newTestOrchestrator(t *testing.T, releasesURL, appVersion string) (*Orchestrator, paths.Layout, *store.Store) {
	t.Helper()
	layout := paths.Layout{Root: t.TempDir()}
	log := logging.Nop()
	storage := store.New(layout, log)
	bus := events.NewBus()
	httpClient := netclient.New(appVersion+"-test", "")

	o := New(Deps{
		Layout:     layout,
		Storage:    storage,
		Bus:        bus,
		Log:        log,
		HTTP:       httpClient,
		Releases:   release.NewClient(httpClient, releasesURL, log),
		Fetcher:    fetch.New(httpClient, log, nil),
		Installer:  installer.New(layout, log, "Bastion", func() {}),
		Env:        config.UpdateConfig{AssetName: testAsset, ReleasePage: "https://example.com/releases/latest"},
		AppVersion: appVersion,
		Packaged:   false,
	})
	return o, layout, storage
}

func TestCheckFindsUpdate(t *testing.T) {
	f := newReleaseFixture(t, "v1.3.0")
	o, _, _ := newTestOrchestrator(t, f.srv.URL+"/releases", "1.2.0")

	res := o.Check(context.Background(), CheckOptions{})
	require.True(t, res.Success)

	st := o.Status()
	assert.Equal(t, types.UpdateAvailable, st.State)
	assert.Equal(t, "1.3.0", st.AvailableVersion)
	assert.Equal(t, types.SourceGithubReleaseZip, st.Source)
	assert.Equal(t, "https://example.com/releases/v1.3.0", st.ReleasePage)
	assert.NotNil(t, st.CheckedAt)
	assert.EqualValues(t, 0, f.downloads.Load())
}

func TestCheckUpToDate(t *testing.T) {
	f := newReleaseFixture(t, "v1.3.0")
	o, _, _ := newTestOrchestrator(t, f.srv.URL+"/releases", "1.3.0")

	res := o.Check(context.Background(), CheckOptions{Download: true})
	require.True(t, res.Success)

	st := o.Status()
	assert.Equal(t, types.UpdateIdle, st.State)
	assert.Contains(t, st.Message, "up to date")
	assert.EqualValues(t, 0, f.downloads.Load())
}

func TestDownloadAndIdempotence(t *testing.T) {
	f := newReleaseFixture(t, "v1.3.0")
	o, layout, storage := newTestOrchestrator(t, f.srv.URL+"/releases", "1.2.0")

	res := o.Download(context.Background(), false)
	require.True(t, res.Success)

	st := o.Status()
	assert.Equal(t, types.UpdateDownloaded, st.State)
	assert.Equal(t, "1.3.0", st.DownloadedVersion)
	assert.Equal(t, float64(100), st.ProgressPercent)

	artifact := layout.ArtifactPath("v1.3.0", testAsset)
	assert.Equal(t, artifact, st.UpdateFilePath)
	_, err := os.Stat(artifact)
	assert.NoError(t, err)

	var meta types.ReleaseMetadata
	require.True(t, storage.Load(paths.ReleaseMetadataFile, &meta))
	assert.Equal(t, "v1.3.0", meta.LastTag)
	assert.Equal(t, testAsset, meta.AssetName)
	assert.EqualValues(t, 22, meta.SizeBytes)

	var records []types.DownloadRecord
	require.True(t, storage.Load(paths.DownloadsFile, &records))
	require.Len(t, records, 1)
	assert.Equal(t, types.DownloadCompleted, records[0].State)
	assert.Equal(t, artifact, records[0].SavePath)

	// A second cycle for the same tag never downloads again.
	res = o.Download(context.Background(), false)
	require.True(t, res.Success)
	assert.Equal(t, types.UpdateDownloaded, o.Status().State)
	assert.EqualValues(t, 1, f.downloads.Load())
}

func TestForceRedownload(t *testing.T) {
	f := newReleaseFixture(t, "v1.3.0")
	o, _, _ := newTestOrchestrator(t, f.srv.URL+"/releases", "1.2.0")

	res := o.Download(context.Background(), false)
	require.True(t, res.Success)
	assert.EqualValues(t, 1, f.downloads.Load())

	// Without force the on-disk artifact short-circuits the cycle.
	res = o.Download(context.Background(), false)
	require.True(t, res.Success)
	assert.EqualValues(t, 1, f.downloads.Load())

	// Force re-fetches even though the tag is already on disk.
	res = o.Download(context.Background(), true)
	require.True(t, res.Success)
	assert.Equal(t, types.UpdateDownloaded, o.Status().State)
	assert.EqualValues(t, 2, f.downloads.Load())
}

func TestCheckMissingAsset(t *testing.T) {
	f := newReleaseFixture(t, "v1.3.0")
	f.indexBody = func() string {
		return `[{"tag_name": "v1.3.0", "published_at": "2026-08-01T00:00:00Z", "assets": []}]`
	}
	o, _, _ := newTestOrchestrator(t, f.srv.URL+"/releases", "1.2.0")

	res := o.Check(context.Background(), CheckOptions{Download: true})
	assert.False(t, res.Success)

	st := o.Status()
	assert.Equal(t, types.UpdateError, st.State)
	assert.NotEmpty(t, st.Error)
}

func TestCheckEmptyIndex(t *testing.T) {
	f := newReleaseFixture(t, "v1.3.0")
	f.indexBody = func() string { return "[]" }
	o, _, _ := newTestOrchestrator(t, f.srv.URL+"/releases", "1.2.0")

	res := o.Check(context.Background(), CheckOptions{Download: true})
	require.True(t, res.Success)
	assert.Equal(t, types.UpdateIdle, o.Status().State)
}

func TestCheckUnparseableTagStaysPut(t *testing.T) {
	f := newReleaseFixture(t, "nightly")
	o, _, _ := newTestOrchestrator(t, f.srv.URL+"/releases", "1.2.0")

	// An unparseable remote tag compares equal, so nothing downloads.
	res := o.Check(context.Background(), CheckOptions{Download: true})
	require.True(t, res.Success)
	assert.Equal(t, types.UpdateIdle, o.Status().State)
	assert.EqualValues(t, 0, f.downloads.Load())
}

func TestInstallWithoutDownload(t *testing.T) {
	f := newReleaseFixture(t, "v1.3.0")
	o, _, _ := newTestOrchestrator(t, f.srv.URL+"/releases", "1.2.0")

	res := o.Install(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, types.UpdateError, o.Status().State)
}

func TestDisabledWhenUnconfigured(t *testing.T) {
	layout := paths.Layout{Root: t.TempDir()}
	log := logging.Nop()
	storage := store.New(layout, log)
	storage.Save(paths.UpdateConfigFile, types.UpdateConfig{
		AutoCheck:           false,
		UseGithubReleaseZip: false,
	})

	httpClient := netclient.New("1.2.0-test", "")
	o := New(Deps{
		Layout:     layout,
		Storage:    storage,
		Bus:        events.NewBus(),
		Log:        log,
		HTTP:       httpClient,
		Releases:   release.NewClient(httpClient, "http://127.0.0.1:0", log),
		Fetcher:    fetch.New(httpClient, log, nil),
		Installer:  installer.New(layout, log, "Bastion", func() {}),
		Env:        config.UpdateConfig{AssetName: testAsset},
		AppVersion: "1.2.0",
	})

	assert.Equal(t, types.UpdateDisabled, o.Status().State)

	res := o.Check(context.Background(), CheckOptions{Download: true})
	require.True(t, res.Success)
	assert.Equal(t, types.UpdateDisabled, o.Status().State)

	res = o.Install(context.Background())
	assert.False(t, res.Success)
}

func TestStatusBroadcasts(t *testing.T) {
	f := newReleaseFixture(t, "v1.3.0")
	o, _, _ := newTestOrchestrator(t, f.srv.URL+"/releases", "1.2.0")

	sub, cancel := o.bus.Subscribe(64)
	defer cancel()

	res := o.Check(context.Background(), CheckOptions{})
	require.True(t, res.Success)

	var states []types.UpdateState
	for len(sub) > 0 {
		ev := <-sub
		if ev.Topic != events.TopicUpdateStatus {
			continue
		}
		st, ok := ev.Payload.(types.UpdateStatus)
		require.True(t, ok)
		// Every event is a full snapshot.
		assert.Equal(t, "1.2.0", st.CurrentVersion)
		states = append(states, st.State)
	}
	assert.Equal(t, []types.UpdateState{types.UpdateChecking, types.UpdateAvailable}, states)
}

func TestPatchConfigSwitchesBackend(t *testing.T) {
	f := newReleaseFixture(t, "v1.3.0")
	o, _, storage := newTestOrchestrator(t, f.srv.URL+"/releases", "1.2.0")

	off := false
	feed := "https://updates.example.com/feed.json"
	res := o.PatchConfig(types.UpdateConfigPatch{
		UseGithubReleaseZip: &off,
		FeedURL:             &feed,
	})
	require.True(t, res.Success)

	cfg := o.Config()
	assert.False(t, cfg.UseGithubReleaseZip)
	assert.Equal(t, feed, cfg.FeedURL)

	var persisted types.UpdateConfig
	require.True(t, storage.Load(paths.UpdateConfigFile, &persisted))
	assert.Equal(t, cfg, persisted)
}

// launcherArchive builds a zip holding a runnable setup script.
func launcherArchive(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entry, err := zw.Create("bastion-setup.cmd")
	require.NoError(t, err)
	_, err = entry.Write([]byte("exit 0\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestInstallAppliesDownloadedArchive(t *testing.T) {
	f := newReleaseFixture(t, "v1.3.0")
	f.assetBody = launcherArchive(t)
	o, _, storage := newTestOrchestrator(t, f.srv.URL+"/releases", "1.2.0")

	res := o.Download(context.Background(), false)
	require.True(t, res.Success)
	require.Equal(t, types.UpdateDownloaded, o.Status().State)

	sub, cancel := o.bus.Subscribe(64)
	defer cancel()

	res = o.Install(context.Background())
	require.True(t, res.Success)

	launcher, ok := res.Data["launcher"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(launcher, "bastion-setup.cmd"))
	_, err := os.Stat(launcher)
	assert.NoError(t, err)

	var states []types.UpdateState
	for len(sub) > 0 {
		ev := <-sub
		if ev.Topic != events.TopicUpdateStatus {
			continue
		}
		states = append(states, ev.Payload.(types.UpdateStatus).State)
	}
	require.NotEmpty(t, states)
	assert.Equal(t, types.UpdateInstalling, states[0])

	st := o.Status()
	assert.Equal(t, types.UpdateInstalling, st.State)
	assert.Contains(t, st.Message, "launched")

	var meta types.ReleaseMetadata
	require.True(t, storage.Load(paths.ReleaseMetadataFile, &meta))
	assert.Equal(t, "v1.3.0", meta.LastAppliedTag)
	assert.NotNil(t, meta.AppliedAt)
}

func TestScheduledRecheckFollowsConfig(t *testing.T) {
	f := newReleaseFixture(t, "v1.3.0")
	o, _, _ := newTestOrchestrator(t, f.srv.URL+"/releases", "1.2.0")

	// Archive backend never re-checks on a timer.
	assert.False(t, o.shouldRecheck())

	off := false
	feed := "https://updates.example.com/feed.json"
	o.PatchConfig(types.UpdateConfigPatch{
		UseGithubReleaseZip: &off,
		FeedURL:             &feed,
	})
	assert.True(t, o.shouldRecheck())

	// Disabling auto-check disarms the schedule.
	o.PatchConfig(types.UpdateConfigPatch{AutoCheck: &off})
	assert.False(t, o.shouldRecheck())

	// Switching back to the archive backend keeps it disarmed even
	// with auto-check on.
	on := true
	o.PatchConfig(types.UpdateConfigPatch{
		AutoCheck:           &on,
		UseGithubReleaseZip: &on,
	})
	assert.False(t, o.shouldRecheck())
}
