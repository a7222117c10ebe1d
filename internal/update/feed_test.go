package update

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
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

func newFeedOrchestrator(t *testing.T, version string) (*Orchestrator, paths.Layout) {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/feed.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"version": "1.4.0", "url": %q, "releasePage": "https://example.com/notes"}`,
			srv.URL+"/bastion-1.4.0.zip")
	})
	mux.HandleFunc("/bastion-1.4.0.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("feed archive payload"))
	})

	layout := paths.Layout{Root: t.TempDir()}
	log := logging.Nop()
	storage := store.New(layout, log)
	storage.Save(paths.UpdateConfigFile, types.UpdateConfig{
		UseGithubReleaseZip: false,
		FeedURL:             srv.URL + "/feed.json",
	})

	httpClient := netclient.New(version+"-test", "")
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
		AppVersion: version,
	})
	return o, layout
}

func TestFeedCheckAndDownload(t *testing.T) {
	o, layout := newFeedOrchestrator(t, "1.2.0")

	res := o.Check(context.Background(), CheckOptions{})
	require.True(t, res.Success)

	st := o.Status()
	assert.Equal(t, types.UpdateAvailable, st.State)
	assert.Equal(t, types.SourceFeed, st.Source)
	assert.Equal(t, "1.4.0", st.AvailableVersion)
	assert.Equal(t, "https://example.com/notes", st.ReleasePage)

	res = o.Download(context.Background(), false)
	require.True(t, res.Success)

	st = o.Status()
	assert.Equal(t, types.UpdateDownloaded, st.State)
	assert.Equal(t, "1.4.0", st.DownloadedVersion)

	artifact := layout.ArtifactPath("1.4.0", "bastion-1.4.0.zip")
	assert.Equal(t, artifact, st.UpdateFilePath)
	_, err := os.Stat(artifact)
	assert.NoError(t, err)
}

func TestFeedUpToDate(t *testing.T) {
	o, _ := newFeedOrchestrator(t, "1.4.0")

	res := o.Check(context.Background(), CheckOptions{Download: true})
	require.True(t, res.Success)
	assert.Equal(t, types.UpdateIdle, o.Status().State)
}
