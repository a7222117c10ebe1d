package types

import "time"

// UpdateConfig holds the self-update flags. Persisted JSON is merged
// with defaults on load so unknown or absent keys never crash the
// orchestrator.
type UpdateConfig struct {
	AutoCheck           bool   `json:"autoCheck"`
	AutoDownload        bool   `json:"autoDownload"`
	AllowPrerelease     bool   `json:"allowPrerelease"`
	FeedURL             string `json:"feedURL"`
	UseGithubReleaseZip bool   `json:"useGithubReleaseZip"`
	AutoApplyGithubZip  bool   `json:"autoApplyGithubZip"`
	AutoUpdateUblock    bool   `json:"autoUpdateUblockOrigin"`
}

// DefaultUpdateConfig returns the shipped update defaults.
func DefaultUpdateConfig() UpdateConfig {
	return UpdateConfig{
		AutoCheck:           true,
		AutoDownload:        false,
		AllowPrerelease:     false,
		UseGithubReleaseZip: true,
		AutoApplyGithubZip:  false,
		AutoUpdateUblock:    true,
	}
}

// UpdateState is the orchestrator's lifecycle state.
type UpdateState string

const (
	UpdateIdle        UpdateState = "idle"
	UpdateChecking    UpdateState = "checking"
	UpdateAvailable   UpdateState = "available"
	UpdateDownloading UpdateState = "downloading"
	UpdateDownloaded  UpdateState = "downloaded"
	UpdateInstalling  UpdateState = "installing"
	UpdateDisabled    UpdateState = "disabled"
	UpdateError       UpdateState = "error"
)

// UpdateSource names the backend that produced the current status.
type UpdateSource string

const (
	SourceNone             UpdateSource = "none"
	SourceGithubReleaseZip UpdateSource = "github-release-zip"
	SourceFeed             UpdateSource = "electron-updater"
)

// UpdateStatus is the single status record for the process. Every
// transition replaces it atomically and broadcasts the full record.
type UpdateStatus struct {
	State             UpdateState  `json:"status"`
	Message           string       `json:"message"`
	Source            UpdateSource `json:"source"`
	CurrentVersion    string       `json:"currentVersion"`
	AvailableVersion  string       `json:"availableVersion,omitempty"`
	DownloadedVersion string       `json:"downloadedVersion,omitempty"`
	UpdateFilePath    string       `json:"updateFilePath,omitempty"`
	ReleasePage       string       `json:"releasePage,omitempty"`
	ProgressPercent   float64      `json:"progressPercent"`
	Packaged          bool         `json:"packaged"`
	CheckedAt         *time.Time   `json:"checkedAt,omitempty"`
	Error             string       `json:"error,omitempty"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// ReleaseMetadata tracks the last successfully downloaded and applied
// release artifact so repeated checks are idempotent.
type ReleaseMetadata struct {
	LastTag        string     `json:"lastTag,omitempty"`
	FilePath       string     `json:"filePath,omitempty"`
	DownloadedAt   *time.Time `json:"downloadedAt,omitempty"`
	SizeBytes      int64      `json:"sizeBytes,omitempty"`
	AssetName      string     `json:"assetName,omitempty"`
	ReleasePage    string     `json:"releasePage,omitempty"`
	LastAppliedTag string     `json:"lastAppliedTag,omitempty"`
	AppliedAt      *time.Time `json:"appliedAt,omitempty"`
}

// DownloadState is the lifecycle of one artifact download.
type DownloadState string

const (
	DownloadInProgress  DownloadState = "progressing"
	DownloadCompleted   DownloadState = "completed"
	DownloadInterrupted DownloadState = "interrupted"
)

// DownloadRecord is the bookkeeping entry for one artifact download.
type DownloadRecord struct {
	ID            string        `json:"id"`
	Filename      string        `json:"filename"`
	URL           string        `json:"url"`
	State         DownloadState `json:"state"`
	ReceivedBytes int64         `json:"receivedBytes"`
	TotalBytes    int64         `json:"totalBytes"`
	SavePath      string        `json:"savePath"`
	StartedAt     time.Time     `json:"startedAt"`
	EndedAt       *time.Time    `json:"endedAt,omitempty"`
}
