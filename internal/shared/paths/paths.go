package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// Persisted JSON documents, one per concern.
const (
	PrivacyConfigFile   = "privacy-config.json"
	UpdateConfigFile    = "update-config.json"
	ReleaseMetadataFile = "github-update.json"
	DownloadsFile       = "downloads.json"
	HistoryFile         = "history.json"
)

// Layout resolves paths under the app's private data directory.
type Layout struct {
	Root string
}

// Default returns the layout rooted in the per-user config directory,
// falling back to a directory under the temp dir when the OS refuses
// to report one.
func Default() Layout {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return Layout{Root: filepath.Join(base, "bastion-browser")}
}

// Document returns the full path of a persisted JSON document.
func (l Layout) Document(name string) string {
	return filepath.Join(l.Root, name)
}

// UpdatesDir is the directory holding downloaded update artifacts.
func (l Layout) UpdatesDir() string {
	return filepath.Join(l.Root, "updates")
}

// ArtifactPath returns the on-disk location for a release asset,
// namespaced by its sanitized tag to avoid collisions and traversal.
func (l Layout) ArtifactPath(tag, assetName string) string {
	return filepath.Join(l.UpdatesDir(), SanitizeTag(tag)+"-"+SanitizeTag(assetName))
}

// StagingDir returns the extraction directory for a release tag.
func (l Layout) StagingDir(tag string) string {
	return filepath.Join(l.UpdatesDir(), "staging", SanitizeTag(tag))
}

// SanitizeTag replaces every character outside [A-Za-z0-9._-] so a
// remote tag can never escape the updates directory.
func SanitizeTag(tag string) string {
	var b strings.Builder
	b.Grow(len(tag))
	for _, r := range tag {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "untagged"
	}
	return b.String()
}
