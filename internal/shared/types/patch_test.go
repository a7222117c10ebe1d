package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrivacyConfigPatchApplyTo(t *testing.T) {
	off := false
	cfg := PrivacyConfigPatch{BlockTrackers: &off}.ApplyTo(DefaultPrivacyConfig())

	assert.False(t, cfg.BlockTrackers)
	// Untouched fields keep their values.
	assert.True(t, cfg.UpgradeHTTPS)
	assert.True(t, cfg.SendDoNotTrack)

	// An empty patch is the identity.
	assert.Equal(t, cfg, PrivacyConfigPatch{}.ApplyTo(cfg))
}

func TestUpdateConfigPatchApplyTo(t *testing.T) {
	on := true
	feed := "https://updates.example.com/feed.json"
	cfg := UpdateConfigPatch{
		AutoDownload: &on,
		FeedURL:      &feed,
	}.ApplyTo(DefaultUpdateConfig())

	assert.True(t, cfg.AutoDownload)
	assert.Equal(t, feed, cfg.FeedURL)
	assert.True(t, cfg.AutoCheck)
	assert.True(t, cfg.UseGithubReleaseZip)
}
