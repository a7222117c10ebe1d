package types

import "time"

// PrivacyConfig holds the network-policy flags. It is an immutable
// snapshot: patches produce a new value that replaces the old one
// wholesale. Every field is always present; absent keys in persisted
// JSON fall back to defaults on load.
type PrivacyConfig struct {
	BlockTrackers                 bool `json:"blockTrackers"`
	UpgradeHTTPS                  bool `json:"upgradeHttps"`
	SendDoNotTrack                bool `json:"sendDoNotTrack"`
	SendGlobalPrivacyControl      bool `json:"sendGlobalPrivacyControl"`
	BlockThirdPartyCookies        bool `json:"blockThirdPartyCookies"`
	StripThirdPartyReferer        bool `json:"stripThirdPartyReferer"`
	BlockFingerprintingPermission bool `json:"blockFingerprintingPermissions"`
	ClearDataOnExit               bool `json:"clearDataOnExit"`
}

// DefaultPrivacyConfig returns the shipped privacy defaults.
func DefaultPrivacyConfig() PrivacyConfig {
	return PrivacyConfig{
		BlockTrackers:                 true,
		UpgradeHTTPS:                  true,
		SendDoNotTrack:                true,
		SendGlobalPrivacyControl:      true,
		BlockThirdPartyCookies:        true,
		StripThirdPartyReferer:        true,
		BlockFingerprintingPermission: true,
		ClearDataOnExit:               false,
	}
}

// PrivacyStats holds the session counters. Counters are monotonically
// non-decreasing within a process lifetime; they reset only on an
// explicit data clear or a restart.
type PrivacyStats struct {
	BlockedRequests       int64     `json:"blockedRequests"`
	UpgradedToHTTPS       int64     `json:"upgradedToHttps"`
	StrippedCookieHeaders int64     `json:"strippedCookieHeaders"`
	StrippedRefererHeader int64     `json:"strippedRefererHeaders"`
	BlockedPermissions    int64     `json:"blockedPermissions"`
	StartedAt             time.Time `json:"startedAt"`
}

// ClearDataScope selects what a clear-data request removes.
type ClearDataScope string

const (
	ClearAll       ClearDataScope = "all"
	ClearCache     ClearDataScope = "cache"
	ClearCookies   ClearDataScope = "cookies"
	ClearStorage   ClearDataScope = "storage"
	ClearHistory   ClearDataScope = "history"
	ClearDownloads ClearDataScope = "downloads"
)

// ValidClearScope reports whether scope names a known clear target.
func ValidClearScope(scope ClearDataScope) bool {
	switch scope {
	case ClearAll, ClearCache, ClearCookies, ClearStorage, ClearHistory, ClearDownloads:
		return true
	}
	return false
}
