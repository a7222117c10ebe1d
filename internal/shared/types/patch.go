package types

// PrivacyConfigPatch is a partial privacy-config update. Nil fields
// leave the current value untouched, so a persisted document with
// missing keys or a sparse patch from the shell never zeroes a flag.
type PrivacyConfigPatch struct {
	BlockTrackers                 *bool `json:"blockTrackers,omitempty"`
	UpgradeHTTPS                  *bool `json:"upgradeHttps,omitempty"`
	SendDoNotTrack                *bool `json:"sendDoNotTrack,omitempty"`
	SendGlobalPrivacyControl      *bool `json:"sendGlobalPrivacyControl,omitempty"`
	BlockThirdPartyCookies        *bool `json:"blockThirdPartyCookies,omitempty"`
	StripThirdPartyReferer        *bool `json:"stripThirdPartyReferer,omitempty"`
	BlockFingerprintingPermission *bool `json:"blockFingerprintingPermissions,omitempty"`
	ClearDataOnExit               *bool `json:"clearDataOnExit,omitempty"`
}

// ApplyTo returns cfg with every non-nil patch field applied.
func (p PrivacyConfigPatch) ApplyTo(cfg PrivacyConfig) PrivacyConfig {
	setBool(&cfg.BlockTrackers, p.BlockTrackers)
	setBool(&cfg.UpgradeHTTPS, p.UpgradeHTTPS)
	setBool(&cfg.SendDoNotTrack, p.SendDoNotTrack)
	setBool(&cfg.SendGlobalPrivacyControl, p.SendGlobalPrivacyControl)
	setBool(&cfg.BlockThirdPartyCookies, p.BlockThirdPartyCookies)
	setBool(&cfg.StripThirdPartyReferer, p.StripThirdPartyReferer)
	setBool(&cfg.BlockFingerprintingPermission, p.BlockFingerprintingPermission)
	setBool(&cfg.ClearDataOnExit, p.ClearDataOnExit)
	return cfg
}

// UpdateConfigPatch is a partial update-config update, same contract
// as PrivacyConfigPatch.
type UpdateConfigPatch struct {
	AutoCheck           *bool   `json:"autoCheck,omitempty"`
	AutoDownload        *bool   `json:"autoDownload,omitempty"`
	AllowPrerelease     *bool   `json:"allowPrerelease,omitempty"`
	FeedURL             *string `json:"feedURL,omitempty"`
	UseGithubReleaseZip *bool   `json:"useGithubReleaseZip,omitempty"`
	AutoApplyGithubZip  *bool   `json:"autoApplyGithubZip,omitempty"`
	AutoUpdateUblock    *bool   `json:"autoUpdateUblockOrigin,omitempty"`
}

// ApplyTo returns cfg with every non-nil patch field applied.
func (p UpdateConfigPatch) ApplyTo(cfg UpdateConfig) UpdateConfig {
	setBool(&cfg.AutoCheck, p.AutoCheck)
	setBool(&cfg.AutoDownload, p.AutoDownload)
	setBool(&cfg.AllowPrerelease, p.AllowPrerelease)
	if p.FeedURL != nil {
		cfg.FeedURL = *p.FeedURL
	}
	setBool(&cfg.UseGithubReleaseZip, p.UseGithubReleaseZip)
	setBool(&cfg.AutoApplyGithubZip, p.AutoApplyGithubZip)
	setBool(&cfg.AutoUpdateUblock, p.AutoUpdateUblock)
	return cfg
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
