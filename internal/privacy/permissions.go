package privacy

import "github.com/Zombiegoblin4/Bastion-Browser/internal/shared/types"

// fingerprintingPermissions are capabilities whose main practical use
// is device fingerprinting. Denied whenever the
// blockFingerprintingPermissions flag is on.
var fingerprintingPermissions = map[string]bool{
	"idle-detection":    true,
	"window-management": true,
	"window-placement":  true,
	"display-capture":   true,
	"midi":              true,
	"midiSysex":         true,
	"pointerLock":       true,
	"background-sync":   true,
	"payment-handler":   true,
	"speaker-selection": true,
}

// allowedPermissions are the capabilities Bastion grants without
// prompting. Everything outside both lists is denied by default.
var allowedPermissions = map[string]bool{
	"fullscreen":     true,
	"notifications":  true,
	"clipboard-read": true,
	"media":          true,
}

// DecidePermission answers a capability request from the webview.
// The decision is deterministic: the same configuration and
// capability always produce the same answer, so the transport layer
// may use it for both one-shot request prompts and repeatable checks.
func (e *Engine) DecidePermission(capability string) bool {
	cfg := e.Config()

	if cfg.BlockFingerprintingPermission && fingerprintingPermissions[capability] {
		e.denyPermission()
		return false
	}
	if allowedPermissions[capability] {
		e.metrics.RecordPermission(true)
		return true
	}

	e.denyPermission()
	return false
}

func (e *Engine) denyPermission() {
	e.bump(func(s *types.PrivacyStats) { s.BlockedPermissions++ })
	e.metrics.RecordPermission(false)
}
