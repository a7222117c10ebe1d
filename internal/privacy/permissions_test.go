package privacy

import (
	"testing"

	"github.com/Zombiegoblin4/Bastion-Browser/internal/shared/types"
	"github.com/stretchr/testify/assert"
)

func TestDecidePermission(t *testing.T) {
	e := newTestEngine(t)

	t.Run("allow list", func(t *testing.T) {
		for _, cap := range []string{"fullscreen", "notifications", "clipboard-read", "media"} {
			assert.True(t, e.DecidePermission(cap), "capability %q", cap)
		}
	})

	t.Run("fingerprinting capabilities denied", func(t *testing.T) {
		for _, cap := range []string{"idle-detection", "display-capture", "midi", "pointerLock"} {
			assert.False(t, e.DecidePermission(cap), "capability %q", cap)
		}
	})

	t.Run("unknown capabilities denied by default", func(t *testing.T) {
		assert.False(t, e.DecidePermission("geolocation"))
		assert.False(t, e.DecidePermission(""))
	})

	t.Run("denials bump the counter", func(t *testing.T) {
		before := e.Stats().BlockedPermissions
		e.DecidePermission("midi")
		e.DecidePermission("geolocation")
		assert.Equal(t, before+2, e.Stats().BlockedPermissions)
	})

	t.Run("same answer every time", func(t *testing.T) {
		first := e.DecidePermission("display-capture")
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, e.DecidePermission("display-capture"))
		}
	})
}

func TestDecidePermissionFlagOff(t *testing.T) {
	e := newTestEngine(t)
	e.PatchConfig(types.PrivacyConfigPatch{
		BlockFingerprintingPermission: boolPtr(false),
	})

	// With the flag off, fingerprinting capabilities fall through to
	// the default-deny path rather than being force-denied; either way
	// they stay denied since they are not on the allow list.
	assert.False(t, e.DecidePermission("midi"))
	assert.True(t, e.DecidePermission("fullscreen"))
}
