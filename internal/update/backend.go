package update

import (
	"context"

	"github.com/Zombiegoblin4/Bastion-Browser/internal/shared/types"
)

// CheckOptions shapes one update cycle. Download fetches a newer
// artifact in the same cycle; Force additionally bypasses the
// already-on-disk short-circuit so a corrupt artifact can be
// recovered without manual cleanup.
type CheckOptions struct {
	Download bool
	Force    bool
}

// backend is one update strategy. Backends drive status transitions
// through the orchestrator; the orchestrator owns overlap control,
// error transitions, and auto-apply policy.
type backend interface {
	source() types.UpdateSource

	// check runs one discovery cycle. Errors surface as the error
	// state.
	check(ctx context.Context, opts CheckOptions) (checkOutcome, error)

	// install applies the last downloaded artifact and returns the
	// spawned launcher path.
	install(ctx context.Context) (string, error)

	// periodic reports whether scheduled re-checks apply.
	periodic() bool
}

// checkOutcome summarizes one completed cycle for metrics and
// auto-apply decisions.
type checkOutcome struct {
	// kind labels the outcome: "none", "up-to-date", "available",
	// "downloaded", "already-applied".
	kind string

	// downloadedNew is set when this cycle fetched a fresh artifact,
	// as opposed to short-circuiting on one already on disk.
	downloadedNew bool
}
