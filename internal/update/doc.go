// Package update drives the self-update pipeline: release discovery,
// artifact download, and installer hand-off, behind a single state
// machine with a pluggable backend.
//
// Two backends exist: the archive backend downloads a zip asset from
// the release index and runs the installer embedded in it; the feed
// backend follows a generic JSON manifest. Exactly one is active at a
// time, selected by configuration. The state machine, persistence,
// and status broadcasting are shared.
package update
