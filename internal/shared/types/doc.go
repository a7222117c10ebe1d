// Package types provides shared data structures for the Bastion core.
//
// This package defines the types that cross component boundaries,
// ensuring consistent shapes between the policy engine, the update
// orchestrator, persistence, and the shell-facing API.
//
// Core Types:
//   - PrivacyConfig, PrivacyStats: network-policy configuration and counters
//   - UpdateConfig, UpdateStatus: self-update configuration and state
//   - ReleaseMetadata: last downloaded/applied release artifact
//   - DownloadRecord: bookkeeping for a single artifact download
//   - Result: standard operation result returned across the UI boundary
//
// Interception Types:
//   - InterceptRequest: per-request metadata from the transport layer
//   - Decision, Verdict: the policy engine's answer for one request
package types
