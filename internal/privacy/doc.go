// Package privacy implements the network-policy engine: tracker
// blocking, HTTPS upgrading, header stripping, permission gating, and
// the session statistics counters.
//
// The engine is the single owner of PrivacyConfig and PrivacyStats.
// Decisions fail open: when a URL cannot be parsed or a check cannot
// be made confidently, the request proceeds unmodified. Breaking
// enforcement is preferred over breaking browsing.
package privacy
