// Package paths provides the on-disk layout for Bastion's per-user
// application data. All components resolve persisted documents, update
// artifacts, and staging directories through this package so the
// layout stays in one place.
package paths
