// Package store defines the persistence contract of the study: an opaque
// snapshot blob that backends load and save whole. Backends live under
// internal/platform.
package store
