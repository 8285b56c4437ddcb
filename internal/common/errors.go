// Package common defines shared constants and sentinel errors used across
// Centinela client layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository / document-store errors.
	ErrNotFound = errors.New("not found")

	// Location capability errors. ErrLocationUnavailable is the degraded,
	// non-fatal outcome of a failed or denied position fix.
	ErrLocationUnavailable = errors.New("location unavailable")
	ErrPermissionDenied    = errors.New("location permission denied")

	// Feed mutation errors.
	ErrEmptyComment   = errors.New("comment text is empty")
	ErrEmptyPostField = errors.New("post title and body are required")
	ErrToggleInFlight = errors.New("like toggle already in flight")

	// Alert dispatch errors. ErrDispatchFailed means the fast-path write
	// failed and the caller should offer a retry.
	ErrDispatchFailed = errors.New("alert dispatch failed")

	// Subscription errors.
	ErrSubscriptionClosed = errors.New("subscription closed")
)
