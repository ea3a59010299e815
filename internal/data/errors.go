// Package data provides PostgreSQL-backed record-store adapters.
package data

import "errors"

// Shared sentinel errors for data-layer stores.
var (
	ErrStoreNotConfigured = errors.New("record store not configured")
	ErrIDRequired         = errors.New("id is required")
)
