// Package store defines the storage interfaces consumed by the engines and
// endpoints, together with their sentinel errors.
//
// Implementations live in subpackages; pkg/server/store/gorm is the
// PostgreSQL implementation. Engines depend only on these interfaces so they
// can be exercised against fakes in tests.
package store
