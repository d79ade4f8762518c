// Package model defines the database models for Keyfold.
//
// This package contains GORM models that map to the Keyfold PostgreSQL
// schema.
//
// # Core Models
//
//   - Workspace: tenant root with default-role settings
//   - Project: slug-addressed container for configs
//   - Config: per-project environment, optionally inheriting from a parent
//   - Secret: encoded key/value document owned by one config
//   - User / UserCredential: account bookkeeping and userpass login
//   - WorkspaceMembership / ProjectMembership: role assignments
//   - Group / GroupMember: group-granted project roles
//   - Token: salted-hash bearer credentials with scope payloads
//   - AuditEvent: append-only request audit trail
//   - OnboardingState: single-row bootstrap state machine
package model
