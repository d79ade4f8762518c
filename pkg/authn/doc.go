// Package authn issues and authenticates bearer tokens, verifies userpass
// credentials, and runs the one-time bootstrap flow.
//
// Tokens are opaque: the server stores only a salted SHA-256 hash and returns
// the plaintext exactly once at creation. Personal tokens resolve to live
// RBAC scopes on every authentication; api-purpose personal tokens are
// additionally clamped to the scopes they were minted with.
package authn
