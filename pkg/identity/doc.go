// Package identity carries the authenticated identity through a request.
//
// This package separates the concept of an authenticated identity from raw
// token checking. An Identity combines the resolved actor (subject, scopes)
// with request-specific context (remote IP, user agent).
//
// # Basic Usage
//
//	// Create identity from an authenticated actor
//	id := identity.FromActor(actor)
//
//	// Add request context
//	id.WithRemoteIP(clientIP).WithUserAgent(r.UserAgent())
//
//	// Store in request context
//	ctx = identity.Set(ctx, id)
//
//	// Retrieve from context
//	id, ok := identity.Get(ctx)
//
// The authn package handles credential and token verification. The identity
// package builds on that to give handlers a single value holding who is
// calling and from where.
package identity
