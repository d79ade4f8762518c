package identity

import (
	"context"
	"net"

	"github.com/keyfoldhq/keyfold/pkg/authn"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// Key is the context key for Identity.
	Key ContextKey = "identity"
)

// Identity represents the authenticated identity for a request.
// It combines the resolved actor with request-specific context.
type Identity struct {
	// Actor is the authenticated principal with its effective scopes.
	Actor *authn.Actor

	// Request context
	RemoteIP  net.IP
	UserAgent string
}

// FromActor creates an Identity from an authenticated actor.
func FromActor(actor *authn.Actor) *Identity {
	return &Identity{Actor: actor}
}

// WithRemoteIP sets the remote IP address.
func (i *Identity) WithRemoteIP(ip net.IP) *Identity {
	i.RemoteIP = ip
	return i
}

// WithUserAgent sets the client user agent.
func (i *Identity) WithUserAgent(ua string) *Identity {
	i.UserAgent = ua
	return i
}

// Username returns the acting subject's name, or "" for an anonymous
// identity.
func (i *Identity) Username() string {
	if i == nil || i.Actor == nil {
		return ""
	}
	return i.Actor.Owner()
}

// TokenID returns the authenticating token's ID, or "" when the identity
// was not established by a token.
func (i *Identity) TokenID() string {
	if i == nil || i.Actor == nil {
		return ""
	}
	return i.Actor.TokenID
}

// Get retrieves Identity from context.
func Get(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(Key).(*Identity)
	return id, ok
}

// Set stores Identity in context.
func Set(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, Key, id)
}
