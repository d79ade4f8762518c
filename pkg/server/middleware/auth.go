// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/keyfoldhq/keyfold/pkg/audit"
	"github.com/keyfoldhq/keyfold/pkg/authn"
	"github.com/keyfoldhq/keyfold/pkg/identity"
)

// Authenticator validates a plaintext token. Implemented by
// authn.TokenEngine.
type Authenticator interface {
	Authenticate(plaintext string) (*authn.Actor, error)
}

// TokenAuthenticator is middleware that resolves bearer tokens to actors.
type TokenAuthenticator struct {
	Tokens   Authenticator
	Recorder *audit.Recorder

	// TrustedProxy, when set, decides whether X-Forwarded-For from the
	// connecting address is believed.
	TrustedProxy func(ip string) bool
}

// NewTokenAuthenticator creates a new token authenticator middleware.
func NewTokenAuthenticator(tokens Authenticator, recorder *audit.Recorder, trustedProxy func(ip string) bool) *TokenAuthenticator {
	return &TokenAuthenticator{Tokens: tokens, Recorder: recorder, TrustedProxy: trustedProxy}
}

// ExtractToken pulls the plaintext token from the Authorization header,
// falling back to X-API-KEY.
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return r.Header.Get("X-API-KEY")
}

// ClientIP resolves the client address, honoring X-Forwarded-For only when
// the connecting address is a trusted proxy.
func (t *TokenAuthenticator) ClientIP(r *http.Request) string {
	remote, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remote = r.RemoteAddr
	}
	if t.TrustedProxy == nil || !t.TrustedProxy(remote) {
		return remote
	}
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded == "" {
		return remote
	}
	parts := strings.Split(forwarded, ",")
	return strings.TrimSpace(parts[0])
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// Middleware returns an HTTP middleware that authenticates requests.
// Failures are audited as auth.fail before the 401 goes out.
func (t *TokenAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := ExtractToken(r)
		ip := t.ClientIP(r)

		if tokenStr == "" {
			writeUnauthorized(w, "Missing API token")
			return
		}

		actor, err := t.Tokens.Authenticate(tokenStr)
		if err != nil {
			if t.Recorder != nil {
				t.Recorder.Record(audit.RequestEvent{
					ActorType:  "token",
					Action:     "auth.fail",
					Method:     r.Method,
					Path:       r.URL.Path,
					IP:         ip,
					UserAgent:  r.UserAgent(),
					StatusCode: http.StatusUnauthorized,
					Reason:     err.Error(),
				})
			}
			writeUnauthorized(w, fmt.Sprintf("Not Authorized to access the requested resource (%s)", err))
			return
		}

		id := identity.FromActor(actor).
			WithRemoteIP(net.ParseIP(ip)).
			WithUserAgent(r.UserAgent())
		next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), id)))
	})
}
