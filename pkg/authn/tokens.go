package authn

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/keyfoldhq/keyfold/pkg/model"
	"github.com/keyfoldhq/keyfold/pkg/rbac"
	"github.com/keyfoldhq/keyfold/pkg/server/store"
)

// SessionTokenTTL caps how long an interactive session token may live.
const SessionTokenTTL = 24 * time.Hour

// Authentication failures, ordered by precedence: an unknown hash is
// reported before revocation, revocation before expiry.
var (
	ErrTokenInvalid  = errors.New("invalid")
	ErrTokenRevoked  = errors.New("revoked")
	ErrTokenExpired  = errors.New("expired")
	ErrUserDisabled  = errors.New("disabled")
	ErrTokenNotFound = errors.New("Token not found")
	ErrNotAllowed    = errors.New("Not allowed")
)

// PersonalActorResolver resolves a username to its live RBAC state. Wired to
// rbac.Engine.ResolvePersonalActor in production.
type PersonalActorResolver func(username string) (*rbac.Actor, error)

// TokenEngine issues, lists, revokes and authenticates bearer tokens.
type TokenEngine struct {
	tokens   store.Tokens
	salt     string
	resolver PersonalActorResolver
	now      func() time.Time
}

func NewTokenEngine(tokens store.Tokens, salt string, resolver PersonalActorResolver) *TokenEngine {
	return &TokenEngine{tokens: tokens, salt: salt, resolver: resolver, now: time.Now}
}

func (e *TokenEngine) hashToken(plaintext string) string {
	sum := sha256.Sum256([]byte(e.salt + plaintext))
	return hex.EncodeToString(sum[:])
}

// CreateTokenParams describes a token to mint.
type CreateTokenParams struct {
	Type               model.TokenType
	CreatedBy          string
	Scopes             model.ScopeList
	SubjectUser        string
	SubjectServiceName string
	ExpiresAt          *time.Time
	Purpose            model.TokenPurpose
}

// CreatedToken carries the one-time plaintext alongside the stored row.
type CreatedToken struct {
	Token     string
	ExpiresAt *time.Time
	Type      model.TokenType
	Record    *model.Token
}

// CreateToken mints a token and returns its plaintext. The plaintext is not
// recoverable afterwards.
func (e *TokenEngine) CreateToken(params CreateTokenParams) (*CreatedToken, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	plaintext := hex.EncodeToString(raw)

	purpose := params.Purpose
	if purpose == "" {
		purpose = model.TokenPurposeAPI
	}
	scopes := params.Scopes
	if scopes == nil {
		scopes = model.ScopeList{}
	}

	record := &model.Token{
		TokenHash: e.hashToken(plaintext),
		Type:      params.Type,
		Scopes:    scopes,
		Purpose:   purpose,
		ExpiresAt: params.ExpiresAt,
		CreatedAt: e.now().UTC(),
		CreatedBy: params.CreatedBy,
	}
	if params.SubjectUser != "" {
		subject := params.SubjectUser
		record.SubjectUser = &subject
	}
	if params.SubjectServiceName != "" {
		subject := params.SubjectServiceName
		record.SubjectServiceName = &subject
	}
	if err := e.tokens.Insert(record); err != nil {
		return nil, err
	}
	return &CreatedToken{
		Token:     plaintext,
		ExpiresAt: record.ExpiresAt,
		Type:      record.Type,
		Record:    record,
	}, nil
}

// boundedSessionTTL clamps a requested TTL to (0, SessionTokenTTL].
func boundedSessionTTL(maxTTL time.Duration) time.Duration {
	if maxTTL <= 0 || maxTTL > SessionTokenTTL {
		return SessionTokenTTL
	}
	return maxTTL
}

// Generate mints a fresh session token for a user, revoking any previous
// live session token first so one session is active at a time.
func (e *TokenEngine) Generate(username string, maxTTL time.Duration) (*CreatedToken, error) {
	now := e.now().UTC()
	if err := e.tokens.RevokeActiveSessionTokens(username, GlobalScopes(), now); err != nil {
		return nil, err
	}
	expiresAt := now.Add(boundedSessionTTL(maxTTL))
	return e.CreateToken(CreateTokenParams{
		Type:        model.TokenTypePersonal,
		CreatedBy:   username,
		SubjectUser: username,
		Scopes:      GlobalScopes(),
		ExpiresAt:   &expiresAt,
		Purpose:     model.TokenPurposeSession,
	})
}

// RevokeParams identifies the token to revoke, by plaintext or by id.
// Username, when set, restricts revocation to the requester's own tokens.
type RevokeParams struct {
	Token    string
	TokenID  string
	Username string
}

// Revoke marks a token revoked. Users may revoke tokens they own or created;
// anything else is ErrNotAllowed.
func (e *TokenEngine) Revoke(params RevokeParams) error {
	var record *model.Token
	var err error
	switch {
	case params.TokenID != "":
		record, err = e.tokens.GetByID(params.TokenID)
	case params.Token != "":
		record, err = e.tokens.GetByHash(e.hashToken(params.Token))
	default:
		return ErrTokenNotFound
	}
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			return ErrTokenNotFound
		}
		return err
	}

	if params.Username != "" {
		ownedBy := record.SubjectUser == nil || *record.SubjectUser == params.Username
		if !ownedBy && record.CreatedBy != params.Username {
			return ErrNotAllowed
		}
	}
	return e.tokens.Revoke(record.ID, e.now().UTC())
}

// List returns token metadata newest-first. Revoked and expired tokens are
// omitted unless includeRevoked is set.
func (e *TokenEngine) List(includeRevoked bool) ([]model.Token, error) {
	return e.tokens.List(includeRevoked, e.now().UTC())
}

// Authenticate resolves a plaintext token to an actor, touching last_used_at
// on success. Personal tokens pick up the subject's live RBAC scopes; a
// disabled subject fails with ErrUserDisabled.
func (e *TokenEngine) Authenticate(plaintext string) (*Actor, error) {
	record, err := e.tokens.GetByHash(e.hashToken(plaintext))
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	now := e.now().UTC()
	if record.Revoked() {
		return nil, ErrTokenRevoked
	}
	if record.Expired(now) {
		return nil, ErrTokenExpired
	}
	if err := e.tokens.TouchLastUsed(record.ID, now); err != nil {
		return nil, err
	}

	actor := &Actor{
		Type:      ActorToken,
		TokenID:   record.ID,
		TokenType: record.Type,
		Scopes:    record.Scopes,
	}
	if record.SubjectUser != nil {
		actor.SubjectUser = *record.SubjectUser
	}
	if record.SubjectServiceName != nil {
		actor.SubjectServiceName = *record.SubjectServiceName
	}

	if record.Type == model.TokenTypePersonal && e.resolver != nil {
		resolved, err := e.resolver(actor.SubjectUser)
		if err != nil {
			return nil, err
		}
		if resolved.Disabled {
			return nil, ErrUserDisabled
		}
		actor.Scopes = resolved.Scopes
		actor.WorkspaceID = resolved.WorkspaceID
		actor.WorkspaceSlug = resolved.WorkspaceSlug
		actor.WorkspaceRole = resolved.WorkspaceRole
		actor.VisibleProjectIDs = resolved.VisibleProjectIDs
	}

	// Only api-purpose personal tokens keep their minted scopes as a second
	// authorization gate.
	if record.Type == model.TokenTypePersonal && record.Purpose == model.TokenPurposeAPI {
		actor.TokenScopes = record.Scopes
		actor.HasTokenScopes = true
	}
	return actor, nil
}

// IsAuthorized reports whether the plaintext token authenticates, and whom it
// acts as.
func (e *TokenEngine) IsAuthorized(plaintext string) (bool, string) {
	actor, err := e.Authenticate(plaintext)
	if err != nil {
		return false, ""
	}
	return true, actor.Owner()
}
