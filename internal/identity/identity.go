// Package identity resolves opaque caller tokens to a (user, role)
// pair. Tokens are HS256 JWTs issued by the campus single sign-on; this
// service never verifies credentials itself, it only checks the token
// signature, confirms the subject still exists in the directory and
// reads the authoritative role from there. Resolved identities are
// cached for a short TTL so hot callers do not hit the directory on
// every request.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gocache "github.com/patrickmn/go-cache"

	"github.com/campushq/campus-events/internal/model"
	"github.com/campushq/campus-events/internal/repository"
)

// ErrInvalidToken is returned when the token is missing, malformed,
// expired or carries an unusable subject claim.
var ErrInvalidToken = errors.New("invalid identity token")

// ErrUnknownUser is returned when the token is well-formed but its
// subject no longer exists in the directory.
var ErrUnknownUser = errors.New("unknown user")

// Identity is a resolved caller: the directory row's id, role and
// display name. Core operations receive this explicitly instead of
// reading ambient session state.
type Identity struct {
	UserID int64
	Role   model.Role
	Name   string
}

// UserStore is the directory lookup the resolver depends on. It is
// satisfied by repository.UserRepo.
type UserStore interface {
	GetByID(ctx context.Context, userID int64) (*model.User, error)
}

// Resolver turns bearer tokens into Identities.
type Resolver struct {
	secret []byte
	users  UserStore
	cache  *gocache.Cache
}

// NewResolver builds a Resolver. cacheTTL bounds how stale a cached
// role may be; expired entries are purged at twice the TTL.
func NewResolver(secret string, users UserStore, cacheTTL time.Duration) *Resolver {
	if users == nil {
		panic("nil user store passed to NewResolver")
	}
	return &Resolver{
		secret: []byte(secret),
		users:  users,
		cache:  gocache.New(cacheTTL, 2*cacheTTL),
	}
}

// Resolve validates the raw token and returns the caller's identity.
func (r *Resolver) Resolve(ctx context.Context, raw string) (Identity, error) {
	userID, err := r.subject(raw)
	if err != nil {
		return Identity{}, err
	}

	key := strconv.FormatInt(userID, 10)
	if v, ok := r.cache.Get(key); ok {
		return v.(Identity), nil
	}

	u, err := r.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Identity{}, ErrUnknownUser
		}
		return Identity{}, fmt.Errorf("resolve identity: %w", err)
	}
	if !u.Role.Valid() {
		return Identity{}, fmt.Errorf("%w: directory role %q", ErrInvalidToken, u.Role)
	}

	id := Identity{UserID: u.ID, Role: u.Role, Name: u.Name}
	r.cache.SetDefault(key, id)
	return id, nil
}

// subject parses the JWT and extracts the subject as a user id. Only
// HMAC-signed tokens are accepted.
func (r *Resolver) subject(raw string) (int64, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil || !tok.Valid {
		return 0, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	switch sub := claims["sub"].(type) {
	case float64:
		return int64(sub), nil
	case string:
		if n, err := strconv.ParseInt(sub, 10, 64); err == nil {
			return n, nil
		}
	case int64:
		return sub, nil
	}
	return 0, ErrInvalidToken
}
