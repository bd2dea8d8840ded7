// Package auth turns bearer tokens issued by the identity provider into an
// Identity and answers role questions about it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the role name granted moderation rights.
const RoleAdmin = "admin"

var (
	// ErrUnauthenticated indicates a missing, malformed or expired token.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden indicates the caller lacks a required role.
	ErrForbidden = errors.New("forbidden")
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Email  string
	Roles  []string
}

// HasRole reports whether the identity carries role.
func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

// IsAdmin reports whether the identity may moderate listings.
func IsAdmin(i *Identity) bool {
	return i != nil && i.HasRole(RoleAdmin)
}

// Verifier validates a raw bearer token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// JWTVerifier validates HMAC-signed JWTs.
type JWTVerifier struct {
	secret    []byte
	adminRole string
}

// NewJWTVerifier builds a verifier. adminRole is the claim value mapped to
// RoleAdmin; empty means "admin".
func NewJWTVerifier(secret, adminRole string) *JWTVerifier {
	if adminRole == "" {
		adminRole = RoleAdmin
	}
	return &JWTVerifier{secret: []byte(secret), adminRole: adminRole}
}

// Verify parses and validates token, returning the caller identity.
func (v *JWTVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthenticated
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrUnauthenticated)
	}

	identity := &Identity{UserID: sub}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	for _, role := range claimRoles(claims) {
		switch {
		case strings.EqualFold(role, v.adminRole):
			role = RoleAdmin
		case strings.EqualFold(role, RoleAdmin):
			// Only the configured claim value grants admin.
			continue
		}
		if !identity.HasRole(role) {
			identity.Roles = append(identity.Roles, role)
		}
	}
	return identity, nil
}

// claimRoles collects roles from "role", "roles" and "app_metadata".
func claimRoles(claims map[string]interface{}) []string {
	var roles []string
	roles = append(roles, stringsOf(claims["role"])...)
	roles = append(roles, stringsOf(claims["roles"])...)
	if meta, ok := claims["app_metadata"].(map[string]interface{}); ok {
		roles = append(roles, stringsOf(meta["role"])...)
		roles = append(roles, stringsOf(meta["roles"])...)
	}
	return roles
}

func stringsOf(raw interface{}) []string {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// NewToken signs an HS256 token for identity. cmd/devtoken uses it to mint
// local development tokens.
func NewToken(secret string, identity Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": identity.UserID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if identity.Email != "" {
		claims["email"] = identity.Email
	}
	if len(identity.Roles) > 0 {
		claims["roles"] = identity.Roles
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
