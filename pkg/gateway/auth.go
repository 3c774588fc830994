package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Capability names an action a caller may perform. Roles in the token's
// claims expand to sets of capabilities.
type Capability string

const (
	CapRead            Capability = "read"
	CapEditRules       Capability = "edit_rules"
	CapSimulate        Capability = "simulate"
	CapPublishRules    Capability = "publish_rules"
	CapManageOverrides Capability = "manage_overrides"
	CapManageRoutes    Capability = "manage_routes"
	CapManageUsers     Capability = "manage_users"
	CapManageSettings  Capability = "manage_settings"
)

// roleCapabilities is the role expansion table. The admin role carries
// every capability; other roles carry the subset their duties need.
var roleCapabilities = map[string][]Capability{
	"admin": {
		CapRead, CapEditRules, CapSimulate, CapPublishRules,
		CapManageOverrides, CapManageRoutes, CapManageUsers, CapManageSettings,
	},
	"editor":     {CapRead, CapEditRules, CapSimulate, CapPublishRules},
	"compliance": {CapRead, CapSimulate, CapManageOverrides},
	"operator":   {CapRead, CapManageRoutes},
	"viewer":     {CapRead},
}

// Claims is the verified identity attached to each request.
type Claims struct {
	Subject      string
	Roles        []string
	capabilities map[Capability]bool
}

// Has reports whether any of the caller's roles grants the capability.
func (c *Claims) Has(cap Capability) bool {
	return c.capabilities[cap]
}

type claimsKey struct{}

// ClaimsFromContext returns the verified claims, or nil outside the auth
// middleware.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey{}).(*Claims)
	return claims
}

// Authenticator verifies bearer JWTs and resolves role capabilities.
type Authenticator struct {
	secret   []byte
	issuer   string
	audience string
}

// NewAuthenticator builds a verifier for HS256 tokens signed with secret.
// Issuer and audience checks apply only when configured non-empty.
func NewAuthenticator(secret, issuer, audience string) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer, audience: audience}
}

// tokenClaims is the wire shape of the JWT payload.
type tokenClaims struct {
	Roles []string `json:"roles"`
	Role  string   `json:"role"`
	jwt.RegisteredClaims
}

// Verify parses and validates the compact token and expands its roles.
func (a *Authenticator) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}

	var tc tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &tc, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	roles := tc.Roles
	if len(roles) == 0 && tc.Role != "" {
		roles = []string{tc.Role}
	}

	claims := &Claims{
		Subject:      tc.Subject,
		Roles:        roles,
		capabilities: make(map[Capability]bool),
	}
	for _, role := range roles {
		for _, cap := range roleCapabilities[role] {
			claims.capabilities[cap] = true
		}
	}
	return claims, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// claims on the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, CodeUnauthenticated, "missing Authorization header", nil)
			return
		}
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(w, CodeUnauthenticated, "Authorization header must use the Bearer scheme", nil)
			return
		}

		claims, err := a.Verify(tokenString)
		if err != nil {
			writeError(w, CodeUnauthenticated, "invalid token", nil)
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireCapability gates a route group on one capability.
func requireCapability(cap Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				writeError(w, CodeUnauthenticated, "no identity on request", nil)
				return
			}
			if !claims.Has(cap) {
				writeError(w, CodeForbidden, fmt.Sprintf("capability %q required", cap), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
