package gateway

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return signed
}

func TestVerify_RoleExpansion(t *testing.T) {
	a := NewAuthenticator(testSecret, "", "")
	claims, err := a.Verify(sign(t, testSecret, jwt.MapClaims{
		"sub":   "alex",
		"roles": []string{"compliance"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	}))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "alex" {
		t.Errorf("subject = %q", claims.Subject)
	}
	if !claims.Has(CapManageOverrides) || !claims.Has(CapRead) {
		t.Error("compliance role missing expected capabilities")
	}
	if claims.Has(CapPublishRules) {
		t.Error("compliance role must not publish rules")
	}
}

func TestVerify_SingularRoleClaim(t *testing.T) {
	a := NewAuthenticator(testSecret, "", "")
	claims, err := a.Verify(sign(t, testSecret, jwt.MapClaims{
		"role": "viewer",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !claims.Has(CapRead) || claims.Has(CapSimulate) {
		t.Errorf("viewer capabilities wrong: %v", claims.Roles)
	}
}

func TestVerify_UnknownRoleHasNoCapabilities(t *testing.T) {
	a := NewAuthenticator(testSecret, "", "")
	claims, err := a.Verify(sign(t, testSecret, jwt.MapClaims{
		"roles": []string{"astronaut"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	}))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Has(CapRead) {
		t.Error("unknown role granted capabilities")
	}
}

func TestVerify_Rejections(t *testing.T) {
	tests := []struct {
		name string
		auth *Authenticator
		tok  func(t *testing.T) string
	}{
		{
			name: "wrong secret",
			auth: NewAuthenticator(testSecret, "", ""),
			tok: func(t *testing.T) string {
				return sign(t, "other-secret", jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
			},
		},
		{
			name: "expired",
			auth: NewAuthenticator(testSecret, "", ""),
			tok: func(t *testing.T) string {
				return sign(t, testSecret, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})
			},
		},
		{
			name: "wrong issuer",
			auth: NewAuthenticator(testSecret, "warden", ""),
			tok: func(t *testing.T) string {
				return sign(t, testSecret, jwt.MapClaims{"iss": "someone-else", "exp": time.Now().Add(time.Hour).Unix()})
			},
		},
		{
			name: "wrong audience",
			auth: NewAuthenticator(testSecret, "", "warden-api"),
			tok: func(t *testing.T) string {
				return sign(t, testSecret, jwt.MapClaims{"aud": "other-api", "exp": time.Now().Add(time.Hour).Unix()})
			},
		},
		{
			name: "garbage",
			auth: NewAuthenticator(testSecret, "", ""),
			tok:  func(*testing.T) string { return "definitely.not.a-token" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.auth.Verify(tt.tok(t)); err == nil {
				t.Error("Verify accepted an invalid token")
			}
		})
	}
}
