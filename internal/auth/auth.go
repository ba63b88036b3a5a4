package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/mattjoyce/fleetfix/internal/config"
)

// EntitlementSmartManagement gates playbook dispatch. A principal without it
// may read nothing and dispatch nothing on the remediation endpoints.
const EntitlementSmartManagement = "smart_management"

// Principal is the authenticated identity attached to a request.
type Principal struct {
	Account      string
	Username     string
	Entitlements map[string]struct{}
}

// HasEntitlement reports whether the principal holds the named entitlement.
func (p Principal) HasEntitlement(name string) bool {
	_, ok := p.Entitlements[name]
	return ok
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func ExtractBearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", errors.New("missing Authorization header")
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", errors.New("invalid Authorization header format")
	}

	token := strings.TrimSpace(strings.TrimPrefix(auth, prefix))
	if token == "" {
		return "", errors.New("missing API key")
	}
	return token, nil
}

func constantTimeEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Authenticate matches a presented bearer token against configured tokens.
func Authenticate(presented string, tokens []config.APIToken) (Principal, bool) {
	for _, t := range tokens {
		if constantTimeEqual(presented, t.Token) {
			ents := make(map[string]struct{}, len(t.Entitlements))
			for _, e := range t.Entitlements {
				e = strings.TrimSpace(e)
				if e != "" {
					ents[e] = struct{}{}
				}
			}
			return Principal{
				Account:      t.Account,
				Username:     t.Username,
				Entitlements: ents,
			}, true
		}
	}
	return Principal{}, false
}
