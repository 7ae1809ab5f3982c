// Package oauth adapts external identity providers. Providers return
// identity facts only; user resolution happens in the user repository.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Identity is a normalized external identity.
type Identity struct {
	Provider      string
	Subject       string // provider-scoped user id
	Email         string
	Name          string
	EmailVerified bool
}

// Provider is the contract every external provider implements.
type Provider interface {
	// Name returns the provider identifier used in routes ("google", "github").
	Name() string
	// AuthCodeURL returns the authorization URL for state and a S256 PKCE challenge.
	AuthCodeURL(state, codeChallenge string) string
	// Exchange trades the authorization code for a normalized identity.
	Exchange(ctx context.Context, code, codeVerifier string) (*Identity, error)
}

// Known lists every provider the API has routes for.
var Known = map[string]bool{"google": true, "github": true}

var (
	// ErrUnsupported is returned for a provider name the API does not know.
	ErrUnsupported = errors.New("unsupported oauth provider")
	// ErrNotConfigured is returned for a known provider without credentials.
	ErrNotConfigured = errors.New("oauth provider not configured")
)

// Registry holds the configured providers by name.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry registers the given providers by name. Nil entries are skipped.
func NewRegistry(list ...Provider) *Registry {
	m := make(map[string]Provider, len(list))
	for _, p := range list {
		if p != nil {
			m[p.Name()] = p
		}
	}
	return &Registry{providers: m}
}

// Get returns the provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	if !Known[name] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, name)
	}
	return p, nil
}

// Names returns the configured provider names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.providers))
	for n := range r.providers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// CallbackURL is the redirect URL registered with every provider.
func CallbackURL(backendURL, provider string) string {
	return backendURL + "/api/v1/auth/callback/" + provider
}
