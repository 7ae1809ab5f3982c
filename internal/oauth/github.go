package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPI = "https://api.github.com"

// GitHub signs users in with plain OAuth2 and reads the profile from the REST API.
type GitHub struct {
	oauthConfig *oauth2.Config
	apiBase     string
}

// GitHubOption customizes a GitHub provider.
type GitHubOption func(*GitHub)

// WithGitHubEndpoints points the provider at another token URL and API base.
func WithGitHubEndpoints(authURL, tokenURL, apiBase string) GitHubOption {
	return func(g *GitHub) {
		g.oauthConfig.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
		g.apiBase = strings.TrimRight(apiBase, "/")
	}
}

func NewGitHub(clientID, clientSecret, redirectURL string, opts ...GitHubOption) (*GitHub, error) {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("github oauth config missing required fields")
	}
	g := &GitHub{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     github.Endpoint,
			Scopes:       []string{"read:user", "user:email"},
		},
		apiBase: githubAPI,
	}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

func (p *GitHub) Name() string { return "github" }

func (p *GitHub) AuthCodeURL(state, codeChallenge string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

type githubProfile struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (p *GitHub) Exchange(ctx context.Context, code, codeVerifier string) (*Identity, error) {
	token, err := p.oauthConfig.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	if err != nil {
		return nil, fmt.Errorf("github token exchange failed: %w", err)
	}
	client := p.oauthConfig.Client(ctx, token)

	var profile githubProfile
	if err := p.getJSON(ctx, client, "/user", &profile); err != nil {
		return nil, err
	}
	if profile.ID == 0 {
		return nil, errors.New("github profile missing id")
	}
	id := &Identity{
		Provider: p.Name(),
		Subject:  strconv.FormatInt(profile.ID, 10),
		Email:    profile.Email,
		Name:     profile.Name,
	}
	if id.Name == "" {
		id.Name = profile.Login
	}
	if id.Name == "" {
		id.Name = "GitHub User"
	}
	// GitHub only lets a verified address be the public profile email.
	if id.Email != "" {
		id.EmailVerified = true
		return id, nil
	}

	// The profile email is hidden unless public; fall back to the verified addresses.
	var emails []githubEmail
	if err := p.getJSON(ctx, client, "/user/emails", &emails); err != nil {
		return nil, err
	}
	id.Email = pickGitHubEmail(emails)
	if id.Email == "" {
		return nil, errors.New("no verified email found in github account")
	}
	id.EmailVerified = true
	return id, nil
}

func pickGitHubEmail(emails []githubEmail) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email
		}
	}
	return ""
}

func (p *GitHub) getJSON(ctx context.Context, client *http.Client, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("github %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github %s: status %d", path, resp.StatusCode)
	}
	if err := jsoniter.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("github %s: decode: %w", path, err)
	}
	return nil
}
