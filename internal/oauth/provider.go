// Package oauth implements external login ("sign in with ...") as one
// generic authorization-code flow parameterized per provider.  Each
// Provider bundles its oauth2 endpoints with a profile parser, so the
// find-or-create account logic lives in exactly one place instead of being
// copied per provider.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/iliyamo/image-search-api/internal/config"
)

// Profile is the provider-independent view of an external identity.
type Profile struct {
	ID    string // provider-scoped stable identifier
	Email string // may be empty when the provider withholds it
	Name  string // display name; may be empty
}

// Provider describes one external login integration: where to send the
// user, how to exchange the code, and how to read the resulting profile.
type Provider struct {
	Name        string
	Config      *oauth2.Config
	UserInfoURL string
	parse       func([]byte) (Profile, error)
}

// AuthURL returns the provider consent URL carrying the CSRF state value.
func (p *Provider) AuthURL(state string) string {
	return p.Config.AuthCodeURL(state)
}

// FetchProfile exchanges the authorization code and reads the provider's
// userinfo endpoint.  The response body is capped at 1 MiB; profiles are
// tiny and anything larger indicates a misbehaving endpoint.
func (p *Provider) FetchProfile(ctx context.Context, code string) (Profile, error) {
	tok, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("%s code exchange: %w", p.Name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return Profile{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.Config.Client(ctx, tok).Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("%s userinfo: %w", p.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("%s userinfo: unexpected status %d", p.Name, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Profile{}, err
	}
	return p.parse(body)
}

// ResolveEmail returns the account-linking key for a profile.  Accounts
// are unified by email across signup, login and every provider.  When the
// provider supplies no email (GitHub with a private address, Facebook
// without the email permission), a deterministic placeholder scoped to
// provider+id is synthesized so repeat logins land on the same account.
// Placeholder addresses are never merged across providers, even for the
// same person; that is accepted policy, not an accident.
func (p *Provider) ResolveEmail(pr Profile) string {
	if pr.Email != "" {
		return strings.ToLower(strings.TrimSpace(pr.Email))
	}
	return fmt.Sprintf("%s_%s@example.com", p.Name, pr.ID)
}

// DisplayName picks a name for a newly created account, falling back to
// the provider name when the profile has none.
func (p *Provider) DisplayName(pr Profile) string {
	if n := strings.TrimSpace(pr.Name); n != "" {
		return n
	}
	return p.Name
}

// Registry maps the provider path segment (e.g. "google") to its Provider.
type Registry map[string]*Provider

// NewRegistry builds the provider registry from configuration.  Providers
// without credentials are simply absent, and requests for them 404.
func NewRegistry(cfg config.Config) Registry {
	reg := Registry{}
	if cfg.Google.Enabled() {
		reg["google"] = &Provider{
			Name: "google",
			Config: &oauth2.Config{
				ClientID:     cfg.Google.ClientID,
				ClientSecret: cfg.Google.ClientSecret,
				RedirectURL:  cfg.Google.CallbackURL,
				Scopes:       []string{"openid", "profile", "email"},
				Endpoint:     endpoints.Google,
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
			parse:       parseGoogleProfile,
		}
	}
	if cfg.GitHub.Enabled() {
		reg["github"] = &Provider{
			Name: "github",
			Config: &oauth2.Config{
				ClientID:     cfg.GitHub.ClientID,
				ClientSecret: cfg.GitHub.ClientSecret,
				RedirectURL:  cfg.GitHub.CallbackURL,
				Scopes:       []string{"user:email"},
				Endpoint:     endpoints.GitHub,
			},
			UserInfoURL: "https://api.github.com/user",
			parse:       parseGitHubProfile,
		}
	}
	if cfg.Facebook.Enabled() {
		reg["facebook"] = &Provider{
			Name: "facebook",
			Config: &oauth2.Config{
				ClientID:     cfg.Facebook.ClientID,
				ClientSecret: cfg.Facebook.ClientSecret,
				RedirectURL:  cfg.Facebook.CallbackURL,
				Scopes:       []string{"email"},
				Endpoint:     endpoints.Facebook,
			},
			UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
			parse:       parseFacebookProfile,
		}
	}
	return reg
}

func parseGoogleProfile(body []byte) (Profile, error) {
	var v struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return Profile{}, err
	}
	return Profile{ID: v.ID, Email: v.Email, Name: v.Name}, nil
}

func parseGitHubProfile(body []byte) (Profile, error) {
	var v struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"` // empty when the user's address is private
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return Profile{}, err
	}
	name := v.Name
	if name == "" {
		name = v.Login
	}
	return Profile{ID: strconv.FormatInt(v.ID, 10), Email: v.Email, Name: name}, nil
}

func parseFacebookProfile(body []byte) (Profile, error) {
	var v struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return Profile{}, err
	}
	return Profile{ID: v.ID, Email: v.Email, Name: v.Name}, nil
}
