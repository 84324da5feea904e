package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	githubUserURL     = "https://api.github.com/user"
	githubEmailsURL   = "https://api.github.com/user/emails"
)

// OAuthConfig holds configuration for all OAuth providers
type OAuthConfig struct {
	providers map[Provider]*oauth2.Config
}

// OAuthUserInfo is the part of a provider profile an account is built from
type OAuthUserInfo struct {
	ProviderID  string
	Email       string
	DisplayName string
}

// ProviderConfig holds the credentials for an OAuth provider
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
}

func (p ProviderConfig) enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

// NewOAuthConfig registers every provider that has credentials. Callbacks
// land on {callbackBaseURL}/api/auth/callback/{provider}.
func NewOAuthConfig(googleCfg, githubCfg ProviderConfig, callbackBaseURL string) *OAuthConfig {
	config := &OAuthConfig{providers: map[Provider]*oauth2.Config{}}

	if googleCfg.enabled() {
		config.providers[ProviderGoogle] = &oauth2.Config{
			ClientID:     googleCfg.ClientID,
			ClientSecret: googleCfg.ClientSecret,
			RedirectURL:  callbackBaseURL + "/api/auth/callback/google",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
	}

	if githubCfg.enabled() {
		config.providers[ProviderGitHub] = &oauth2.Config{
			ClientID:     githubCfg.ClientID,
			ClientSecret: githubCfg.ClientSecret,
			RedirectURL:  callbackBaseURL + "/api/auth/callback/github",
			Scopes:       []string{"user:email", "read:user"},
			Endpoint:     github.Endpoint,
		}
	}

	return config
}

// IsProviderConfigured checks if a provider is configured
func (c *OAuthConfig) IsProviderConfigured(provider Provider) bool {
	_, ok := c.providers[provider]
	return ok
}

// Providers lists the configured providers
func (c *OAuthConfig) Providers() []Provider {
	var out []Provider
	for _, p := range []Provider{ProviderGoogle, ProviderGitHub} {
		if c.IsProviderConfigured(p) {
			out = append(out, p)
		}
	}
	return out
}

func (c *OAuthConfig) getConfig(provider Provider) (*oauth2.Config, error) {
	cfg, ok := c.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%s OAuth not configured", provider)
	}
	return cfg, nil
}

// GetAuthURL returns the OAuth authorization URL for a provider
func (c *OAuthConfig) GetAuthURL(provider Provider, state string) (string, error) {
	cfg, err := c.getConfig(provider)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// ExchangeCode exchanges an authorization code for tokens
func (c *OAuthConfig) ExchangeCode(ctx context.Context, provider Provider, code string) (*oauth2.Token, error) {
	cfg, err := c.getConfig(provider)
	if err != nil {
		return nil, err
	}
	return cfg.Exchange(ctx, code)
}

// GetUserInfo fetches user information from the OAuth provider
func (c *OAuthConfig) GetUserInfo(ctx context.Context, provider Provider, token *oauth2.Token) (*OAuthUserInfo, error) {
	cfg, err := c.getConfig(provider)
	if err != nil {
		return nil, err
	}
	client := cfg.Client(ctx, token)

	switch provider {
	case ProviderGoogle:
		return googleUserInfo(ctx, client)
	case ProviderGitHub:
		return githubUserInfo(ctx, client)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// getJSON decodes a provider API response into out.
func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s returned %d: %s", url, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func googleUserInfo(ctx context.Context, client *http.Client) (*OAuthUserInfo, error) {
	var info struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := getJSON(ctx, client, googleUserInfoURL, &info); err != nil {
		return nil, err
	}
	if info.Email == "" {
		return nil, fmt.Errorf("email not provided by Google")
	}

	name := info.Name
	if name == "" {
		name = info.Email
	}
	return &OAuthUserInfo{ProviderID: info.ID, Email: info.Email, DisplayName: name}, nil
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func githubUserInfo(ctx context.Context, client *http.Client) (*OAuthUserInfo, error) {
	var info struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := getJSON(ctx, client, githubUserURL, &info); err != nil {
		return nil, err
	}

	// Private emails are only listed on the emails endpoint
	email := info.Email
	if email == "" {
		var emails []githubEmail
		if err := getJSON(ctx, client, githubEmailsURL, &emails); err != nil {
			return nil, err
		}
		email = pickGitHubEmail(emails)
		if email == "" {
			return nil, fmt.Errorf("no verified email found")
		}
	}

	name := info.Name
	if name == "" {
		name = info.Login
	}
	return &OAuthUserInfo{ProviderID: strconv.FormatInt(info.ID, 10), Email: email, DisplayName: name}, nil
}

// pickGitHubEmail prefers the primary verified address, then any verified one.
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
