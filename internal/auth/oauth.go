package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/mmynk/worklog/internal/models"
)

var (
	ErrUnknownProvider = errors.New("unknown OAuth provider")
	ErrNoVerifiedEmail = errors.New("OAuth provider returned no verified email")
)

// Profile is the identity returned by a provider's user info endpoint.
type Profile struct {
	Email string
	Name  string
}

// OAuthProvider is one configured OAuth2 identity provider.
type OAuthProvider struct {
	Name   string
	Config *oauth2.Config

	// UserInfoURL returns the signed-in user's profile as JSON.
	UserInfoURL string

	// EmailsURL lists the user's addresses when the profile has none
	// (GitHub hides private emails from /user).
	EmailsURL string
}

// GitHubProvider returns a provider for GitHub OAuth apps.
func GitHubProvider(clientID, clientSecret, redirectURL string) *OAuthProvider {
	return &OAuthProvider{
		Name: models.ProviderGitHub,
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     endpoints.GitHub,
		},
		UserInfoURL: "https://api.github.com/user",
		EmailsURL:   "https://api.github.com/user/emails",
	}
}

// GoogleProvider returns a provider for Google OAuth clients.
func GoogleProvider(clientID, clientSecret, redirectURL string) *OAuthProvider {
	return &OAuthProvider{
		Name: models.ProviderGoogle,
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoints.Google,
		},
		UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
	}
}

// userInfo covers the fields GitHub and Google profiles have in common.
type userInfo struct {
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
	Name          string `json:"name"`
	Login         string `json:"login"`
}

type emailEntry struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// FetchProfile exchanges code for a token and reads the user's profile.
func (p *OAuthProvider) FetchProfile(ctx context.Context, code string) (*Profile, error) {
	token, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s token exchange: %w", p.Name, err)
	}
	client := p.Config.Client(ctx, token)

	var info userInfo
	if err := getJSON(ctx, client, p.UserInfoURL, &info); err != nil {
		return nil, fmt.Errorf("%s user info: %w", p.Name, err)
	}
	if info.EmailVerified != nil && !*info.EmailVerified {
		info.Email = ""
	}

	email := info.Email
	if email == "" && p.EmailsURL != "" {
		var entries []emailEntry
		if err := getJSON(ctx, client, p.EmailsURL, &entries); err != nil {
			return nil, fmt.Errorf("%s emails: %w", p.Name, err)
		}
		email = pickEmail(entries)
	}
	if email == "" {
		return nil, ErrNoVerifiedEmail
	}

	name := info.Name
	if name == "" {
		name = info.Login
	}
	return &Profile{Email: normalizeEmail(email), Name: name}, nil
}

// pickEmail prefers the primary verified address, then any verified one.
func pickEmail(entries []emailEntry) string {
	for _, e := range entries {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	for _, e := range entries {
		if e.Verified {
			return e.Email
		}
	}
	return ""
}

func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
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
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// OAuthAuthenticator signs users in through configured OAuth providers.
// Accounts are matched by email; unknown emails get a new account.
type OAuthAuthenticator struct {
	storage   UserStorage
	providers map[string]*OAuthProvider
}

// NewOAuthAuthenticator creates an authenticator for the given providers.
func NewOAuthAuthenticator(storage UserStorage, providers ...*OAuthProvider) *OAuthAuthenticator {
	m := make(map[string]*OAuthProvider, len(providers))
	for _, p := range providers {
		m[p.Name] = p
	}
	return &OAuthAuthenticator{storage: storage, providers: m}
}

// Providers returns the configured provider names, sorted.
func (a *OAuthAuthenticator) Providers() []string {
	names := make([]string, 0, len(a.providers))
	for name := range a.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AuthCodeURL returns the provider's consent page URL for state.
func (a *OAuthAuthenticator) AuthCodeURL(provider, state string) (string, error) {
	p, ok := a.providers[strings.ToLower(provider)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	return p.Config.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// Login completes the code flow and returns the matching user, creating it
// on first sign-in.
func (a *OAuthAuthenticator) Login(ctx context.Context, provider, code string) (*models.User, error) {
	p, ok := a.providers[strings.ToLower(provider)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	profile, err := p.FetchProfile(ctx, code)
	if err != nil {
		return nil, err
	}

	user, err := a.storage.GetUserByEmail(ctx, profile.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	displayName := profile.Name
	if displayName == "" {
		displayName = profile.Email
	}
	user = models.NewUser(profile.Email, displayName, "")
	user.Provider = p.Name
	if err := a.storage.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}
