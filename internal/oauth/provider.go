package oauth

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/rakeshmondal461/marketplace-proto/pkg/config"
)

// Supported provider names
const (
	ProviderGoogle    = "google"
	ProviderFacebook  = "facebook"
	ProviderInstagram = "instagram"
)

var ErrUnknownProvider = errors.New("unknown oauth provider")

// Profile is the minimal identity fetched from an external provider. It is
// distinct from a local user record: nothing guarantees a user row exists
// for it.
type Profile struct {
	Provider   string `json:"provider"`
	ProviderID string `json:"provider_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Picture    string `json:"picture,omitempty"`
}

// Provider holds the endpoints and credentials for one external login
// provider. Endpoint URLs are fields so tests can point them at a stub
// server.
type Provider struct {
	Name         string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scope        string
	HTTPClient   *http.Client
}

var registry map[string]*Provider

// Configure builds the provider registry from configuration
func Configure(cfg *config.OAuthConfig) {
	registry = map[string]*Provider{
		ProviderGoogle: {
			Name:         ProviderGoogle,
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURI:  cfg.Google.RedirectURI,
			AuthURL:      "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL:     "https://oauth2.googleapis.com/token",
			UserInfoURL:  "https://www.googleapis.com/oauth2/v2/userinfo",
			Scope:        "openid email profile",
			HTTPClient:   &http.Client{Timeout: 10 * time.Second},
		},
		ProviderFacebook: {
			Name:         ProviderFacebook,
			ClientID:     cfg.Facebook.ClientID,
			ClientSecret: cfg.Facebook.ClientSecret,
			RedirectURI:  cfg.Facebook.RedirectURI,
			AuthURL:      "https://www.facebook.com/v18.0/dialog/oauth",
			TokenURL:     "https://graph.facebook.com/v18.0/oauth/access_token",
			UserInfoURL:  "https://graph.facebook.com/me",
			Scope:        "email,public_profile",
			HTTPClient:   &http.Client{Timeout: 10 * time.Second},
		},
		ProviderInstagram: {
			Name:         ProviderInstagram,
			ClientID:     cfg.Instagram.ClientID,
			ClientSecret: cfg.Instagram.ClientSecret,
			RedirectURI:  cfg.Instagram.RedirectURI,
			AuthURL:      "https://api.instagram.com/oauth/authorize",
			TokenURL:     "https://api.instagram.com/oauth/access_token",
			UserInfoURL:  "https://graph.instagram.com",
			Scope:        "user_profile,user_media",
			HTTPClient:   &http.Client{Timeout: 10 * time.Second},
		},
	}
}

// Lookup returns the configured provider by name
func Lookup(name string) (*Provider, error) {
	p, ok := registry[name]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return p, nil
}

// AuthCodeURL builds the redirect URL that starts the authorization flow
func (p *Provider) AuthCodeURL() string {
	params := url.Values{}
	params.Set("client_id", p.ClientID)
	params.Set("redirect_uri", p.RedirectURI)
	params.Set("response_type", "code")

	switch p.Name {
	case ProviderGoogle:
		params.Set("scope", p.Scope)
		params.Set("access_type", "offline")
		params.Set("prompt", "consent")
	case ProviderFacebook:
		params.Set("scope", p.Scope)
		params.Set("state", uuid.NewString()) // CSRF protection
	case ProviderInstagram:
		params.Set("scope", p.Scope)
	}

	return p.AuthURL + "?" + params.Encode()
}
