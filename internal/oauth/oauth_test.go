package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/rakeshmondal461/marketplace-proto/pkg/config"
)

func testConfig() *config.OAuthConfig {
	return &config.OAuthConfig{
		Google: config.OAuthProviderConfig{
			ClientID:     "g-client",
			ClientSecret: "g-secret",
			RedirectURI:  "http://localhost:8080/auth/oauth/google/callback",
		},
		Facebook: config.OAuthProviderConfig{
			ClientID:     "f-client",
			ClientSecret: "f-secret",
			RedirectURI:  "http://localhost:8080/auth/oauth/facebook/callback",
		},
		Instagram: config.OAuthProviderConfig{
			ClientID:     "i-client",
			ClientSecret: "i-secret",
			RedirectURI:  "http://localhost:8080/auth/oauth/instagram/callback",
		},
	}
}

func TestLookupUnknownProvider(t *testing.T) {
	Configure(testConfig())

	_, err := Lookup("myspace")
	require.ErrorIs(t, err, ErrUnknownProvider)
}

func TestAuthCodeURLGoogle(t *testing.T) {
	Configure(testConfig())
	p, err := Lookup(ProviderGoogle)
	require.NoError(t, err)

	u, err := url.Parse(p.AuthCodeURL())
	require.NoError(t, err)
	require.Equal(t, "accounts.google.com", u.Host)

	q := u.Query()
	require.Equal(t, "g-client", q.Get("client_id"))
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, "openid email profile", q.Get("scope"))
	require.Equal(t, "offline", q.Get("access_type"))
	require.Equal(t, "consent", q.Get("prompt"))
	require.Equal(t, p.RedirectURI, q.Get("redirect_uri"))
}

func TestAuthCodeURLFacebookCarriesState(t *testing.T) {
	Configure(testConfig())
	p, err := Lookup(ProviderFacebook)
	require.NoError(t, err)

	u, err := url.Parse(p.AuthCodeURL())
	require.NoError(t, err)
	require.Equal(t, "f-client", u.Query().Get("client_id"))
	require.NotEmpty(t, u.Query().Get("state"))
}

func TestLoginGoogle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			require.NoError(t, r.ParseForm())
			require.Equal(t, "the-code", r.PostFormValue("code"))
			require.Equal(t, "authorization_code", r.PostFormValue("grant_type"))
			json.NewEncoder(w).Encode(echo.Map{"access_token": "at-1", "token_type": "Bearer"})
		case "/userinfo":
			require.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(echo.Map{
				"id":      "g-123",
				"email":   "jane@gmail.com",
				"name":    "Jane",
				"picture": "http://img/jane.png",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	Configure(testConfig())
	p, _ := Lookup(ProviderGoogle)
	p.TokenURL = srv.URL + "/token"
	p.UserInfoURL = srv.URL + "/userinfo"

	profile, err := p.Login(context.Background(), "the-code")
	require.NoError(t, err)
	require.Equal(t, ProviderGoogle, profile.Provider)
	require.Equal(t, "g-123", profile.ProviderID)
	require.Equal(t, "jane@gmail.com", profile.Email)
	require.Equal(t, "http://img/jane.png", profile.Picture)
}

func TestLoginFacebookEmailFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			require.Equal(t, "the-code", r.URL.Query().Get("code"))
			json.NewEncoder(w).Encode(echo.Map{"access_token": "at-2"})
		case "/me":
			require.Equal(t, "at-2", r.URL.Query().Get("access_token"))
			// no email field on the account
			json.NewEncoder(w).Encode(echo.Map{"id": "fb-55", "name": "Bob"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	Configure(testConfig())
	p, _ := Lookup(ProviderFacebook)
	p.TokenURL = srv.URL + "/token"
	p.UserInfoURL = srv.URL + "/me"

	profile, err := p.Login(context.Background(), "the-code")
	require.NoError(t, err)
	require.Equal(t, "fb-55", profile.ProviderID)
	require.Equal(t, "fb-55@facebook.com", profile.Email)
}

func TestLoginInstagram(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/access_token":
			require.Equal(t, http.MethodPost, r.Method)
			json.NewEncoder(w).Encode(echo.Map{"access_token": "short-at", "user_id": 17841400000})
		case "/graph/access_token":
			require.Equal(t, "ig_exchange_token", r.URL.Query().Get("grant_type"))
			require.Equal(t, "short-at", r.URL.Query().Get("access_token"))
			json.NewEncoder(w).Encode(echo.Map{"access_token": "long-at", "expires_in": 5184000})
		case "/graph/17841400000":
			require.Equal(t, "long-at", r.URL.Query().Get("access_token"))
			json.NewEncoder(w).Encode(echo.Map{
				"id":           "17841400000",
				"username":     "janedoe",
				"account_type": "PERSONAL",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	Configure(testConfig())
	p, _ := Lookup(ProviderInstagram)
	p.TokenURL = srv.URL + "/oauth/access_token"
	p.UserInfoURL = srv.URL + "/graph"

	profile, err := p.Login(context.Background(), "the-code")
	require.NoError(t, err)
	require.Equal(t, "17841400000", profile.ProviderID)
	require.Equal(t, "janedoe@instagram.com", profile.Email)
	require.Equal(t, "janedoe", profile.Name)
}

func TestLoginTokenEndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	Configure(testConfig())
	p, _ := Lookup(ProviderGoogle)
	p.TokenURL = srv.URL + "/token"

	_, err := p.Login(context.Background(), "stale-code")
	require.Error(t, err)
	require.Contains(t, err.Error(), "token exchange")
}
