package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// tokenResponse is the provider token endpoint payload. Instagram also
// returns the numeric user id alongside the token.
type tokenResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int             `json:"expires_in"`
	UserID      json.RawMessage `json:"user_id,omitempty"`
}

type googleUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type facebookUser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

type instagramUser struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	AccountType string `json:"account_type"`
}

// Login exchanges an authorization code for a provider access token and
// fetches the minimal profile. Providers that do not supply an email get a
// synthesized placeholder address.
func (p *Provider) Login(ctx context.Context, code string) (*Profile, error) {
	switch p.Name {
	case ProviderGoogle:
		return p.loginGoogle(ctx, code)
	case ProviderFacebook:
		return p.loginFacebook(ctx, code)
	case ProviderInstagram:
		return p.loginInstagram(ctx, code)
	default:
		return nil, ErrUnknownProvider
	}
}

func (p *Provider) loginGoogle(ctx context.Context, code string) (*Profile, error) {
	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", p.ClientID)
	form.Set("client_secret", p.ClientSecret)
	form.Set("redirect_uri", p.RedirectURI)
	form.Set("grant_type", "authorization_code")

	token, err := p.postTokenForm(ctx, p.TokenURL, form)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	var gu googleUser
	if err := p.doJSON(req, &gu); err != nil {
		return nil, fmt.Errorf("google userinfo: %w", err)
	}

	return &Profile{
		Provider:   ProviderGoogle,
		ProviderID: gu.ID,
		Email:      gu.Email,
		Name:       gu.Name,
		Picture:    gu.Picture,
	}, nil
}

func (p *Provider) loginFacebook(ctx context.Context, code string) (*Profile, error) {
	// Facebook exchanges the code over GET with query parameters
	params := url.Values{}
	params.Set("client_id", p.ClientID)
	params.Set("client_secret", p.ClientSecret)
	params.Set("redirect_uri", p.RedirectURI)
	params.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.TokenURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var token tokenResponse
	if err := p.doJSON(req, &token); err != nil {
		return nil, fmt.Errorf("facebook token exchange: %w", err)
	}

	infoParams := url.Values{}
	infoParams.Set("fields", "id,name,email,picture")
	infoParams.Set("access_token", token.AccessToken)

	infoReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL+"?"+infoParams.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var fu facebookUser
	if err := p.doJSON(infoReq, &fu); err != nil {
		return nil, fmt.Errorf("facebook userinfo: %w", err)
	}

	email := fu.Email
	if email == "" {
		// Facebook accounts are not required to expose an email
		email = fu.ID + "@facebook.com"
	}

	return &Profile{
		Provider:   ProviderFacebook,
		ProviderID: fu.ID,
		Email:      email,
		Name:       fu.Name,
		Picture:    fu.Picture.Data.URL,
	}, nil
}

func (p *Provider) loginInstagram(ctx context.Context, code string) (*Profile, error) {
	form := url.Values{}
	form.Set("client_id", p.ClientID)
	form.Set("client_secret", p.ClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", p.RedirectURI)
	form.Set("code", code)

	token, err := p.postTokenForm(ctx, p.TokenURL, form)
	if err != nil {
		return nil, err
	}

	userID := strings.Trim(string(token.UserID), `"`)
	if userID == "" {
		return nil, fmt.Errorf("instagram token exchange: missing user_id")
	}

	// Exchange the short-lived token for a long-lived one before reading
	// the profile
	llParams := url.Values{}
	llParams.Set("grant_type", "ig_exchange_token")
	llParams.Set("client_secret", p.ClientSecret)
	llParams.Set("access_token", token.AccessToken)

	llReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL+"/access_token?"+llParams.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var longLived tokenResponse
	if err := p.doJSON(llReq, &longLived); err != nil {
		return nil, fmt.Errorf("instagram long-lived token: %w", err)
	}

	infoParams := url.Values{}
	infoParams.Set("fields", "id,username,account_type")
	infoParams.Set("access_token", longLived.AccessToken)

	infoReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL+"/"+userID+"?"+infoParams.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var iu instagramUser
	if err := p.doJSON(infoReq, &iu); err != nil {
		return nil, fmt.Errorf("instagram userinfo: %w", err)
	}

	return &Profile{
		Provider:   ProviderInstagram,
		ProviderID: iu.ID,
		// Instagram does not provide an email at all
		Email: iu.Username + "@instagram.com",
		Name:  iu.Username,
	}, nil
}

func (p *Provider) postTokenForm(ctx context.Context, endpoint string, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var token tokenResponse
	if err := p.doJSON(req, &token); err != nil {
		return nil, fmt.Errorf("%s token exchange: %w", p.Name, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%s token exchange: empty access token", p.Name)
	}
	return &token, nil
}

func (p *Provider) doJSON(req *http.Request, out interface{}) error {
	client := p.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return json.Unmarshal(body, out)
}
