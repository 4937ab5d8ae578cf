package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rakeshmondal461/marketplace-proto/internal/oauth"
	"github.com/rakeshmondal461/marketplace-proto/pkg/jwtutil"
	"github.com/rakeshmondal461/marketplace-proto/pkg/logger"
	"github.com/rakeshmondal461/marketplace-proto/prometheus"
)

// FrontendURL is where callback results are delivered. Set at startup from
// configuration; the OAuth flow is browser-driven so failures redirect there
// instead of returning JSON.
var FrontendURL = "http://localhost:3000"

// OAuthStart redirects the browser to the provider's authorization page
func OAuthStart(c echo.Context) error {
	log := logger.FromContext(c)
	name := c.Param("provider")

	provider, err := oauth.Lookup(name)
	if err != nil {
		log.Warn("Unknown OAuth provider requested", zap.String("provider", name))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown provider"})
	}

	log.Info("Starting OAuth flow", zap.String("provider", name))
	return c.Redirect(http.StatusFound, provider.AuthCodeURL())
}

// OAuthCallback exchanges the authorization code for a provider profile and
// issues a provider-scoped token. No local user row is looked up or created:
// the resulting token carries an unlinked external identity.
func OAuthCallback(c echo.Context) error {
	log := logger.FromContext(c)
	name := c.Param("provider")

	provider, err := oauth.Lookup(name)
	if err != nil {
		log.Warn("Unknown OAuth provider requested", zap.String("provider", name))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown provider"})
	}

	code := c.QueryParam("code")
	if code == "" {
		log.Warn("Missing authorization code", zap.String("provider", name))
		prometheus.RecordOAuthLogin(name, "missing_code")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "authorization code is required"})
	}

	profile, err := provider.Login(c.Request().Context(), code)
	if err != nil {
		log.Error("OAuth exchange failed",
			zap.String("provider", name),
			zap.Error(err))
		prometheus.RecordOAuthLogin(name, "exchange_failed")
		return c.Redirect(http.StatusFound, FrontendURL+"/auth/error?message="+name+"_auth_failed")
	}

	token, err := jwtutil.GenerateProviderToken(profile.Provider, profile.ProviderID, profile.Email)
	if err != nil {
		log.Error("Failed to generate provider token",
			zap.String("provider", name),
			zap.Error(err))
		prometheus.RecordOAuthLogin(name, "token_failed")
		return c.Redirect(http.StatusFound, FrontendURL+"/auth/error?message="+name+"_auth_failed")
	}

	prometheus.RecordOAuthLogin(name, "success")
	log.Info("OAuth login completed",
		zap.String("provider", name),
		zap.String("provider_id", profile.ProviderID),
		zap.String("email", profile.Email))

	return c.Redirect(http.StatusFound, FrontendURL+"/auth/callback?token="+token)
}
