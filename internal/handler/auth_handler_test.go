package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/rakeshmondal461/marketplace-proto/internal/middleware"
	"github.com/rakeshmondal461/marketplace-proto/internal/model"
	"github.com/rakeshmondal461/marketplace-proto/pkg/jwtutil"
)

func TestSignupCreatesBuyerByDefault(t *testing.T) {
	setupTest(t)

	c, rec := doJSON(t, http.MethodPost, "/auth/signup", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "pw123456",
	})

	require.NoError(t, Signup(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Token string           `json:"token"`
		User  model.PublicUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "alice@example.com", resp.User.Email)
	require.Equal(t, model.RoleBuyer, resp.User.Role)
	require.NotZero(t, resp.User.ID)
}

func TestSignupIgnoresUnknownRole(t *testing.T) {
	setupTest(t)

	// admin cannot be chosen at signup, it must fall back to buyer
	c, rec := doJSON(t, http.MethodPost, "/auth/signup", map[string]string{
		"name":     "Mallory",
		"email":    "mallory@example.com",
		"password": "pw123456",
		"role":     "admin",
	})

	require.NoError(t, Signup(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		User model.PublicUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, model.RoleBuyer, resp.User.Role)
}

func TestSignupSellerRole(t *testing.T) {
	setupTest(t)

	c, rec := doJSON(t, http.MethodPost, "/auth/signup", map[string]string{
		"name":     "Sam",
		"email":    "sam@example.com",
		"password": "pw123456",
		"role":     "seller",
	})

	require.NoError(t, Signup(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		User model.PublicUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, model.RoleSeller, resp.User.Role)
}

func TestSignupMissingFields(t *testing.T) {
	setupTest(t)

	c, rec := doJSON(t, http.MethodPost, "/auth/signup", map[string]string{
		"email": "nobody@example.com",
	})

	require.NoError(t, Signup(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignupDuplicateEmail(t *testing.T) {
	db := setupTest(t)
	seedUser(t, db, "Alice", "alice@example.com", "pw123456", model.RoleBuyer)

	c, rec := doJSON(t, http.MethodPost, "/auth/signup", map[string]string{
		"name":     "Alice Again",
		"email":    "alice@example.com",
		"password": "otherpassword",
		"role":     "seller",
	})

	require.NoError(t, Signup(c))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginSuccess(t *testing.T) {
	db := setupTest(t)
	seedUser(t, db, "Alice", "alice@example.com", "pw123456", model.RoleBuyer)

	c, rec := doJSON(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "pw123456",
	})

	require.NoError(t, Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string           `json:"token"`
		User  model.PublicUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	claims, err := jwtutil.ValidateToken(resp.Token)
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, claims.UserID)
	require.Equal(t, "alice@example.com", claims.Email)
	require.Equal(t, model.RoleBuyer, claims.Role)
}

func TestLoginInvalidPassword(t *testing.T) {
	db := setupTest(t)
	seedUser(t, db, "Alice", "alice@example.com", "pw123456", model.RoleBuyer)

	c, rec := doJSON(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})

	require.NoError(t, Login(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	setupTest(t)

	c, rec := doJSON(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "ghost@example.com",
		"password": "pw123456",
	})

	require.NoError(t, Login(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminLoginRejectsNonAdmin(t *testing.T) {
	db := setupTest(t)
	seedUser(t, db, "Alice", "alice@example.com", "pw123456", model.RoleBuyer)

	// valid credentials but not an admin row: 401, never 403
	c, rec := doJSON(t, http.MethodPost, "/auth/admin/login", map[string]string{
		"email":    "alice@example.com",
		"password": "pw123456",
	})

	require.NoError(t, AdminLogin(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminLoginSuccess(t *testing.T) {
	db := setupTest(t)
	seedUser(t, db, "Root", "root@example.com", "adminpass", model.RoleAdmin)

	c, rec := doJSON(t, http.MethodPost, "/auth/admin/login", map[string]string{
		"email":    "root@example.com",
		"password": "adminpass",
	})

	require.NoError(t, AdminLogin(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		User model.PublicUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, model.RoleAdmin, resp.User.Role)
}

// Full signup -> login -> me round trip through the real middleware chain
func TestAuthRoundTrip(t *testing.T) {
	setupTest(t)

	e := echo.New()
	e.POST("/auth/signup", Signup)
	e.POST("/auth/login", Login)
	e.GET("/auth/me", Me, middleware.Authenticate)

	signupBody := `{"name":"A","email":"a@x.com","password":"pw123456"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(signupBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	loginBody := `{"email":"a@x.com","password":"pw123456"}`
	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(loginBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var loginResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))
	require.NotEmpty(t, loginResp.Token)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var meResp struct {
		User struct {
			ID    uint   `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meResp))
	require.Equal(t, "a@x.com", meResp.User.Email)
	require.Equal(t, model.RoleBuyer, meResp.User.Role)
	require.NotZero(t, meResp.User.ID)
}
