package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rakeshmondal461/marketplace-proto/internal/middleware"
	"github.com/rakeshmondal461/marketplace-proto/internal/model"
	"github.com/rakeshmondal461/marketplace-proto/pkg/database"
	"github.com/rakeshmondal461/marketplace-proto/pkg/event"
	"github.com/rakeshmondal461/marketplace-proto/pkg/jwtutil"
	"github.com/rakeshmondal461/marketplace-proto/pkg/logger"
	"github.com/rakeshmondal461/marketplace-proto/prometheus"
)

// Signup registers a new buyer or seller account and issues a bearer token
func Signup(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.SignupCounter.Inc()

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse signup request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		log.Warn("Incomplete signup data", zap.String("email", req.Email))
		prometheus.RecordAuthError("incomplete_signup")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and password are required"})
	}

	// Check if the email is already registered
	defer prometheus.TrackDBOperation("query")(time.Now())
	var existing model.User
	if result := database.GetDB().Where("email = ?", req.Email).First(&existing); result.Error == nil {
		log.Warn("Email already registered", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
	}

	// Only buyer and seller can be chosen at signup; anything else,
	// including admin, falls back to buyer
	role := model.RoleBuyer
	if req.Role == model.RoleSeller {
		role = model.RoleSeller
	}

	user := model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&user); result.Error != nil {
		log.Error("Failed to create user", zap.Error(result.Error))
		prometheus.RecordAuthError("user_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
	}

	token, err := jwtutil.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}
	prometheus.IncreaseActiveTokens()

	publishUserEvent(c, &user)

	log.Info("User registered",
		zap.String("email", user.Email),
		zap.String("role", user.Role))
	return c.JSON(http.StatusCreated, echo.Map{
		"token": token,
		"user":  user.Public(),
	})
}

// Login authenticates an existing account and issues a bearer token
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		log.Warn("Missing credentials")
		prometheus.RecordAuthError("missing_credentials")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := database.GetDB().Where("email = ?", req.Email).First(&user); result.Error != nil {
		log.Warn("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := jwtutil.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}
	prometheus.IncreaseActiveTokens()

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.String("role", user.Role))
	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user":  user.Public(),
	})
}

// AdminLogin authenticates an admin account. The role is part of the lookup
// so a valid non-admin credential still yields 401, not 403.
func AdminLogin(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse admin login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var admin model.User
	result := database.GetDB().Where("email = ? AND role = ?", req.Email, model.RoleAdmin).First(&admin)
	if result.Error != nil {
		log.Warn("Admin not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("admin_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		log.Warn("Invalid admin password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := jwtutil.GenerateToken(admin.ID, admin.Email, admin.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}
	prometheus.IncreaseActiveTokens()

	log.Info("Admin logged in", zap.String("email", admin.Email))
	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user":  admin.Public(),
	})
}

// Me returns the identity attached by the authentication middleware
func Me(c echo.Context) error {
	userID, _ := c.Get(middleware.ContextUserID).(uint)
	email, _ := c.Get(middleware.ContextEmail).(string)
	role, _ := c.Get(middleware.ContextRole).(string)

	return c.JSON(http.StatusOK, echo.Map{
		"user": echo.Map{
			"id":    userID,
			"email": email,
			"role":  role,
		},
	})
}

func publishUserEvent(c echo.Context, user *model.User) {
	log := logger.FromContext(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	payload := map[string]interface{}{
		"type":    "user_registered",
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
	}
	if err := event.Publish(ctx, event.TopicUserEvents, strconv.FormatUint(uint64(user.ID), 10), payload); err != nil {
		log.Error("Failed to publish user event", zap.Error(err))
	}
}
