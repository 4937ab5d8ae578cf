package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/rakeshmondal461/marketplace-proto/internal/middleware"
	"github.com/rakeshmondal461/marketplace-proto/internal/model"
	"github.com/rakeshmondal461/marketplace-proto/pkg/config"
	"github.com/rakeshmondal461/marketplace-proto/pkg/database"
	"github.com/rakeshmondal461/marketplace-proto/pkg/event"
	"github.com/rakeshmondal461/marketplace-proto/pkg/jwtutil"
)

func setupTest(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to open in-memory db")

	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Category{}, &model.Product{}, &model.Order{}))

	database.DB = db
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "test_secret", ExpirationHours: 168})
	event.Initialize(nil)

	return db
}

func doJSON(t *testing.T, method, path string, payload interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// asUser attaches an identity the way middleware.Authenticate would
func asUser(c echo.Context, user *model.User) {
	c.Set(middleware.ContextUserID, user.ID)
	c.Set(middleware.ContextEmail, user.Email)
	c.Set(middleware.ContextRole, user.Role)
}

func seedUser(t *testing.T, db *gorm.DB, name, email, password, role string) *model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedCategory(t *testing.T, db *gorm.DB, name, slug string) *model.Category {
	t.Helper()

	category := model.Category{Name: name, Slug: slug}
	require.NoError(t, db.Create(&category).Error)
	return &category
}

func seedProduct(t *testing.T, db *gorm.DB, title string, price float64, sellerID, categoryID uint) *model.Product {
	t.Helper()

	product := model.Product{
		Title:       title,
		Description: "test description",
		Price:       price,
		SellerID:    sellerID,
		CategoryID:  categoryID,
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}
