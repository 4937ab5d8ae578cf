package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rakeshmondal461/marketplace-proto/internal/model"
	"github.com/rakeshmondal461/marketplace-proto/pkg/database"
	"github.com/rakeshmondal461/marketplace-proto/pkg/logger"
	"github.com/rakeshmondal461/marketplace-proto/prometheus"
)

// CategoryRequest defines the structure for category creation requests
type CategoryRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ListCategories retrieves all categories
func ListCategories(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var categories []model.Category
	result := database.GetDB().Find(&categories)
	if result.Error != nil {
		log.Error("Failed to retrieve categories", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to retrieve categories",
		})
	}

	log.Info("Categories retrieved", zap.Int("count", len(categories)))
	return c.JSON(http.StatusOK, categories)
}

// CreateCategory adds a new category. Admin only.
func CreateCategory(c echo.Context) error {
	log := logger.FromContext(c)

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Name == "" || req.Slug == "" {
		log.Warn("Incomplete category data", zap.String("name", req.Name))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and slug are required"})
	}

	// Check if a category with this slug already exists
	var count int64
	database.GetDB().Model(&model.Category{}).Where("slug = ?", req.Slug).Count(&count)
	if count > 0 {
		log.Warn("Category with this slug already exists", zap.String("slug", req.Slug))
		return c.JSON(http.StatusConflict, echo.Map{"error": "category with this slug already exists"})
	}

	category := model.Category{
		Name: req.Name,
		Slug: req.Slug,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&category); result.Error != nil {
		log.Error("Failed to create category",
			zap.String("name", req.Name),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create category"})
	}

	log.Info("Category created",
		zap.String("category_id", strconv.FormatUint(uint64(category.ID), 10)),
		zap.String("slug", category.Slug))
	return c.JSON(http.StatusCreated, category)
}
