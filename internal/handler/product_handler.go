package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rakeshmondal461/marketplace-proto/internal/middleware"
	"github.com/rakeshmondal461/marketplace-proto/internal/model"
	"github.com/rakeshmondal461/marketplace-proto/pkg/database"
	"github.com/rakeshmondal461/marketplace-proto/pkg/logger"
	"github.com/rakeshmondal461/marketplace-proto/prometheus"
)

// ProductRequest defines the structure for product creation requests
type ProductRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	CategoryID  uint    `json:"category_id"`
}

// ListProducts retrieves all products with their category embedded. Public.
func ListProducts(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var products []model.Product
	result := database.GetDB().Preload("Category").Find(&products)
	if result.Error != nil {
		log.Error("Failed to list products", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to retrieve products",
		})
	}

	log.Info("Products retrieved", zap.Int("count", len(products)))
	return c.JSON(http.StatusOK, products)
}

// CreateProduct creates a new listing owned by the acting seller
func CreateProduct(c echo.Context) error {
	log := logger.FromContext(c)

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Title == "" || req.Description == "" || req.Price == 0 || req.CategoryID == 0 {
		log.Warn("Incomplete product data", zap.String("title", req.Title))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title, description, price and category_id are required"})
	}

	sellerID, _ := c.Get(middleware.ContextUserID).(uint)

	product := model.Product{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		SellerID:    sellerID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&product); result.Error != nil {
		log.Error("Failed to create product",
			zap.String("title", req.Title),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create product"})
	}

	log.Info("Product created",
		zap.String("product_id", strconv.FormatUint(uint64(product.ID), 10)),
		zap.String("title", product.Title),
		zap.Uint("seller_id", product.SellerID))
	return c.JSON(http.StatusCreated, product)
}

// DeleteProduct removes a product unconditionally. Admin only. The delete is
// not existence-checked: removing an id that never existed still yields 204.
func DeleteProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	// The id goes through a bound parameter so a crafted path segment can
	// never act as a SQL condition
	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Where("id = ?", id).Delete(&model.Product{})
	if result.Error != nil {
		log.Error("Failed to delete product",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete product"})
	}

	log.Info("Product deleted",
		zap.String("product_id", id),
		zap.Int64("rows_affected", result.RowsAffected))
	return c.NoContent(http.StatusNoContent)
}
