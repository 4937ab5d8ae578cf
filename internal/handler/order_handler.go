package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rakeshmondal461/marketplace-proto/internal/middleware"
	"github.com/rakeshmondal461/marketplace-proto/internal/model"
	"github.com/rakeshmondal461/marketplace-proto/pkg/database"
	"github.com/rakeshmondal461/marketplace-proto/pkg/event"
	"github.com/rakeshmondal461/marketplace-proto/pkg/logger"
	"github.com/rakeshmondal461/marketplace-proto/prometheus"
)

var (
	errUserNotFound    = errors.New("user not found")
	errProductNotFound = errors.New("product not found")
)

// OrderRequest defines the structure for order creation requests
type OrderRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// CreateBuyerOrder creates a buy order: the acting user is the buyer, the
// product's registered seller is the counterpart.
func CreateBuyerOrder(c echo.Context) error {
	return createOrder(c, model.OrderTypeBuy)
}

// CreateSellerOrder creates a sell order: the acting user is the seller.
// The counterpart buyer is attributed to the product's registered seller,
// mirroring the buy direction.
func CreateSellerOrder(c echo.Context) error {
	return createOrder(c, model.OrderTypeSell)
}

// createOrder resolves the acting user and product, normalizes the quantity,
// computes the total price and persists the order. The buyer/seller columns
// are assigned from the direction. There is deliberately no transactional
// guard: two concurrent orders for the same product both succeed, there is
// no inventory count to conflict over.
func createOrder(c echo.Context, orderType string) error {
	log := logger.FromContext(c)

	var req OrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.ProductID == 0 {
		log.Warn("Missing product id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id is required"})
	}

	actingUserID, _ := c.Get(middleware.ContextUserID).(uint)

	order, err := buildOrder(actingUserID, req.ProductID, req.Quantity, orderType)
	if err != nil {
		switch {
		case errors.Is(err, errUserNotFound):
			log.Warn("Acting user not found", zap.Uint("user_id", actingUserID))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case errors.Is(err, errProductNotFound):
			log.Warn("Product not found", zap.Uint("product_id", req.ProductID))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		default:
			log.Error("Failed to create order", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create order"})
		}
	}

	prometheus.RecordOrder(order.Type, order.TotalPrice)
	publishOrderEvent(c, order)

	log.Info("Order created",
		zap.Uint("order_id", order.ID),
		zap.String("type", order.Type),
		zap.Uint("buyer_id", order.BuyerID),
		zap.Uint("seller_id", order.SellerID),
		zap.Int("quantity", order.Quantity),
		zap.Float64("total_price", order.TotalPrice))
	return c.JSON(http.StatusCreated, order)
}

// buildOrder is the pricing core shared by both directions
func buildOrder(actingUserID, productID uint, quantity int, orderType string) (*model.Order, error) {
	db := database.GetDB()

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := db.First(&user, actingUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUserNotFound
		}
		return nil, err
	}

	var product model.Product
	if err := db.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errProductNotFound
		}
		return nil, err
	}

	qty := quantity
	if qty <= 0 {
		qty = 1
	}

	// Total price is fixed at creation time and never recomputed
	totalPrice := product.Price * float64(qty)

	var buyerID, sellerID uint
	if orderType == model.OrderTypeBuy {
		buyerID = actingUserID
		sellerID = product.SellerID
	} else {
		sellerID = actingUserID
		buyerID = product.SellerID
	}

	order := model.Order{
		Type:       orderType,
		BuyerID:    buyerID,
		SellerID:   sellerID,
		ProductID:  product.ID,
		Quantity:   qty,
		TotalPrice: totalPrice,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := db.Create(&order).Error; err != nil {
		return nil, err
	}

	return &order, nil
}

// ListBuyerOrders returns the acting user's orders as a buyer, with the
// product embedded
func ListBuyerOrders(c echo.Context) error {
	log := logger.FromContext(c)
	userID, _ := c.Get(middleware.ContextUserID).(uint)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var orders []model.Order
	result := database.GetDB().Preload("Product").Where("buyer_id = ?", userID).Find(&orders)
	if result.Error != nil {
		log.Error("Failed to list buyer orders", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve orders"})
	}

	log.Info("Buyer orders retrieved",
		zap.Uint("buyer_id", userID),
		zap.Int("count", len(orders)))
	return c.JSON(http.StatusOK, orders)
}

// ListSellerOrders returns the acting user's orders as a seller, with the
// product embedded
func ListSellerOrders(c echo.Context) error {
	log := logger.FromContext(c)
	userID, _ := c.Get(middleware.ContextUserID).(uint)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var orders []model.Order
	result := database.GetDB().Preload("Product").Where("seller_id = ?", userID).Find(&orders)
	if result.Error != nil {
		log.Error("Failed to list seller orders", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve orders"})
	}

	log.Info("Seller orders retrieved",
		zap.Uint("seller_id", userID),
		zap.Int("count", len(orders)))
	return c.JSON(http.StatusOK, orders)
}

// ListAllOrders returns every order, unfiltered, with the product embedded
func ListAllOrders(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var orders []model.Order
	result := database.GetDB().Preload("Product").Find(&orders)
	if result.Error != nil {
		log.Error("Failed to list orders", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve orders"})
	}

	log.Info("All orders retrieved", zap.Int("count", len(orders)))
	return c.JSON(http.StatusOK, orders)
}

func publishOrderEvent(c echo.Context, order *model.Order) {
	log := logger.FromContext(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	payload := map[string]interface{}{
		"type":        "order_created",
		"order_id":    order.ID,
		"order_type":  order.Type,
		"buyer_id":    order.BuyerID,
		"seller_id":   order.SellerID,
		"product_id":  order.ProductID,
		"quantity":    order.Quantity,
		"total_price": order.TotalPrice,
	}
	if err := event.Publish(ctx, event.TopicOrderEvents, strconv.FormatUint(uint64(order.ID), 10), payload); err != nil {
		log.Error("Failed to publish order event", zap.Error(err))
	}
}
