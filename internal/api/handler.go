package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/BEASTY2K3/marathon-registration/internal/models"
	"github.com/BEASTY2K3/marathon-registration/internal/service"
	"github.com/BEASTY2K3/marathon-registration/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Response messages the registration page shows verbatim
const (
	msgPaymentVerified      = "Payment verified"
	msgPaymentFailed        = "Payment verification failed"
	msgInternalError        = "Internal server error"
	msgRegistered           = "User registered successfully after payment."
	msgPaymentNotVerified   = "Payment not verified. Registration failed."
	msgServerError          = "Server error"
	msgInvalidRegistration  = "Invalid registration details"
	msgCheckoutNotAvailable = "Unable to create payment order"
)

type PaymentService interface {
	KeyID() string
	VerifyPayment(ctx context.Context, orderID, paymentID, signature string) error
	CreateCheckoutOrder(ctx context.Context, requested int64) (*models.CheckoutOrder, error)
}

type RegistrationService interface {
	Register(ctx context.Context, req service.RegistrationRequest) (*models.Participant, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	payments      PaymentService
	registrations RegistrationService
	store         Pinger
	logger        *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(payments PaymentService, registrations RegistrationService, store Pinger) *Handler {
	return &Handler{
		payments:      payments,
		registrations: registrations,
		store:         store,
		logger:        util.GetLogger(),
	}
}

// RouteOptions controls the optional parts of the router
type RouteOptions struct {
	StaticDir      string
	AllowedOrigins []string
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine, opts RouteOptions) {
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(prometheusMiddleware())
	router.Use(requestLogger(h.logger))
	router.Use(cors(opts.AllowedOrigins))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/payment/verify", h.verifyPayment)
	router.POST("/register", h.register)

	api := router.Group("/api")
	{
		api.GET("/get-razorpay-key", h.getKey)
		api.POST("/createOrder", h.createOrder)

		auth := api.Group("/auth")
		auth.POST("/payment/verify", h.verifyPayment)
		auth.POST("/register", h.register)
	}

	if opts.StaticDir != "" {
		router.NoRoute(gin.WrapH(http.FileServer(http.Dir(opts.StaticDir))))
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready only while the store answers
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

type verifyPaymentRequest struct {
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

// verifyPayment records a payment whose checkout signature is genuine
func (h *Handler) verifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Rejected payment callback", zap.Any("errors", fromBindError(err, &req)))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msgPaymentFailed})
		return
	}

	err := h.payments.VerifyPayment(c.Request.Context(), req.OrderID, req.PaymentID, req.Signature)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": msgPaymentVerified})
	case errors.Is(err, service.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msgPaymentFailed})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": msgInternalError})
	}
}

type registerRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required"`
	Age       string `json:"age" binding:"required"`
	Gender    string `json:"gender" binding:"required"`
	Category  string `json:"category" binding:"required"`
	PaymentID string `json:"paymentId" binding:"required"`
	OrderID   string `json:"orderId" binding:"required"`
	Signature string `json:"signature"`
}

// register creates the participant for a verified payment
func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"msg":    msgInvalidRegistration,
			"errors": fromBindError(err, &req),
		})
		return
	}

	participant, err := h.registrations.Register(c.Request.Context(), service.RegistrationRequest{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Age:       req.Age,
		Gender:    req.Gender,
		Category:  req.Category,
		PaymentID: req.PaymentID,
		OrderID:   req.OrderID,
		Signature: req.Signature,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"msg": msgRegistered, "chestNumber": participant.ChestNumber})
	case errors.Is(err, service.ErrPaymentNotVerified):
		c.JSON(http.StatusBadRequest, gin.H{"msg": msgPaymentNotVerified})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": msgServerError, "error": err.Error()})
	}
}

// getKey hands the publishable key to the checkout widget
func (h *Handler) getKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"key": h.payments.KeyID()})
}

type createOrderRequest struct {
	Amount int64 `json:"amount"`
}

// createOrder opens a provider order for the registration fee
func (h *Handler) createOrder(c *gin.Context) {
	var req createOrderRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  msgCheckoutNotAvailable,
				"errors": fromBindError(err, &req),
			})
			return
		}
	}

	order, err := h.payments.CreateCheckoutOrder(c.Request.Context(), req.Amount)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": msgCheckoutNotAvailable})
		return
	}

	c.JSON(http.StatusOK, order)
}
