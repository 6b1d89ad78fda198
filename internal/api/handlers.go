package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eion/usersvc/internal/orders"
	"github.com/eion/usersvc/internal/users"
)

const (
	msgMissingFields = "Missing fields"
	msgUserNotFound  = "User not found"
	msgInternalError = "Internal server error"
	msgUserCreated   = "User created!"
	msgUserUpdated   = "User updated!"
	msgUserDeleted   = "User deleted!"
)

// UserHandlers provides HTTP handlers for user operations
type UserHandlers struct {
	userService users.UserService
	orders      orders.Lookup
	logger      *zap.Logger
}

// NewUserHandlers creates new user handlers
func NewUserHandlers(userService users.UserService, orderLookup orders.Lookup, logger *zap.Logger) *UserHandlers {
	return &UserHandlers{
		userService: userService,
		orders:      orderLookup,
		logger:      logger,
	}
}

// RegisterRoutes registers all user routes
func (h *UserHandlers) RegisterRoutes(router gin.IRouter) {
	userRoutes := router.Group("/users")
	{
		userRoutes.POST("", h.CreateUser)
		userRoutes.GET("", h.ListUsers)
		userRoutes.GET("/:id", h.GetUser)
		userRoutes.PUT("/:id", h.UpdateUser)
		userRoutes.DELETE("/:id", h.DeleteUser)
	}
}

func (h *UserHandlers) CreateUser(c *gin.Context) {
	var req users.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Invalid create user body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingFields})
		return
	}

	if err := h.userService.CreateUser(c.Request.Context(), &req); err != nil {
		h.respondError(c, "create user", req.UserID, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msgUserCreated})
}

// GetUser returns the user plus a best-effort list of their orders
func (h *UserHandlers) GetUser(c *gin.Context) {
	userID := c.Param("id")

	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": msgUserNotFound})
			return
		}
		h.respondError(c, "get user", userID, err)
		return
	}

	// only after the user is confirmed to exist
	userOrders := h.orders.LookupOrders(c.Request.Context(), userID)

	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"orders": userOrders,
	})
}

func (h *UserHandlers) UpdateUser(c *gin.Context) {
	userID := c.Param("id")

	var req users.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Invalid update user body", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingFields})
		return
	}

	if err := h.userService.UpdateUser(c.Request.Context(), userID, &req); err != nil {
		h.respondError(c, "update user", userID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msgUserUpdated})
}

func (h *UserHandlers) DeleteUser(c *gin.Context) {
	userID := c.Param("id")

	if err := h.userService.DeleteUser(c.Request.Context(), userID); err != nil {
		h.respondError(c, "delete user", userID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msgUserDeleted})
}

func (h *UserHandlers) ListUsers(c *gin.Context) {
	list, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, "list users", "", err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// respondError maps service errors onto the response. Storage detail stays in the log.
func (h *UserHandlers) respondError(c *gin.Context, operation, userID string, err error) {
	if users.IsValidationError(err) {
		h.logger.Debug("Rejected request with missing fields",
			zap.String("operation", operation),
			zap.String("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingFields})
		return
	}

	h.logger.Error("Failed to "+operation,
		zap.String("user_id", userID),
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternalError})
}
