package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"food-ordering-api/apperror"
	"food-ordering-api/middleware"
	"food-ordering-api/services"

	"github.com/gin-gonic/gin"
)

// CookieConfig controls the session cookies set on login.
type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Handler struct {
	auth        *services.AuthService
	users       *services.UserService
	restaurants *services.RestaurantService
	orders      *services.OrderService
	cookies     CookieConfig
	logger      *slog.Logger
}

func New(authSvc *services.AuthService, users *services.UserService, restaurants *services.RestaurantService,
	orders *services.OrderService, cookies CookieConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		auth:        authSvc,
		users:       users,
		restaurants: restaurants,
		orders:      orders,
		cookies:     cookies,
		logger:      logger,
	}
}

var statusByKind = map[apperror.Kind]int{
	apperror.KindUnauthenticated: http.StatusUnauthorized,
	apperror.KindForbidden:       http.StatusForbidden,
	apperror.KindValidation:      http.StatusBadRequest,
	apperror.KindNotFound:        http.StatusNotFound,
	apperror.KindConflict:        http.StatusConflict,
	apperror.KindInternal:        http.StatusInternalServerError,
}

// respondError writes err as {"error": ...}. Internal causes are logged with
// the request id and never sent to the caller; the id is returned instead.
func (h *Handler) respondError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if kind == apperror.KindInternal {
		c.Error(err)
		reqID := middleware.RequestID(c)
		h.logger.Error("internal error",
			slog.String("request_id", reqID),
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()),
		)
		msg := "Internal server error"
		var ae *apperror.Error
		if errors.As(err, &ae) && ae.Message != "" {
			msg = ae.Message
		}
		body := gin.H{"error": msg}
		if reqID != "" {
			body["requestId"] = reqID
		}
		c.JSON(status, body)
		return
	}

	body := gin.H{"error": err.Error()}
	if reason := apperror.ReasonOf(err); reason != "" {
		body["reason"] = reason
	}
	c.JSON(status, body)
}

// bindJSON decodes the request body; structural validation happens in the services.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return false
	}
	return true
}
