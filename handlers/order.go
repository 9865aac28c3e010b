package handlers

import (
	"net/http"

	"food-ordering-api/middleware"
	"food-ordering-api/services"

	"github.com/gin-gonic/gin"
)

// CreateOrder creates a new order in CREATED status
func (h *Handler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderInput
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orders.CreateOrder(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order created successfully", "order": order})
}

// PlaceOrder marks the caller's order as paid
func (h *Handler) PlaceOrder(c *gin.Context) {
	order, err := h.orders.MarkPaid(c.Request.Context(), middleware.GetPrincipal(c), c.Param("orderId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order placed successfully", "order": order})
}

// CancelOrder cancels the caller's order unless it is already paid
func (h *Handler) CancelOrder(c *gin.Context) {
	order, err := h.orders.CancelOrder(c.Request.Context(), middleware.GetPrincipal(c), c.Param("orderId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled successfully", "order": order})
}

// UpdatePaymentMethod overrides an order's payment method (admin only).
func (h *Handler) UpdatePaymentMethod(c *gin.Context) {
	var req services.UpdatePaymentInput
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orders.UpdatePaymentMethod(c.Request.Context(), middleware.GetPrincipal(c), c.Param("orderId"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment method updated", "order": order})
}

// GetMyOrders returns all orders of the logged-in user
func (h *Handler) GetMyOrders(c *gin.Context) {
	orders, err := h.orders.ListMine(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// GetAllOrders returns every order with owner and restaurant (admin and manager).
func (h *Handler) GetAllOrders(c *gin.Context) {
	orders, err := h.orders.ListAll(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	// dashboard summary by status
	summary := map[string]int{}
	for _, o := range orders {
		summary[string(o.Status)]++
	}
	c.JSON(http.StatusOK, gin.H{
		"orderSummary": summary,
		"count":        len(orders),
		"orders":       orders,
	})
}

// GetOrder returns a single order's full detail with history
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetByID(c.Request.Context(), middleware.GetPrincipal(c), c.Param("orderId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}
