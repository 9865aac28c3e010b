package handlers

import (
	"net/http"

	"food-ordering-api/middleware"
	"food-ordering-api/services"

	"github.com/gin-gonic/gin"
)

// ListRestaurants returns the active restaurants visible to the caller, with menus
func (h *Handler) ListRestaurants(c *gin.Context) {
	restaurants, err := h.restaurants.ListVisible(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(restaurants), "restaurants": restaurants})
}

// GetRestaurant returns one active restaurant and its available menu
func (h *Handler) GetRestaurant(c *gin.Context) {
	restaurant, err := h.restaurants.Get(c.Request.Context(), middleware.GetPrincipal(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

func (h *Handler) CreateRestaurant(c *gin.Context) {
	var req services.CreateRestaurantInput
	if !bindJSON(c, &req) {
		return
	}
	restaurant, err := h.restaurants.Create(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Restaurant created", "restaurant": restaurant})
}

func (h *Handler) UpdateRestaurant(c *gin.Context) {
	var req services.UpdateRestaurantInput
	if !bindJSON(c, &req) {
		return
	}
	restaurant, err := h.restaurants.Update(c.Request.Context(), middleware.GetPrincipal(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant updated", "restaurant": restaurant})
}

// DeactivateRestaurant soft-deletes a restaurant
func (h *Handler) DeactivateRestaurant(c *gin.Context) {
	if err := h.restaurants.Deactivate(c.Request.Context(), middleware.GetPrincipal(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant deactivated"})
}

func (h *Handler) AddMenuItem(c *gin.Context) {
	var req services.CreateMenuItemInput
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.restaurants.CreateMenuItem(c.Request.Context(), middleware.GetPrincipal(c), c.Param("restaurantId"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Menu item added", "item": item})
}

func (h *Handler) UpdateMenuItem(c *gin.Context) {
	var req services.UpdateMenuItemInput
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.restaurants.UpdateMenuItem(c.Request.Context(), middleware.GetPrincipal(c), c.Param("menuId"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item updated", "item": item})
}

func (h *Handler) DeleteMenuItem(c *gin.Context) {
	if err := h.restaurants.DeleteMenuItem(c.Request.Context(), middleware.GetPrincipal(c), c.Param("menuId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted"})
}
