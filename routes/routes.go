package routes

import (
	"food-ordering-api/handlers"
	"food-ordering-api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers every endpoint. Routes only require authentication;
// role, country and ownership decisions belong to the services.
func SetupRoutes(r *gin.Engine, h *handlers.Handler, authn middleware.Authenticator) {
	r.GET("/health", handlers.Health)
	r.GET("/", handlers.Index)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/users/register", h.Register)
		public.POST("/users/login", h.Login)
		public.POST("/users/refresh-token", h.RefreshToken)

		// State machine info (great for docs/Postman)
		public.GET("/state-machine", handlers.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	api := r.Group("/api")
	api.Use(middleware.AuthRequired(authn))

	users := api.Group("/users")
	{
		users.POST("/logout", h.Logout)
		users.GET("/me", h.GetProfile)
		users.POST("/managers", h.CreateManager)
		users.GET("", h.ListUsers)
		users.DELETE("/:userId", h.DeleteUser)
	}

	restaurants := api.Group("/restaurants")
	{
		restaurants.GET("", h.ListRestaurants)
		restaurants.GET("/:id", h.GetRestaurant)
		restaurants.POST("", h.CreateRestaurant)
		restaurants.PATCH("/:id", h.UpdateRestaurant)
		restaurants.DELETE("/:id", h.DeactivateRestaurant)
	}

	menu := api.Group("/menu")
	{
		menu.POST("/:restaurantId", h.AddMenuItem)
		menu.PATCH("/:menuId", h.UpdateMenuItem)
		menu.DELETE("/:menuId", h.DeleteMenuItem)
	}

	orders := api.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("/my-orders", h.GetMyOrders)
		orders.GET("/all", h.GetAllOrders)
		orders.GET("/:orderId", h.GetOrder)
		orders.POST("/:orderId/place", h.PlaceOrder)
		orders.PATCH("/:orderId/payment", h.UpdatePaymentMethod)
		orders.DELETE("/:orderId", h.CancelOrder)
	}
}
