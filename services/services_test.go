package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"food-ordering-api/apperror"
	"food-ordering-api/auth"
	"food-ordering-api/config"
	"food-ordering-api/models"
	"food-ordering-api/policy"
	"food-ordering-api/repository"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	auth        *AuthService
	users       *UserService
	restaurants *RestaurantService
	orders      *OrderService

	userRepo *repository.GormUserRepository
	tokens   *auth.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, false)
}

func newTestEnvWith(t *testing.T, restrictRole bool) *testEnv {
	t.Helper()
	db, err := config.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userRepo := repository.NewUserRepository(db)
	restRepo := repository.NewRestaurantRepository(db)
	menuRepo := repository.NewMenuItemRepository(db)
	orderRepo := repository.NewOrderRepository(db, userRepo)

	engine := policy.NewEngine(logger)
	hasher := &auth.BcryptHasher{Cost: bcrypt.MinCost}
	tokens := auth.NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)

	return &testEnv{
		auth:        NewAuthService(userRepo, tokens, hasher, restrictRole, logger),
		users:       NewUserService(userRepo, hasher, engine, logger),
		restaurants: NewRestaurantService(restRepo, menuRepo, userRepo, engine, logger),
		orders:      NewOrderService(orderRepo, restRepo, menuRepo, engine, logger),
		userRepo:    userRepo,
		tokens:      tokens,
	}
}

// register creates an account through the public path and returns its principal.
func (e *testEnv) register(t *testing.T, name string, role models.Role, country models.Country) *models.Principal {
	t.Helper()
	u, err := e.auth.Register(context.Background(), RegisterInput{
		Name:     name,
		Email:    name + "@example.com",
		Password: "password123",
		Role:     role,
		Country:  country,
	})
	require.NoError(t, err)
	return models.PrincipalFromUser(u)
}

// world is a small catalog: one restaurant per country with one dish each.
type world struct {
	admin        *models.Principal
	indiaManager *models.Principal
	usManager    *models.Principal
	indiaMember  *models.Principal
	usMember     *models.Principal

	spicyHub   *models.Restaurant
	burgerBarn *models.Restaurant
	tikka      *models.MenuItem
	burger     *models.MenuItem
}

func newWorld(t *testing.T, e *testEnv) *world {
	t.Helper()
	ctx := context.Background()
	w := &world{
		admin:        e.register(t, "admin", models.RoleAdmin, models.CountryIndia),
		indiaManager: e.register(t, "mina", models.RoleManager, models.CountryIndia),
		usManager:    e.register(t, "mark", models.RoleManager, models.CountryAmerica),
		indiaMember:  e.register(t, "ravi", models.RoleMember, models.CountryIndia),
		usMember:     e.register(t, "sam", models.RoleMember, models.CountryAmerica),
	}

	var err error
	w.spicyHub, err = e.restaurants.Create(ctx, w.admin, CreateRestaurantInput{
		Name: "Spicy Hub", Address: "MG Road", Country: models.CountryIndia, ManagerID: w.indiaManager.ID,
	})
	require.NoError(t, err)

	global := &models.Principal{ID: w.admin.ID, Role: models.RoleAdmin, Country: models.CountryGlobal}
	w.burgerBarn, err = e.restaurants.Create(ctx, global, CreateRestaurantInput{
		Name: "Burger Barn", Address: "5th Ave", Country: models.CountryAmerica, ManagerID: w.usManager.ID,
	})
	require.NoError(t, err)

	w.tikka, err = e.restaurants.CreateMenuItem(ctx, w.admin, w.spicyHub.ID, CreateMenuItemInput{Name: "Paneer Tikka", Price: 250})
	require.NoError(t, err)
	w.burger, err = e.restaurants.CreateMenuItem(ctx, w.admin, w.burgerBarn.ID, CreateMenuItemInput{Name: "Cheeseburger", Price: 9.5})
	require.NoError(t, err)
	return w
}

func (w *world) indiaOrder(t *testing.T, e *testEnv, p *models.Principal) *models.Order {
	t.Helper()
	order, err := e.orders.CreateOrder(context.Background(), p, CreateOrderInput{
		RestaurantID: w.spicyHub.ID,
		Items:        []OrderItemInput{{MenuItemID: w.tikka.ID, Quantity: 2, Price: 250}},
		TotalAmount:  500,
	})
	require.NoError(t, err)
	return order
}

func requireKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperror.KindOf(err), "unexpected error: %v", err)
}

func requireForbidden(t *testing.T, err error, reason string) {
	t.Helper()
	requireKind(t, err, apperror.KindForbidden)
	require.Equal(t, reason, apperror.ReasonOf(err))
}
