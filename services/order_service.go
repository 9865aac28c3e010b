package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"food-ordering-api/apperror"
	"food-ordering-api/metrics"
	"food-ordering-api/models"
	"food-ordering-api/policy"
	"food-ordering-api/repository"
	"food-ordering-api/statemachine"
)

type OrderItemInput struct {
	MenuItemID string  `json:"menuItemId" validate:"required,uuid"`
	Quantity   int     `json:"quantity" validate:"required,min=1"`
	Price      float64 `json:"price" validate:"gte=0"`
}

type CreateOrderInput struct {
	RestaurantID  string               `json:"restaurantId" validate:"required,uuid"`
	Items         []OrderItemInput     `json:"items" validate:"required,min=1,dive"`
	TotalAmount   float64              `json:"totalAmount" validate:"gte=0"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod" validate:"omitempty,oneof=CARD UPI CASH"`
	Country       models.Country       `json:"country"`
}

type UpdatePaymentInput struct {
	PaymentMethod models.PaymentMethod `json:"paymentMethod" validate:"required,oneof=CARD UPI CASH"`
}

type OrderService struct {
	orders      repository.OrderRepository
	restaurants repository.RestaurantRepository
	menu        repository.MenuItemRepository
	policy      *policy.Engine
	logger      *slog.Logger
}

func NewOrderService(orders repository.OrderRepository, restaurants repository.RestaurantRepository,
	menu repository.MenuItemRepository, engine *policy.Engine, logger *slog.Logger) *OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{
		orders:      orders,
		restaurants: restaurants,
		menu:        menu,
		policy:      engine,
		logger:      logger,
	}
}

// CreateOrder stores a new CREATED order for the caller. Every menuItemId
// must be an available item of the chosen restaurant, otherwise the call
// fails with a validation error. Line prices come from the request and are
// not re-priced against the menu; a zero total is computed from the lines.
func (s *OrderService) CreateOrder(ctx context.Context, p *models.Principal, in CreateOrderInput) (*models.Order, error) {
	if err := s.policy.Authorize(p, policy.ActionCreateOrder, policy.Target{}); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	rest, err := s.restaurants.GetActive(ctx, in.RestaurantID)
	if err != nil {
		return nil, storeErr(err, "restaurant")
	}
	if err := s.policy.Authorize(p, policy.ActionCreateOrder, policy.Target{Country: rest.Country}); err != nil {
		return nil, err
	}
	country, err := s.orderCountry(p, in.Country, rest)
	if err != nil {
		return nil, err
	}

	available, err := s.menu.ListAvailableByRestaurants(ctx, []string{rest.ID})
	if err != nil {
		return nil, storeErr(err, "menu")
	}
	onMenu := make(map[string]bool, len(available))
	for _, m := range available {
		onMenu[m.ID] = true
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	var computed float64
	for _, it := range in.Items {
		if !onMenu[it.MenuItemID] {
			return nil, apperror.Validation(fmt.Sprintf("menu item %s is not available at this restaurant", it.MenuItemID))
		}
		items = append(items, models.OrderItem{
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			UnitPrice:  it.Price,
		})
		computed += it.Price * float64(it.Quantity)
	}
	total := in.TotalAmount
	if total == 0 {
		total = computed
	}

	order := &models.Order{
		UserID:        p.ID,
		RestaurantID:  rest.ID,
		Items:         items,
		Status:        models.StatusCreated,
		TotalAmount:   total,
		PaymentMethod: in.PaymentMethod,
		Country:       country,
	}
	if err := s.orders.Create(ctx, order, "order created"); err != nil {
		return nil, storeErr(err, "order")
	}
	metrics.ObserveOrderTransition(string(models.StatusCreated), "ok")
	s.logger.Info("order created",
		slog.String("order_id", order.ID),
		slog.String("restaurant_id", rest.ID),
		slog.String("country", string(country)),
		slog.String("actor_id", p.ID),
	)
	return s.reload(ctx, order.ID)
}

// orderCountry picks the country stamped on a new order. Scoped principals
// already passed the restaurant country check, so their resolved country is
// the restaurant's. Principals that bypass scoping keep an explicit regional
// country and otherwise take the restaurant's.
func (s *OrderService) orderCountry(p *models.Principal, requested models.Country, rest *models.Restaurant) (models.Country, error) {
	country, err := s.policy.ResolveCountry(p, policy.ActionCreateOrder, requested)
	if err != nil {
		return "", err
	}
	if !policy.Bypasses(p) {
		return country, nil
	}
	if requested.Regional() {
		return requested, nil
	}
	return rest.Country, nil
}

// MarkPaid moves the caller's own order from CREATED to PAID.
func (s *OrderService) MarkPaid(ctx context.Context, p *models.Principal, orderID string) (*models.Order, error) {
	return s.transition(ctx, p, orderID, policy.ActionPlaceOrder, models.StatusPaid, "payment completed")
}

// CancelOrder cancels the caller's own order. Paid orders cannot be cancelled.
func (s *OrderService) CancelOrder(ctx context.Context, p *models.Principal, orderID string) (*models.Order, error) {
	return s.transition(ctx, p, orderID, policy.ActionCancelOrder, models.StatusCancelled, "order cancelled")
}

// transition performs an owner status change as a single conditional write.
// The write is scoped to {id, owner}; on a miss the order is looked up again
// only to tell a foreign order apart from a missing one.
func (s *OrderService) transition(ctx context.Context, p *models.Principal, orderID string,
	action policy.Action, to models.OrderStatus, note string) (*models.Order, error) {
	if err := s.policy.Authorize(p, action, policy.Target{}); err != nil {
		metrics.ObserveOrderTransition(string(to), "forbidden")
		return nil, err
	}
	if err := parseID(orderID, "order"); err != nil {
		return nil, err
	}

	prev, err := s.orders.Transition(ctx, repository.TransitionParams{
		OrderID:   orderID,
		OwnerID:   p.ID,
		From:      statemachine.SourcesFor(to, statemachine.ActorOwner),
		To:        to,
		ChangedBy: p.ID,
		Note:      note,
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, s.explainMiss(ctx, p, action, orderID, to)
	case errors.Is(err, repository.ErrStaleStatus):
		metrics.ObserveOrderTransition(string(to), "conflict")
		if terr := statemachine.CanTransition(prev, to, statemachine.ActorOwner); terr != nil {
			return nil, terr
		}
		return nil, apperror.InvalidTransition(fmt.Sprintf("order status changed concurrently to %s", prev))
	case err != nil:
		return nil, apperror.Internal("failed to update order", err)
	}

	metrics.ObserveOrderTransition(string(to), "ok")
	s.logger.Info("order status changed",
		slog.String("order_id", orderID),
		slog.String("from", string(prev)),
		slog.String("to", string(to)),
		slog.String("actor_id", p.ID),
	)
	return s.reload(ctx, orderID)
}

func (s *OrderService) explainMiss(ctx context.Context, p *models.Principal, action policy.Action, orderID string, to models.OrderStatus) error {
	existing, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.ObserveOrderTransition(string(to), "not_found")
			return apperror.NotFound("order not found")
		}
		return apperror.Internal("failed to load order", err)
	}
	metrics.ObserveOrderTransition(string(to), "forbidden")
	if err := s.policy.Authorize(p, action, policy.Target{OwnerID: existing.UserID}); err != nil {
		return err
	}
	// owner matched after all, so the order was removed in between
	return apperror.NotFound("order not found")
}

// UpdatePaymentMethod lets an ADMIN change the payment method of any order in
// any status.
func (s *OrderService) UpdatePaymentMethod(ctx context.Context, p *models.Principal, orderID string, in UpdatePaymentInput) (*models.Order, error) {
	if err := s.policy.Authorize(p, policy.ActionUpdatePayment, policy.Target{}); err != nil {
		return nil, err
	}
	if err := parseID(orderID, "order"); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	prev, err := s.orders.UpdatePaymentMethod(ctx, orderID, in.PaymentMethod, p.ID)
	if err != nil {
		return nil, storeErr(err, "order")
	}
	s.logger.Info("order payment method changed",
		slog.String("order_id", orderID),
		slog.String("from", string(prev)),
		slog.String("to", string(in.PaymentMethod)),
		slog.String("actor_id", p.ID),
	)
	return s.reload(ctx, orderID)
}

func (s *OrderService) ListMine(ctx context.Context, p *models.Principal) ([]models.Order, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByUser(ctx, p.ID)
	if err != nil {
		return nil, storeErr(err, "orders")
	}
	return orders, nil
}

// ListAll returns every order with owner and restaurant joined.
func (s *OrderService) ListAll(ctx context.Context, p *models.Principal) ([]models.Order, error) {
	if err := s.policy.Authorize(p, policy.ActionViewAllOrders, policy.Target{}); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, storeErr(err, "orders")
	}
	return orders, nil
}

// GetByID is open to any authenticated caller; order ids are unguessable.
func (s *OrderService) GetByID(ctx context.Context, p *models.Principal, orderID string) (*models.Order, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := parseID(orderID, "order"); err != nil {
		return nil, err
	}
	return s.reload(ctx, orderID)
}

func (s *OrderService) reload(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, storeErr(err, "order")
	}
	return order, nil
}
