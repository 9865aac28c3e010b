package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"food-ordering-api/apperror"
	"food-ordering-api/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder(t *testing.T) {
	e := newTestEnv(t)
	w := newWorld(t, e)
	ctx := context.Background()

	t.Run("member order defaults to own country", func(t *testing.T) {
		order := w.indiaOrder(t, e, w.indiaMember)
		assert.Equal(t, models.StatusCreated, order.Status)
		assert.Equal(t, models.CountryIndia, order.Country)
		assert.Equal(t, models.PaymentCard, order.PaymentMethod)
		assert.Equal(t, 500.0, order.TotalAmount)
		require.NotNil(t, order.Restaurant)
		assert.Equal(t, "Spicy Hub", order.Restaurant.Name)
		require.Len(t, order.Items, 1)
		require.NotNil(t, order.Items[0].MenuItem)
		assert.Equal(t, "Paneer Tikka", order.Items[0].MenuItem.Name)
	})

	t.Run("total computed when omitted", func(t *testing.T) {
		order, err := e.orders.CreateOrder(ctx, w.indiaMember, CreateOrderInput{
			RestaurantID: w.spicyHub.ID,
			Items:        []OrderItemInput{{MenuItemID: w.tikka.ID, Quantity: 3, Price: 200}},
		})
		require.NoError(t, err)
		assert.Equal(t, 600.0, order.TotalAmount)
	})

	t.Run("empty items", func(t *testing.T) {
		_, err := e.orders.CreateOrder(ctx, w.indiaMember, CreateOrderInput{RestaurantID: w.spicyHub.ID})
		requireKind(t, err, apperror.KindValidation)
	})

	t.Run("missing restaurant id", func(t *testing.T) {
		_, err := e.orders.CreateOrder(ctx, w.indiaMember, CreateOrderInput{
			Items: []OrderItemInput{{MenuItemID: w.tikka.ID, Quantity: 1, Price: 250}},
		})
		requireKind(t, err, apperror.KindValidation)
	})

	t.Run("unknown restaurant", func(t *testing.T) {
		_, err := e.orders.CreateOrder(ctx, w.indiaMember, CreateOrderInput{
			RestaurantID: uuid.NewString(),
			Items:        []OrderItemInput{{MenuItemID: w.tikka.ID, Quantity: 1, Price: 250}},
		})
		requireKind(t, err, apperror.KindNotFound)
	})

	t.Run("item from another restaurant", func(t *testing.T) {
		_, err := e.orders.CreateOrder(ctx, w.indiaMember, CreateOrderInput{
			RestaurantID: w.spicyHub.ID,
			Items:        []OrderItemInput{{MenuItemID: w.burger.ID, Quantity: 1, Price: 9.5}},
		})
		requireKind(t, err, apperror.KindValidation)
	})

	t.Run("conflicting country", func(t *testing.T) {
		_, err := e.orders.CreateOrder(ctx, w.indiaMember, CreateOrderInput{
			RestaurantID: w.spicyHub.ID,
			Items:        []OrderItemInput{{MenuItemID: w.tikka.ID, Quantity: 1, Price: 250}},
			Country:      models.CountryAmerica,
		})
		requireForbidden(t, err, apperror.ReasonCountry)
	})

	t.Run("restaurant in another country", func(t *testing.T) {
		_, err := e.orders.CreateOrder(ctx, w.indiaMember, CreateOrderInput{
			RestaurantID: w.burgerBarn.ID,
			Items:        []OrderItemInput{{MenuItemID: w.burger.ID, Quantity: 1, Price: 9.5}},
		})
		requireForbidden(t, err, apperror.ReasonCountry)
	})

	t.Run("admin order takes restaurant country", func(t *testing.T) {
		global := &models.Principal{ID: w.admin.ID, Role: models.RoleAdmin, Country: models.CountryGlobal}
		order, err := e.orders.CreateOrder(ctx, global, CreateOrderInput{
			RestaurantID:  w.burgerBarn.ID,
			Items:         []OrderItemInput{{MenuItemID: w.burger.ID, Quantity: 2, Price: 9.5}},
			PaymentMethod: models.PaymentCash,
		})
		require.NoError(t, err)
		assert.Equal(t, models.CountryAmerica, order.Country)
		assert.Equal(t, models.PaymentCash, order.PaymentMethod)
	})

	t.Run("regional admin orders from another country", func(t *testing.T) {
		order, err := e.orders.CreateOrder(ctx, w.admin, CreateOrderInput{
			RestaurantID: w.burgerBarn.ID,
			Items:        []OrderItemInput{{MenuItemID: w.burger.ID, Quantity: 1, Price: 9.5}},
		})
		require.NoError(t, err)
		assert.Equal(t, models.CountryAmerica, order.Country)
		assert.Equal(t, w.admin.ID, order.UserID)
	})

	t.Run("admin keeps explicit country", func(t *testing.T) {
		order, err := e.orders.CreateOrder(ctx, w.admin, CreateOrderInput{
			RestaurantID: w.burgerBarn.ID,
			Items:        []OrderItemInput{{MenuItemID: w.burger.ID, Quantity: 1, Price: 9.5}},
			Country:      models.CountryIndia,
		})
		require.NoError(t, err)
		assert.Equal(t, models.CountryIndia, order.Country)
	})

	t.Run("admin invalid country", func(t *testing.T) {
		_, err := e.orders.CreateOrder(ctx, w.admin, CreateOrderInput{
			RestaurantID: w.burgerBarn.ID,
			Items:        []OrderItemInput{{MenuItemID: w.burger.ID, Quantity: 1, Price: 9.5}},
			Country:      "MARS",
		})
		requireKind(t, err, apperror.KindValidation)
	})
}

func TestCreateOrderThenGetByID(t *testing.T) {
	e := newTestEnv(t)
	w := newWorld(t, e)
	ctx := context.Background()

	in := CreateOrderInput{
		RestaurantID: w.spicyHub.ID,
		Items:        []OrderItemInput{{MenuItemID: w.tikka.ID, Quantity: 2, Price: 250}},
		TotalAmount:  500,
	}
	created, err := e.orders.CreateOrder(ctx, w.indiaMember, in)
	require.NoError(t, err)

	// any authenticated caller may read by id
	got, err := e.orders.GetByID(ctx, w.usMember, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCreated, got.Status)
	assert.Equal(t, in.TotalAmount, got.TotalAmount)
	require.Len(t, got.Items, len(in.Items))
	for i, item := range got.Items {
		assert.Equal(t, in.Items[i].MenuItemID, item.MenuItemID)
		assert.Equal(t, in.Items[i].Quantity, item.Quantity)
		assert.Equal(t, in.Items[i].Price, item.UnitPrice)
	}
	require.NotEmpty(t, got.StatusHistory)

	_, err = e.orders.GetByID(ctx, nil, created.ID)
	requireKind(t, err, apperror.KindUnauthenticated)
	_, err = e.orders.GetByID(ctx, w.usMember, uuid.NewString())
	requireKind(t, err, apperror.KindNotFound)
}

func TestMarkPaid(t *testing.T) {
	e := newTestEnv(t)
	w := newWorld(t, e)
	ctx := context.Background()

	t.Run("member lacks place_order", func(t *testing.T) {
		order := w.indiaOrder(t, e, w.indiaMember)
		_, err := e.orders.MarkPaid(ctx, w.indiaMember, order.ID)
		requireForbidden(t, err, apperror.ReasonRole)
	})

	t.Run("owner manager pays once", func(t *testing.T) {
		order := w.indiaOrder(t, e, w.indiaManager)
		paid, err := e.orders.MarkPaid(ctx, w.indiaManager, order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPaid, paid.Status)

		_, err = e.orders.MarkPaid(ctx, w.indiaManager, order.ID)
		requireKind(t, err, apperror.KindConflict)
		assert.True(t, errors.Is(err, apperror.ErrInvalidTransition))
	})

	t.Run("admin cannot pay someone else's order", func(t *testing.T) {
		order := w.indiaOrder(t, e, w.indiaManager)
		_, err := e.orders.MarkPaid(ctx, w.admin, order.ID)
		requireForbidden(t, err, apperror.ReasonOwnership)
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := e.orders.MarkPaid(ctx, w.indiaManager, uuid.NewString())
		requireKind(t, err, apperror.KindNotFound)
		_, err = e.orders.MarkPaid(ctx, w.indiaManager, "not-a-uuid")
		requireKind(t, err, apperror.KindValidation)
	})

	t.Run("cancelled order cannot be paid", func(t *testing.T) {
		order := w.indiaOrder(t, e, w.indiaManager)
		_, err := e.orders.CancelOrder(ctx, w.indiaManager, order.ID)
		require.NoError(t, err)
		_, err = e.orders.MarkPaid(ctx, w.indiaManager, order.ID)
		requireKind(t, err, apperror.KindConflict)
	})
}

func TestMarkPaid_Concurrent(t *testing.T) {
	e := newTestEnv(t)
	w := newWorld(t, e)
	ctx := context.Background()
	order := w.indiaOrder(t, e, w.indiaManager)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.orders.MarkPaid(ctx, w.indiaManager, order.ID)
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperror.Is(err, apperror.KindConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)

	got, err := e.orders.GetByID(ctx, w.indiaManager, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, got.Status)

	paidEntries := 0
	for _, h := range got.StatusHistory {
		if h.ToStatus == models.StatusPaid {
			paidEntries++
		}
	}
	assert.Equal(t, 1, paidEntries)
}

func TestCancelOrder(t *testing.T) {
	e := newTestEnv(t)
	w := newWorld(t, e)
	ctx := context.Background()

	t.Run("paid order cannot be cancelled by any role", func(t *testing.T) {
		order := w.indiaOrder(t, e, w.indiaManager)
		_, err := e.orders.MarkPaid(ctx, w.indiaManager, order.ID)
		require.NoError(t, err)

		_, err = e.orders.CancelOrder(ctx, w.indiaManager, order.ID)
		requireKind(t, err, apperror.KindConflict)
		assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

		global := &models.Principal{ID: w.admin.ID, Role: models.RoleAdmin, Country: models.CountryGlobal}
		adminOrder := w.indiaOrder(t, e, global)
		_, err = e.orders.MarkPaid(ctx, global, adminOrder.ID)
		require.NoError(t, err)
		_, err = e.orders.CancelOrder(ctx, global, adminOrder.ID)
		requireKind(t, err, apperror.KindConflict)
	})

	t.Run("manager cannot cancel a member's order", func(t *testing.T) {
		order := w.indiaOrder(t, e, w.indiaMember)
		_, err := e.orders.CancelOrder(ctx, w.indiaManager, order.ID)
		requireForbidden(t, err, apperror.ReasonOwnership)
	})

	t.Run("member lacks cancel_order", func(t *testing.T) {
		order := w.indiaOrder(t, e, w.indiaMember)
		_, err := e.orders.CancelOrder(ctx, w.indiaMember, order.ID)
		requireForbidden(t, err, apperror.ReasonRole)
	})

	t.Run("repeat cancel is accepted", func(t *testing.T) {
		order := w.indiaOrder(t, e, w.indiaManager)
		cancelled, err := e.orders.CancelOrder(ctx, w.indiaManager, order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, cancelled.Status)

		again, err := e.orders.CancelOrder(ctx, w.indiaManager, order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, again.Status)
	})
}

func TestUpdatePaymentMethod(t *testing.T) {
	e := newTestEnv(t)
	w := newWorld(t, e)
	ctx := context.Background()

	memberOrder := w.indiaOrder(t, e, w.indiaMember)
	managerOrder := w.indiaOrder(t, e, w.indiaManager)
	_, err := e.orders.MarkPaid(ctx, w.indiaManager, managerOrder.ID)
	require.NoError(t, err)

	t.Run("admin updates any order in any status", func(t *testing.T) {
		for _, id := range []string{memberOrder.ID, managerOrder.ID} {
			got, err := e.orders.UpdatePaymentMethod(ctx, w.admin, id, UpdatePaymentInput{PaymentMethod: models.PaymentUPI})
			require.NoError(t, err)
			assert.Equal(t, models.PaymentUPI, got.PaymentMethod)
		}
	})

	t.Run("manager and member are forbidden", func(t *testing.T) {
		for _, p := range []*models.Principal{w.indiaManager, w.indiaMember} {
			_, err := e.orders.UpdatePaymentMethod(ctx, p, memberOrder.ID, UpdatePaymentInput{PaymentMethod: models.PaymentCash})
			requireForbidden(t, err, apperror.ReasonRole)
		}
	})

	t.Run("invalid method", func(t *testing.T) {
		_, err := e.orders.UpdatePaymentMethod(ctx, w.admin, memberOrder.ID, UpdatePaymentInput{PaymentMethod: "BITCOIN"})
		requireKind(t, err, apperror.KindValidation)
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := e.orders.UpdatePaymentMethod(ctx, w.admin, uuid.NewString(), UpdatePaymentInput{PaymentMethod: models.PaymentCash})
		requireKind(t, err, apperror.KindNotFound)
	})
}

func TestListOrders(t *testing.T) {
	e := newTestEnv(t)
	w := newWorld(t, e)
	ctx := context.Background()

	w.indiaOrder(t, e, w.indiaMember)
	w.indiaOrder(t, e, w.indiaMember)
	w.indiaOrder(t, e, w.indiaManager)

	mine, err := e.orders.ListMine(ctx, w.indiaMember)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, o := range mine {
		assert.Equal(t, w.indiaMember.ID, o.UserID)
		require.NotNil(t, o.Restaurant)
	}

	_, err = e.orders.ListAll(ctx, w.indiaMember)
	requireForbidden(t, err, apperror.ReasonRole)

	for _, p := range []*models.Principal{w.admin, w.usManager} {
		all, err := e.orders.ListAll(ctx, p)
		require.NoError(t, err)
		assert.Len(t, all, 3)
		for _, o := range all {
			require.NotNil(t, o.User)
			assert.NotEmpty(t, o.User.Email)
		}
	}
}
