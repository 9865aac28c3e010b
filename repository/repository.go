package repository

import (
	"context"
	"errors"
	"strings"

	"food-ordering-api/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleStatus means the order was not in an expected status when the
	// conditional write ran.
	ErrStaleStatus = errors.New("order status changed")
	// ErrStaleToken means the stored refresh token no longer matched when
	// the rotation ran.
	ErrStaleToken = errors.New("refresh token changed")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id string) error
	SetRefreshToken(ctx context.Context, id, token string) error
	RotateRefreshToken(ctx context.Context, id, current, next string) error
	Summaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error)
}

type RestaurantRepository interface {
	Create(ctx context.Context, r *models.Restaurant) error
	GetActive(ctx context.Context, id string) (*models.Restaurant, error)
	ListActive(ctx context.Context, country models.Country) ([]models.Restaurant, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Deactivate(ctx context.Context, id string) error
}

type MenuItemRepository interface {
	Create(ctx context.Context, item *models.MenuItem) error
	GetByID(ctx context.Context, id string) (*models.MenuItem, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
	ListAvailableByRestaurants(ctx context.Context, restaurantIDs []string) ([]models.MenuItem, error)
}

// TransitionParams describes a conditional status write.
type TransitionParams struct {
	OrderID   string
	OwnerID   string
	From      []models.OrderStatus
	To        models.OrderStatus
	ChangedBy string
	Note      string
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order, note string) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	// Transition moves an owned order to p.To only if its current status is in
	// p.From. It returns the status observed before the write.
	Transition(ctx context.Context, p TransitionParams) (models.OrderStatus, error)
	UpdatePaymentMethod(ctx context.Context, id string, method models.PaymentMethod, changedBy string) (models.PaymentMethod, error)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return ErrDuplicate
	}
	return err
}
