package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"food-ordering-api/models"

	"gorm.io/gorm"
)

type GormOrderRepository struct {
	db    *gorm.DB
	users UserRepository
}

func NewOrderRepository(db *gorm.DB, users UserRepository) *GormOrderRepository {
	return &GormOrderRepository{db: db, users: users}
}

// Create inserts the order, its items and the initial history row atomically.
func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order, note string) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Restaurant", "StatusHistory").Create(order).Error; err != nil {
			return err
		}
		return tx.Create(&models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  order.Status,
			ChangedBy: order.UserID,
			Note:      note,
		}).Error
	}))
}

func (r *GormOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).
		Preload("Items.MenuItem").
		Preload("Restaurant").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		First(&o, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *GormOrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items.MenuItem").
		Preload("Restaurant").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&orders).Error
	return orders, translate(err)
}

// ListAll returns every order joined with its restaurant and the owner's
// name and email.
func (r *GormOrderRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Restaurant").
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return nil, translate(err)
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		if !slices.Contains(ids, o.UserID) {
			ids = append(ids, o.UserID)
		}
	}
	owners, err := r.users.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if s, ok := owners[orders[i].UserID]; ok {
			orders[i].User = &s
		}
	}
	return orders, nil
}

// Transition is a compare-and-swap on the status column: the update only
// matches the exact status observed inside the transaction, so two
// concurrent callers can never both succeed.
func (r *GormOrderRepository) Transition(ctx context.Context, p TransitionParams) (models.OrderStatus, error) {
	var prev models.OrderStatus
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Order
		err := tx.Select("id", "status").
			Where("id = ? AND user_id = ?", p.OrderID, p.OwnerID).
			First(&current).Error
		if err != nil {
			return err
		}
		prev = current.Status
		if !slices.Contains(p.From, current.Status) {
			return ErrStaleStatus
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND user_id = ? AND status = ?", p.OrderID, p.OwnerID, current.Status).
			Updates(map[string]any{"status": p.To, "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleStatus
		}

		return tx.Create(&models.OrderStatusHistory{
			OrderID:    p.OrderID,
			FromStatus: current.Status,
			ToStatus:   p.To,
			ChangedBy:  p.ChangedBy,
			Note:       p.Note,
		}).Error
	})
	if errors.Is(err, ErrStaleStatus) {
		if prev == "" || slices.Contains(p.From, prev) {
			// lost the race; report what won
			prev, err = r.currentStatus(ctx, p.OrderID)
			if err != nil {
				return "", err
			}
		}
		return prev, ErrStaleStatus
	}
	return prev, translate(err)
}

// UpdatePaymentMethod overrides the payment method in any status and records
// the change in the status history.
func (r *GormOrderRepository) UpdatePaymentMethod(ctx context.Context, id string, method models.PaymentMethod, changedBy string) (models.PaymentMethod, error) {
	var prev models.PaymentMethod
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Order
		if err := tx.Select("id", "status", "payment_method").First(&current, "id = ?", id).Error; err != nil {
			return err
		}
		prev = current.PaymentMethod

		res := tx.Model(&models.Order{}).
			Where("id = ?", id).
			Updates(map[string]any{"payment_method": method, "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Create(&models.OrderStatusHistory{
			OrderID:    id,
			FromStatus: current.Status,
			ToStatus:   current.Status,
			ChangedBy:  changedBy,
			Note:       fmt.Sprintf("payment method %s → %s", prev, method),
		}).Error
	})
	return prev, translate(err)
}

func (r *GormOrderRepository) currentStatus(ctx context.Context, id string) (models.OrderStatus, error) {
	var o models.Order
	if err := r.db.WithContext(ctx).Select("id", "status").First(&o, "id = ?", id).Error; err != nil {
		return "", translate(err)
	}
	return o.Status, nil
}
