package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderStatus represents all possible states of an order
type OrderStatus string

const (
	StatusCreated   OrderStatus = "CREATED"
	StatusPaid      OrderStatus = "PAID"
	StatusCancelled OrderStatus = "CANCELLED"
)

type PaymentMethod string

const (
	PaymentCard PaymentMethod = "CARD"
	PaymentUPI  PaymentMethod = "UPI"
	PaymentCash PaymentMethod = "CASH"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentUPI, PaymentCash:
		return true
	}
	return false
}

type Order struct {
	ID            string               `json:"id" gorm:"primaryKey;type:text"`
	UserID        string               `json:"userId" gorm:"not null;type:text;index"`
	User          *UserSummary         `json:"user,omitempty" gorm:"-"`
	RestaurantID  string               `json:"restaurantId" gorm:"not null;type:text;index"`
	Restaurant    *Restaurant          `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	Items         []OrderItem          `json:"items" gorm:"foreignKey:OrderID"`
	Status        OrderStatus          `json:"status" gorm:"not null;default:'CREATED';index"`
	TotalAmount   float64              `json:"totalAmount" gorm:"not null"`
	PaymentMethod PaymentMethod        `json:"paymentMethod" gorm:"not null;default:'CARD'"`
	Country       Country              `json:"country" gorm:"not null"`
	StatusHistory []OrderStatusHistory `json:"statusHistory,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = StatusCreated
	}
	if o.PaymentMethod == "" {
		o.PaymentMethod = PaymentCard
	}
	return nil
}

type OrderItem struct {
	ID         string    `json:"id" gorm:"primaryKey;type:text"`
	OrderID    string    `json:"orderId" gorm:"not null;type:text;index"`
	MenuItemID string    `json:"menuItemId" gorm:"not null;type:text"`
	MenuItem   *MenuItem `json:"menuItem,omitempty" gorm:"foreignKey:MenuItemID"`
	Quantity   int       `json:"quantity" gorm:"not null"`
	UnitPrice  float64   `json:"unitPrice" gorm:"not null"` // caller-supplied, not re-priced
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// OrderStatusHistory tracks every status change and payment-method override.
type OrderStatusHistory struct {
	ID         string      `json:"id" gorm:"primaryKey;type:text"`
	OrderID    string      `json:"orderId" gorm:"not null;type:text;index"`
	FromStatus OrderStatus `json:"fromStatus"`
	ToStatus   OrderStatus `json:"toStatus" gorm:"not null"`
	ChangedBy  string      `json:"changedBy"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"createdAt"`
}

func (h *OrderStatusHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}
