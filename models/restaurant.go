package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Restaurant struct {
	ID        string     `json:"id" gorm:"primaryKey;type:text"`
	Name      string     `json:"name" gorm:"not null"`
	Address   string     `json:"address" gorm:"not null"`
	Country   Country    `json:"country" gorm:"not null;index"`
	IsActive  bool       `json:"isActive" gorm:"not null;index"`
	ManagerID string     `json:"managerId" gorm:"not null;type:text"`
	Manager   *User      `json:"manager,omitempty" gorm:"foreignKey:ManagerID"`
	Menu      []MenuItem `json:"menu,omitempty" gorm:"foreignKey:RestaurantID"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (r *Restaurant) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

type MenuItem struct {
	ID           string    `json:"id" gorm:"primaryKey;type:text"`
	RestaurantID string    `json:"restaurantId" gorm:"not null;type:text;index"`
	Name         string    `json:"name" gorm:"not null"`
	Description  string    `json:"description"`
	Price        float64   `json:"price" gorm:"not null;check:price >= 0"`
	IsAvailable  bool      `json:"isAvailable" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (m *MenuItem) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
