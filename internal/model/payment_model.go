package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentCreated    PaymentStatus = "created"
	PaymentAuthorized PaymentStatus = "authorized"
	PaymentCaptured   PaymentStatus = "captured"
	PaymentRefunded   PaymentStatus = "refunded"
	PaymentFailed     PaymentStatus = "failed"
)

type Payment struct {
	ID                uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID     `gorm:"type:uuid;index;not null" json:"user_id"`
	ProviderOrderID   string        `gorm:"not null" json:"provider_order_id"`
	ProviderPaymentID string        `gorm:"uniqueIndex;not null" json:"provider_payment_id"`
	Amount            int64         `gorm:"not null" json:"amount"` // smallest currency unit
	Currency          string        `gorm:"type:varchar(10);not null" json:"currency"`
	Status            PaymentStatus `gorm:"type:varchar(20);default:created" json:"status"`
	Plan              Plan          `gorm:"type:varchar(10);default:free" json:"plan"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
