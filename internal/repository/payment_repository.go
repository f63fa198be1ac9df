package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/model"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db}
}

func (r *PaymentRepository) Create(payment *model.Payment) error {
	err := r.db.Create(payment).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.New(apperr.KindConflict, "Payment already recorded")
	}
	return err
}

func (r *PaymentRepository) FindByUser(userID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) DeleteByUser(userID uuid.UUID) error {
	return r.db.Where("user_id = ?", userID).Delete(&model.Payment{}).Error
}

func (r *PaymentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Payment{}).Count(&count).Error
	return count, err
}
