package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/model"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db}
}

func (r *UserRepository) Create(user *model.User) error {
	err := r.db.Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.New(apperr.KindValidation, "Email already registered")
	}
	return err
}

func (r *UserRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}

func (r *UserRepository) FindByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "User not found")
	}
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "User not found")
	}
	return &user, err
}

func (r *UserRepository) FindByOAuth(provider model.OAuthProvider, oauthID string) (*model.User, error) {
	var user model.User
	err := r.db.First(&user, "oauth_provider = ? AND oauth_id = ?", provider, oauthID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "User not found")
	}
	return &user, err
}

func (r *UserRepository) FindByVerificationToken(hashed string, now time.Time) (*model.User, error) {
	var user model.User
	err := r.db.First(&user, "verification_token = ? AND verification_token_expire > ?", hashed, now).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindValidation, "Invalid token or token has expired")
	}
	return &user, err
}

func (r *UserRepository) FindByResetToken(hashed string, now time.Time) (*model.User, error) {
	var user model.User
	err := r.db.First(&user, "reset_password_token = ? AND reset_password_expire > ?", hashed, now).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindValidation, "Invalid token or token has expired")
	}
	return &user, err
}

// DeductMinutes subtracts completed interview minutes from the quota,
// never letting it drop below zero. The arithmetic happens in the UPDATE
// so concurrent deductions cannot lose writes.
func (r *UserRepository) DeductMinutes(id uuid.UUID, minutes int) error {
	return r.db.Model(&model.User{}).
		Where("id = ?", id).
		Update("remaining_minutes",
			gorm.Expr("CASE WHEN remaining_minutes > ? THEN remaining_minutes - ? ELSE 0 END", minutes, minutes)).
		Error
}

func (r *UserRepository) List(limit, offset int) ([]model.User, error) {
	var users []model.User
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error
	return users, err
}

func (r *UserRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&model.User{}, "id = ?", id).Error
}

func (r *UserRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.User{}).Count(&count).Error
	return count, err
}
