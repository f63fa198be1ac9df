package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// FreePlanMinutes is the starting quota for new accounts.
const FreePlanMinutes = 30

type OAuthProvider string

const (
	ProviderGoogle OAuthProvider = "google"
	ProviderGitHub OAuthProvider = "github"
)

func (p OAuthProvider) Valid() bool {
	return p == ProviderGoogle || p == ProviderGitHub
}

type User struct {
	ID               uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string        `gorm:"not null" json:"name"`
	Email            string        `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash     string        `gorm:"not null" json:"-"`
	Role             Role          `gorm:"type:varchar(10);default:user" json:"role"`
	IsEmailVerified  bool          `gorm:"default:false" json:"is_email_verified"`
	RemainingMinutes int           `gorm:"default:30" json:"remaining_minutes"`
	Plan             Plan          `gorm:"type:varchar(10);default:free" json:"plan"`
	PlanStartDate    *time.Time    `json:"plan_start_date,omitempty"`
	PlanEndDate      *time.Time    `json:"plan_end_date,omitempty"`
	AvatarURL        string        `gorm:"default:/placeholder-user.jpg" json:"avatar_url"`
	OAuthID          string        `gorm:"index" json:"-"`
	OAuthProvider    OAuthProvider `gorm:"type:varchar(10)" json:"oauth_provider,omitempty"`

	// Hashed one-time tokens for email verification and password reset.
	VerificationToken       string     `json:"-"`
	VerificationTokenExpire *time.Time `json:"-"`
	ResetPasswordToken      string     `json:"-"`
	ResetPasswordExpire     *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
