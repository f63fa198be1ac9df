package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/interviewmate/server/internal/model"
)

// UserDTO is the public view of an account.
type UserDTO struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Role             model.Role `json:"role"`
	IsEmailVerified  bool       `json:"is_email_verified"`
	RemainingMinutes int        `json:"remaining_minutes"`
	Plan             model.Plan `json:"plan"`
	AvatarURL        string     `json:"avatar_url"`
	CreatedAt        time.Time  `json:"created_at"`
}

func NewUserDTO(user *model.User) UserDTO {
	return UserDTO{
		ID:               user.ID,
		Name:             user.Name,
		Email:            user.Email,
		Role:             user.Role,
		IsEmailVerified:  user.IsEmailVerified,
		RemainingMinutes: user.RemainingMinutes,
		Plan:             user.Plan,
		AvatarURL:        user.AvatarURL,
		CreatedAt:        user.CreatedAt,
	}
}

func NewUserDTOs(users []model.User) []UserDTO {
	out := make([]UserDTO, 0, len(users))
	for i := range users {
		out = append(out, NewUserDTO(&users[i]))
	}
	return out
}
