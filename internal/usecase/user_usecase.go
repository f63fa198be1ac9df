package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/interviewmate/server/internal/model"
	"github.com/interviewmate/server/internal/repository"
	"github.com/interviewmate/server/internal/service"
	"go.uber.org/zap"
)

type UserUsecase struct {
	users      *repository.UserRepository
	interviews *repository.InterviewRepository
	reports    *repository.ReportRepository
	payments   *repository.PaymentRepository
	blobs      service.BlobServiceInterface
	log        *zap.Logger
}

func NewUserUsecase(
	users *repository.UserRepository,
	interviews *repository.InterviewRepository,
	reports *repository.ReportRepository,
	payments *repository.PaymentRepository,
	blobs service.BlobServiceInterface,
	log *zap.Logger,
) *UserUsecase {
	return &UserUsecase{
		users:      users,
		interviews: interviews,
		reports:    reports,
		payments:   payments,
		blobs:      blobs,
		log:        log,
	}
}

func (uc *UserUsecase) Profile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	return uc.users.FindByID(userID)
}

// UpdateProfile changes name/email and optionally replaces the avatar.
// The old avatar blob is deleted best effort after a successful upload.
func (uc *UserUsecase) UpdateProfile(ctx context.Context, userID uuid.UUID, name, email string, avatar []byte, avatarName string) (*model.User, error) {
	user, err := uc.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if name != "" {
		user.Name = name
	}
	if email != "" {
		user.Email = email
	}

	if len(avatar) > 0 {
		oldURL := user.AvatarURL
		url, err := uc.blobs.Upload(ctx, avatar, avatarName, "avatars")
		if err != nil {
			return nil, err
		}
		user.AvatarURL = url
		if strings.Contains(oldURL, "cloudinary") {
			if err := uc.blobs.Delete(ctx, oldURL); err != nil {
				uc.log.Warn("failed to delete old avatar", zap.Error(err))
			}
		}
	}

	if err := uc.users.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteAccount removes the user and cascades over everything they own.
func (uc *UserUsecase) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	user, err := uc.users.FindByID(userID)
	if err != nil {
		return err
	}

	if strings.Contains(user.AvatarURL, "cloudinary") {
		if err := uc.blobs.Delete(ctx, user.AvatarURL); err != nil {
			uc.log.Warn("failed to delete avatar", zap.Error(err))
		}
	}
	if err := uc.interviews.DeleteByUser(userID); err != nil {
		return err
	}
	if err := uc.reports.DeleteByUser(userID); err != nil {
		return err
	}
	if err := uc.payments.DeleteByUser(userID); err != nil {
		return err
	}
	return uc.users.Delete(userID)
}

type DashboardStats struct {
	TotalUsers      int64 `json:"total_users"`
	TotalInterviews int64 `json:"total_interviews"`
	TotalReports    int64 `json:"total_reports"`
	TotalPayments   int64 `json:"total_payments"`
}

// Stats backs the admin dashboard.
func (uc *UserUsecase) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	var err error
	if stats.TotalUsers, err = uc.users.Count(); err != nil {
		return nil, err
	}
	if stats.TotalInterviews, err = uc.interviews.Count(); err != nil {
		return nil, err
	}
	if stats.TotalReports, err = uc.reports.Count(); err != nil {
		return nil, err
	}
	if stats.TotalPayments, err = uc.payments.Count(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (uc *UserUsecase) ListUsers(ctx context.Context, limit, offset int) ([]model.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return uc.users.List(limit, offset)
}
