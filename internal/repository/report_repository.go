package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/model"
	"gorm.io/gorm"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db}
}

// Create inserts a report. The unique index on interview_id is the final
// backstop for the one-report-per-interview rule.
func (r *ReportRepository) Create(report *model.Report) error {
	err := r.db.Create(report).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.New(apperr.KindDuplicateReport, "A report already exists for this interview")
	}
	return err
}

func (r *ReportRepository) FindByID(id uuid.UUID) (*model.Report, error) {
	var report model.Report
	err := r.db.First(&report, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "Report not found")
	}
	return &report, err
}

func (r *ReportRepository) FindByInterview(interviewID uuid.UUID) (*model.Report, error) {
	var report model.Report
	err := r.db.First(&report, "interview_id = ?", interviewID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "Report not found")
	}
	return &report, err
}

func (r *ReportRepository) FindBySharedToken(token string) (*model.Report, error) {
	var report model.Report
	err := r.db.First(&report, "shared_token = ? AND is_shareable = ?", token, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "Report not found")
	}
	return &report, err
}

func (r *ReportRepository) FindByUser(userID uuid.UUID, since *time.Time) ([]model.Report, error) {
	query := r.db.Where("user_id = ?", userID)
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}
	var reports []model.Report
	err := query.Order("created_at DESC").Find(&reports).Error
	return reports, err
}

// UpdateSharing is the only mutation a report allows after creation.
func (r *ReportRepository) UpdateSharing(id uuid.UUID, shareable bool, token string) error {
	return r.db.Model(&model.Report{}).Where("id = ?", id).Updates(map[string]any{
		"is_shareable": shareable,
		"shared_token": token,
	}).Error
}

func (r *ReportRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&model.Report{}, "id = ?", id).Error
}

func (r *ReportRepository) DeleteByUser(userID uuid.UUID) error {
	return r.db.Where("user_id = ?", userID).Delete(&model.Report{}).Error
}

func (r *ReportRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Report{}).Count(&count).Error
	return count, err
}
