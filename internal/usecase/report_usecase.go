package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/model"
	"github.com/interviewmate/server/internal/repository"
	"github.com/interviewmate/server/internal/util"
)

type ReportUsecase struct {
	reports *repository.ReportRepository
	now     func() time.Time
}

func NewReportUsecase(reports *repository.ReportRepository) *ReportUsecase {
	return &ReportUsecase{reports: reports, now: time.Now}
}

func (uc *ReportUsecase) List(ctx context.Context, userID uuid.UUID) ([]model.Report, error) {
	return uc.reports.FindByUser(userID, nil)
}

func (uc *ReportUsecase) Get(ctx context.Context, reportID, requesterID uuid.UUID, requesterRole model.Role) (*model.Report, error) {
	report, err := uc.reports.FindByID(reportID)
	if err != nil {
		return nil, err
	}
	if !report.OwnedBy(requesterID) && requesterRole != model.RoleAdmin {
		return nil, apperr.New(apperr.KindForbidden, "Not authorized to view this report")
	}
	return report, nil
}

// GetShared serves a report by its share token without an ownership
// check; only shareable reports resolve.
func (uc *ReportUsecase) GetShared(ctx context.Context, token string) (*model.Report, error) {
	return uc.reports.FindBySharedToken(token)
}

// Share toggles the one mutable field a report has.
func (uc *ReportUsecase) Share(ctx context.Context, reportID, requesterID uuid.UUID, requesterRole model.Role, shareable bool) (string, error) {
	report, err := uc.reports.FindByID(reportID)
	if err != nil {
		return "", err
	}
	if !report.OwnedBy(requesterID) && requesterRole != model.RoleAdmin {
		return "", apperr.New(apperr.KindForbidden, "Not authorized to share this report")
	}

	token := report.SharedToken
	if shareable && token == "" {
		token, err = util.RandomToken()
		if err != nil {
			return "", err
		}
	}
	if !shareable {
		token = ""
	}
	if err := uc.reports.UpdateSharing(report.ID, shareable, token); err != nil {
		return "", err
	}
	return token, nil
}

func (uc *ReportUsecase) Delete(ctx context.Context, reportID, requesterID uuid.UUID, requesterRole model.Role) error {
	report, err := uc.reports.FindByID(reportID)
	if err != nil {
		return err
	}
	if !report.OwnedBy(requesterID) && requesterRole != model.RoleAdmin {
		return apperr.New(apperr.KindForbidden, "Not authorized to delete this report")
	}
	return uc.reports.Delete(report.ID)
}

type ScoreTrendPoint struct {
	Date         string  `json:"date"`
	AverageScore float64 `json:"average_score"`
}

type DistributionEntry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type Analytics struct {
	TotalInterviews  int                 `json:"total_interviews"`
	AverageScore     float64             `json:"average_score"`
	InterviewsPassed int                 `json:"interviews_passed"`
	InterviewsFailed int                 `json:"interviews_failed"`
	TotalMinutes     int                 `json:"total_minutes"`
	ScoreTrend       []ScoreTrendPoint   `json:"score_trend"`
	TypeDistribution []DistributionEntry `json:"type_distribution"`
	DifficultySplit  []DistributionEntry `json:"difficulty_distribution"`
	TopRoles         []DistributionEntry `json:"top_roles"`
}

const (
	passThreshold = 80
	failThreshold = 50
)

// Analytics aggregates a user's reports over a timeframe
// ("last7days", "last30days" or all time).
func (uc *ReportUsecase) Analytics(ctx context.Context, userID uuid.UUID, timeframe string) (*Analytics, error) {
	var since *time.Time
	switch timeframe {
	case "last7days":
		t := uc.now().AddDate(0, 0, -7)
		since = &t
	case "last30days":
		t := uc.now().AddDate(0, -1, 0)
		since = &t
	case "", "alltime":
	default:
		return nil, apperr.New(apperr.KindValidation, "Invalid timeframe")
	}

	reports, err := uc.reports.FindByUser(userID, since)
	if err != nil {
		return nil, err
	}

	result := &Analytics{}
	result.TotalInterviews = len(reports)

	totalScore := 0
	trend := map[string]*struct {
		total int
		count int
	}{}
	types := map[string]int{}
	difficulties := map[string]int{}
	roles := map[string]int{}

	for _, r := range reports {
		totalScore += r.OverallScore
		result.TotalMinutes += r.Duration
		if r.OverallScore >= passThreshold {
			result.InterviewsPassed++
		}
		if r.OverallScore < failThreshold {
			result.InterviewsFailed++
		}

		day := r.CreatedAt.Format("2006-01-02")
		if trend[day] == nil {
			trend[day] = &struct {
				total int
				count int
			}{}
		}
		trend[day].total += r.OverallScore
		trend[day].count++

		types[string(r.InterviewType)]++
		difficulties[string(r.Difficulty)]++
		roles[r.JobRole]++
	}

	if result.TotalInterviews > 0 {
		result.AverageScore = float64(totalScore) / float64(result.TotalInterviews)
	}
	for day, data := range trend {
		result.ScoreTrend = append(result.ScoreTrend, ScoreTrendPoint{
			Date:         day,
			AverageScore: float64(data.total) / float64(data.count),
		})
	}
	sortTrend(result.ScoreTrend)
	result.TypeDistribution = toDistribution(types, 0)
	result.DifficultySplit = toDistribution(difficulties, 0)
	result.TopRoles = toDistribution(roles, 5)
	return result, nil
}

func sortTrend(points []ScoreTrendPoint) {
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			if points[j].Date < points[i].Date {
				points[i], points[j] = points[j], points[i]
			}
		}
	}
}

// toDistribution converts a count map to entries sorted by count
// descending; topK of 0 keeps everything.
func toDistribution(counts map[string]int, topK int) []DistributionEntry {
	entries := make([]DistributionEntry, 0, len(counts))
	for k, v := range counts {
		entries = append(entries, DistributionEntry{Key: k, Count: v})
	}
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			if entries[j].Count > entries[i].Count ||
				(entries[j].Count == entries[i].Count && entries[j].Key < entries[i].Key) {
				entries[i], entries[j] = entries[j], entries[i]
			}
		}
	}
	if topK > 0 && len(entries) > topK {
		entries = entries[:topK]
	}
	return entries
}
