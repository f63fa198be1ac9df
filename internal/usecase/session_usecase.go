package usecase

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/events"
	"github.com/interviewmate/server/internal/metrics"
	"github.com/interviewmate/server/internal/model"
	"github.com/interviewmate/server/internal/service"
	"go.uber.org/zap"
)

// Store interfaces are defined here, on the consumer side, so the
// session manager can be exercised against fakes.

type InterviewStore interface {
	Create(interview *model.Interview) error
	FindByID(id uuid.UUID) (*model.Interview, error)
	FindByUser(userID uuid.UUID) ([]model.Interview, error)
	Complete(id uuid.UUID, duration int, now time.Time) (bool, error)
	BindCall(id uuid.UUID, callID string, now time.Time) error
	AppendTranscript(id uuid.UUID, turns []model.TranscriptTurn) error
}

type UserStore interface {
	FindByID(id uuid.UUID) (*model.User, error)
	DeductMinutes(id uuid.UUID, minutes int) error
}

type ReportStore interface {
	Create(report *model.Report) error
	FindByInterview(interviewID uuid.UUID) (*model.Report, error)
}

type EventPublisher interface {
	InterviewCompleted(ctx context.Context, evt events.InterviewCompletedEvent)
}

// StartConfig is the user-supplied interview setup.
type StartConfig struct {
	InterviewType      model.InterviewType
	JobRole            string
	Difficulty         model.Difficulty
	Topics             []string
	CustomInstructions string
}

// SessionUsecase owns the interview lifecycle from creation to report
// persistence: quota enforcement, the completion race, minute
// bookkeeping and the one-report-per-interview rule.
type SessionUsecase struct {
	interviews InterviewStore
	users      UserStore
	reports    ReportStore
	generator  service.GeminiServiceInterface
	blobs      service.BlobServiceInterface
	publisher  EventPublisher
	log        *zap.Logger
	now        func() time.Time
}

func NewSessionUsecase(
	interviews InterviewStore,
	users UserStore,
	reports ReportStore,
	generator service.GeminiServiceInterface,
	blobs service.BlobServiceInterface,
	publisher EventPublisher,
	log *zap.Logger,
) *SessionUsecase {
	return &SessionUsecase{
		interviews: interviews,
		users:      users,
		reports:    reports,
		generator:  generator,
		blobs:      blobs,
		publisher:  publisher,
		log:        log,
		now:        time.Now,
	}
}

// StartSession validates the quota, optionally stores the resume, and
// creates the interview. The voice call itself is not initiated here.
func (uc *SessionUsecase) StartSession(ctx context.Context, userID uuid.UUID, cfg StartConfig, resume []byte, resumeName, resumeText string) (uuid.UUID, error) {
	if !cfg.InterviewType.Valid() {
		return uuid.Nil, apperr.New(apperr.KindValidation, "Invalid interview type")
	}
	if cfg.Difficulty == "" {
		cfg.Difficulty = model.DifficultyMedium
	}
	if !cfg.Difficulty.Valid() {
		return uuid.Nil, apperr.New(apperr.KindValidation, "Invalid difficulty")
	}
	if cfg.JobRole == "" {
		return uuid.Nil, apperr.New(apperr.KindValidation, "Job role is required")
	}

	user, err := uc.users.FindByID(userID)
	if err != nil {
		return uuid.Nil, err
	}
	if !user.IsAdmin() && user.RemainingMinutes <= 0 {
		return uuid.Nil, apperr.New(apperr.KindQuotaExceeded,
			"You have no remaining interview minutes. Please upgrade your plan.")
	}

	var resumeURL string
	if len(resume) > 0 {
		resumeURL, err = uc.blobs.Upload(ctx, resume, resumeName, "resumes")
		if err != nil {
			// Session creation aborts on upload failure.
			return uuid.Nil, err
		}
	}

	interview := &model.Interview{
		UserID:             userID,
		InterviewType:      cfg.InterviewType,
		JobRole:            cfg.JobRole,
		Difficulty:         cfg.Difficulty,
		Topics:             cfg.Topics,
		CustomInstructions: cfg.CustomInstructions,
		ResumeURL:          resumeURL,
		ResumeText:         resumeText,
		Status:             model.StatusActive,
		Duration:           0,
	}
	if err := uc.interviews.Create(interview); err != nil {
		return uuid.Nil, err
	}

	metrics.InterviewsStarted.Inc()
	uc.log.Info("interview started",
		zap.String("interview_id", interview.ID.String()),
		zap.String("user_id", userID.String()))
	return interview.ID, nil
}

// BindCall records the provider's call id when the call starts.
// Idempotent for the same call id; a second distinct id is a conflict.
func (uc *SessionUsecase) BindCall(ctx context.Context, interviewID uuid.UUID, callID string) error {
	if callID == "" {
		return apperr.New(apperr.KindValidation, "Call id is required")
	}
	return uc.interviews.BindCall(interviewID, callID, uc.now())
}

// AppendTranscript stores turns in arrival order. Transcript capture is
// best effort and never fails the session.
func (uc *SessionUsecase) AppendTranscript(ctx context.Context, interviewID uuid.UUID, turns []model.TranscriptTurn) error {
	if len(turns) == 0 {
		return nil
	}
	return uc.interviews.AppendTranscript(interviewID, turns)
}

// EndSession settles the interview. The conditional Complete update is
// the concurrency guard: exactly one of any number of concurrent callers
// wins and performs the minute deduction and report creation. A report
// generator failure leaves the interview completed-but-unreported;
// RetryReport covers that state.
func (uc *SessionUsecase) EndSession(ctx context.Context, interviewID, requesterID uuid.UUID, requesterRole model.Role) (uuid.UUID, error) {
	interview, err := uc.interviews.FindByID(interviewID)
	if err != nil {
		return uuid.Nil, err
	}
	if !interview.OwnedBy(requesterID) && requesterRole != model.RoleAdmin {
		return uuid.Nil, apperr.New(apperr.KindForbidden, "Not authorized to end this interview")
	}
	if interview.Status == model.StatusCompleted {
		return uuid.Nil, apperr.New(apperr.KindAlreadyCompleted, "Interview already completed and report generated")
	}

	now := uc.now()
	elapsed := int(math.Ceil(now.Sub(interview.CreatedAt).Minutes()))
	if elapsed < 0 {
		elapsed = 0
	}

	won, err := uc.interviews.Complete(interview.ID, elapsed, now)
	if err != nil {
		return uuid.Nil, err
	}
	if !won {
		// Someone else settled the interview between our read and the
		// conditional update.
		current, err := uc.interviews.FindByID(interviewID)
		if err != nil {
			return uuid.Nil, err
		}
		if current.Status == model.StatusCompleted {
			return uuid.Nil, apperr.New(apperr.KindAlreadyCompleted, "Interview already completed and report generated")
		}
		return uuid.Nil, apperr.New(apperr.KindConflict, "Interview is no longer active")
	}
	metrics.InterviewsCompleted.Inc()

	owner, err := uc.users.FindByID(interview.UserID)
	if err != nil {
		return uuid.Nil, err
	}
	if !owner.IsAdmin() {
		if err := uc.users.DeductMinutes(owner.ID, elapsed); err != nil {
			return uuid.Nil, err
		}
	}

	interview.Duration = elapsed
	reportID, err := uc.generateAndStoreReport(ctx, interview)
	if err != nil {
		return uuid.Nil, err
	}

	if uc.publisher != nil {
		uc.publisher.InterviewCompleted(ctx, events.InterviewCompletedEvent{
			InterviewID: interview.ID,
			UserID:      interview.UserID,
			ReportID:    reportID,
			Duration:    elapsed,
			CompletedAt: now,
		})
	}
	return reportID, nil
}

// RetryReport re-runs report generation for a completed interview that
// has no report yet. The uniqueness constraint keeps a concurrent retry
// from producing a second report.
func (uc *SessionUsecase) RetryReport(ctx context.Context, interviewID, requesterID uuid.UUID, requesterRole model.Role) (uuid.UUID, error) {
	interview, err := uc.interviews.FindByID(interviewID)
	if err != nil {
		return uuid.Nil, err
	}
	if !interview.OwnedBy(requesterID) && requesterRole != model.RoleAdmin {
		return uuid.Nil, apperr.New(apperr.KindForbidden, "Not authorized to access this interview")
	}
	if interview.Status != model.StatusCompleted {
		return uuid.Nil, apperr.New(apperr.KindConflict, "Interview is not completed yet")
	}
	if existing, err := uc.reports.FindByInterview(interviewID); err == nil {
		return existing.ID, apperr.New(apperr.KindConflict, "A report already exists for this interview")
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return uuid.Nil, err
	}

	return uc.generateAndStoreReport(ctx, interview)
}

// ListSessions returns the caller's interviews, newest first.
func (uc *SessionUsecase) ListSessions(ctx context.Context, userID uuid.UUID) ([]model.Interview, error) {
	return uc.interviews.FindByUser(userID)
}

// GetSession returns the interview to its owner or an admin.
func (uc *SessionUsecase) GetSession(ctx context.Context, interviewID, requesterID uuid.UUID, requesterRole model.Role) (*model.Interview, error) {
	interview, err := uc.interviews.FindByID(interviewID)
	if err != nil {
		return nil, err
	}
	if !interview.OwnedBy(requesterID) && requesterRole != model.RoleAdmin {
		return nil, apperr.New(apperr.KindForbidden, "Not authorized to view this interview")
	}
	return interview, nil
}

func (uc *SessionUsecase) generateAndStoreReport(ctx context.Context, interview *model.Interview) (uuid.UUID, error) {
	generated, err := uc.generator.GenerateReport(ctx, service.ReportContext{
		InterviewType:      interview.InterviewType,
		JobRole:            interview.JobRole,
		Difficulty:         interview.Difficulty,
		Topics:             interview.Topics,
		CustomInstructions: interview.CustomInstructions,
		ResumeText:         interview.ResumeText,
		Transcript:         interview.Transcript,
	})
	if err != nil {
		metrics.ReportFailures.Inc()
		uc.log.Error("report generation failed",
			zap.String("interview_id", interview.ID.String()), zap.Error(err))
		return uuid.Nil, apperr.Wrap(apperr.KindReportGeneration,
			"Failed to generate report with AI. Please try again.", err)
	}

	report := &model.Report{
		UserID:              interview.UserID,
		InterviewID:         interview.ID,
		InterviewType:       interview.InterviewType,
		JobRole:             interview.JobRole,
		Difficulty:          interview.Difficulty,
		Topics:              interview.Topics,
		Duration:            interview.Duration,
		OverallScore:        generated.OverallScore,
		Strengths:           generated.Strengths,
		AreasForImprovement: generated.AreasForImprovement,
		DetailedFeedback:    generated.DetailedFeedback,
		ResumeURL:           interview.ResumeURL,
	}
	if err := uc.reports.Create(report); err != nil {
		return uuid.Nil, err
	}
	return report.ID, nil
}
