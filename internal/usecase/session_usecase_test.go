package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/events"
	"github.com/interviewmate/server/internal/model"
	"github.com/interviewmate/server/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeInterviewStore struct {
	mu         sync.Mutex
	interviews map[uuid.UUID]*model.Interview
}

func newFakeInterviewStore() *fakeInterviewStore {
	return &fakeInterviewStore{interviews: make(map[uuid.UUID]*model.Interview)}
}

func (s *fakeInterviewStore) Create(interview *model.Interview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if interview.ID == uuid.Nil {
		interview.ID = uuid.New()
	}
	if interview.CreatedAt.IsZero() {
		interview.CreatedAt = time.Now()
	}
	copied := *interview
	s.interviews[interview.ID] = &copied
	return nil
}

func (s *fakeInterviewStore) FindByID(id uuid.UUID) (*model.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	interview, ok := s.interviews[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "Interview not found")
	}
	copied := *interview
	return &copied, nil
}

func (s *fakeInterviewStore) FindByUser(userID uuid.UUID) ([]model.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Interview
	for _, interview := range s.interviews {
		if interview.UserID == userID {
			out = append(out, *interview)
		}
	}
	return out, nil
}

func (s *fakeInterviewStore) Complete(id uuid.UUID, duration int, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	interview, ok := s.interviews[id]
	if !ok {
		return false, nil
	}
	if interview.Status != model.StatusPending && interview.Status != model.StatusActive {
		return false, nil
	}
	interview.Status = model.StatusCompleted
	interview.Duration = duration
	interview.UpdatedAt = now
	return true, nil
}

func (s *fakeInterviewStore) BindCall(id uuid.UUID, callID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	interview, ok := s.interviews[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, "Interview not found")
	}
	if interview.ExternalCallID == callID {
		return nil
	}
	if interview.ExternalCallID != "" {
		return apperr.New(apperr.KindConflict, "Interview is already bound to a different call")
	}
	interview.ExternalCallID = callID
	interview.StartedAt = &now
	return nil
}

func (s *fakeInterviewStore) AppendTranscript(id uuid.UUID, turns []model.TranscriptTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	interview, ok := s.interviews[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, "Interview not found")
	}
	interview.Transcript = append(interview.Transcript, turns...)
	return nil
}

type fakeUserStore struct {
	mu         sync.Mutex
	users      map[uuid.UUID]*model.User
	deductions int
}

func newFakeUserStore(users ...*model.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[uuid.UUID]*model.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) FindByID(id uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "User not found")
	}
	copied := *user
	return &copied, nil
}

func (s *fakeUserStore) DeductMinutes(id uuid.UUID, minutes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, "User not found")
	}
	s.deductions++
	if user.RemainingMinutes > minutes {
		user.RemainingMinutes -= minutes
	} else {
		user.RemainingMinutes = 0
	}
	return nil
}

type fakeReportStore struct {
	mu      sync.Mutex
	reports map[uuid.UUID]*model.Report
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{reports: make(map[uuid.UUID]*model.Report)}
}

func (s *fakeReportStore) Create(report *model.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.reports {
		if existing.InterviewID == report.InterviewID {
			return apperr.New(apperr.KindDuplicateReport, "A report already exists for this interview")
		}
	}
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	copied := *report
	s.reports[report.ID] = &copied
	return nil
}

func (s *fakeReportStore) FindByInterview(interviewID uuid.UUID) (*model.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, report := range s.reports {
		if report.InterviewID == interviewID {
			copied := *report
			return &copied, nil
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "Report not found")
}

type fakeGenerator struct {
	mu     sync.Mutex
	err    error
	report *service.GeneratedReport
	calls  int
}

func (g *fakeGenerator) GenerateReport(ctx context.Context, rc service.ReportContext) (*service.GeneratedReport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	if g.report != nil {
		return g.report, nil
	}
	return &service.GeneratedReport{OverallScore: 75, Strengths: []string{"clear answers"}}, nil
}

func (g *fakeGenerator) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

type fakeBlobStore struct {
	uploads int
	err     error
}

func (b *fakeBlobStore) Upload(ctx context.Context, data []byte, filename, folder string) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	b.uploads++
	return "https://cdn.example.com/" + folder + "/" + filename, nil
}

func (b *fakeBlobStore) Delete(ctx context.Context, url string) error { return nil }

type fakePublisher struct {
	mu     sync.Mutex
	events []events.InterviewCompletedEvent
}

func (p *fakePublisher) InterviewCompleted(ctx context.Context, evt events.InterviewCompletedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

type sessionFixture struct {
	uc         *SessionUsecase
	interviews *fakeInterviewStore
	users      *fakeUserStore
	reports    *fakeReportStore
	generator  *fakeGenerator
	blobs      *fakeBlobStore
	publisher  *fakePublisher
	owner      *model.User
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	owner := &model.User{
		ID:               uuid.New(),
		Name:             "Priya",
		Email:            "priya@example.com",
		Role:             model.RoleUser,
		RemainingMinutes: 30,
	}
	f := &sessionFixture{
		interviews: newFakeInterviewStore(),
		users:      newFakeUserStore(owner),
		reports:    newFakeReportStore(),
		generator:  &fakeGenerator{},
		blobs:      &fakeBlobStore{},
		publisher:  &fakePublisher{},
		owner:      owner,
	}
	f.uc = NewSessionUsecase(f.interviews, f.users, f.reports, f.generator, f.blobs, f.publisher, zap.NewNop())
	return f
}

func validStartConfig() StartConfig {
	return StartConfig{
		InterviewType: model.TypeTechnical,
		JobRole:       "Backend Engineer",
		Difficulty:    model.DifficultyMedium,
		Topics:        []string{"Go", "databases"},
	}
}

func TestStartSession(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an active interview", func(t *testing.T) {
		f := newSessionFixture(t)
		id, err := f.uc.StartSession(ctx, f.owner.ID, validStartConfig(), nil, "", "")
		require.NoError(t, err)

		interview, err := f.interviews.FindByID(id)
		require.NoError(t, err)
		assert.Equal(t, model.StatusActive, interview.Status)
		assert.Equal(t, f.owner.ID, interview.UserID)
		assert.Equal(t, 0, interview.Duration)
	})

	t.Run("rejects invalid type", func(t *testing.T) {
		f := newSessionFixture(t)
		cfg := validStartConfig()
		cfg.InterviewType = "Behavioral"
		_, err := f.uc.StartSession(ctx, f.owner.ID, cfg, nil, "", "")
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("rejects missing job role", func(t *testing.T) {
		f := newSessionFixture(t)
		cfg := validStartConfig()
		cfg.JobRole = ""
		_, err := f.uc.StartSession(ctx, f.owner.ID, cfg, nil, "", "")
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("defaults difficulty to medium", func(t *testing.T) {
		f := newSessionFixture(t)
		cfg := validStartConfig()
		cfg.Difficulty = ""
		id, err := f.uc.StartSession(ctx, f.owner.ID, cfg, nil, "", "")
		require.NoError(t, err)
		interview, _ := f.interviews.FindByID(id)
		assert.Equal(t, model.DifficultyMedium, interview.Difficulty)
	})

	t.Run("rejects exhausted quota", func(t *testing.T) {
		f := newSessionFixture(t)
		f.owner.RemainingMinutes = 0
		_, err := f.uc.StartSession(ctx, f.owner.ID, validStartConfig(), nil, "", "")
		assert.True(t, apperr.Is(err, apperr.KindQuotaExceeded))
	})

	t.Run("admin bypasses quota", func(t *testing.T) {
		f := newSessionFixture(t)
		f.owner.Role = model.RoleAdmin
		f.owner.RemainingMinutes = 0
		_, err := f.uc.StartSession(ctx, f.owner.ID, validStartConfig(), nil, "", "")
		assert.NoError(t, err)
	})

	t.Run("stores resume and aborts on upload failure", func(t *testing.T) {
		f := newSessionFixture(t)
		id, err := f.uc.StartSession(ctx, f.owner.ID, validStartConfig(), []byte("%PDF"), "resume.pdf", "resume text")
		require.NoError(t, err)
		assert.Equal(t, 1, f.blobs.uploads)
		interview, _ := f.interviews.FindByID(id)
		assert.NotEmpty(t, interview.ResumeURL)

		f.blobs.err = apperr.New(apperr.KindUpload, "Failed to upload file")
		_, err = f.uc.StartSession(ctx, f.owner.ID, validStartConfig(), []byte("%PDF"), "resume.pdf", "")
		assert.True(t, apperr.Is(err, apperr.KindUpload))
	})
}

func TestBindCall(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)
	id, err := f.uc.StartSession(ctx, f.owner.ID, validStartConfig(), nil, "", "")
	require.NoError(t, err)

	require.Error(t, f.uc.BindCall(ctx, id, ""))

	require.NoError(t, f.uc.BindCall(ctx, id, "call-1"))
	// Binding the same id again is a no-op.
	require.NoError(t, f.uc.BindCall(ctx, id, "call-1"))
	// A second distinct id is rejected.
	err = f.uc.BindCall(ctx, id, "call-2")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestAppendTranscript(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)
	id, err := f.uc.StartSession(ctx, f.owner.ID, validStartConfig(), nil, "", "")
	require.NoError(t, err)

	// Empty batch is a no-op even for an unknown interview.
	require.NoError(t, f.uc.AppendTranscript(ctx, uuid.New(), nil))

	turns := []model.TranscriptTurn{
		{Speaker: model.SpeakerInterviewer, Text: "Tell me about yourself.", Timestamp: time.Now()},
		{Speaker: model.SpeakerCandidate, Text: "I build backend services.", Timestamp: time.Now()},
	}
	require.NoError(t, f.uc.AppendTranscript(ctx, id, turns[:1]))
	require.NoError(t, f.uc.AppendTranscript(ctx, id, turns[1:]))

	interview, _ := f.interviews.FindByID(id)
	require.Len(t, interview.Transcript, 2)
	assert.Equal(t, "Tell me about yourself.", interview.Transcript[0].Text)
	assert.Equal(t, model.SpeakerCandidate, interview.Transcript[1].Speaker)
}

func TestEndSession(t *testing.T) {
	ctx := context.Background()

	t.Run("completes, deducts and generates a report", func(t *testing.T) {
		f := newSessionFixture(t)
		start := time.Now()
		f.uc.now = func() time.Time { return start.Add(12*time.Minute + 30*time.Second) }

		id, err := f.uc.StartSession(ctx, f.owner.ID, validStartConfig(), nil, "", "")
		require.NoError(t, err)
		f.interviews.interviews[id].CreatedAt = start

		reportID, err := f.uc.EndSession(ctx, id, f.owner.ID, model.RoleUser)
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, reportID)

		interview, _ := f.interviews.FindByID(id)
		assert.Equal(t, model.StatusCompleted, interview.Status)
		// 12m30s rounds up to 13 minutes.
		assert.Equal(t, 13, interview.Duration)

		owner, _ := f.users.FindByID(f.owner.ID)
		assert.Equal(t, 17, owner.RemainingMinutes)

		report, err := f.reports.FindByInterview(id)
		require.NoError(t, err)
		assert.Equal(t, 75, report.OverallScore)
		assert.Equal(t, 13, report.Duration)

		require.Len(t, f.publisher.events, 1)
		assert.Equal(t, id, f.publisher.events[0].InterviewID)
		assert.Equal(t, reportID, f.publisher.events[0].ReportID)
	})

	t.Run("second end reports already completed", func(t *testing.T) {
		f := newSessionFixture(t)
		id, err := f.uc.StartSession(ctx, f.owner.ID, validStartConfig(), nil, "", "")
		require.NoError(t, err)

		_, err = f.uc.EndSession(ctx, id, f.owner.ID, model.RoleUser)
		require.NoError(t, err)

		_, err = f.uc.EndSession(ctx, id, f.owner.ID, model.RoleUser)
		assert.True(t, apperr.Is(err, apperr.KindAlreadyCompleted))
		assert.Equal(t, 1, f.users.deductions)
		assert.Len(t, f.reports.reports, 1)
	})

	t.Run("concurrent ends elect one winner", func(t *testing.T) {
		f := newSessionFixture(t)
		id, err := f.uc.StartSession(ctx, f.owner.ID, validStartConfig(), nil, "", "")
		require.NoError(t, err)

		const callers = 8
		var wg sync.WaitGroup
		errs := make([]error, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.uc.EndSession(ctx, id, f.owner.ID, model.RoleUser)
			}(i)
		}
		wg.Wait()

		winners := 0
		for _, err := range errs {
			if err == nil {
				winners++
				continue
			}
			kind := apperr.KindOf(err)
			assert.Contains(t, []apperr.Kind{apperr.KindAlreadyCompleted, apperr.KindConflict}, kind)
		}
		assert.Equal(t, 1, winners)
		assert.Equal(t, 1, f.users.deductions)
		assert.Len(t, f.reports.reports, 1)
		assert.Len(t, f.publisher.events, 1)
	})

	t.Run("quota never goes negative", func(t *testing.T) {
		f := newSessionFixture(t)
		f.owner.RemainingMinutes = 5
		start := time.Now()
		f.uc.now = func() time.Time { return start.Add(45 * time.Minute) }

		id, err := f.uc.StartSession(ctx, f.owner.ID, validStartConfig(), nil, "", "")
		require.NoError(t, err)
		f.interviews.interviews[id].CreatedAt = start

		_, err = f.uc.EndSession(ctx, id, f.owner.ID, model.RoleUser)
		require.NoError(t, err)

		owner, _ := f.users.FindByID(f.owner.ID)
		assert.Equal(t, 0, owner.RemainingMinutes)
	})

	t.Run("admin owner is not deducted", func(t *testing.T) {
		f := newSessionFixture(t)
		f.owner.Role = model.RoleAdmin
		id, err := f.uc.StartSession(ctx, f.owner.ID, validStartConfig(), nil, "", "")
		require.NoError(t, err)

		_, err = f.uc.EndSession(ctx, id, f.owner.ID, model.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, 0, f.users.deductions)
	})

	t.Run("stranger cannot end someone else's interview", func(t *testing.T) {
		f := newSessionFixture(t)
		id, err := f.uc.StartSession(ctx, f.owner.ID, validStartConfig(), nil, "", "")
		require.NoError(t, err)

		_, err = f.uc.EndSession(ctx, id, uuid.New(), model.RoleUser)
		assert.True(t, apperr.Is(err, apperr.KindForbidden))
	})

	t.Run("generator failure leaves interview completed but unreported", func(t *testing.T) {
		f := newSessionFixture(t)
		f.generator.err = errors.New("upstream unavailable")

		id, err := f.uc.StartSession(ctx, f.owner.ID, validStartConfig(), nil, "", "")
		require.NoError(t, err)

		_, err = f.uc.EndSession(ctx, id, f.owner.ID, model.RoleUser)
		assert.True(t, apperr.Is(err, apperr.KindReportGeneration))

		interview, _ := f.interviews.FindByID(id)
		assert.Equal(t, model.StatusCompleted, interview.Status)
		// The minutes are still consumed; the retry path picks up the report.
		assert.Equal(t, 1, f.users.deductions)
		_, err = f.reports.FindByInterview(id)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}

func TestRetryReport(t *testing.T) {
	ctx := context.Background()

	t.Run("recovers a completed-but-unreported interview", func(t *testing.T) {
		f := newSessionFixture(t)
		f.generator.err = errors.New("upstream unavailable")
		id, err := f.uc.StartSession(ctx, f.owner.ID, validStartConfig(), nil, "", "")
		require.NoError(t, err)
		_, err = f.uc.EndSession(ctx, id, f.owner.ID, model.RoleUser)
		require.Error(t, err)

		f.generator.mu.Lock()
		f.generator.err = nil
		f.generator.mu.Unlock()

		reportID, err := f.uc.RetryReport(ctx, id, f.owner.ID, model.RoleUser)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, reportID)
	})

	t.Run("rejects an active interview", func(t *testing.T) {
		f := newSessionFixture(t)
		id, err := f.uc.StartSession(ctx, f.owner.ID, validStartConfig(), nil, "", "")
		require.NoError(t, err)

		_, err = f.uc.RetryReport(ctx, id, f.owner.ID, model.RoleUser)
		assert.True(t, apperr.Is(err, apperr.KindConflict))
	})

	t.Run("rejects when a report exists", func(t *testing.T) {
		f := newSessionFixture(t)
		id, err := f.uc.StartSession(ctx, f.owner.ID, validStartConfig(), nil, "", "")
		require.NoError(t, err)
		_, err = f.uc.EndSession(ctx, id, f.owner.ID, model.RoleUser)
		require.NoError(t, err)

		_, err = f.uc.RetryReport(ctx, id, f.owner.ID, model.RoleUser)
		assert.True(t, apperr.Is(err, apperr.KindConflict))
	})
}

func TestGetSession(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)
	id, err := f.uc.StartSession(ctx, f.owner.ID, validStartConfig(), nil, "", "")
	require.NoError(t, err)

	interview, err := f.uc.GetSession(ctx, id, f.owner.ID, model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, id, interview.ID)

	_, err = f.uc.GetSession(ctx, id, uuid.New(), model.RoleUser)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	// Admins can inspect any interview.
	_, err = f.uc.GetSession(ctx, id, uuid.New(), model.RoleAdmin)
	assert.NoError(t, err)

	_, err = f.uc.GetSession(ctx, uuid.New(), f.owner.ID, model.RoleUser)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
