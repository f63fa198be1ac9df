package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type fakeAccountStore struct {
	users map[uuid.UUID]*model.User
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{users: make(map[uuid.UUID]*model.User)}
}

func (s *fakeAccountStore) Create(user *model.User) error {
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return apperr.New(apperr.KindValidation, "Email already registered")
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *fakeAccountStore) Update(user *model.User) error {
	if _, ok := s.users[user.ID]; !ok {
		return apperr.New(apperr.KindNotFound, "User not found")
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *fakeAccountStore) FindByID(id uuid.UUID) (*model.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "User not found")
	}
	copied := *user
	return &copied, nil
}

func (s *fakeAccountStore) FindByEmail(email string) (*model.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "User not found")
}

func (s *fakeAccountStore) FindByOAuth(provider model.OAuthProvider, oauthID string) (*model.User, error) {
	for _, user := range s.users {
		if user.OAuthProvider == provider && user.OAuthID == oauthID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "User not found")
}

func (s *fakeAccountStore) FindByVerificationToken(hashed string, now time.Time) (*model.User, error) {
	for _, user := range s.users {
		if user.VerificationToken == hashed &&
			user.VerificationTokenExpire != nil && user.VerificationTokenExpire.After(now) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.New(apperr.KindValidation, "Invalid token or token has expired")
}

func (s *fakeAccountStore) FindByResetToken(hashed string, now time.Time) (*model.User, error) {
	for _, user := range s.users {
		if user.ResetPasswordToken == hashed &&
			user.ResetPasswordExpire != nil && user.ResetPasswordExpire.After(now) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.New(apperr.KindValidation, "Invalid token or token has expired")
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type mailRecorder struct {
	sent []sentMail
	err  error
}

func (m *mailRecorder) send(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func newAuthFixture(t *testing.T) (*AuthUsecase, *fakeAccountStore, *mailRecorder) {
	t.Helper()
	store := newFakeAccountStore()
	mail := &mailRecorder{}
	uc := NewAuthUsecase(store, nil, mail.send, zap.NewNop())
	return uc, store, mail
}

func registerVerified(t *testing.T, uc *AuthUsecase, store *fakeAccountStore, email, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{
		Name:             "Priya",
		Email:            email,
		PasswordHash:     string(hash),
		IsEmailVerified:  true,
		RemainingMinutes: model.FreePlanMinutes,
	}
	require.NoError(t, store.Create(user))
	return user
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an unverified account and mails a link", func(t *testing.T) {
		uc, store, mail := newAuthFixture(t)
		require.NoError(t, uc.Register(ctx, "Priya", "priya@example.com", "secret123"))

		user, err := store.FindByEmail("priya@example.com")
		require.NoError(t, err)
		assert.False(t, user.IsEmailVerified)
		assert.Equal(t, model.FreePlanMinutes, user.RemainingMinutes)
		assert.NotEmpty(t, user.VerificationToken)

		require.Len(t, mail.sent, 1)
		assert.Equal(t, "priya@example.com", mail.sent[0].to)
		assert.Contains(t, mail.sent[0].body, "/verify-email/")
		// The raw token only travels in the mail, never the stored hash.
		assert.NotContains(t, mail.sent[0].body, user.VerificationToken)
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		uc, _, _ := newAuthFixture(t)
		err := uc.Register(ctx, "Priya", "priya@example.com", "abc")
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		uc, store, _ := newAuthFixture(t)
		registerVerified(t, uc, store, "priya@example.com", "secret123")
		err := uc.Register(ctx, "Other", "priya@example.com", "secret123")
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("surfaces mailer failures", func(t *testing.T) {
		uc, _, mail := newAuthFixture(t)
		mail.err = errors.New("smtp down")
		err := uc.Register(ctx, "Priya", "priya@example.com", "secret123")
		assert.True(t, apperr.Is(err, apperr.KindInternal))
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("verified user gets a token pair", func(t *testing.T) {
		uc, store, _ := newAuthFixture(t)
		registerVerified(t, uc, store, "priya@example.com", "secret123")

		user, pair, err := uc.Login(ctx, "priya@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "priya@example.com", user.Email)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		uc, store, _ := newAuthFixture(t)
		registerVerified(t, uc, store, "priya@example.com", "secret123")
		_, _, err := uc.Login(ctx, "priya@example.com", "wrong")
		assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
	})

	t.Run("unknown email gets the same answer as wrong password", func(t *testing.T) {
		uc, _, _ := newAuthFixture(t)
		_, _, err := uc.Login(ctx, "ghost@example.com", "secret123")
		assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
	})

	t.Run("unverified email is rejected", func(t *testing.T) {
		uc, _, _ := newAuthFixture(t)
		require.NoError(t, uc.Register(ctx, "Priya", "priya@example.com", "secret123"))
		_, _, err := uc.Login(ctx, "priya@example.com", "secret123")
		assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
	})
}

func TestVerifyEmail(t *testing.T) {
	ctx := context.Background()
	uc, store, mail := newAuthFixture(t)
	require.NoError(t, uc.Register(ctx, "Priya", "priya@example.com", "secret123"))

	// Pull the raw token out of the mailed link.
	link := mail.sent[0].body
	token := link[len(link)-40:]

	require.NoError(t, uc.VerifyEmail(ctx, token))
	user, err := store.FindByEmail("priya@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsEmailVerified)
	assert.Empty(t, user.VerificationToken)

	// The token is single use.
	err = uc.VerifyEmail(ctx, token)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("full roundtrip", func(t *testing.T) {
		uc, store, mail := newAuthFixture(t)
		registerVerified(t, uc, store, "priya@example.com", "secret123")

		require.NoError(t, uc.ForgotPassword(ctx, "priya@example.com"))
		require.Len(t, mail.sent, 1)
		link := mail.sent[0].body
		token := link[len(link)-40:]

		pair, err := uc.ResetPassword(ctx, token, "newsecret")
		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)

		_, _, err = uc.Login(ctx, "priya@example.com", "newsecret")
		assert.NoError(t, err)
		_, _, err = uc.Login(ctx, "priya@example.com", "secret123")
		assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
	})

	t.Run("unknown email", func(t *testing.T) {
		uc, _, _ := newAuthFixture(t)
		err := uc.ForgotPassword(ctx, "ghost@example.com")
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("expired token", func(t *testing.T) {
		uc, store, mail := newAuthFixture(t)
		registerVerified(t, uc, store, "priya@example.com", "secret123")
		require.NoError(t, uc.ForgotPassword(ctx, "priya@example.com"))
		link := mail.sent[0].body
		token := link[len(link)-40:]

		uc.now = func() time.Time { return time.Now().Add(time.Hour) }
		_, err := uc.ResetPassword(ctx, token, "newsecret")
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("mailer failure rolls the token back", func(t *testing.T) {
		uc, store, mail := newAuthFixture(t)
		user := registerVerified(t, uc, store, "priya@example.com", "secret123")
		mail.err = errors.New("smtp down")

		err := uc.ForgotPassword(ctx, "priya@example.com")
		assert.True(t, apperr.Is(err, apperr.KindInternal))

		stored, _ := store.FindByID(user.ID)
		assert.Empty(t, stored.ResetPasswordToken)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	uc, store, _ := newAuthFixture(t)
	user := registerVerified(t, uc, store, "priya@example.com", "secret123")

	err := uc.ChangePassword(ctx, user.ID, "wrong", "newsecret")
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	require.NoError(t, uc.ChangePassword(ctx, user.ID, "secret123", "newsecret"))
	_, _, err = uc.Login(ctx, "priya@example.com", "newsecret")
	assert.NoError(t, err)
}

func TestResolveOrCreateOAuthUser(t *testing.T) {
	ctx := context.Background()

	t.Run("known identity returns the account", func(t *testing.T) {
		uc, store, _ := newAuthFixture(t)
		existing := registerVerified(t, uc, store, "priya@example.com", "secret123")
		existing.OAuthProvider = model.ProviderGoogle
		existing.OAuthID = "google-1"
		require.NoError(t, store.Update(existing))

		user, err := uc.ResolveOrCreateOAuthUser(ctx, model.ProviderGoogle, "google-1", "other@example.com", "Priya")
		require.NoError(t, err)
		assert.Equal(t, existing.ID, user.ID)
		assert.Len(t, store.users, 1)
	})

	t.Run("email match links the provider and verifies", func(t *testing.T) {
		uc, store, _ := newAuthFixture(t)
		existing := registerVerified(t, uc, store, "priya@example.com", "secret123")
		existing.IsEmailVerified = false
		require.NoError(t, store.Update(existing))

		user, err := uc.ResolveOrCreateOAuthUser(ctx, model.ProviderGitHub, "gh-7", "priya@example.com", "Priya")
		require.NoError(t, err)
		assert.Equal(t, existing.ID, user.ID)
		assert.Equal(t, model.ProviderGitHub, user.OAuthProvider)
		assert.True(t, user.IsEmailVerified)
		assert.Len(t, store.users, 1)
	})

	t.Run("no match creates a verified account", func(t *testing.T) {
		uc, store, _ := newAuthFixture(t)
		user, err := uc.ResolveOrCreateOAuthUser(ctx, model.ProviderGoogle, "google-9", "new@example.com", "New User")
		require.NoError(t, err)
		assert.True(t, user.IsEmailVerified)
		assert.Equal(t, model.FreePlanMinutes, user.RemainingMinutes)
		assert.Len(t, store.users, 1)

		// Password login stays unusable for the throwaway hash.
		_, _, err = uc.Login(ctx, "new@example.com", "")
		assert.Error(t, err)
	})

	t.Run("invalid input", func(t *testing.T) {
		uc, _, _ := newAuthFixture(t)
		_, err := uc.ResolveOrCreateOAuthUser(ctx, "facebook", "fb-1", "a@b.c", "A")
		assert.True(t, apperr.Is(err, apperr.KindValidation))

		_, err = uc.ResolveOrCreateOAuthUser(ctx, model.ProviderGoogle, "", "a@b.c", "A")
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})
}
