package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/config"
	"github.com/interviewmate/server/internal/model"
	"github.com/interviewmate/server/internal/repository"
	"github.com/interviewmate/server/internal/util"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserAccountStore is the account lookup surface the auth flows need.
type UserAccountStore interface {
	Create(user *model.User) error
	Update(user *model.User) error
	FindByID(id uuid.UUID) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	FindByOAuth(provider model.OAuthProvider, oauthID string) (*model.User, error)
	FindByVerificationToken(hashed string, now time.Time) (*model.User, error)
	FindByResetToken(hashed string, now time.Time) (*model.User, error)
}

type EmailSender func(to, subject, body string) error

type AuthUsecase struct {
	users  UserAccountStore
	tokens *repository.TokenRepository
	email  EmailSender
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthUsecase(users UserAccountStore, tokens *repository.TokenRepository, email EmailSender, log *zap.Logger) *AuthUsecase {
	return &AuthUsecase{users: users, tokens: tokens, email: email, log: log, now: time.Now}
}

type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// Register creates an account and sends the verification mail. The
// verification token is stored hashed; the raw token only travels in the
// email link.
func (uc *AuthUsecase) Register(ctx context.Context, name, email, password string) error {
	if name == "" || email == "" {
		return apperr.New(apperr.KindValidation, "Please provide a name and an email")
	}
	if len(password) < 6 {
		return apperr.New(apperr.KindValidation, "Password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	token, err := util.RandomToken()
	if err != nil {
		return err
	}
	expire := uc.now().Add(30 * time.Minute)

	user := &model.User{
		Name:                    name,
		Email:                   email,
		PasswordHash:            string(hash),
		RemainingMinutes:        model.FreePlanMinutes,
		VerificationToken:       util.HashToken(token),
		VerificationTokenExpire: &expire,
	}
	if err := uc.users.Create(user); err != nil {
		return err
	}

	verifyURL := fmt.Sprintf("%s/verify-email/%s", config.LoadAppConfig().FrontendURL, token)
	body := "You are receiving this email because you registered an account with InterviewMate. Please visit:\n\n" + verifyURL
	if err := uc.email(user.Email, "InterviewMate Email Verification", body); err != nil {
		uc.log.Error("verification email failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		return apperr.Wrap(apperr.KindInternal, "Email could not be sent", err)
	}
	return nil
}

func (uc *AuthUsecase) Login(ctx context.Context, email, password string) (*model.User, *TokenPair, error) {
	if email == "" || password == "" {
		return nil, nil, apperr.New(apperr.KindValidation, "Please provide an email and password")
	}
	user, err := uc.users.FindByEmail(email)
	if err != nil {
		return nil, nil, apperr.New(apperr.KindUnauthenticated, "Invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, apperr.New(apperr.KindUnauthenticated, "Invalid credentials")
	}
	if !user.IsEmailVerified {
		return nil, nil, apperr.New(apperr.KindUnauthenticated, "Please verify your email address to log in")
	}

	pair, err := uc.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh exchanges a valid, unrevoked refresh token for a new access
// token.
func (uc *AuthUsecase) Refresh(ctx context.Context, refreshToken string) (string, error) {
	cfg := config.LoadJWTConfig()
	userID, err := util.VerifyToken(refreshToken, cfg.RefreshSecret)
	if err != nil {
		return "", apperr.New(apperr.KindUnauthenticated, "Not authorized to access this route")
	}
	storedID, err := uc.tokens.Lookup(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if storedID != userID {
		return "", apperr.New(apperr.KindUnauthenticated, "Not authorized to access this route")
	}
	return util.SignToken(userID, cfg.Secret, cfg.AccessTTL)
}

func (uc *AuthUsecase) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return uc.tokens.Revoke(ctx, refreshToken)
}

func (uc *AuthUsecase) VerifyEmail(ctx context.Context, token string) error {
	user, err := uc.users.FindByVerificationToken(util.HashToken(token), uc.now())
	if err != nil {
		return err
	}
	user.IsEmailVerified = true
	user.VerificationToken = ""
	user.VerificationTokenExpire = nil
	return uc.users.Update(user)
}

func (uc *AuthUsecase) ForgotPassword(ctx context.Context, email string) error {
	user, err := uc.users.FindByEmail(email)
	if err != nil {
		return apperr.New(apperr.KindNotFound, "There is no user with that email")
	}

	token, err := util.RandomToken()
	if err != nil {
		return err
	}
	expire := uc.now().Add(10 * time.Minute)
	user.ResetPasswordToken = util.HashToken(token)
	user.ResetPasswordExpire = &expire
	if err := uc.users.Update(user); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", config.LoadAppConfig().FrontendURL, token)
	body := "You are receiving this email because a password reset was requested for your account. Please visit:\n\n" + resetURL
	if err := uc.email(user.Email, "Password Reset Token", body); err != nil {
		user.ResetPasswordToken = ""
		user.ResetPasswordExpire = nil
		_ = uc.users.Update(user)
		return apperr.Wrap(apperr.KindInternal, "Email could not be sent", err)
	}
	return nil
}

func (uc *AuthUsecase) ResetPassword(ctx context.Context, token, newPassword string) (*TokenPair, error) {
	if len(newPassword) < 6 {
		return nil, apperr.New(apperr.KindValidation, "Password must be at least 6 characters")
	}
	user, err := uc.users.FindByResetToken(util.HashToken(token), uc.now())
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = string(hash)
	user.ResetPasswordToken = ""
	user.ResetPasswordExpire = nil
	if err := uc.users.Update(user); err != nil {
		return nil, err
	}
	return uc.issueTokens(ctx, user.ID)
}

func (uc *AuthUsecase) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return apperr.New(apperr.KindValidation, "Password must be at least 6 characters")
	}
	user, err := uc.users.FindByID(userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return apperr.New(apperr.KindUnauthenticated, "Current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	return uc.users.Update(user)
}

// ResolveOrCreateOAuthUser implements the OAuth account decision table:
//
//	provider identity known            -> return that account
//	unknown, email matches an account  -> link provider to it, mark verified
//	unknown, no matching email         -> create a new verified account
func (uc *AuthUsecase) ResolveOrCreateOAuthUser(ctx context.Context, provider model.OAuthProvider, externalID, email, displayName string) (*model.User, error) {
	if !provider.Valid() {
		return nil, apperr.New(apperr.KindValidation, "Unsupported OAuth provider")
	}
	if externalID == "" {
		return nil, apperr.New(apperr.KindValidation, "Missing OAuth identity")
	}

	if user, err := uc.users.FindByOAuth(provider, externalID); err == nil {
		return user, nil
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	if email != "" {
		if user, err := uc.users.FindByEmail(email); err == nil {
			user.OAuthID = externalID
			user.OAuthProvider = provider
			user.IsEmailVerified = true
			if err := uc.users.Update(user); err != nil {
				return nil, err
			}
			return user, nil
		} else if !apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}
	}

	// The throwaway password keeps password login unusable for
	// OAuth-only accounts while satisfying the schema.
	random, err := util.RandomToken()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(random), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:             displayName,
		Email:            email,
		PasswordHash:     string(hash),
		RemainingMinutes: model.FreePlanMinutes,
		IsEmailVerified:  email != "",
		OAuthID:          externalID,
		OAuthProvider:    provider,
	}
	if err := uc.users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// IssueTokens exposes token issuance for the OAuth callback adapter.
func (uc *AuthUsecase) IssueTokens(ctx context.Context, userID uuid.UUID) (*TokenPair, error) {
	return uc.issueTokens(ctx, userID)
}

func (uc *AuthUsecase) issueTokens(ctx context.Context, userID uuid.UUID) (*TokenPair, error) {
	cfg := config.LoadJWTConfig()
	access, err := util.SignToken(userID, cfg.Secret, cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := util.SignToken(userID, cfg.RefreshSecret, cfg.RefreshTTL)
	if err != nil {
		return nil, err
	}
	if uc.tokens != nil {
		if err := uc.tokens.Store(ctx, refresh, userID, cfg.RefreshTTL); err != nil {
			return nil, err
		}
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
