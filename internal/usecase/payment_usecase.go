package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/model"
	"github.com/interviewmate/server/internal/repository"
	"github.com/interviewmate/server/internal/service"
	"go.uber.org/zap"
)

// proPlanMinutes is the effectively-unlimited quota granted on upgrade.
const proPlanMinutes = 999999999

type PaymentUsecase struct {
	payments *repository.PaymentRepository
	users    *repository.UserRepository
	provider service.PaymentServiceInterface
	log      *zap.Logger
	now      func() time.Time
}

func NewPaymentUsecase(payments *repository.PaymentRepository, users *repository.UserRepository, provider service.PaymentServiceInterface, log *zap.Logger) *PaymentUsecase {
	return &PaymentUsecase{payments: payments, users: users, provider: provider, log: log, now: time.Now}
}

func (uc *PaymentUsecase) CreateOrder(ctx context.Context, userID uuid.UUID, amount int64, currency string, plan model.Plan) (*service.ProviderOrder, error) {
	if amount <= 0 {
		return nil, apperr.New(apperr.KindValidation, "Amount must be positive")
	}
	if currency == "" {
		return nil, apperr.New(apperr.KindValidation, "Currency is required")
	}
	receipt := fmt.Sprintf("receipt_order_%d", uc.now().UnixMilli())
	return uc.provider.CreateOrder(ctx, amount, currency, receipt, map[string]string{
		"userId": userID.String(),
		"plan":   string(plan),
	})
}

// VerifyPayment checks the provider signature, records the payment and
// upgrades the user's plan. The unique index on the provider payment id
// makes replayed verifications harmless.
func (uc *PaymentUsecase) VerifyPayment(ctx context.Context, userID uuid.UUID, orderID, paymentID, signature string, plan model.Plan) (*model.Payment, error) {
	if !uc.provider.VerifySignature(orderID, paymentID, signature) {
		return nil, apperr.New(apperr.KindValidation, "Payment verification failed: invalid signature")
	}

	providerPayment, err := uc.provider.FetchPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	payment := &model.Payment{
		UserID:            userID,
		ProviderOrderID:   orderID,
		ProviderPaymentID: paymentID,
		Amount:            providerPayment.Amount,
		Currency:          providerPayment.Currency,
		Status:            model.PaymentStatus(providerPayment.Status),
		Plan:              plan,
	}
	if err := uc.payments.Create(payment); err != nil {
		return nil, err
	}

	if plan == model.PlanPro {
		user, err := uc.users.FindByID(userID)
		if err != nil {
			return nil, err
		}
		start := uc.now()
		end := start.AddDate(1, 0, 0)
		user.Plan = model.PlanPro
		user.RemainingMinutes = proPlanMinutes
		user.PlanStartDate = &start
		user.PlanEndDate = &end
		if err := uc.users.Update(user); err != nil {
			return nil, err
		}
	}

	uc.log.Info("payment captured",
		zap.String("user_id", userID.String()),
		zap.String("payment_id", paymentID),
		zap.String("plan", string(plan)))
	return payment, nil
}

type SubscriptionDetails struct {
	Plan             model.Plan      `json:"plan"`
	RemainingMinutes int             `json:"remaining_minutes"`
	PlanStartDate    *time.Time      `json:"plan_start_date,omitempty"`
	PlanEndDate      *time.Time      `json:"plan_end_date,omitempty"`
	FreePlanMinutes  int             `json:"free_plan_minutes"`
	Payments         []model.Payment `json:"payments"`
}

func (uc *PaymentUsecase) SubscriptionDetails(ctx context.Context, userID uuid.UUID) (*SubscriptionDetails, error) {
	user, err := uc.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	payments, err := uc.payments.FindByUser(userID)
	if err != nil {
		return nil, err
	}
	return &SubscriptionDetails{
		Plan:             user.Plan,
		RemainingMinutes: user.RemainingMinutes,
		PlanStartDate:    user.PlanStartDate,
		PlanEndDate:      user.PlanEndDate,
		FreePlanMinutes:  model.FreePlanMinutes,
		Payments:         payments,
	}, nil
}
