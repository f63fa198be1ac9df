package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/config"
	"github.com/tidwall/gjson"
)

type ProviderOrder struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

type ProviderPayment struct {
	ID       string
	OrderID  string
	Amount   int64
	Currency string
	Status   string
}

type PaymentServiceInterface interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*ProviderOrder, error)
	FetchPayment(ctx context.Context, paymentID string) (*ProviderPayment, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// RazorpayService wraps the payment provider's orders API. Signature
// verification is the provider's documented HMAC-SHA256 scheme over
// "orderID|paymentID".
type RazorpayService struct {
	client *resty.Client
	cfg    *config.RazorpayConfig
}

func NewRazorpayService() *RazorpayService {
	cfg := config.LoadRazorpayConfig()
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetBasicAuth(cfg.KeyID, cfg.KeySecret).
		SetHeader("Content-Type", "application/json")
	return &RazorpayService{client: client, cfg: cfg}
}

func (s *RazorpayService) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*ProviderOrder, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"amount":          amount,
			"currency":        currency,
			"receipt":         receipt,
			"payment_capture": 1,
			"notes":           notes,
		}).
		Post("/v1/orders")
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to create payment order", err)
	}
	if resp.IsError() {
		return nil, apperr.New(apperr.KindInternal,
			fmt.Sprintf("Payment provider rejected order creation (%d)", resp.StatusCode()))
	}

	body := resp.Body()
	return &ProviderOrder{
		ID:       gjson.GetBytes(body, "id").String(),
		Amount:   gjson.GetBytes(body, "amount").Int(),
		Currency: gjson.GetBytes(body, "currency").String(),
		Receipt:  gjson.GetBytes(body, "receipt").String(),
	}, nil
}

func (s *RazorpayService) FetchPayment(ctx context.Context, paymentID string) (*ProviderPayment, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		Get("/v1/payments/" + paymentID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to fetch payment", err)
	}
	if resp.IsError() {
		return nil, apperr.New(apperr.KindInternal,
			fmt.Sprintf("Payment provider rejected payment fetch (%d)", resp.StatusCode()))
	}

	body := resp.Body()
	return &ProviderPayment{
		ID:       gjson.GetBytes(body, "id").String(),
		OrderID:  gjson.GetBytes(body, "order_id").String(),
		Amount:   gjson.GetBytes(body, "amount").Int(),
		Currency: gjson.GetBytes(body, "currency").String(),
		Status:   gjson.GetBytes(body, "status").String(),
	}, nil
}

func (s *RazorpayService) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.cfg.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
