package service

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/config"
	"github.com/interviewmate/server/internal/model"
	"github.com/tidwall/gjson"
)

type VapiServiceInterface interface {
	StartCall(ctx context.Context, assistantID, phoneNumber string, userID, interviewID uuid.UUID) (string, error)
	EndCall(ctx context.Context, callID string) error
	AssistantID(interviewType model.InterviewType) (string, error)
}

// VapiService talks to the voice-call provider's REST API. Calls are not
// retried here; provider failures surface immediately to the caller.
type VapiService struct {
	client *resty.Client
	cfg    *config.VapiConfig
}

func NewVapiService() *VapiService {
	cfg := config.LoadVapiConfig()
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json")
	return &VapiService{client: client, cfg: cfg}
}

// StartCall creates a provider call carrying our identifiers as metadata
// so webhook events can be routed back to the right interview.
func (s *VapiService) StartCall(ctx context.Context, assistantID, phoneNumber string, userID, interviewID uuid.UUID) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"assistantId": assistantID,
			"customer":    map[string]any{"number": phoneNumber},
			"metadata": map[string]any{
				"userId":      userID.String(),
				"interviewId": interviewID.String(),
			},
		}).
		Post("/call/phone")
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "Failed to start voice call", err)
	}
	if resp.IsError() {
		return "", apperr.New(apperr.KindInternal,
			fmt.Sprintf("Voice provider rejected call creation (%d)", resp.StatusCode()))
	}

	callID := gjson.GetBytes(resp.Body(), "id").String()
	if callID == "" {
		return "", apperr.New(apperr.KindInternal, "Voice provider returned no call id")
	}
	return callID, nil
}

func (s *VapiService) EndCall(ctx context.Context, callID string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		Post(fmt.Sprintf("/call/%s/end", callID))
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "Failed to end voice call", err)
	}
	if resp.IsError() {
		return apperr.New(apperr.KindInternal,
			fmt.Sprintf("Voice provider rejected call end (%d)", resp.StatusCode()))
	}
	return nil
}

// AssistantID maps an interview type to the configured provider
// assistant.
func (s *VapiService) AssistantID(interviewType model.InterviewType) (string, error) {
	var id string
	switch interviewType {
	case model.TypeHR:
		id = s.cfg.HRAssistantID
	case model.TypeTechnical:
		id = s.cfg.TechnicalAssistantID
	case model.TypeCustom:
		id = s.cfg.CustomAssistantID
	default:
		return "", apperr.New(apperr.KindValidation, "Invalid assistant type specified")
	}
	if id == "" {
		return "", apperr.New(apperr.KindInternal,
			fmt.Sprintf("Assistant for type %q is not configured", interviewType))
	}
	return id, nil
}
