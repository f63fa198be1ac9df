package config

import (
	"os"
	"sync"
)

type VapiConfig struct {
	APIKey               string
	BaseURL              string
	WebhookSecret        string
	HRAssistantID        string
	TechnicalAssistantID string
	CustomAssistantID    string
}

var (
	vapiConfig *VapiConfig
	vapiOnce   sync.Once
)

func LoadVapiConfig() *VapiConfig {
	vapiOnce.Do(func() {
		vapiConfig = &VapiConfig{
			APIKey:               os.Getenv("VAPI_API_KEY"),
			BaseURL:              os.Getenv("VAPI_BASE_URL"),
			WebhookSecret:        os.Getenv("VAPI_WEBHOOK_SECRET"),
			HRAssistantID:        os.Getenv("VAPI_HR_ASSISTANT_ID"),
			TechnicalAssistantID: os.Getenv("VAPI_TECHNICAL_ASSISTANT_ID"),
			CustomAssistantID:    os.Getenv("VAPI_CUSTOM_ASSISTANT_ID"),
		}
		if vapiConfig.BaseURL == "" {
			vapiConfig.BaseURL = "https://api.vapi.ai"
		}
	})
	return vapiConfig
}
