package config

import (
	"os"
	"sync"
)

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
}

var (
	razorpayConfig *RazorpayConfig
	razorpayOnce   sync.Once
)

func LoadRazorpayConfig() *RazorpayConfig {
	razorpayOnce.Do(func() {
		razorpayConfig = &RazorpayConfig{
			KeyID:     os.Getenv("RAZORPAY_KEY_ID"),
			KeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
			BaseURL:   os.Getenv("RAZORPAY_BASE_URL"),
		}
		if razorpayConfig.BaseURL == "" {
			razorpayConfig.BaseURL = "https://api.razorpay.com"
		}
	})
	return razorpayConfig
}
