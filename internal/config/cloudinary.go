package config

import (
	"os"
	"sync"
)

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

var (
	cloudinaryConfig *CloudinaryConfig
	cloudinaryOnce   sync.Once
)

func LoadCloudinaryConfig() *CloudinaryConfig {
	cloudinaryOnce.Do(func() {
		cloudinaryConfig = &CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		}
	})
	return cloudinaryConfig
}
