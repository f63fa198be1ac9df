package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/config"
	"github.com/tidwall/gjson"
)

type BlobServiceInterface interface {
	Upload(ctx context.Context, data []byte, filename, folder string) (string, error)
	Delete(ctx context.Context, url string) error
}

// CloudinaryService stores resumes and avatars via Cloudinary's signed
// upload API. Failures are surfaced, not retried.
type CloudinaryService struct {
	client *resty.Client
	cfg    *config.CloudinaryConfig
	now    func() time.Time
}

func NewCloudinaryService() *CloudinaryService {
	cfg := config.LoadCloudinaryConfig()
	return &CloudinaryService{
		client: resty.New().SetBaseURL("https://api.cloudinary.com/v1_1/" + cfg.CloudName),
		cfg:    cfg,
		now:    time.Now,
	}
}

func (s *CloudinaryService) Upload(ctx context.Context, data []byte, filename, folder string) (string, error) {
	timestamp := strconv.FormatInt(s.now().Unix(), 10)
	signature := s.sign(map[string]string{
		"folder":    folder,
		"timestamp": timestamp,
	})

	resp, err := s.client.R().
		SetContext(ctx).
		SetFileReader("file", filename, strings.NewReader(string(data))).
		SetFormData(map[string]string{
			"api_key":   s.cfg.APIKey,
			"timestamp": timestamp,
			"folder":    folder,
			"signature": signature,
		}).
		Post("/auto/upload")
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpload, "Failed to upload file", err)
	}
	if resp.IsError() {
		return "", apperr.New(apperr.KindUpload,
			fmt.Sprintf("Blob store rejected upload (%d)", resp.StatusCode()))
	}

	url := gjson.GetBytes(resp.Body(), "secure_url").String()
	if url == "" {
		return "", apperr.New(apperr.KindUpload, "Blob store returned no URL")
	}
	return url, nil
}

func (s *CloudinaryService) Delete(ctx context.Context, url string) error {
	publicID := publicIDFromURL(url)
	if publicID == "" {
		return nil
	}
	timestamp := strconv.FormatInt(s.now().Unix(), 10)
	signature := s.sign(map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
	})

	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"api_key":   s.cfg.APIKey,
			"public_id": publicID,
			"timestamp": timestamp,
			"signature": signature,
		}).
		Post("/image/destroy")
	if err != nil {
		return apperr.Wrap(apperr.KindUpload, "Failed to delete file", err)
	}
	if resp.IsError() {
		return apperr.New(apperr.KindUpload,
			fmt.Sprintf("Blob store rejected delete (%d)", resp.StatusCode()))
	}
	return nil
}

// sign builds the Cloudinary request signature: sha1 of the sorted
// key=value pairs joined with '&', followed by the API secret.
func (s *CloudinaryService) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + s.cfg.APISecret))
	return hex.EncodeToString(sum[:])
}

// publicIDFromURL recovers the public id from a delivery URL, e.g.
// .../upload/v123/avatars/abc.jpg -> avatars/abc.
func publicIDFromURL(url string) string {
	idx := strings.Index(url, "/upload/")
	if idx < 0 {
		return ""
	}
	rest := strings.TrimPrefix(url[idx+len("/upload/"):], "")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) == 2 && strings.HasPrefix(parts[0], "v") {
		rest = parts[1]
	}
	if dot := strings.LastIndex(rest, "."); dot > 0 {
		rest = rest[:dot]
	}
	return rest
}
