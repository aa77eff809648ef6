package services

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"contactbook/internal/config"
)

// GravatarResult — явный результат best-effort запроса к граватару:
// либо URL, либо ошибка, которую вызывающий осознанно игнорирует.
type GravatarResult struct {
	URL string
	Err error
}

func (r GravatarResult) OK() bool { return r.Err == nil }

type AvatarService interface {
	// FetchGravatar никогда не возвращает error: неудача — это штатная
	// ветка результата, регистрация от неё не зависит.
	FetchGravatar(email string) GravatarResult

	// PublicID — детерминированный ключ объекта для пары (email, username).
	PublicID(email, username string) string
	// PublicURL — публичный адрес объекта по ключу, известен до загрузки.
	PublicURL(key string) string
	// Upload кладёт байты аватара в хранилище.
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

type avatarService struct {
	cfg  config.S3Config
	http *http.Client
}

func NewAvatarService(cfg config.S3Config) AvatarService {
	return &avatarService{
		cfg:  cfg,
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *avatarService) FetchGravatar(email string) GravatarResult {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	url := fmt.Sprintf("https://www.gravatar.com/avatar/%s?d=identicon", hex.EncodeToString(sum[:]))

	resp, err := s.http.Get(url)
	if err != nil {
		return GravatarResult{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return GravatarResult{Err: fmt.Errorf("gravatar status %d", resp.StatusCode)}
	}
	return GravatarResult{URL: url}
}

func (s *avatarService) PublicID(email, username string) string {
	sum := sha256.Sum256([]byte(email + "/" + username))
	return "avatars/" + hex.EncodeToString(sum[:16])
}

func (s *avatarService) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.cfg.BaseEndpoint, "/"), s.cfg.Bucket, key)
}

func (s *avatarService) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(s.cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.AccessKey,
			s.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.cfg.BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

func (s *avatarService) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	client, err := s.client(ctx)
	if err != nil {
		return fmt.Errorf("s3 client: %w", err)
	}
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}
