package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"gallformers/config"
	"gallformers/metrics"
	"gallformers/retry"
)

// deleteBatchSize ist das S3-Limit für Keys pro DeleteObjects-Aufruf.
const deleteBatchSize = 1000

// PutResult ist das Ergebnis eines einzelnen Upload-Versuchs.
type PutResult struct {
	StatusCode int
	ETag       string
}

// Object ist ein gelistetes Objekt im Bucket.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore kapselt einen S3-Bucket. Schreibzugriffe werden mit exponentiellem Backoff wiederholt.
type ObjectStore struct {
	client   *s3.Client
	presign  *s3.PresignClient
	bucket   string
	endpoint string
	retry    retry.Config
	log      *zap.Logger
}

// NewObjectStore erstellt einen S3-Client für den konfigurierten Bucket.
// Die SDK-Retries sind abgeschaltet, wiederholt wird nur über das retry-Paket.
func NewObjectStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*ObjectStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3Key, cfg.S3Secret, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3URL != "" {
			// Eigener Endpoint (z.B. MinIO oder Strato)
			o.BaseEndpoint = aws.String(cfg.S3URL)
			o.UsePathStyle = true
		}
		o.Retryer = aws.NopRetryer{}
	})

	return &ObjectStore{
		client:   client,
		presign:  s3.NewPresignClient(client),
		bucket:   cfg.S3Bucket,
		endpoint: cfg.S3URL,
		retry: retry.Config{
			MaxAttempts:  cfg.RetryAttempts,
			InitialDelay: cfg.RetryInitialDelay,
		},
		log: log.With(zap.String("bucket", cfg.S3Bucket)),
	}, nil
}

// Location gibt einen lesbaren Link für key zurück.
func (s *ObjectStore) Location(key string) string {
	if s.endpoint == "" {
		return fmt.Sprintf("s3://%s/%s", s.bucket, key)
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.endpoint, "/"), s.bucket, key)
}

func (s *ObjectStore) retryConfig(op, key string) retry.Config {
	cfg := s.retry
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		fields := []zap.Field{
			zap.String("op", op),
			zap.String("key", key),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		s.log.Warn("Object-Storage-Aufruf fehlgeschlagen, neuer Versuch", fields...)
		metrics.ObjectStoreRetries.WithLabelValues(op).Inc()
	}
	return cfg
}

// RetryableStatus meldet, ob sich bei einem HTTP-Status ein weiterer Versuch lohnt.
func RetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Put lädt body unter key hoch. HTTP-Fehlerantworten zählen als Rückgabewerte:
// wiederholbare Status werden erneut versucht, alle anderen schlagen sofort fehl.
// Transportfehler werden als Fehler wiederholt.
func (s *ObjectStore) Put(ctx context.Context, key string, body []byte, contentType string) (PutResult, error) {
	res, err := retry.Do(ctx, s.retryConfig("put", key), func(ctx context.Context) (PutResult, error) {
		input := &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(body),
		}
		if contentType != "" {
			input.ContentType = aws.String(contentType)
		}
		out, err := s.client.PutObject(ctx, input)
		if err != nil {
			var respErr *awshttp.ResponseError
			if errors.As(err, &respErr) {
				return PutResult{StatusCode: respErr.HTTPStatusCode()}, nil
			}
			return PutResult{}, err
		}
		return PutResult{StatusCode: http.StatusOK, ETag: aws.ToString(out.ETag)}, nil
	}, func(r PutResult) bool {
		return !RetryableStatus(r.StatusCode)
	})
	if err != nil {
		return res, fmt.Errorf("put %s: %w", key, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return res, fmt.Errorf("put %s: unexpected status %d", key, res.StatusCode)
	}
	return res, nil
}

// Delete löscht keys in Batches. Jeder Batch wird bei Fehlern wiederholt.
func (s *ObjectStore) Delete(ctx context.Context, keys ...string) error {
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		batch := keys[start:end]

		objects := make([]types.ObjectIdentifier, 0, len(batch))
		for _, k := range batch {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(k)})
		}

		out, err := retry.Do(ctx, s.retryConfig("delete", batch[0]), func(ctx context.Context) (*s3.DeleteObjectsOutput, error) {
			return s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(s.bucket),
				Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
			})
		}, nil)
		if err != nil {
			return fmt.Errorf("delete %d objects: %w", len(batch), err)
		}
		for _, e := range out.Errors {
			s.log.Error("Objekt konnte nicht gelöscht werden",
				zap.String("key", aws.ToString(e.Key)),
				zap.String("code", aws.ToString(e.Code)),
				zap.String("message", aws.ToString(e.Message)),
			)
		}
		if len(out.Errors) > 0 {
			return fmt.Errorf("delete: %d of %d objects failed", len(out.Errors), len(batch))
		}
	}
	return nil
}

// List gibt alle Objekte unter prefix zurück.
func (s *ObjectStore) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, o := range page.Contents {
			objects = append(objects, Object{
				Key:          aws.ToString(o.Key),
				Size:         aws.ToInt64(o.Size),
				LastModified: aws.ToTime(o.LastModified),
			})
		}
	}
	return objects, nil
}

// PresignPut gibt eine URL zurück, an die ein Client bis zum Ablauf von ttl per PUT hochladen kann.
func (s *ObjectStore) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	req, err := s.presign.PresignPutObject(ctx, input, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}
