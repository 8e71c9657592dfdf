package pipeline

import (
	types "ComicForge/pkg"
	"ComicForge/internal/pipeline/storage"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Publisher uploads finished panels to the configured storage backend.
// With local storage the panels already sit in the output tree and no
// upload happens.
type Publisher struct {
	storage storage.Storage
	bucket  string
	retry   types.RetryConfig
	logger  *zap.Logger
}

func NewPublisher(store storage.Storage, bucket string, retryCfg types.RetryConfig, logger *zap.Logger) *Publisher {
	return &Publisher{
		storage: store,
		bucket:  bucket,
		retry:   retryCfg,
		logger:  logger,
	}
}

// PublishResult records the outcome of one panel upload.
type PublishResult struct {
	Key   string
	Error error
}

// Publish uploads every panel under the job key, retrying transient
// failures. It returns per-panel results and an error if any upload failed
// after retries.
func (p *Publisher) Publish(ctx context.Context, jobKey string, panelPaths []string) ([]PublishResult, error) {
	if p.storage == nil {
		return nil, nil
	}

	results := make([]PublishResult, 0, len(panelPaths))
	var failed bool

	for _, panelPath := range panelPaths {
		key := fmt.Sprintf("%s/%s", jobKey, filepath.Base(panelPath))
		err := Retry(ctx, p.logger, p.retry, fmt.Sprintf("publish %s", key), func() error {
			f, err := os.Open(panelPath)
			if err != nil {
				return err
			}
			defer f.Close()
			return p.storage.Upload(ctx, p.bucket, key, f)
		})
		if err != nil {
			p.logger.Error("Panel upload failed after retries",
				zap.String("key", key),
				zap.Error(err))
			failed = true
		}
		results = append(results, PublishResult{Key: key, Error: err})
	}

	if failed {
		return results, fmt.Errorf("some panel uploads failed")
	}
	p.logger.Info("Panels published",
		zap.String("job_key", jobKey),
		zap.Int("count", len(results)))
	return results, nil
}
