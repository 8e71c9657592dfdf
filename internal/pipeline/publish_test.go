package pipeline

import (
	types "ComicForge/pkg"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStorage struct {
	uploads  []string
	failKeys map[string]int // key -> failures remaining
}

func (f *fakeStorage) Upload(ctx context.Context, bucket, key string, body io.Reader) error {
	if n, ok := f.failKeys[key]; ok && n > 0 {
		f.failKeys[key] = n - 1
		return errors.New("transient upload failure")
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return err
	}
	f.uploads = append(f.uploads, key)
	return nil
}

func (f *fakeStorage) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func writePanels(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("jpeg bytes"), 0644))
		paths = append(paths, p)
	}
	return paths
}

func fastRetry() types.RetryConfig {
	return types.RetryConfig{MaxAttempts: 3, InitialIntervalSec: 0.001, BackoffCoefficient: 1.0}
}

func TestPublishUploadsUnderJobKey(t *testing.T) {
	store := &fakeStorage{}
	p := NewPublisher(store, "comics", fastRetry(), zap.NewNop())

	paths := writePanels(t, t.TempDir(), "panel_000.jpg", "panel_001.jpg")
	results, err := p.Publish(context.Background(), "job-123", paths)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, []string{"job-123/panel_000.jpg", "job-123/panel_001.jpg"}, store.uploads)
	for _, r := range results {
		assert.NoError(t, r.Error)
	}
}

func TestPublishRetriesTransientFailures(t *testing.T) {
	store := &fakeStorage{failKeys: map[string]int{"job-123/panel_000.jpg": 2}}
	p := NewPublisher(store, "comics", fastRetry(), zap.NewNop())

	paths := writePanels(t, t.TempDir(), "panel_000.jpg")
	_, err := p.Publish(context.Background(), "job-123", paths)
	require.NoError(t, err)
	assert.Equal(t, []string{"job-123/panel_000.jpg"}, store.uploads)
}

func TestPublishReportsPersistentFailures(t *testing.T) {
	store := &fakeStorage{failKeys: map[string]int{"job-123/panel_001.jpg": 100}}
	p := NewPublisher(store, "comics", fastRetry(), zap.NewNop())

	paths := writePanels(t, t.TempDir(), "panel_000.jpg", "panel_001.jpg")
	results, err := p.Publish(context.Background(), "job-123", paths)
	require.Error(t, err)
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Error)
	assert.Error(t, results[1].Error)
}

func TestPublishNilStorageNoop(t *testing.T) {
	p := NewPublisher(nil, "", fastRetry(), zap.NewNop())
	results, err := p.Publish(context.Background(), "job-123", []string{"panel_000.jpg"})
	assert.NoError(t, err)
	assert.Nil(t, results)
}
