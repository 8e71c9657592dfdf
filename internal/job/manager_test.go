package job

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager() *Manager {
	return NewManager(NewMemoryStore(), zap.NewNop())
}

func TestCreateAndGetJob(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	created, err := m.CreateJob(ctx, "holiday.mp4", "styles/comic.jpg", false)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, StatusPending, created.Status)
	assert.Zero(t, created.Progress)

	fetched, err := m.GetJob(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "holiday.mp4", fetched.VideoName)
	assert.Equal(t, "styles/comic.jpg", fetched.StylePath)
	assert.False(t, fetched.MockMode)
}

func TestGetJobUnknownID(t *testing.T) {
	m := newTestManager()
	_, err := m.GetJob(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestEmitProgressUpdatesJobAndEvents(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	created, err := m.CreateJob(ctx, "a.mp4", "s.jpg", false)
	require.NoError(t, err)

	require.NoError(t, m.EmitProgress(ctx, created.ID, StageSampling, 30, "Sampling frames"))
	require.NoError(t, m.EmitProgress(ctx, created.ID, StageRendering, 70, "Panel 3/5 written"))

	jwp, err := m.GetJobWithProgress(ctx, created.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, jwp.Status)
	assert.Equal(t, StageRendering, jwp.Stage)
	assert.Equal(t, 70, jwp.Progress)

	require.Len(t, jwp.LatestEvents, 2)
	// Latest first.
	assert.Equal(t, StageRendering, jwp.LatestEvents[0].Stage)
	assert.Equal(t, StageSampling, jwp.LatestEvents[1].Stage)
}

func TestGetJobWithProgressLimit(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	created, err := m.CreateJob(ctx, "a.mp4", "s.jpg", false)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, m.EmitProgress(ctx, created.ID, StageRendering, 10*i, "step"))
	}

	jwp, err := m.GetJobWithProgress(ctx, created.ID, 2)
	require.NoError(t, err)
	assert.Len(t, jwp.LatestEvents, 2)
}

func TestCompleteJobRecordsPanels(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	created, err := m.CreateJob(ctx, "a.mp4", "s.jpg", false)
	require.NoError(t, err)

	panels := []string{"panel_000.jpg", "panel_001.jpg", "panel_002.jpg"}
	require.NoError(t, m.CompleteJob(ctx, created.ID, panels))

	fetched, err := m.GetJob(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, fetched.Status)
	assert.Equal(t, StageCompleted, fetched.Stage)
	assert.Equal(t, 100, fetched.Progress)
	assert.Equal(t, 3, fetched.PanelCount)
	assert.Equal(t, panels, fetched.Panels)
	require.NotNil(t, fetched.CompletedAt)
}

func TestEmitErrorMarksJobFailed(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	created, err := m.CreateJob(ctx, "a.mp4", "s.jpg", false)
	require.NoError(t, err)

	require.NoError(t, m.EmitError(ctx, created.ID, "ffmpeg not found"))

	fetched, err := m.GetJob(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, fetched.Status)
	assert.Equal(t, StageFailed, fetched.Stage)
	assert.Equal(t, "ffmpeg not found", fetched.ErrorMessage)
}

func TestSubscribeReceivesBroadcasts(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	created, err := m.CreateJob(ctx, "a.mp4", "s.jpg", false)
	require.NoError(t, err)

	ch := m.Subscribe(created.ID)
	defer m.Unsubscribe(created.ID, ch)

	require.NoError(t, m.EmitProgress(ctx, created.ID, StageStyling, 40, "Loading style model"))

	select {
	case update := <-ch:
		assert.Equal(t, created.ID, update.JobID)
		assert.Equal(t, StageStyling, update.Stage)
		assert.Equal(t, 40, update.Progress)
	case <-time.After(time.Second):
		t.Fatal("expected a broadcast update")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	m := newTestManager()
	created, err := m.CreateJob(context.Background(), "a.mp4", "s.jpg", false)
	require.NoError(t, err)

	ch := m.Subscribe(created.ID)
	m.Unsubscribe(created.ID, ch)

	_, open := <-ch
	assert.False(t, open)
}

func TestBroadcastSkipsFullChannels(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	created, err := m.CreateJob(ctx, "a.mp4", "s.jpg", false)
	require.NoError(t, err)

	ch := m.Subscribe(created.ID)
	defer m.Unsubscribe(created.ID, ch)

	// Channel buffer is 10; pushing past it must not block the emitter.
	for i := 0; i < 15; i++ {
		require.NoError(t, m.EmitProgress(ctx, created.ID, StageRendering, i, "step"))
	}
	assert.Len(t, ch, 10)
}

func TestCleanupOldJobs(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, zap.NewNop())
	ctx := context.Background()

	old, err := m.CreateJob(ctx, "old.mp4", "s.jpg", false)
	require.NoError(t, err)
	fresh, err := m.CreateJob(ctx, "fresh.mp4", "s.jpg", false)
	require.NoError(t, err)

	// Age the first job past the cutoff.
	store.mu.Lock()
	store.jobs[old.ID].CreatedAt = time.Now().Add(-3 * time.Hour)
	store.mu.Unlock()

	removed, err := m.CleanupOldJobs(ctx, 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = m.GetJob(ctx, old.ID)
	assert.Error(t, err)
	_, err = m.GetJob(ctx, fresh.ID)
	assert.NoError(t, err)
}
