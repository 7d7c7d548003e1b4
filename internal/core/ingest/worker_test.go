package ingest

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/courseloom/backend/internal/models"
)

func TestWorkerProcessesEnqueuedJobs(t *testing.T) {
	db := newFakeDB()
	obj := &fakeObj{}
	provider := &fixedDimProvider{dim: 3}
	p := newTestPipeline(db, obj, provider, &fakeExtractor{text: syntheticText(1500)})

	w := NewWorker(p, 4, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx, 2)

	db.statuses["w1"] = models.StatusProcessing
	path := writeTempUpload(t)
	w.Enqueue(Job{MaterialID: "w1", LocalPath: path, StorageKey: "k", ContentType: "application/pdf"})

	require.Eventually(t, func() bool {
		return db.status("w1") == models.StatusReady
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, w.Wait())
}

func TestWorkerCleansQueuedJobsOnShutdown(t *testing.T) {
	db := newFakeDB()
	obj := &fakeObj{}
	provider := &fixedDimProvider{dim: 3}
	p := newTestPipeline(db, obj, provider, blockingExtractor{})

	w := NewWorker(p, 8, zap.NewNop().Sugar())

	paths := make([]string, 3)
	for i := range paths {
		id := fmt.Sprintf("q%d", i)
		db.statuses[id] = models.StatusProcessing
		paths[i] = writeTempUpload(t)
		w.Enqueue(Job{MaterialID: id, LocalPath: paths[i], StorageKey: "k", ContentType: "application/pdf"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx, 1)
	cancel()
	require.NoError(t, w.Wait())

	// The in-flight job is cleaned up by its pipeline run; jobs still
	// buffered at shutdown are cleaned up by the drain.
	for _, path := range paths {
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err), path)
	}
}
