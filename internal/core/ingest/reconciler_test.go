package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/courseloom/backend/internal/models"
)

func TestReconcilerSweep(t *testing.T) {
	db := newFakeDB()
	db.statuses["stuck-1"] = models.StatusProcessing
	db.statuses["stuck-2"] = models.StatusProcessing
	db.statuses["done"] = models.StatusReady

	r := NewReconciler(db, 10*time.Minute, time.Minute, zap.NewNop().Sugar())

	ids, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"stuck-1", "stuck-2"}, ids)

	assert.Equal(t, models.StatusError, db.status("stuck-1"))
	assert.Equal(t, models.StatusError, db.status("stuck-2"))
	assert.Equal(t, models.StatusReady, db.status("done"))

	require.Len(t, db.events, 2)
	for _, ev := range db.events {
		assert.Equal(t, StageReconcile, ev.Stage)
	}
}

func TestReconcilerSweepNothingStuck(t *testing.T) {
	db := newFakeDB()
	db.statuses["done"] = models.StatusReady

	r := NewReconciler(db, 10*time.Minute, time.Minute, zap.NewNop().Sugar())

	ids, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Empty(t, db.events)
}
