package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/courseloom/backend/internal/core"
	"github.com/courseloom/backend/internal/models"
)

// Reconciler sweeps for materials stranded in "processing" past a TTL, which
// happens when a pipeline dies before even the best-effort error-status
// write lands. Stuck materials are flipped to "error" with an event row so
// the failure is durable and visible.
type Reconciler struct {
	db       core.DbClient
	ttl      time.Duration
	interval time.Duration
	log      *zap.SugaredLogger
}

func NewReconciler(db core.DbClient, ttl, interval time.Duration, log *zap.SugaredLogger) *Reconciler {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reconciler{db: db, ttl: ttl, interval: interval, log: log}
}

// Run sweeps on a ticker until the context is canceled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("reconciler shutting down")
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.log.Errorw("reconcile sweep failed", "error", err)
			}
		}
	}
}

// Sweep flips stuck materials and records one reconcile event per material.
func (r *Reconciler) Sweep(ctx context.Context) ([]string, error) {
	ids, err := r.db.FailStuckMaterials(ctx, r.ttl)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		r.log.Warnw("material stuck in processing; flipped to error", "material_id", id, "ttl", r.ttl)
		ev := &models.MaterialEvent{
			ID:         uuid.NewString(),
			MaterialID: id,
			Stage:      StageReconcile,
			Detail:     "stuck in processing past TTL " + r.ttl.String(),
		}
		if err := r.db.RecordMaterialEvent(ctx, ev); err != nil {
			r.log.Warnw("reconcile event write failed", "material_id", id, "error", err)
		}
	}
	return ids, nil
}
