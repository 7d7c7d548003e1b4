package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/courseloom/backend/internal/config"
	"github.com/courseloom/backend/internal/core"
	"github.com/courseloom/backend/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, sqlDB, cfg.EmbedDim); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: sqlDB}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *DatabaseClient) CreateMaterial(ctx context.Context, m *models.Material) error {
	if m == nil {
		return errors.New("nil material")
	}
	const q = `
		INSERT INTO course_materials
			(id, organization_id, uploaded_by_user_id, file_name, storage_key, content_type, status, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, now(), now())
	`
	_, err := c.db.ExecContext(ctx, q,
		m.ID, m.OrganizationID, m.UploadedByUserID, m.FileName, m.StorageKey, m.ContentType, m.Status)
	return err
}

func (c *DatabaseClient) GetMaterialByID(ctx context.Context, id string) (*models.Material, error) {
	const q = `
		SELECT id, organization_id, uploaded_by_user_id, file_name, storage_key, content_type, status, created_at, updated_at
		FROM course_materials
		WHERE id = $1
	`
	var m models.Material
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&m.ID, &m.OrganizationID, &m.UploadedByUserID, &m.FileName, &m.StorageKey, &m.ContentType, &m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *DatabaseClient) ListMaterialsByOrg(ctx context.Context, orgID string) ([]models.Material, error) {
	const q = `
		SELECT id, organization_id, uploaded_by_user_id, file_name, storage_key, content_type, status, created_at, updated_at
		FROM course_materials
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Material
	for rows.Next() {
		var m models.Material
		if err := rows.Scan(
			&m.ID, &m.OrganizationID, &m.UploadedByUserID, &m.FileName, &m.StorageKey, &m.ContentType, &m.Status, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateMaterialStatus(ctx context.Context, id string, status string) error {
	const q = `
		UPDATE course_materials
		SET status = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("material not found: %s", id)
	}
	return nil
}

// InsertChunksMarkReady writes the full chunk set and the "ready" status flip
// in one transaction. Readers either see the complete chunk set with a ready
// material, or neither.
func (c *DatabaseClient) InsertChunksMarkReady(ctx context.Context, materialID string, chunks []models.Chunk) error {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO chunks (id, material_id, position, content, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		vec := pgvector.NewVector(ch.Embedding)
		if _, err := stmt.ExecContext(ctx, ch.ID, materialID, ch.Position, ch.Content, vec); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	const uq = `
		UPDATE course_materials
		SET status = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := tx.ExecContext(ctx, uq, materialID, models.StatusReady)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_ = tx.Rollback()
		return fmt.Errorf("material not found: %s", materialID)
	}
	return tx.Commit()
}

func (c *DatabaseClient) GetChunksByMaterial(ctx context.Context, materialID string) ([]models.Chunk, error) {
	const q = `
		SELECT id, material_id, position, content, embedding, created_at
		FROM chunks
		WHERE material_id = $1
		ORDER BY position ASC
	`
	rows, err := c.db.QueryContext(ctx, q, materialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Chunk
	for rows.Next() {
		var (
			ch  models.Chunk
			emb pgvector.Vector
		)
		if err := rows.Scan(&ch.ID, &ch.MaterialID, &ch.Position, &ch.Content, &emb, &ch.CreatedAt); err != nil {
			return nil, err
		}
		ch.Embedding = emb.Slice()
		out = append(out, ch)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) RecordMaterialEvent(ctx context.Context, ev *models.MaterialEvent) error {
	if ev == nil {
		return errors.New("nil event")
	}
	const q = `
		INSERT INTO material_events (id, material_id, stage, detail, created_at)
		VALUES ($1, $2, $3, $4, now())
	`
	_, err := c.db.ExecContext(ctx, q, ev.ID, ev.MaterialID, ev.Stage, ev.Detail)
	return err
}

// FailStuckMaterials flips materials stuck in "processing" past ttl to
// "error" and returns the affected IDs so callers can record events.
func (c *DatabaseClient) FailStuckMaterials(ctx context.Context, ttl time.Duration) ([]string, error) {
	const q = `
		UPDATE course_materials
		SET status = $1, updated_at = now()
		WHERE status = $2 AND updated_at < now() - $3::interval
		RETURNING id
	`
	interval := fmt.Sprintf("%f seconds", ttl.Seconds())
	rows, err := c.db.QueryContext(ctx, q, models.StatusError, models.StatusProcessing, interval)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
