package models

import (
	"time"
)

// Material status values. Both terminal states are absorbing: once a
// material leaves "processing" the pipeline never touches it again.
const (
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusError      = "error"
)

// Material represents one uploaded source document tracked through ingestion.
type Material struct {
	ID               string    `db:"id" json:"id"`
	OrganizationID   string    `db:"organization_id" json:"organization_id"`
	UploadedByUserID string    `db:"uploaded_by_user_id" json:"uploaded_by_user_id"`
	FileName         string    `db:"file_name" json:"file_name"`
	StorageKey       string    `db:"storage_key" json:"storage_key"`
	ContentType      string    `db:"content_type" json:"content_type"`
	Status           string    `db:"status" json:"status"` // processing | ready | error
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Chunk represents one bounded substring of a material's extracted text,
// paired with its embedding vector. Rows are insert-only; Position preserves
// document order for downstream consumers.
type Chunk struct {
	ID         string    `db:"id" json:"id"`
	MaterialID string    `db:"material_id" json:"material_id"`
	Position   int       `db:"position" json:"position"`
	Content    string    `db:"content" json:"content"`
	Embedding  []float32 `db:"embedding" json:"embedding"` // pgvector column
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// MaterialEvent is the durable audit record written when a pipeline run
// fails or when the reconciler flips a stuck material. It exists so a
// material stuck at "error" is never a mystery to operators.
type MaterialEvent struct {
	ID         string    `db:"id" json:"id"`
	MaterialID string    `db:"material_id" json:"material_id"`
	Stage      string    `db:"stage" json:"stage"` // extract | archive | chunk | embed | persist | reconcile
	Detail     string    `db:"detail" json:"detail"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
