package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/courseloom/backend/internal/config"
	"github.com/courseloom/backend/internal/core"
	"github.com/courseloom/backend/internal/core/ingest"
	"github.com/courseloom/backend/internal/models"
)

// Enqueuer is the handler's view of the ingestion queue.
type Enqueuer interface {
	Enqueue(job ingest.Job)
}

type MaterialHandler struct {
	dbclient core.DbClient
	ingestor Enqueuer
	cfg      *config.Config
	log      *zap.SugaredLogger
}

func NewMaterialHandler(dbclient core.DbClient, ingestor Enqueuer, cfg *config.Config, log *zap.SugaredLogger) *MaterialHandler {
	return &MaterialHandler{dbclient: dbclient, ingestor: ingestor, cfg: cfg, log: log}
}

// UploadMaterial accepts a multipart file, spools it to a temp file, creates
// the material row with status "processing", and hands the rest to the
// background pipeline. The response never waits for ingestion; clients poll
// GetMaterial for the status transition.
func (h *MaterialHandler) UploadMaterial(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		http.Error(w, "file too large or malformed form", http.StatusRequestEntityTooLarge)
		return
	}

	orgID := r.FormValue("organization_id")
	userID := r.FormValue("uploaded_by_user_id")
	if orgID == "" || userID == "" {
		http.Error(w, "organization_id and uploaded_by_user_id are required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "material-*")
	if err != nil {
		http.Error(w, "temp storage unavailable", http.StatusInternalServerError)
		return
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		http.Error(w, "failed to store upload", http.StatusInternalServerError)
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		http.Error(w, "failed to store upload", http.StatusInternalServerError)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if mt, err := mimetype.DetectFile(tmpPath); err == nil {
			contentType = mt.String()
		} else {
			contentType = "application/octet-stream"
		}
	}

	// Sanitize filename to prevent path traversal in the storage key.
	cleanName := filepath.Base(header.Filename)
	materialID := uuid.NewString()
	storageKey := fmt.Sprintf("%s/%s/%s", orgID, materialID, cleanName)

	m := &models.Material{
		ID:               materialID,
		OrganizationID:   orgID,
		UploadedByUserID: userID,
		FileName:         header.Filename,
		StorageKey:       storageKey,
		ContentType:      contentType,
		Status:           models.StatusProcessing,
	}
	if err := h.dbclient.CreateMaterial(r.Context(), m); err != nil {
		os.Remove(tmpPath)
		h.log.Errorw("material insert failed", "material_id", materialID, "error", err)
		http.Error(w, "failed to store material metadata", http.StatusInternalServerError)
		return
	}

	// The pipeline owns the temp file from here; it deletes it when done.
	h.ingestor.Enqueue(ingest.Job{
		MaterialID:  materialID,
		LocalPath:   tmpPath,
		StorageKey:  storageKey,
		ContentType: contentType,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(m)
}

func (h *MaterialHandler) GetMaterial(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	m, err := h.dbclient.GetMaterialByID(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if m == nil {
		http.Error(w, "material not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m)
}

func (h *MaterialHandler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("organization_id")
	if orgID == "" {
		http.Error(w, "organization_id is required", http.StatusBadRequest)
		return
	}

	materials, err := h.dbclient.ListMaterialsByOrg(r.Context(), orgID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(materials)
}

// GetMaterialChunks returns the ordered chunk set for a ready material, so
// downstream generation steps can feed bounded excerpts in document order.
func (h *MaterialHandler) GetMaterialChunks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	m, err := h.dbclient.GetMaterialByID(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if m == nil {
		http.Error(w, "material not found", http.StatusNotFound)
		return
	}
	if m.Status != models.StatusReady {
		http.Error(w, fmt.Sprintf("material is %s, not ready", m.Status), http.StatusConflict)
		return
	}

	chunks, err := h.dbclient.GetChunksByMaterial(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chunks)
}
