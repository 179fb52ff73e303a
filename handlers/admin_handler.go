// backend/handlers/admin_handler.go
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/gramdarpan/mgnrega/backend/models"
	"github.com/gramdarpan/mgnrega/backend/services"
)

const maxUploadBytes = 16 << 20 // 16 MiB

// AdminHandler serves the operator endpoints:
//
//	POST /api/v1/admin/upload         bulk ingestion (JSON array or CSV file)
//	POST /api/v1/admin/sync           trigger a refresh run
//	GET  /api/v1/admin/sync/status    refresh run state
//	POST /api/v1/admin/cache/clear    drop cache entries (pattern or all)
//	GET  /api/v1/admin/snapshots      page the ingestion audit trail
type AdminHandler struct {
	Admin *services.AdminService
	Sync  *services.SyncService
}

func (h *AdminHandler) Route(w http.ResponseWriter, r *http.Request) {
	// Expected path: api/v1/admin/{action}[/...]
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 4 {
		respondWithError(w, http.StatusBadRequest, "Invalid path. Expected /api/v1/admin/{action}")
		return
	}

	switch pathParts[3] {
	case "upload":
		if r.Method != http.MethodPost {
			respondWithError(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
			return
		}
		h.upload(w, r)
	case "sync":
		if len(pathParts) == 5 && pathParts[4] == "status" {
			h.syncStatus(w, r)
			return
		}
		if r.Method != http.MethodPost {
			respondWithError(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
			return
		}
		h.triggerSync(w, r)
	case "cache":
		if len(pathParts) == 5 && pathParts[4] == "clear" && r.Method == http.MethodPost {
			h.clearCache(w, r)
			return
		}
		respondWithError(w, http.StatusBadRequest, "Invalid path. Expected POST /api/v1/admin/cache/clear")
	case "snapshots":
		if r.Method != http.MethodGet {
			respondWithError(w, http.StatusMethodNotAllowed, "Only GET method is allowed")
			return
		}
		h.snapshots(w, r)
	default:
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("Unknown admin action %q", pathParts[3]))
	}
}

func (h *AdminHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var recs []models.Record
	var raw string
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		recs, raw, err = parseCSVUpload(r)
	} else {
		recs, raw, err = parseJSONUpload(r)
	}
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.Admin.UploadRecords(recs, "manual", raw)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"success": results.Failed == 0,
		"results": results,
	})
}

// parseJSONUpload accepts either a bare array of records or an object with a
// "records" field.
func parseJSONUpload(r *http.Request) ([]models.Record, string, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read request body: %w", err)
	}

	var recs []models.Record
	if err := json.Unmarshal(body, &recs); err == nil {
		return recs, string(body), nil
	}

	var wrapper struct {
		Records []models.Record `json:"records"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, "", fmt.Errorf("invalid JSON upload: %v", err)
	}
	return wrapper.Records, string(body), nil
}

// parseCSVUpload reads the "file" part of a multipart form and decodes it
// with the record's CSV header mapping.
func parseCSVUpload(r *http.Request) ([]models.Record, string, error) {
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("missing file part in multipart upload: %v", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read uploaded file: %w", err)
	}

	var recs []models.Record
	if err := csvutil.Unmarshal(data, &recs); err != nil {
		return nil, "", fmt.Errorf("invalid CSV upload: %v", err)
	}
	return recs, string(data), nil
}

func (h *AdminHandler) triggerSync(w http.ResponseWriter, r *http.Request) {
	if err := h.Sync.TriggerSync(); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, map[string]string{"message": "sync started"})
}

func (h *AdminHandler) syncStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}
	respondWithJSON(w, http.StatusOK, h.Sync.Status())
}

func (h *AdminHandler) clearCache(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Pattern string `json:"pattern"`
	}
	if r.Body != nil {
		// An empty or absent body means "flush everything".
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	removed := h.Admin.ClearCache(body.Pattern)
	respondWithJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func (h *AdminHandler) snapshots(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	snaps, err := h.Admin.Snapshots(limit, offset)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"snapshots": snaps})
}
