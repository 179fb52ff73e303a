// backend/handlers/misc_handler.go
package handlers

import (
	"database/sql"
	"net"
	"net/http"
	"strings"

	"github.com/gramdarpan/mgnrega/backend/services"
)

// MiscHandler serves health, stats and location detection.
type MiscHandler struct {
	DB       *sql.DB
	Admin    *services.AdminService
	Location *services.LocationService
}

func (h *MiscHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.Ping(); err != nil {
		respondWithJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": "database connection error",
		})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *MiscHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}
	stats, err := h.Admin.Stats()
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

// DetectLocation resolves the caller's IP to a state. A location that cannot
// be resolved is a null payload, not an error.
func (h *MiscHandler) DetectLocation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}
	loc := h.Location.Detect(r.Context(), clientIP(r))
	respondWithJSON(w, http.StatusOK, map[string]any{"location": loc})
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
