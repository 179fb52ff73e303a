// backend/handlers/state_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gramdarpan/mgnrega/backend/services"
)

// StateHandler serves the state registry endpoints:
//
//	GET  /api/v1/states                        list registered states
//	POST /api/v1/states                        bootstrap the registry from the upstream
//	GET  /api/v1/states/{code}/districts       list (or discover) a state's districts
type StateHandler struct {
	Service *services.DistrictService
}

func (h *StateHandler) Route(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// pathParts: ["api", "v1", "states"] or ["api", "v1", "states", "{code}", "districts"]
	if len(pathParts) == 3 {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.bootstrap(w, r)
		default:
			respondWithError(w, http.StatusMethodNotAllowed, "Only GET and POST methods are allowed")
		}
		return
	}

	if len(pathParts) == 5 && pathParts[4] == "districts" {
		if r.Method != http.MethodGet {
			respondWithError(w, http.StatusMethodNotAllowed, "Only GET method is allowed")
			return
		}
		h.districts(w, r, pathParts[3])
		return
	}

	respondWithError(w, http.StatusBadRequest, "Invalid path. Expected /api/v1/states or /api/v1/states/{code}/districts")
}

func (h *StateHandler) list(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.ListStates(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (h *StateHandler) bootstrap(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.BootstrapStates(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("registered %d states", n),
	})
}

func (h *StateHandler) districts(w http.ResponseWriter, r *http.Request, stateCode string) {
	if err := validateStateCode(stateCode); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.Service.ListDistricts(r.Context(), stateCode)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}
