// backend/handlers/district_handler.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/gramdarpan/mgnrega/backend/services"
)

// DistrictHandler serves the district read endpoints:
//
//	GET /api/v1/districts/popular
//	GET /api/v1/districts/{code}/data?finYear=YYYY-YYYY&month=Jan
//	GET /api/v1/districts/{code}/history?start=YYYY-MM&end=YYYY-MM
//	GET /api/v1/districts/{code}/compare
type DistrictHandler struct {
	Service *services.DistrictService
}

func (h *DistrictHandler) Route(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}

	// Expected path: api/v1/districts/{code}/{action} or api/v1/districts/popular
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 4 {
		respondWithError(w, http.StatusBadRequest, "Invalid path. Expected /api/v1/districts/{code}/{action}")
		return
	}

	if pathParts[3] == "popular" {
		h.popular(w, r)
		return
	}

	code := pathParts[3]
	if err := validateDistrictCode(code); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(pathParts) < 5 {
		respondWithError(w, http.StatusBadRequest, "Invalid path. Expected /api/v1/districts/{code}/{action}")
		return
	}

	switch pathParts[4] {
	case "data":
		h.data(w, r, code)
	case "history":
		h.history(w, r, code)
	case "compare":
		h.compare(w, r, code)
	default:
		respondWithError(w, http.StatusNotFound, "Unknown action. Use data, history or compare")
	}
}

func (h *DistrictHandler) data(w http.ResponseWriter, r *http.Request, code string) {
	finYear := r.URL.Query().Get("finYear")
	month := r.URL.Query().Get("month")
	if err := validateFinYear(finYear); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateMonth(month); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.Service.GetDistrictData(r.Context(), code, finYear, month)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (h *DistrictHandler) history(w http.ResponseWriter, r *http.Request, code string) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if err := validateCalendarMonth(start); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateCalendarMonth(end); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.Service.GetHistory(r.Context(), code, start, end)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (h *DistrictHandler) compare(w http.ResponseWriter, r *http.Request, code string) {
	res, err := h.Service.GetComparison(r.Context(), code)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (h *DistrictHandler) popular(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.PopularDistricts(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}
