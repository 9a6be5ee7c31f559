package intake

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/pregnancy-risk/platform/pkg/common/logger"
	"github.com/pregnancy-risk/platform/pkg/features"
)

type caseLister interface {
	Recent(ctx context.Context, variant string, limit int) ([]CaseModel, error)
}

// HTTPHandler exposes the archived intake forms.
type HTTPHandler struct {
	repo caseLister
}

func NewHTTPHandler(repo caseLister) *HTTPHandler {
	return &HTTPHandler{repo: repo}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/api/v1/intake/cases", h.handleList).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	variant := r.URL.Query().Get("variant")
	if variant != "" {
		if _, err := features.SchemaFor(variant); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid model type"})
			return
		}
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	cases, err := h.repo.Recent(r.Context(), variant, limit)
	if err != nil {
		logger.Log.WithError(err).Error("failed to list intake cases")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch intake cases"})
		return
	}
	if cases == nil {
		cases = []CaseModel{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": cases})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
