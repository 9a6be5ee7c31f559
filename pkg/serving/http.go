package serving

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/pregnancy-risk/platform/pkg/common/logger"
	"github.com/pregnancy-risk/platform/pkg/common/models"
	"github.com/pregnancy-risk/platform/pkg/common/validation"
	"github.com/pregnancy-risk/platform/pkg/features"
	"github.com/pregnancy-risk/platform/pkg/serving/predictor"
)

const patientIDField = "PatientID"

type HTTPHandler struct {
	service *Service
	maxBody int64
}

func NewHTTPHandler(service *Service, maxBody int64) *HTTPHandler {
	return &HTTPHandler{service: service, maxBody: maxBody}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/models", h.handleModels).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/predict/{variant}", h.handlePredict).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/classify/{variant}", h.handleClassify).Methods(http.MethodPost)
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	loaded := map[string]bool{}
	for _, v := range h.service.order {
		ok := h.service.entries[v].predictor.Loaded()
		loaded[v] = ok
		if !ok {
			status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": status,
		"models": loaded,
	})
}

func (h *HTTPHandler) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"models": h.service.Models(),
	})
}

func (h *HTTPHandler) handlePredict(w http.ResponseWriter, r *http.Request) {
	variant := mux.Vars(r)["variant"]
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}

	input := features.RawInput(payload)
	assignPatientID(input, h.service.now())

	res, err := h.service.Predict(r.Context(), variant, input)
	if err != nil {
		h.writeError(w, variant, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *HTTPHandler) handleClassify(w http.ResponseWriter, r *http.Request) {
	variant := mux.Vars(r)["variant"]
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Classify(r.Context(), variant, payload)
	if err != nil {
		h.writeError(w, variant, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// decode reads a JSON object body. Numbers stay json.Number so the
// coercer sees the value the client sent.
func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request) (map[string]interface{}, bool) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var payload map[string]interface{}
	if err := dec.Decode(&payload); err != nil {
		logger.Log.WithError(err).Warn("invalid prediction payload")
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid JSON body"})
		return nil, false
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return payload, true
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, variant string, err error) {
	switch {
	case errors.Is(err, ErrUnknownVariant):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Invalid model type"})
	case validation.IsValidationError(err):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid input",
			Details: validation.Problems(err),
		})
	case errors.Is(err, predictor.ErrModelNotLoaded):
		writeJSON(w, http.StatusServiceUnavailable, models.ErrorResponse{Error: predictor.ErrorMessage(err)})
	case errors.Is(err, predictor.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: predictor.ErrorMessage(err)})
	default:
		logger.Log.WithError(err).WithField("variant", variant).Error("prediction failed")
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Warn("failed to write response")
	}
}

// patientID finds the patient identifier regardless of key case. When
// several keys match, the exact spelling wins, then the smallest key.
// Blank identifiers count as absent.
func patientID(input features.RawInput) (interface{}, bool) {
	if v, ok := input[patientIDField]; ok && !blankID(v) {
		return v, true
	}
	keys := patientIDKeys(input)
	sort.Strings(keys)
	for _, k := range keys {
		if v := input[k]; !blankID(v) {
			return v, true
		}
	}
	return nil, false
}

// assignPatientID stamps a form without a usable identifier with the
// submission time in milliseconds. Blank variants of the key are dropped so
// the stamped value is the only one the feature builder sees.
func assignPatientID(input features.RawInput, now time.Time) {
	if _, ok := patientID(input); ok {
		return
	}
	for _, k := range patientIDKeys(input) {
		delete(input, k)
	}
	input[patientIDField] = now.UnixMilli()
}

func patientIDKeys(input features.RawInput) []string {
	keys := make([]string, 0, 1)
	for k := range input {
		if strings.EqualFold(k, patientIDField) {
			keys = append(keys, k)
		}
	}
	return keys
}

// blankID reports whether v is null, empty, false, zero or NaN.
func blankID(v interface{}) bool {
	switch id := v.(type) {
	case nil:
		return true
	case string:
		return id == ""
	case bool:
		return !id
	case json.Number:
		f, err := id.Float64()
		return err == nil && (f == 0 || math.IsNaN(f))
	case float64:
		return id == 0 || math.IsNaN(id)
	case float32:
		return id == 0
	case int:
		return id == 0
	case int64:
		return id == 0
	case int32:
		return id == 0
	default:
		return false
	}
}
