package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cognicore/emodetect/pkg/emodetect/predict"
)

// maxFormBytes bounds the request body of /predict.
const maxFormBytes = 1 << 20

// Predictor is the inference surface the handlers need.
type Predictor interface {
	Predict(raw string) predict.Prediction
	RunID() string
	VocabularySize() int
}

// Handler holds the HTTP handlers.
type Handler struct {
	predictor Predictor
}

// NewHandler creates a handler backed by p.
func NewHandler(p Predictor) *Handler {
	return &Handler{predictor: p}
}

// PredictResponse is the body of a successful /predict call. Text echoes
// the normalized input.
type PredictResponse struct {
	Result int    `json:"result"`
	Text   string `json:"text"`
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status         string `json:"status"`
	RunID          string `json:"run_id,omitempty"`
	VocabularySize int    `json:"vocabulary_size"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandlePredict handles POST /predict with a form-encoded text field.
func (h *Handler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		sendError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	text, ok := r.PostForm["text"]
	if !ok || strings.TrimSpace(text[0]) == "" {
		sendError(w, http.StatusBadRequest, "text is required")
		return
	}

	p := h.predictor.Predict(text[0])
	sendJSON(w, http.StatusOK, PredictResponse{
		Result: int(p.Label),
		Text:   p.Normalized,
	})
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		RunID:          h.predictor.RunID(),
		VocabularySize: h.predictor.VocabularySize(),
	})
}

func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, status int, msg string) {
	sendJSON(w, status, ErrorResponse{Error: msg})
}
