package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Yates-Labs/bayan/internal/orchestrator"
)

// MaxRequestBytes bounds the /api/ask request body.
const MaxRequestBytes = 64 << 10

// Answerer answers one question.
type Answerer interface {
	Answer(ctx context.Context, question string) (orchestrator.Answer, error)
}

// AskRequest is the /api/ask request body.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the /api/ask response body. Context lists the sources the
// answer was grounded on.
type AskResponse struct {
	Answer  string   `json:"answer"`
	Context []string `json:"context"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	answerer Answerer
	logger   *zap.Logger
}

func (h *handlers) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "DataSaudi Chatbot API is running",
	})
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "datasaudi-chatbot",
	})
}

func (h *handlers) ask(w http.ResponseWriter, r *http.Request) {
	if h.answerer == nil {
		writeError(w, http.StatusServiceUnavailable, "question answering is not configured")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	ans, err := h.answerer.Answer(r.Context(), req.Question)
	if errors.Is(err, orchestrator.ErrEmptyQuestion) {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if err != nil {
		h.logger.Error("ask failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.logger.Info("answered question",
		zap.String("language", ans.Language.String()),
		zap.String("status", string(ans.Status)),
		zap.Int("sources", len(ans.Sources)))

	sources := ans.Sources
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, AskResponse{Answer: ans.Text, Context: sources})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
