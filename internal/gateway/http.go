package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"livequiz/internal/game"
	"livequiz/pkg/httperrors"
	"livequiz/pkg/ws"
)

// HTTPHandlers provides the request-response surface of the gateway.
// It is a trusted moderator view: the question listing includes correct
// answer indexes.
type HTTPHandlers struct {
	session     *game.Session
	bank        *game.QuestionBank
	registry    *game.Registry
	frontendURL string
	logger      zerolog.Logger
}

// NewHTTPHandlers creates REST handlers for session commands and reads.
func NewHTTPHandlers(session *game.Session, bank *game.QuestionBank, registry *game.Registry, frontendURL string, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		session:     session,
		bank:        bank,
		registry:    registry,
		frontendURL: frontendURL,
		logger:      logger.With().Str("component", "gateway_http").Logger(),
	}
}

// GetGameState handles GET /api/game-state. Never fails.
func (h *HTTPHandlers) GetGameState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	h.respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// GetQuestions handles GET /api/questions. Never fails.
func (h *HTTPHandlers) GetQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	h.respondJSON(w, http.StatusOK, h.bank.All())
}

// GetTeamURLs handles GET /api/team-urls. Never fails.
func (h *HTTPHandlers) GetTeamURLs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	h.respondJSON(w, http.StatusOK, h.registry.TeamURLs(h.frontendURL))
}

// StartQuestion handles POST /api/start-question.
func (h *HTTPHandlers) StartQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	var req ws.StartQuestionPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPayload, "Invalid JSON payload")
		return
	}

	err := h.session.StartQuestion(req.QuestionIndex)
	observeCommand(ws.TypeStartQuestion, err)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidQuestionIndex, "Invalid question index")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Question %d started", req.QuestionIndex+1),
	})
}

// RevealAnswers handles POST /api/reveal-answers.
func (h *HTTPHandlers) RevealAnswers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	err := h.session.RevealAnswers()
	observeCommand(ws.TypeRevealAnswers, err)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeNoActiveQuestion, "No active question")
		return
	}

	snapshot := h.session.Snapshot()
	h.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"teams":   snapshot.Teams,
	})
}

// ResetGame handles POST /api/reset-game. Never fails.
func (h *HTTPHandlers) ResetGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	h.session.ResetGame()
	observeCommand(ws.TypeResetGame, nil)
	h.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Game reset successfully",
	})
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("encode response failed")
	}
}
