package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"livequiz/internal/game"
	"livequiz/internal/server"
	"livequiz/pkg/httperrors"
	"livequiz/pkg/ws"
)

// Handler owns the push-event surface: it upgrades connections, routes
// client commands into the session and answers with per-connection events.
// Failures are reported to the offending connection only; a misbehaving
// client never affects others.
type Handler struct {
	session     *game.Session
	registry    *game.Registry
	hub         *ws.Hub
	frontendURL string
	logger      zerolog.Logger
}

// NewHandler creates the WebSocket gateway handler.
func NewHandler(session *game.Session, registry *game.Registry, hub *ws.Hub, frontendURL string, logger zerolog.Logger) *Handler {
	return &Handler{
		session:     session,
		registry:    registry,
		hub:         hub,
		frontendURL: frontendURL,
		logger:      logger.With().Str("component", "gateway_ws").Logger(),
	}
}

// connState is the per-connection binding. A connection bound to a team
// slot keeps that binding for its lifetime; it is never rebound.
type connState struct {
	id          uuid.UUID
	isModerator bool
	slotID      string
}

// HandleWebSocket upgrades the request and services the connection until
// it drops. No credential is needed to connect; join messages carry the
// possession token.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	raw, err := server.WSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	connID := uuid.New()
	conn := ws.NewConnection(raw, h.logger)
	h.hub.Register(connID, conn)
	go conn.WritePump()

	state := &connState{id: connID}
	conn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(state, msg)
	})

	if state.slotID != "" {
		h.session.MarkDisconnected(state.slotID)
	}
	h.hub.Unregister(connID)
}

func (h *Handler) handleMessage(state *connState, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeJoinQuizmaster:
		return h.handleJoinQuizmaster(state)
	case ws.TypeJoinTeam:
		return h.handleJoinTeam(state, msg.Payload)
	case ws.TypeStartQuestion:
		return h.handleStartQuestion(state, msg.Payload)
	case ws.TypeSubmitAnswer:
		return h.handleSubmitAnswer(state, msg.Payload)
	case ws.TypeRevealAnswers:
		return h.handleRevealAnswers(state)
	case ws.TypeResetGame:
		return h.handleResetGame(state)
	default:
		return h.sendError(state.id, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Handler) handleJoinQuizmaster(state *connState) error {
	state.isModerator = true
	h.hub.SetModerator(state.id)
	observeCommand(ws.TypeJoinQuizmaster, nil)

	h.hub.SendTo(state.id, ws.NewMessage(ws.TypeGameState, h.session.Snapshot()))
	h.hub.SendTo(state.id, ws.NewMessage(ws.TypeTeamURLs, ws.TeamURLsPayload{URLs: h.registry.TeamURLs(h.frontendURL)}))
	h.logger.Info().Str("conn_id", state.id.String()).Msg("quizmaster joined")
	return nil
}

func (h *Handler) handleJoinTeam(state *connState, payload json.RawMessage) error {
	var req ws.JoinTeamPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.Token == "" {
		return h.sendError(state.id, httperrors.ErrCodeInvalidPayload, "Invalid join_team payload")
	}

	if state.slotID != "" {
		// Bound for the connection's lifetime; a second join is rejected.
		return h.sendError(state.id, httperrors.ErrCodeAlreadyBound, "Connection already bound to "+state.slotID)
	}

	slotID, err := h.session.JoinTeam(req.Token, req.DisplayName)
	observeCommand(ws.TypeJoinTeam, err)
	if err != nil {
		return h.sendError(state.id, httperrors.ErrCodeInvalidToken, "Invalid team token")
	}

	state.slotID = slotID
	h.hub.SendTo(state.id, ws.NewMessage(ws.TypeTeamJoined, ws.TeamJoinedPayload{
		SlotID:      slotID,
		DisplayName: req.DisplayName,
	}))
	h.hub.SendTo(state.id, ws.NewMessage(ws.TypeGameState, h.session.Snapshot()))
	return nil
}

func (h *Handler) handleStartQuestion(state *connState, payload json.RawMessage) error {
	if !state.isModerator {
		return h.sendError(state.id, httperrors.ErrCodeNotAuthorized, "Only the quizmaster can start questions")
	}

	var req ws.StartQuestionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(state.id, httperrors.ErrCodeInvalidPayload, "Invalid start_question payload")
	}

	err := h.session.StartQuestion(req.QuestionIndex)
	observeCommand(ws.TypeStartQuestion, err)
	if err != nil {
		return h.sendError(state.id, httperrors.ErrCodeInvalidQuestionIndex, "Invalid question index")
	}
	return nil
}

func (h *Handler) handleSubmitAnswer(state *connState, payload json.RawMessage) error {
	if state.slotID == "" {
		return h.sendError(state.id, httperrors.ErrCodeNotBound, "Join a team before submitting answers")
	}

	var req ws.SubmitAnswerPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(state.id, httperrors.ErrCodeInvalidPayload, "Invalid submit_answer payload")
	}

	err := h.session.SubmitAnswer(state.slotID, req.ChoiceIndex)
	observeCommand(ws.TypeSubmitAnswer, err)
	if errors.Is(err, game.ErrInvalidChoice) {
		return h.sendError(state.id, httperrors.ErrCodeInvalidChoiceIndex, "Choice index out of range")
	}

	// Late or unjoined submissions are dropped, not fatal; the ack tells
	// the submitting team whether its answer counted.
	return h.hub.SendTo(state.id, ws.NewMessage(ws.TypeAnswerAck, ws.AnswerAckPayload{
		QuestionIndex: h.session.ActiveQuestionIndex(),
		ChoiceIndex:   req.ChoiceIndex,
		Accepted:      err == nil,
	}))
}

func (h *Handler) handleRevealAnswers(state *connState) error {
	if !state.isModerator {
		return h.sendError(state.id, httperrors.ErrCodeNotAuthorized, "Only the quizmaster can reveal answers")
	}

	err := h.session.RevealAnswers()
	observeCommand(ws.TypeRevealAnswers, err)
	if err != nil {
		return h.sendError(state.id, httperrors.ErrCodeNoActiveQuestion, "No active question")
	}
	return nil
}

func (h *Handler) handleResetGame(state *connState) error {
	if !state.isModerator {
		return h.sendError(state.id, httperrors.ErrCodeNotAuthorized, "Only the quizmaster can reset the game")
	}

	h.session.ResetGame()
	observeCommand(ws.TypeResetGame, nil)
	return nil
}

func (h *Handler) sendError(connID uuid.UUID, code, message string) error {
	return h.hub.SendTo(connID, ws.NewMessage(ws.TypeError, ws.ErrorPayload{
		Code:    code,
		Message: message,
	}))
}
