package gateway

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livequiz/internal/config"
	"livequiz/internal/game"
	"livequiz/internal/server"
	"livequiz/pkg/httperrors"
	"livequiz/pkg/ws"
)

type wsFixture struct {
	ts       *httptest.Server
	registry *game.Registry
}

// newWSFixture stands up the full HTTP server around a fake-clock session
// so the countdown never fires on its own during a test.
func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()

	bank, err := game.NewQuestionBank(testRecords())
	require.NoError(t, err)

	logger := zerolog.New(io.Discard)
	registry := game.NewRegistry(3, logger)
	hub := ws.NewHub(logger)
	session := game.NewSession(bank, registry, hub, game.Options{Clock: clockwork.NewFakeClock()}, logger)

	handler := NewHandler(session, registry, hub, testFrontendURL, logger)
	httpHandlers := NewHTTPHandlers(session, bank, registry, testFrontendURL, logger)

	cfg := &config.App{
		HTTPAddr:    "127.0.0.1:0",
		FrontendURL: testFrontendURL,
		CORS: config.CORS{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		},
	}
	srv := server.NewHTTPServer(cfg, server.Routes{
		WebSocket:     handler.HandleWebSocket,
		GameState:     httpHandlers.GetGameState,
		Questions:     httpHandlers.GetQuestions,
		TeamURLs:      httpHandlers.GetTeamURLs,
		StartQuestion: httpHandlers.StartQuestion,
		RevealAnswers: httpHandlers.RevealAnswers,
		ResetGame:     httpHandlers.ResetGame,
	})

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	return &wsFixture{ts: ts, registry: registry}
}

func (f *wsFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (f *wsFixture) token(t *testing.T, slotID string) string {
	t.Helper()
	urls := f.registry.TeamURLs(testFrontendURL)
	url, ok := urls[slotID]
	require.True(t, ok)
	return strings.TrimPrefix(url, testFrontendURL+"/team/")
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(ws.NewMessage(msgType, payload)))
}

func decodePayload[T any](t *testing.T, msg ws.Message) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(msg.Payload, &out))
	return out
}

// readUntil discards messages until one of msgType arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) ws.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg ws.Message
		require.NoError(t, conn.ReadJSON(&msg), "while waiting for %q", msgType)
		if msg.Type == msgType {
			return msg
		}
	}
}

func joinModerator(t *testing.T, f *wsFixture) *websocket.Conn {
	t.Helper()
	conn := f.dial(t)
	send(t, conn, ws.TypeJoinQuizmaster, nil)
	readUntil(t, conn, ws.TypeTeamURLs)
	return conn
}

func joinTeam(t *testing.T, f *wsFixture, slotID, name string) *websocket.Conn {
	t.Helper()
	conn := f.dial(t)
	send(t, conn, ws.TypeJoinTeam, ws.JoinTeamPayload{Token: f.token(t, slotID), DisplayName: name})
	joined := decodePayload[ws.TeamJoinedPayload](t, readUntil(t, conn, ws.TypeTeamJoined))
	require.Equal(t, slotID, joined.SlotID)
	return conn
}

func TestQuizmasterJoinReceivesSnapshotAndTeamURLs(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t)

	send(t, conn, ws.TypeJoinQuizmaster, nil)

	state := decodePayload[ws.StatePayload](t, readUntil(t, conn, ws.TypeGameState))
	assert.Equal(t, -1, state.ActiveQuestionIndex)
	assert.Len(t, state.Teams, 3)

	urls := decodePayload[ws.TeamURLsPayload](t, readUntil(t, conn, ws.TypeTeamURLs))
	require.Len(t, urls.URLs, 3)
	for slotID, url := range urls.URLs {
		assert.True(t, strings.HasPrefix(url, testFrontendURL+"/team/"), "url for %s: %s", slotID, url)
	}
}

func TestTeamJoinNotifiesModerator(t *testing.T) {
	f := newWSFixture(t)
	moderator := joinModerator(t, f)

	team := f.dial(t)
	send(t, team, ws.TypeJoinTeam, ws.JoinTeamPayload{Token: f.token(t, "team1"), DisplayName: "Alpha"})

	joined := decodePayload[ws.TeamJoinedPayload](t, readUntil(t, team, ws.TypeTeamJoined))
	assert.Equal(t, "team1", joined.SlotID)
	assert.Equal(t, "Alpha", joined.DisplayName)

	state := decodePayload[ws.StatePayload](t, readUntil(t, team, ws.TypeGameState))
	assert.Equal(t, "Alpha", state.Teams["team1"].DisplayName)

	modState := decodePayload[ws.StatePayload](t, readUntil(t, moderator, ws.TypeGameState))
	assert.Equal(t, "Alpha", modState.Teams["team1"].DisplayName)
	assert.True(t, modState.Teams["team1"].Connected)
}

func TestForgedTokenRejectedWithoutSideEffects(t *testing.T) {
	f := newWSFixture(t)
	intruder := f.dial(t)

	send(t, intruder, ws.TypeJoinTeam, ws.JoinTeamPayload{Token: "forged", DisplayName: "Intruder"})
	errPayload := decodePayload[ws.ErrorPayload](t, readUntil(t, intruder, ws.TypeError))
	assert.Equal(t, httperrors.ErrCodeInvalidToken, errPayload.Code)

	// The real token still admits its team.
	joinTeam(t, f, "team1", "Alpha")
}

func TestSecondJoinOnSameConnectionRejected(t *testing.T) {
	f := newWSFixture(t)
	team := joinTeam(t, f, "team1", "Alpha")

	send(t, team, ws.TypeJoinTeam, ws.JoinTeamPayload{Token: f.token(t, "team2"), DisplayName: "Sneaky"})
	errPayload := decodePayload[ws.ErrorPayload](t, readUntil(t, team, ws.TypeError))
	assert.Equal(t, httperrors.ErrCodeAlreadyBound, errPayload.Code)
}

func TestSubmitBeforeJoinRejected(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t)

	send(t, conn, ws.TypeSubmitAnswer, ws.SubmitAnswerPayload{ChoiceIndex: 0})
	errPayload := decodePayload[ws.ErrorPayload](t, readUntil(t, conn, ws.TypeError))
	assert.Equal(t, httperrors.ErrCodeNotBound, errPayload.Code)
}

func TestModeratorOnlyCommands(t *testing.T) {
	f := newWSFixture(t)
	team := joinTeam(t, f, "team1", "Alpha")

	for _, msgType := range []string{ws.TypeStartQuestion, ws.TypeRevealAnswers, ws.TypeResetGame} {
		send(t, team, msgType, ws.StartQuestionPayload{QuestionIndex: 0})
		errPayload := decodePayload[ws.ErrorPayload](t, readUntil(t, team, ws.TypeError))
		assert.Equal(t, httperrors.ErrCodeNotAuthorized, errPayload.Code, "command %s", msgType)
	}
}

func TestUnknownMessageType(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t)

	send(t, conn, "dance", nil)
	errPayload := decodePayload[ws.ErrorPayload](t, readUntil(t, conn, ws.TypeError))
	assert.Equal(t, httperrors.ErrCodeUnknownMessageType, errPayload.Code)
}

func TestFullQuestionRound(t *testing.T) {
	f := newWSFixture(t)
	moderator := joinModerator(t, f)
	team := joinTeam(t, f, "team1", "Alpha")

	send(t, moderator, ws.TypeStartQuestion, ws.StartQuestionPayload{QuestionIndex: 0})

	q := decodePayload[ws.NewQuestionPayload](t, readUntil(t, team, ws.TypeNewQuestion))
	assert.Equal(t, "Q1", q.Prompt)
	assert.Equal(t, 1, q.QuestionNumber)
	assert.Equal(t, 2, q.TotalQuestions)

	send(t, team, ws.TypeSubmitAnswer, ws.SubmitAnswerPayload{ChoiceIndex: 1})
	ack := decodePayload[ws.AnswerAckPayload](t, readUntil(t, team, ws.TypeAnswerAck))
	assert.True(t, ack.Accepted)
	assert.Equal(t, 0, ack.QuestionIndex)
	assert.Equal(t, 1, ack.ChoiceIndex)

	send(t, moderator, ws.TypeRevealAnswers, nil)

	revealed := decodePayload[ws.AnswersRevealedPayload](t, readUntil(t, team, ws.TypeAnswersRevealed))
	assert.Equal(t, 1, revealed.CorrectChoiceIndex)
	assert.Equal(t, "because", revealed.Explanation)
	assert.Equal(t, 100, revealed.Teams["team1"].Score)

	// A late submission is acked as not counted.
	send(t, team, ws.TypeSubmitAnswer, ws.SubmitAnswerPayload{ChoiceIndex: 2})
	ack = decodePayload[ws.AnswerAckPayload](t, readUntil(t, team, ws.TypeAnswerAck))
	assert.False(t, ack.Accepted)
}

func TestRevealWithoutQuestionReportsError(t *testing.T) {
	f := newWSFixture(t)
	moderator := joinModerator(t, f)

	send(t, moderator, ws.TypeRevealAnswers, nil)
	errPayload := decodePayload[ws.ErrorPayload](t, readUntil(t, moderator, ws.TypeError))
	assert.Equal(t, httperrors.ErrCodeNoActiveQuestion, errPayload.Code)
}

func TestDisconnectMarksTeamOffline(t *testing.T) {
	f := newWSFixture(t)
	moderator := joinModerator(t, f)
	team := joinTeam(t, f, "team1", "Alpha")

	require.NoError(t, team.Close())

	deadline := time.Now().Add(2 * time.Second)
	for {
		require.NoError(t, moderator.SetReadDeadline(deadline))
		var msg ws.Message
		require.NoError(t, moderator.ReadJSON(&msg), "waiting for disconnect state")
		if msg.Type != ws.TypeGameState {
			continue
		}
		state := decodePayload[ws.StatePayload](t, msg)
		if !state.Teams["team1"].Connected {
			assert.Equal(t, "Alpha", state.Teams["team1"].DisplayName)
			return
		}
	}
}

func TestGameResetBroadcast(t *testing.T) {
	f := newWSFixture(t)
	moderator := joinModerator(t, f)
	team := joinTeam(t, f, "team1", "Alpha")

	send(t, moderator, ws.TypeStartQuestion, ws.StartQuestionPayload{QuestionIndex: 0})
	readUntil(t, team, ws.TypeNewQuestion)

	send(t, moderator, ws.TypeResetGame, nil)
	readUntil(t, team, ws.TypeGameReset)

	// Skip the snapshots queued before the reset took effect.
	deadline := time.Now().Add(2 * time.Second)
	for {
		require.NoError(t, moderator.SetReadDeadline(deadline))
		var msg ws.Message
		require.NoError(t, moderator.ReadJSON(&msg), "waiting for reset state")
		if msg.Type != ws.TypeGameState {
			continue
		}
		state := decodePayload[ws.StatePayload](t, msg)
		if state.ActiveQuestionIndex != -1 || state.Teams["team1"].DisplayName != "" {
			continue
		}
		for _, view := range state.Teams {
			assert.Zero(t, view.Score)
			assert.False(t, view.Connected)
		}
		return
	}
}
