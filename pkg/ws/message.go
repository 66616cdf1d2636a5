package ws

import "encoding/json"

// MessageType constants for the quiz WebSocket protocol.
const (
	// Client -> Server
	TypeJoinQuizmaster = "join_quizmaster"
	TypeJoinTeam       = "join_team"
	TypeStartQuestion  = "start_question"
	TypeSubmitAnswer   = "submit_answer"
	TypeRevealAnswers  = "reveal_answers"
	TypeResetGame      = "reset_game"

	// Server -> Client
	TypeNewQuestion     = "new_question"
	TypeTimerTick       = "timer_tick"
	TypeTimeExpired     = "time_expired"
	TypeAnswersRevealed = "answers_revealed"
	TypeGameState       = "game_state"
	TypeGameReset       = "game_reset"
	TypeTeamJoined      = "team_joined"
	TypeAnswerAck       = "answer_ack"
	TypeTeamURLs        = "team_urls"
	TypeError           = "error"
)

// Message wraps all WebSocket payloads with a discriminating type tag.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage marshals payload into a typed envelope.
func NewMessage(msgType string, payload any) Message {
	msg := Message{Type: msgType}
	if payload != nil {
		msg.Payload, _ = json.Marshal(payload)
	}
	return msg
}

// Client Messages (incoming)

type JoinTeamPayload struct {
	Token       string `json:"token"`
	DisplayName string `json:"display_name"`
}

type StartQuestionPayload struct {
	QuestionIndex int `json:"question_index"`
}

type SubmitAnswerPayload struct {
	ChoiceIndex int `json:"choice_index"`
}

// Server Messages (outgoing)

type NewQuestionPayload struct {
	Prompt           string   `json:"prompt"`
	Choices          []string `json:"choices"`
	QuestionNumber   int      `json:"question_number"`
	TotalQuestions   int      `json:"total_questions"`
	TimeLimitSeconds int      `json:"time_limit_seconds"`
}

type TimerTickPayload struct {
	SecondsRemaining int `json:"seconds_remaining"`
}

// TeamView is the per-slot state shared with clients. SubmittedAnswer is nil
// until the team answers the active question.
type TeamView struct {
	DisplayName     string `json:"display_name"`
	Score           int    `json:"score"`
	SubmittedAnswer *int   `json:"submitted_answer"`
	Connected       bool   `json:"connected"`
}

type AnswersRevealedPayload struct {
	CorrectChoiceIndex int                 `json:"correct_choice_index"`
	Teams              map[string]TeamView `json:"teams"`
	Explanation        string              `json:"explanation,omitempty"`
}

// StatePayload is the full session snapshot used for (re)synchronization.
type StatePayload struct {
	ActiveQuestionIndex int                 `json:"active_question_index"`
	QuestionIsAccepting bool                `json:"question_is_accepting"`
	AnswersRevealed     bool                `json:"answers_revealed"`
	SecondsRemaining    int                 `json:"seconds_remaining"`
	Question            *NewQuestionPayload `json:"question,omitempty"`
	Teams               map[string]TeamView `json:"teams"`
}

type TeamJoinedPayload struct {
	SlotID      string `json:"slot_id"`
	DisplayName string `json:"display_name"`
}

type AnswerAckPayload struct {
	QuestionIndex int  `json:"question_index"`
	ChoiceIndex   int  `json:"choice_index"`
	Accepted      bool `json:"accepted"`
}

type TeamURLsPayload struct {
	URLs map[string]string `json:"urls"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
