package game

import (
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"livequiz/pkg/ws"
)

// Broadcaster pushes state-change notifications to connected clients.
// Implemented by the ws hub; sessions never talk to sockets directly.
type Broadcaster interface {
	Everyone(msg ws.Message)
	Moderators(msg ws.Message)
}

// Options tune a session. Zero values fall back to production defaults.
type Options struct {
	QuestionSeconds  int
	PointsPerCorrect int
	Clock            clockwork.Clock
}

const (
	defaultQuestionSeconds  = 20
	defaultPointsPerCorrect = 100
)

// Session is the authoritative game state and the only mutation entry
// point for it. A single mutex serializes every operation, including the
// countdown callbacks, so ticks can never interleave with a concurrent
// reveal or question start. For any mutation the corresponding broadcast
// is issued before the operation returns.
type Session struct {
	mu        sync.Mutex
	bank      *QuestionBank
	registry  *Registry
	broadcast Broadcaster
	timer     *CountdownTimer
	logger    zerolog.Logger

	questionSeconds  int
	pointsPerCorrect int

	activeIndex      int
	accepting        bool
	revealed         bool
	secondsRemaining int

	// epoch tags the running countdown with the question start that owns
	// it; a tick carrying a stale epoch is discarded instead of trusted.
	epoch uint64

	answers map[string]int
	scores  map[string]int
}

// NewSession creates a fresh session with all slots empty and score 0.
func NewSession(bank *QuestionBank, registry *Registry, broadcast Broadcaster, opts Options, logger zerolog.Logger) *Session {
	if opts.QuestionSeconds <= 0 {
		opts.QuestionSeconds = defaultQuestionSeconds
	}
	if opts.PointsPerCorrect <= 0 {
		opts.PointsPerCorrect = defaultPointsPerCorrect
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	s := &Session{
		bank:             bank,
		registry:         registry,
		broadcast:        broadcast,
		timer:            NewCountdownTimer(opts.Clock),
		logger:           logger.With().Str("component", "session").Logger(),
		questionSeconds:  opts.QuestionSeconds,
		pointsPerCorrect: opts.PointsPerCorrect,
		activeIndex:      -1,
		secondsRemaining: opts.QuestionSeconds,
		answers:          make(map[string]int),
		scores:           make(map[string]int),
	}
	for _, id := range registry.SlotIDs() {
		s.scores[id] = 0
	}
	return s
}

// StartQuestion makes the question at index the active one and opens the
// answer window. Valid from any state: a new question always supersedes
// the previous one, including one still accepting, so the moderator can
// skip ahead. Out-of-range indexes are rejected with no state change.
func (s *Session) StartQuestion(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= s.bank.Count() {
		return ErrIndexOutOfRange
	}

	s.epoch++
	epoch := s.epoch

	s.activeIndex = index
	s.accepting = true
	s.revealed = false
	s.secondsRemaining = s.questionSeconds
	s.answers = make(map[string]int)

	s.timer.Start(s.questionSeconds,
		func(remaining int) { s.onTick(epoch, remaining) },
		func() { s.onExpire(epoch) },
	)

	q := s.bank.Get(index)
	s.broadcast.Everyone(ws.NewMessage(ws.TypeNewQuestion, ws.NewQuestionPayload{
		Prompt:           q.Prompt,
		Choices:          q.Choices,
		QuestionNumber:   index + 1,
		TotalQuestions:   s.bank.Count(),
		TimeLimitSeconds: s.questionSeconds,
	}))
	s.broadcast.Moderators(ws.NewMessage(ws.TypeGameState, s.snapshotLocked()))

	s.logger.Info().Int("question_index", index).Int("seconds", s.questionSeconds).Msg("question started")
	return nil
}

// onTick is the countdown's per-second callback. The sole state change the
// timer may trigger on its own is the decrement and, at zero, the close.
func (s *Session) onTick(epoch uint64, remaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		// Tick from a superseded countdown; discard.
		return
	}

	s.secondsRemaining = remaining
	s.broadcast.Everyone(ws.NewMessage(ws.TypeTimerTick, ws.TimerTickPayload{SecondsRemaining: remaining}))
}

func (s *Session) onExpire(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return
	}

	s.accepting = false
	s.broadcast.Everyone(ws.NewMessage(ws.TypeTimeExpired, nil))
	s.logger.Info().Int("question_index", s.activeIndex).Msg("question time expired")
}

// SubmitAnswer records a team's choice for the active question. Only
// accepted while the window is open and the slot has joined; a repeat
// submission overwrites the previous one (last write before close wins).
func (s *Session) SubmitAnswer(slotID string, choiceIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if choiceIndex < 0 || choiceIndex >= choicesPerQuestion {
		return ErrInvalidChoice
	}
	if !s.accepting {
		return ErrNotAccepting
	}
	if !s.registry.Joined(slotID) {
		return ErrUnknownSlot
	}

	s.answers[slotID] = choiceIndex
	s.broadcast.Moderators(ws.NewMessage(ws.TypeGameState, s.snapshotLocked()))
	return nil
}

// RevealAnswers closes the question, discloses the correct choice and
// applies the award to every correct slot. Idempotent: the scoring pass
// runs exactly once per question; a second call is a no-op.
func (s *Session) RevealAnswers() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeIndex < 0 {
		return ErrNoActiveQuestion
	}
	if s.revealed {
		return nil
	}

	s.epoch++
	s.timer.Cancel()
	s.accepting = false
	s.revealed = true

	q := s.bank.Get(s.activeIndex)
	for slotID, choice := range s.answers {
		if choice == q.CorrectChoiceIndex {
			s.scores[slotID] += s.pointsPerCorrect
		}
	}

	snapshot := s.snapshotLocked()
	s.broadcast.Everyone(ws.NewMessage(ws.TypeAnswersRevealed, ws.AnswersRevealedPayload{
		CorrectChoiceIndex: q.CorrectChoiceIndex,
		Teams:              snapshot.Teams,
		Explanation:        q.Explanation,
	}))
	s.broadcast.Moderators(ws.NewMessage(ws.TypeGameState, snapshot))

	s.logger.Info().Int("question_index", s.activeIndex).Int("correct_choice", q.CorrectChoiceIndex).Msg("answers revealed")
	return nil
}

// ResetGame restores the initial session state: no active question, all
// scores zero, all slots empty and disconnected. Always valid.
func (s *Session) ResetGame() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.timer.Cancel()

	s.activeIndex = -1
	s.accepting = false
	s.revealed = false
	s.secondsRemaining = s.questionSeconds
	s.answers = make(map[string]int)
	for id := range s.scores {
		s.scores[id] = 0
	}
	s.registry.ResetJoinState()

	s.broadcast.Everyone(ws.NewMessage(ws.TypeGameReset, nil))
	s.broadcast.Moderators(ws.NewMessage(ws.TypeGameState, s.snapshotLocked()))

	s.logger.Info().Msg("game reset")
}

// JoinTeam admits a team by possession token and returns the bound slot.
// Unknown tokens are an authorization failure with no state change.
func (s *Session) JoinTeam(token, displayName string) (string, error) {
	slotID, ok := s.registry.Resolve(token)
	if !ok {
		return "", ErrInvalidToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.registry.MarkJoined(slotID, displayName)
	s.broadcast.Moderators(ws.NewMessage(ws.TypeGameState, s.snapshotLocked()))
	return slotID, nil
}

// MarkDisconnected flips a slot's connected flag when its connection
// drops. Not an error; the slot keeps its name, score and answer.
func (s *Session) MarkDisconnected(slotID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registry.MarkDisconnected(slotID)
	s.broadcast.Moderators(ws.NewMessage(ws.TypeGameState, s.snapshotLocked()))
}

// ActiveQuestionIndex returns the current question index, -1 when none.
func (s *Session) ActiveQuestionIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeIndex
}

// Snapshot returns the full current state for client resynchronization.
func (s *Session) Snapshot() ws.StatePayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() ws.StatePayload {
	teams := make(map[string]ws.TeamView, len(s.scores))
	for _, info := range s.registry.Slots() {
		view := ws.TeamView{
			DisplayName: info.DisplayName,
			Score:       s.scores[info.ID],
			Connected:   info.Connected,
		}
		if choice, ok := s.answers[info.ID]; ok {
			c := choice
			view.SubmittedAnswer = &c
		}
		teams[info.ID] = view
	}

	state := ws.StatePayload{
		ActiveQuestionIndex: s.activeIndex,
		QuestionIsAccepting: s.accepting,
		AnswersRevealed:     s.revealed,
		SecondsRemaining:    s.secondsRemaining,
		Teams:               teams,
	}
	if s.activeIndex >= 0 {
		q := s.bank.Get(s.activeIndex)
		state.Question = &ws.NewQuestionPayload{
			Prompt:           q.Prompt,
			Choices:          q.Choices,
			QuestionNumber:   s.activeIndex + 1,
			TotalQuestions:   s.bank.Count(),
			TimeLimitSeconds: s.questionSeconds,
		}
	}
	return state
}
