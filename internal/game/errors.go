package game

import "errors"

var (
	// ErrIndexOutOfRange rejects a question index outside the loaded bank.
	ErrIndexOutOfRange = errors.New("question index out of range")
	// ErrInvalidChoice rejects an answer choice outside 0..3.
	ErrInvalidChoice = errors.New("choice index out of range")
	// ErrInvalidToken rejects an unknown join token. Authorization failure,
	// never fatal to the process.
	ErrInvalidToken = errors.New("invalid team token")
	// ErrUnknownSlot rejects an answer from a slot that never joined.
	ErrUnknownSlot = errors.New("unknown or unjoined team slot")
	// ErrNotAccepting rejects an answer outside the accepting window.
	ErrNotAccepting = errors.New("question is not accepting answers")
	// ErrNoActiveQuestion rejects a reveal before any question started.
	ErrNoActiveQuestion = errors.New("no active question")
)
