package domain

import "errors"

var (
	// ErrRoomNotFound is returned when acting on a room with no live session.
	ErrRoomNotFound = errors.New("room not found")
	// ErrNotHost is returned when a non-host tries to control the quiz.
	ErrNotHost = errors.New("only the host can start the quiz")
	// ErrInvalidState rejects an operation illegal in the session's state.
	ErrInvalidState = errors.New("operation not allowed in current state")
	// ErrQuizNotFound indicates the requested custom quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNotInRoom rejects answers from connections that never joined.
	ErrNotInRoom = errors.New("not a player in this room")
	// ErrNoQuestions indicates the question source produced an unplayable set.
	ErrNoQuestions = errors.New("no playable questions")
)
