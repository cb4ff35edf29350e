package errors

import "errors"

// Rule-level rejections returned by the game engine. These are reason codes,
// not faults: a rejected intent never terminates a game instance.
var (
	ErrNotYourTurn        = errors.New("not your turn")
	ErrCardsNotInHand     = errors.New("cards not in hand")
	ErrInvalidCombination = errors.New("invalid card combination")
	ErrCannotBeat         = errors.New("cannot beat current combination")
	ErrMustPlay           = errors.New("cannot pass, must play")
	ErrWrongPhase         = errors.New("not allowed in current game phase")
	ErrSamAlreadyDeclared = errors.New("sam already declared")
	ErrMustHoldOneCard    = errors.New("must have exactly one card")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrGameEnded          = errors.New("game already ended")
)

// Room and lobby errors.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrRoomAccessDenied = errors.New("room access denied")
	ErrWrongPassword    = errors.New("incorrect room password")
	ErrAlreadyInRoom    = errors.New("already in room")
	ErrNotHost          = errors.New("only the host can do that")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrGameInProgress   = errors.New("game already in progress")
	ErrBotsDisabled     = errors.New("bots are disabled")
)

// Account and wallet errors.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidName   = errors.New("invalid player name")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrMoneyDisabled = errors.New("money system disabled")
)
