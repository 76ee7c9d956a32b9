package internal

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrGameAlreadyStarted  = errors.New("game already started")
	ErrRoomFull            = errors.New("room is full")
	ErrNotAllReady         = errors.New("not all players are ready")
	ErrInsufficientPlayers = errors.New("not enough players to start")
	ErrHostOnlyAction      = errors.New("only the host can do that")
	ErrMalformedMessage    = errors.New("malformed message")
	ErrTransport           = errors.New("transport error")

	ErrNotInRoom       = errors.New("not in a room")
	ErrAlreadyInRoom   = errors.New("already in a room")
	ErrNoQuestions     = errors.New("no questions supplied")
	ErrInvalidState    = errors.New("action not allowed right now")
	ErrInvalidSettings = errors.New("invalid settings")
	ErrWrongVariant    = errors.New("action not available for this game variant")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrRoomNotFound, "RoomNotFound"},
	{ErrGameAlreadyStarted, "GameAlreadyStarted"},
	{ErrRoomFull, "RoomFull"},
	{ErrNotAllReady, "NotAllReady"},
	{ErrInsufficientPlayers, "InsufficientPlayers"},
	{ErrHostOnlyAction, "HostOnlyAction"},
	{ErrMalformedMessage, "MalformedMessage"},
	{ErrTransport, "TransportError"},
	{ErrNotInRoom, "NotInRoom"},
	{ErrAlreadyInRoom, "AlreadyInRoom"},
	{ErrNoQuestions, "NoQuestions"},
	{ErrInvalidState, "InvalidState"},
	{ErrInvalidSettings, "InvalidSettings"},
	{ErrWrongVariant, "WrongVariant"},
}

// ErrorCode maps an error to its taxonomy name, "Internal" when it is not one of ours.
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "Internal"
}
