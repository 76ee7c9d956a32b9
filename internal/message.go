package internal

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Inbound command types
const (
	CmdCreateRoom     = "CREATE_ROOM"
	CmdJoinRoom       = "JOIN_ROOM"
	CmdPlayerReady    = "PLAYER_READY"
	CmdSelectPanel    = "SELECT_PANEL"
	CmdUpdateSettings = "UPDATE_SETTINGS"
	CmdStartGame      = "START_GAME"
	CmdSubmitAnswer   = "SUBMIT_ANSWER"
	CmdNextQuestion   = "NEXT_QUESTION"
	CmdPlayAgain      = "PLAY_AGAIN"
	CmdChatMessage    = "CHAT_MESSAGE"
	CmdLeaveRoom      = "LEAVE_ROOM"
)

// Outbound event types
const (
	EventRoomCreated       = "ROOM_CREATED"
	EventRoomJoined        = "ROOM_JOINED"
	EventPlayerJoined      = "PLAYER_JOINED"
	EventPlayerReadyUpdate = "PLAYER_READY_UPDATE"
	EventPanelSelected     = "PANEL_SELECTED"
	EventSettingsUpdated   = "SETTINGS_UPDATED"
	EventPlayerLeft        = "PLAYER_LEFT"
	EventGameStarted       = "GAME_STARTED"
	EventPlayerAnswered    = "PLAYER_ANSWERED"
	EventRoundResults      = "ROUND_RESULTS"
	EventNewQuestion       = "NEW_QUESTION"
	EventGameFinished      = "GAME_FINISHED"
	EventRoomReset         = "ROOM_RESET"
	EventChatMessage       = "CHAT_MESSAGE"
	EventRoomExpired       = "ROOM_EXPIRED"
	EventError             = "ERROR"
)

// Envelope is decoded first to route a raw message by its discriminator.
type Envelope struct {
	Type string `json:"type"`
}

// AnswerValue accepts any JSON scalar and keeps its textual form; null becomes "".
type AnswerValue string

func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AnswerValue(s)
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*a = AnswerValue(strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		*a = AnswerValue(strconv.FormatBool(t))
	default:
		// objects and arrays compare by their compact encoding
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*a = AnswerValue(buf.String())
	}
	return nil
}

type CreateRoomCommand struct {
	PlayerName string         `json:"playerName"`
	AvatarId   string         `json:"avatarId"`
	MaxPlayers int            `json:"maxPlayers,omitempty"`
	Variant    string         `json:"variant,omitempty"`
	Settings   *SettingsPatch `json:"settings,omitempty"`
}

type JoinRoomCommand struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
	AvatarId   string `json:"avatarId"`
}

type PlayerReadyCommand struct {
	Ready bool `json:"ready"`
}

type SelectPanelCommand struct {
	PanelId   string `json:"panelId"`
	PanelName string `json:"panelName"`
}

type UpdateSettingsCommand struct {
	SettingsPatch
}

type StartGameCommand struct {
	Questions []json.RawMessage `json:"questions"`
	Metadata  json.RawMessage   `json:"metadata,omitempty"`
}

type SubmitAnswerCommand struct {
	Answer        AnswerValue `json:"answer"`
	CorrectAnswer AnswerValue `json:"correctAnswer"`
	Points        int         `json:"points"`
}

type ChatMessageCommand struct {
	Message string `json:"message"`
}

type RoomCreatedEvent struct {
	Type     string       `json:"type"`
	PlayerId string       `json:"playerId"`
	Room     RoomSnapshot `json:"room"`
}

type RoomJoinedEvent struct {
	Type        string        `json:"type"`
	PlayerId    string        `json:"playerId"`
	Room        RoomSnapshot  `json:"room"`
	ChatHistory []ChatMessage `json:"chatHistory"`
}

type PlayerJoinedEvent struct {
	Type   string         `json:"type"`
	Player PlayerSnapshot `json:"player"`
	Room   RoomSnapshot   `json:"room"`
}

type PlayerReadyUpdateEvent struct {
	Type     string       `json:"type"`
	PlayerId string       `json:"playerId"`
	Ready    bool         `json:"ready"`
	Room     RoomSnapshot `json:"room"`
}

type SettingsUpdatedEvent struct {
	Type     string       `json:"type"`
	Settings Settings     `json:"settings"`
	Room     RoomSnapshot `json:"room"`
}

type PanelSelectedEvent struct {
	Type      string       `json:"type"`
	PanelId   string       `json:"panelId"`
	PanelName string       `json:"panelName"`
	Room      RoomSnapshot `json:"room"`
}

type PlayerLeftEvent struct {
	Type       string       `json:"type"`
	PlayerId   string       `json:"playerId"`
	PlayerName string       `json:"playerName"`
	NewHostId  string       `json:"newHostId,omitempty"`
	Room       RoomSnapshot `json:"room"`
}

type QuestionEvent struct {
	Type           string          `json:"type"`
	QuestionIndex  int             `json:"questionIndex"`
	TotalQuestions int             `json:"totalQuestions"`
	Question       json.RawMessage `json:"question"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	TimeLimit      int             `json:"timeLimit"`
	Deadline       int64           `json:"deadline,omitempty"`
	Room           RoomSnapshot    `json:"room"`
}

type PlayerAnsweredEvent struct {
	Type          string `json:"type"`
	PlayerId      string `json:"playerId"`
	AnsweredCount int    `json:"answeredCount"`
	TotalPlayers  int    `json:"totalPlayers"`
}

type RoundResultsEvent struct {
	Type          string        `json:"type"`
	QuestionIndex int           `json:"questionIndex"`
	Results       []RoundResult `json:"results"`
	Forced        bool          `json:"forced"`
	IsLastRound   bool          `json:"isLastRound"`
	Room          RoomSnapshot  `json:"room"`
}

type GameFinishedEvent struct {
	Type      string       `json:"type"`
	Standings []Standing   `json:"standings"`
	Winner    *Standing    `json:"winner"`
	IsDraw    bool         `json:"isDraw"`
	TiedNames []string     `json:"tiedNames,omitempty"`
	Room      RoomSnapshot `json:"room"`
}

type RoomResetEvent struct {
	Type string       `json:"type"`
	Room RoomSnapshot `json:"room"`
}

type ChatMessageEvent struct {
	Type    string      `json:"type"`
	Message ChatMessage `json:"message"`
}

type RoomExpiredEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
