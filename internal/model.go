package internal

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

const (
	MaxPlayersPerRoom = 8
	MinPlayersToStart = 2
	MaxChatHistory    = 50
	MaxChatLength     = 200
	RoomCodeLength    = 6

	DefaultRoomTTL       = 2 * time.Hour
	DefaultSweepInterval = 60 * time.Second
	DefaultPingInterval  = 25 * time.Second
)

type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusPlaying  RoomStatus = "playing"
	StatusFinished RoomStatus = "finished"
)

// PendingAnswer is one player's submission for the question currently on screen.
// The correct answer and point value are the ones declared by the submitting client.
type PendingAnswer struct {
	Answer        string    `json:"answer"`
	CorrectAnswer string    `json:"-"`
	Points        int       `json:"-"`
	ReceivedAt    time.Time `json:"receivedAt"`
}

type ChatMessage struct {
	Id         string `json:"id"`
	PlayerId   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	AvatarId   string `json:"avatarId"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
}

type RoundTimer struct {
	QuestionIndex int           `json:"questionIndex"`
	StartTime     time.Time     `json:"startTime"`
	Duration      time.Duration `json:"duration"`
	Context       context.Context
	Cancel        context.CancelFunc
}

// Deadline is the instant the round is force-resolved.
func (t *RoundTimer) Deadline() time.Time {
	return t.StartTime.Add(t.Duration)
}

type Room struct {
	Id         string     `json:"id"`
	Code       string     `json:"code"`
	HostId     string     `json:"hostId"`
	Status     RoomStatus `json:"status"`
	MaxPlayers int        `json:"maxPlayers"`
	Variant    Variant    `json:"-"`
	Settings   Settings   `json:"settings"`
	CreatedAt  time.Time  `json:"createdAt"`

	// Membership; PlayerOrder keeps join order for host migration and stable listings
	Players     map[string]*Player `json:"-"`
	PlayerOrder []string           `json:"-"`

	// Game state
	CurrentQuestionIndex int                      `json:"currentQuestionIndex"`
	Questions            []json.RawMessage        `json:"-"`
	Metadata             json.RawMessage          `json:"-"`
	PendingAnswers       map[string]PendingAnswer `json:"-"`
	RoundResolved        bool                     `json:"-"`

	ChatHistory []ChatMessage `json:"-"`

	Timer *RoundTimer `json:"-"`

	// Closed is set once the room has been removed from the registry
	Closed bool `json:"-"`

	Mu sync.RWMutex `json:"-"`
}

type Standing struct {
	Rank     int    `json:"rank"`
	PlayerId string `json:"playerId"`
	Name     string `json:"name"`
	AvatarId string `json:"avatarId"`
	Score    int    `json:"score"`
}

type RoundResult struct {
	PlayerId  string `json:"playerId"`
	Name      string `json:"name"`
	Answer    string `json:"answer"`
	IsCorrect bool   `json:"isCorrect"`
	Points    int    `json:"points"`
	Score     int    `json:"score"`
}

// GameResult is the archived outcome of one finished game.
type GameResult struct {
	Id         string     `json:"id"`
	RoomCode   string     `json:"roomCode"`
	Variant    string     `json:"variant"`
	FinishedAt time.Time  `json:"finishedAt"`
	IsDraw     bool       `json:"isDraw"`
	WinnerId   *string    `json:"winnerId"`
	Standings  []Standing `json:"standings"`
}

// Response is the envelope for the plain HTTP endpoints.
type Response struct {
	StatusCode    int   `json:"status_code"`
	RespStartTime int64 `json:"resp_time_start_ms"`
	RespEndTime   int64 `json:"resp_time_end_ms"`
	NetRespTime   int64 `json:"net_resp_time_ms"`
	Data          any   `json:"data"`
}
