package internal

import (
	"encoding/json"
	"slices"
	"time"
)

// Methods on Room expect the caller to hold room.Mu.

type RoomSnapshot struct {
	Id                   string           `json:"id"`
	Code                 string           `json:"code"`
	HostId               string           `json:"hostId"`
	Status               RoomStatus       `json:"status"`
	Variant              string           `json:"variant"`
	MaxPlayers           int              `json:"maxPlayers"`
	Settings             Settings         `json:"settings"`
	CurrentQuestionIndex int              `json:"currentQuestionIndex"`
	TotalQuestions       int              `json:"totalQuestions"`
	Players              []PlayerSnapshot `json:"players"`
	CreatedAt            int64            `json:"createdAt"`
}

// RoomSummary is the public, membership-free view served over plain HTTP.
type RoomSummary struct {
	Code       string     `json:"code"`
	Status     RoomStatus `json:"status"`
	Variant    string     `json:"variant"`
	Players    int        `json:"players"`
	MaxPlayers int        `json:"maxPlayers"`
	Joinable   bool       `json:"joinable"`
}

func NewRoom(id string, maxPlayers int, variant Variant, settings Settings, now time.Time) *Room {
	return &Room{
		Id:             id,
		Status:         StatusWaiting,
		MaxPlayers:     maxPlayers,
		Variant:        variant,
		Settings:       settings,
		CreatedAt:      now,
		Players:        make(map[string]*Player),
		PlayerOrder:    make([]string, 0, maxPlayers),
		PendingAnswers: make(map[string]PendingAnswer),
		ChatHistory:    make([]ChatMessage, 0),
	}
}

func (r *Room) AddPlayer(p *Player) {
	if _, exists := r.Players[p.Id]; exists {
		return
	}
	r.Players[p.Id] = p
	r.PlayerOrder = append(r.PlayerOrder, p.Id)
}

// RemovePlayer drops the player from membership and from the open round.
func (r *Room) RemovePlayer(playerId string) *Player {
	p, ok := r.Players[playerId]
	if !ok {
		return nil
	}
	delete(r.Players, playerId)
	delete(r.PendingAnswers, playerId)
	r.PlayerOrder = slices.DeleteFunc(r.PlayerOrder, func(id string) bool {
		return id == playerId
	})
	return p
}

// OrderedPlayers returns members in join order.
func (r *Room) OrderedPlayers() []*Player {
	players := make([]*Player, 0, len(r.PlayerOrder))
	for _, id := range r.PlayerOrder {
		if p, ok := r.Players[id]; ok {
			players = append(players, p)
		}
	}
	return players
}

func (r *Room) GetPlayerCount() int {
	return len(r.Players)
}

func (r *Room) IsFull() bool {
	return len(r.Players) >= r.MaxPlayers
}

func (r *Room) AreAllPlayersReady() bool {
	for _, player := range r.Players {
		if !player.IsReady {
			return false
		}
	}
	return true
}

func (r *Room) CanStartGame() bool {
	return r.GetPlayerCount() >= MinPlayersToStart
}

func (r *Room) IsHost(playerId string) bool {
	return r.HostId == playerId
}

// CanControl reports whether the player may drive the game: the host, or a player left alone.
func (r *Room) CanControl(playerId string) bool {
	if r.IsHost(playerId) {
		return true
	}
	_, member := r.Players[playerId]
	return member && len(r.Players) == 1
}

// NextHost picks the earliest-joined remaining player.
func (r *Room) NextHost() *Player {
	for _, id := range r.PlayerOrder {
		if p, ok := r.Players[id]; ok {
			return p
		}
	}
	return nil
}

// IsRoundComplete is true once every present player has an answer pending.
func (r *Room) IsRoundComplete() bool {
	return len(r.PendingAnswers) > 0 && len(r.PendingAnswers) == len(r.Players)
}

func (r *Room) CurrentQuestion() json.RawMessage {
	if r.CurrentQuestionIndex < 0 || r.CurrentQuestionIndex >= len(r.Questions) {
		return nil
	}
	return r.Questions[r.CurrentQuestionIndex]
}

func (r *Room) HasNextQuestion() bool {
	return r.CurrentQuestionIndex+1 < len(r.Questions)
}

// ClearRound opens a fresh round for the current question.
func (r *Room) ClearRound() {
	r.PendingAnswers = make(map[string]PendingAnswer)
	r.RoundResolved = false
}

// ResetToLobby puts a finished room back to waiting for a new game.
func (r *Room) ResetToLobby() {
	r.Status = StatusWaiting
	r.CurrentQuestionIndex = 0
	r.Questions = nil
	r.Metadata = nil
	r.ClearRound()
	r.ChatHistory = make([]ChatMessage, 0)
	for _, p := range r.Players {
		p.ResetForNewGame()
		p.IsReady = p.Id == r.HostId
	}
}

// AppendChat stores a message and keeps only the most recent MaxChatHistory entries.
func (r *Room) AppendChat(msg ChatMessage) {
	r.ChatHistory = append(r.ChatHistory, msg)
	if over := len(r.ChatHistory) - MaxChatHistory; over > 0 {
		r.ChatHistory = slices.Clone(r.ChatHistory[over:])
	}
}

func (r *Room) Snapshot() RoomSnapshot {
	players := make([]PlayerSnapshot, 0, len(r.Players))
	for _, p := range r.OrderedPlayers() {
		players = append(players, CreatePlayerSnapshot(p, r.HostId))
	}
	return RoomSnapshot{
		Id:                   r.Id,
		Code:                 r.Code,
		HostId:               r.HostId,
		Status:               r.Status,
		Variant:              r.Variant.Name,
		MaxPlayers:           r.MaxPlayers,
		Settings:             r.Settings,
		CurrentQuestionIndex: r.CurrentQuestionIndex,
		TotalQuestions:       len(r.Questions),
		Players:              players,
		CreatedAt:            r.CreatedAt.UnixMilli(),
	}
}

func (r *Room) Summary() RoomSummary {
	return RoomSummary{
		Code:       r.Code,
		Status:     r.Status,
		Variant:    r.Variant.Name,
		Players:    len(r.Players),
		MaxPlayers: r.MaxPlayers,
		Joinable:   r.Status == StatusWaiting && !r.IsFull(),
	}
}
