package internal

import (
	"time"
)

// Conn is the live transport handle owned by a player session. Send must not block.
type Conn interface {
	Send(data []byte) error
	Close()
}

type Player struct {
	Id       string `json:"id"`
	Name     string `json:"name"`
	AvatarId string `json:"avatarId"`
	Score    int    `json:"score"`
	IsReady  bool   `json:"ready"`

	JoinedAt time.Time `json:"joinedAt"`

	Conn Conn `json:"-"`
}

type PlayerSnapshot struct {
	Id       string `json:"id"`
	Name     string `json:"name"`
	AvatarId string `json:"avatarId"`
	Score    int    `json:"score"`
	IsReady  bool   `json:"ready"`
	IsHost   bool   `json:"isHost"`
}

func NewPlayer(id, name, avatarId string, conn Conn, now time.Time) *Player {
	if name == "" {
		name = "Player"
	}
	return &Player{
		Id:       id,
		Name:     name,
		AvatarId: avatarId,
		JoinedAt: now,
		Conn:     conn,
	}
}

func CreatePlayerSnapshot(p *Player, hostId string) PlayerSnapshot {
	return PlayerSnapshot{
		Id:       p.Id,
		Name:     p.Name,
		AvatarId: p.AvatarId,
		Score:    p.Score,
		IsReady:  p.IsReady,
		IsHost:   p.Id == hostId,
	}
}

// ResetForNewGame clears per-game state. Readiness is decided by the caller.
func (p *Player) ResetForNewGame() {
	p.Score = 0
	p.IsReady = false
}

// SafeSend hands an encoded message to the player's socket, if any.
func (p *Player) SafeSend(data []byte) error {
	if p.Conn == nil {
		return ErrTransport
	}
	return p.Conn.Send(data)
}
