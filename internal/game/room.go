package game

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/quizroom-backend/internal"
	"github.com/scythe504/quizroom-backend/internal/utils"
)

// =============================================================================
// ROOM REGISTRY
// =============================================================================

// Registry maps room codes to rooms and player ids to room codes. It never broadcasts.
//
// Lock order is always room.Mu before Registry.mu. Methods that take a *internal.Room
// expect the caller to already hold that room's Mu.
type Registry struct {
	mu          sync.RWMutex
	rooms       map[string]*internal.Room
	playerRooms map[string]string

	newCode func() string
}

// Removal describes what removing a player did to its room.
type Removal struct {
	Player      *internal.Player
	WasHost     bool
	NewHost     *internal.Player
	RoomDeleted bool
}

func NewRegistry(newCode func() string) *Registry {
	if newCode == nil {
		newCode = utils.GenerateRoomCode
	}
	return &Registry{
		rooms:       make(map[string]*internal.Room),
		playerRooms: make(map[string]string),
		newCode:     newCode,
	}
}

// CreateRoom allocates a unique code and registers room with host as its only member.
// The caller must hold room.Mu so nobody observes the room before it is announced.
func (r *Registry) CreateRoom(room *internal.Room, host *internal.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := r.newCode()
	for attempts := 1; ; attempts++ {
		if _, taken := r.rooms[code]; !taken {
			break
		}
		log.Debug().Str("code", code).Int("attempt", attempts).Msg("[CreateRoom] code collision, retrying")
		code = r.newCode()
	}

	room.Code = code
	room.HostId = host.Id
	host.IsReady = true
	room.AddPlayer(host)

	r.rooms[code] = room
	r.playerRooms[host.Id] = code
}

// Lookup returns the live room for code, or nil.
func (r *Registry) Lookup(code string) *internal.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[code]
}

// JoinRoom admits p into room.
func (r *Registry) JoinRoom(room *internal.Room, p *internal.Player) error {
	if room.Closed {
		return internal.ErrRoomNotFound
	}
	if room.Status != internal.StatusWaiting {
		return internal.ErrGameAlreadyStarted
	}
	if room.IsFull() {
		return internal.ErrRoomFull
	}

	p.IsReady = false
	room.AddPlayer(p)

	r.mu.Lock()
	r.playerRooms[p.Id] = room.Code
	r.mu.Unlock()
	return nil
}

// ResolveRoomForPlayer finds the room a player currently belongs to.
func (r *Registry) ResolveRoomForPlayer(playerId string) *internal.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	code, ok := r.playerRooms[playerId]
	if !ok {
		return nil
	}
	return r.rooms[code]
}

// RemovePlayer drops the player from room and from the index. An emptied room is deleted;
// otherwise a departing host is replaced by the earliest-joined remaining player.
func (r *Registry) RemovePlayer(room *internal.Room, playerId string) (Removal, bool) {
	player := room.RemovePlayer(playerId)
	if player == nil {
		return Removal{}, false
	}

	removal := Removal{Player: player, WasHost: room.HostId == playerId}

	r.mu.Lock()
	delete(r.playerRooms, playerId)
	if room.GetPlayerCount() == 0 {
		if r.rooms[room.Code] == room {
			delete(r.rooms, room.Code)
		}
		room.Closed = true
		removal.RoomDeleted = true
	}
	r.mu.Unlock()

	if removal.WasHost && !removal.RoomDeleted {
		newHost := room.NextHost()
		room.HostId = newHost.Id
		if room.Status == internal.StatusWaiting {
			newHost.IsReady = true
		}
		removal.NewHost = newHost
	}

	return removal, true
}

// DeleteRoom unregisters room and every member. Members keep their sockets; closing them
// is the caller's job.
func (r *Registry) DeleteRoom(room *internal.Room) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range room.Players {
		if r.playerRooms[id] == room.Code {
			delete(r.playerRooms, id)
		}
	}
	if r.rooms[room.Code] == room {
		delete(r.rooms, room.Code)
	}
	room.Closed = true
}

// Expired lists rooms created at or before now-ttl.
func (r *Registry) Expired(now time.Time, ttl time.Duration) []*internal.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	expired := make([]*internal.Room, 0)
	for _, room := range r.rooms {
		// CreatedAt is immutable after creation
		if now.Sub(room.CreatedAt) >= ttl {
			expired = append(expired, room)
		}
	}
	return expired
}

// RoomCount reports the number of live rooms.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
