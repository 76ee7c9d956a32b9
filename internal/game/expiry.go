package game

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/quizroom-backend/internal"
)

// =============================================================================
// ROOM EXPIRY
// =============================================================================

// ExpireRooms force-closes every room older than the TTL: members get ROOM_EXPIRED, their
// sockets are closed and the code is released. It returns the number of rooms closed.
func (c *Coordinator) ExpireRooms(now time.Time) int {
	closed := 0
	for _, room := range c.registry.Expired(now, c.opts.RoomTTL) {
		if c.closeRoom(room) {
			closed++
		}
	}
	return closed
}

func (c *Coordinator) closeRoom(room *internal.Room) bool {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Closed {
		return false
	}
	cancelRoundTimer(room)

	broadcastToRoom(room, internal.RoomExpiredEvent{
		Type:    internal.EventRoomExpired,
		Code:    room.Code,
		Message: "This room has expired.",
	}, "")

	for _, player := range room.Players {
		if player.Conn != nil {
			player.Conn.Close()
		}
	}
	c.registry.DeleteRoom(room)

	log.Info().Str("room", room.Code).Int("players", room.GetPlayerCount()).
		Dur("age", c.opts.Now().Sub(room.CreatedAt)).Msg("[CleanupRoom] room expired")
	return true
}

// RunSweeper checks for expired rooms every SweepInterval until ctx is done.
func (c *Coordinator) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(c.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.ExpireRooms(c.opts.Now()); n > 0 {
				log.Info().Int("rooms", n).Msg("[RunSweeper] expired rooms closed")
			}
		}
	}
}
