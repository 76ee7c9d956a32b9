package game

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/quizroom-backend/internal"
)

// =============================================================================
// BROADCAST LAYER
// =============================================================================

// broadcastToRoom encodes msg once and queues it on every member socket except excludeId.
// The caller holds room.Mu, which keeps per-room delivery in mutation order. Delivery is
// fire-and-forget.
func broadcastToRoom(room *internal.Room, msg any, excludeId string) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("room", room.Code).Msg("[Broadcast] marshal failed")
		return
	}

	sent := 0
	for _, player := range room.OrderedPlayers() {
		if player.Id == excludeId {
			continue
		}
		if err := player.SafeSend(data); err != nil {
			log.Warn().Err(err).Str("room", room.Code).Str("player", player.Id).Msg("[Broadcast] send failed")
			continue
		}
		sent++
	}
	log.Debug().Str("room", room.Code).Int("sent", sent).Int("players", room.GetPlayerCount()).
		Msg("[Broadcast] delivered")
}

// sendTo delivers msg to a single connection.
func sendTo(conn internal.Conn, msg any) {
	if conn == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("[sendTo] marshal failed")
		return
	}
	if err := conn.Send(data); err != nil {
		log.Warn().Err(err).Msg("[sendTo] send failed")
	}
}

// sendError reports a failed command to its originator only.
func sendError(conn internal.Conn, err error) {
	sendTo(conn, internal.ErrorEvent{
		Type:    internal.EventError,
		Code:    internal.ErrorCode(err),
		Message: err.Error(),
	})
}
