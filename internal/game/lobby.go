package game

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/quizroom-backend/internal"
	"github.com/scythe504/quizroom-backend/internal/utils"
)

// =============================================================================
// GAME FLOW - LOBBY & INITIALIZATION
// =============================================================================

// HandlePlayerReady sets the player's readiness and rebroadcasts the room.
func (c *Coordinator) HandlePlayerReady(playerId string, ready bool) error {
	room := c.lockPlayerRoom(playerId)
	if room == nil {
		return internal.ErrNotInRoom
	}
	defer room.Mu.Unlock()

	room.Players[playerId].IsReady = ready

	log.Debug().Str("room", room.Code).Str("player", playerId).Bool("ready", ready).
		Msg("[HandlePlayerReady] readiness changed")

	broadcastToRoom(room, internal.PlayerReadyUpdateEvent{
		Type:     internal.EventPlayerReadyUpdate,
		PlayerId: playerId,
		Ready:    ready,
		Room:     room.Snapshot(),
	}, "")
	return nil
}

// lockLobbyForHost locks the player's room for a host-only lobby change.
func (c *Coordinator) lockLobbyForHost(playerId string) (*internal.Room, error) {
	room := c.lockPlayerRoom(playerId)
	if room == nil {
		return nil, internal.ErrNotInRoom
	}
	if room.Status != internal.StatusWaiting {
		room.Mu.Unlock()
		return nil, internal.ErrGameAlreadyStarted
	}
	if !room.IsHost(playerId) {
		room.Mu.Unlock()
		return nil, internal.ErrHostOnlyAction
	}
	return room, nil
}

// UpdateSettings applies a host's settings change while the room is waiting.
func (c *Coordinator) UpdateSettings(playerId string, patch internal.SettingsPatch) error {
	room, err := c.lockLobbyForHost(playerId)
	if err != nil {
		return err
	}
	defer room.Mu.Unlock()

	if !room.Variant.UsesSettings {
		return internal.ErrWrongVariant
	}
	settings, err := room.Variant.Apply(room.Settings, patch)
	if err != nil {
		return err
	}
	room.Settings = settings

	log.Info().Str("room", room.Code).Interface("settings", settings).Msg("[UpdateSettings] settings changed")

	broadcastToRoom(room, internal.SettingsUpdatedEvent{
		Type:     internal.EventSettingsUpdated,
		Settings: settings,
		Room:     room.Snapshot(),
	}, "")
	return nil
}

// SelectPanel records the host's panel choice for the panel variant.
func (c *Coordinator) SelectPanel(playerId string, cmd internal.SelectPanelCommand) error {
	room, err := c.lockLobbyForHost(playerId)
	if err != nil {
		return err
	}
	defer room.Mu.Unlock()

	if !room.Variant.UsesPanels {
		return internal.ErrWrongVariant
	}
	room.Settings.PanelId = cmd.PanelId
	room.Settings.PanelName = cmd.PanelName

	broadcastToRoom(room, internal.PanelSelectedEvent{
		Type:      internal.EventPanelSelected,
		PanelId:   cmd.PanelId,
		PanelName: cmd.PanelName,
		Room:      room.Snapshot(),
	}, "")
	return nil
}

// PostChatMessage appends a lobby chat line. Outside the lobby it is silently dropped.
func (c *Coordinator) PostChatMessage(playerId string, text string) error {
	room := c.lockPlayerRoom(playerId)
	if room == nil {
		return internal.ErrNotInRoom
	}
	defer room.Mu.Unlock()

	if room.Status != internal.StatusWaiting {
		return nil
	}
	text = utils.TruncateUTF16(strings.TrimSpace(text), internal.MaxChatLength)
	if text == "" {
		return nil
	}

	player := room.Players[playerId]
	msg := internal.ChatMessage{
		Id:         utils.GenerateID(),
		PlayerId:   player.Id,
		PlayerName: player.Name,
		AvatarId:   player.AvatarId,
		Message:    text,
		Timestamp:  c.opts.Now().UnixMilli(),
	}
	room.AppendChat(msg)

	broadcastToRoom(room, internal.ChatMessageEvent{
		Type:    internal.EventChatMessage,
		Message: msg,
	}, "")
	return nil
}

// StartGame moves a waiting room into play with the host-supplied questions.
func (c *Coordinator) StartGame(playerId string, cmd internal.StartGameCommand) error {
	room := c.lockPlayerRoom(playerId)
	if room == nil {
		return internal.ErrNotInRoom
	}
	defer room.Mu.Unlock()

	if room.Status != internal.StatusWaiting {
		return internal.ErrGameAlreadyStarted
	}
	if !room.IsHost(playerId) {
		return internal.ErrHostOnlyAction
	}
	if !room.CanStartGame() {
		log.Info().Str("room", room.Code).Int("players", room.GetPlayerCount()).Msg("[StartGame] not enough players")
		return internal.ErrInsufficientPlayers
	}
	if !room.AreAllPlayersReady() {
		log.Info().Str("room", room.Code).Msg("[StartGame] not all players ready")
		return internal.ErrNotAllReady
	}
	if len(cmd.Questions) == 0 {
		return internal.ErrNoQuestions
	}

	room.Status = internal.StatusPlaying
	room.CurrentQuestionIndex = 0
	room.Questions = cmd.Questions
	room.Metadata = cmd.Metadata
	room.ClearRound()
	c.startRoundTimer(room)

	log.Info().Str("room", room.Code).Int("players", room.GetPlayerCount()).
		Int("questions", len(room.Questions)).Msg("[StartGame] game started")

	broadcastToRoom(room, questionEvent(room, internal.EventGameStarted), "")
	return nil
}

// PlayAgain returns a finished room to the lobby with scores cleared.
func (c *Coordinator) PlayAgain(playerId string) error {
	room := c.lockPlayerRoom(playerId)
	if room == nil {
		return internal.ErrNotInRoom
	}
	defer room.Mu.Unlock()

	if room.Status != internal.StatusFinished {
		return internal.ErrInvalidState
	}
	if !room.CanControl(playerId) {
		return internal.ErrHostOnlyAction
	}

	cancelRoundTimer(room)
	room.ResetToLobby()

	log.Info().Str("room", room.Code).Msg("[PlayAgain] room reset to lobby")

	broadcastToRoom(room, internal.RoomResetEvent{
		Type: internal.EventRoomReset,
		Room: room.Snapshot(),
	}, "")
	return nil
}
