package game

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/quizroom-backend/internal"
	"github.com/scythe504/quizroom-backend/internal/utils"
)

// =============================================================================
// GAME FLOW - QUESTIONS & FINISH
// =============================================================================

// NextQuestion advances to the next question, or finishes the game after the last one.
// Only the host (or a lone player) may advance. An open round is force-resolved first.
func (c *Coordinator) NextQuestion(playerId string) error {
	room := c.lockPlayerRoom(playerId)
	if room == nil {
		return internal.ErrNotInRoom
	}
	defer room.Mu.Unlock()

	if room.Status != internal.StatusPlaying {
		return internal.ErrInvalidState
	}
	if !room.CanControl(playerId) {
		return internal.ErrHostOnlyAction
	}

	if !room.RoundResolved {
		log.Info().Str("room", room.Code).Str("player", playerId).Msg("[NextQuestion] host forced resolution")
		c.resolveRound(room, true)
	}

	if !room.HasNextQuestion() {
		c.finishGame(room)
		return nil
	}

	room.CurrentQuestionIndex++
	room.ClearRound()
	c.startRoundTimer(room)

	log.Info().Str("room", room.Code).Int("question", room.CurrentQuestionIndex).
		Int("total", len(room.Questions)).Msg("[NextQuestion] question advanced")

	broadcastToRoom(room, questionEvent(room, internal.EventNewQuestion), "")
	return nil
}

// finishGame moves the room to finished and announces the standings. Caller holds room.Mu.
func (c *Coordinator) finishGame(room *internal.Room) {
	cancelRoundTimer(room)
	room.Status = internal.StatusFinished
	room.PendingAnswers = make(map[string]internal.PendingAnswer)

	final := CalculateFinalStandings(room)

	log.Info().Str("room", room.Code).Bool("draw", final.IsDraw).Int("players", len(final.Standings)).
		Msg("[FinishGame] game finished")

	broadcastToRoom(room, internal.GameFinishedEvent{
		Type:      internal.EventGameFinished,
		Standings: final.Standings,
		Winner:    final.Winner,
		IsDraw:    final.IsDraw,
		TiedNames: final.TiedNames,
		Room:      room.Snapshot(),
	}, "")

	result := internal.GameResult{
		Id:         utils.GenerateID(),
		RoomCode:   room.Code,
		Variant:    room.Variant.Name,
		FinishedAt: c.opts.Now(),
		IsDraw:     final.IsDraw,
		Standings:  final.Standings,
	}
	if final.Winner != nil {
		winnerId := final.Winner.PlayerId
		result.WinnerId = &winnerId
	}
	go c.recordResult(result)
}

func (c *Coordinator) recordResult(result internal.GameResult) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := c.opts.Recorder.RecordResult(ctx, result); err != nil {
		log.Error().Err(err).Str("room", result.RoomCode).Msg("[RecordResult] failed to archive result")
	}
}

// questionEvent builds GAME_STARTED / NEW_QUESTION for the current question. Caller holds room.Mu.
func questionEvent(room *internal.Room, eventType string) internal.QuestionEvent {
	timeLimit, deadline := timerFields(room)
	event := internal.QuestionEvent{
		Type:           eventType,
		QuestionIndex:  room.CurrentQuestionIndex,
		TotalQuestions: len(room.Questions),
		Question:       room.CurrentQuestion(),
		TimeLimit:      timeLimit,
		Deadline:       deadline,
		Room:           room.Snapshot(),
	}
	if eventType == internal.EventGameStarted {
		event.Metadata = room.Metadata
	}
	return event
}
