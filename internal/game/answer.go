package game

import (
	"math"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/quizroom-backend/internal"
)

// =============================================================================
// ANSWER AGGREGATION
// =============================================================================

// SubmitAnswer records the player's answer for the current question. A repeat submission
// before resolution replaces the earlier one. Submissions outside an open round are ignored.
//
// The correct answer and point value are declared by the client and trusted as-is.
func (c *Coordinator) SubmitAnswer(playerId string, cmd internal.SubmitAnswerCommand) error {
	room := c.lockPlayerRoom(playerId)
	if room == nil {
		return internal.ErrNotInRoom
	}
	defer room.Mu.Unlock()

	if room.Status != internal.StatusPlaying || room.RoundResolved {
		log.Debug().Str("room", room.Code).Str("player", playerId).Msg("[SubmitAnswer] no open round, ignoring")
		return nil
	}

	room.PendingAnswers[playerId] = internal.PendingAnswer{
		Answer:        string(cmd.Answer),
		CorrectAnswer: string(cmd.CorrectAnswer),
		Points:        max(cmd.Points, 0),
		ReceivedAt:    c.opts.Now(),
	}

	log.Debug().Str("room", room.Code).Str("player", playerId).
		Int("answered", len(room.PendingAnswers)).Int("players", room.GetPlayerCount()).
		Msg("[SubmitAnswer] answer recorded")

	broadcastToRoom(room, internal.PlayerAnsweredEvent{
		Type:          internal.EventPlayerAnswered,
		PlayerId:      playerId,
		AnsweredCount: len(room.PendingAnswers),
		TotalPlayers:  room.GetPlayerCount(),
	}, "")

	if room.IsRoundComplete() {
		c.resolveRound(room, false)
	}
	return nil
}

// resolveRound scores every pending answer in one pass, broadcasts ROUND_RESULTS and closes
// the round. Players without a pending answer are left out. Caller holds room.Mu.
func (c *Coordinator) resolveRound(room *internal.Room, forced bool) {
	cancelRoundTimer(room)

	results := make([]internal.RoundResult, 0, len(room.PendingAnswers))
	for _, player := range room.OrderedPlayers() {
		pending, ok := room.PendingAnswers[player.Id]
		if !ok {
			continue
		}

		// an empty answer is the "no answer" sentinel and never scores
		correct := pending.Answer != "" && pending.Answer == pending.CorrectAnswer
		awarded := 0
		if correct {
			awarded = pending.Points
			player.Score = addScore(player.Score, awarded)
		}

		results = append(results, internal.RoundResult{
			PlayerId:  player.Id,
			Name:      player.Name,
			Answer:    pending.Answer,
			IsCorrect: correct,
			Points:    awarded,
			Score:     player.Score,
		})
	}

	room.PendingAnswers = make(map[string]internal.PendingAnswer)
	room.RoundResolved = true

	log.Info().Str("room", room.Code).Int("question", room.CurrentQuestionIndex).
		Int("results", len(results)).Bool("forced", forced).Msg("[ResolveRound] round resolved")

	broadcastToRoom(room, internal.RoundResultsEvent{
		Type:          internal.EventRoundResults,
		QuestionIndex: room.CurrentQuestionIndex,
		Results:       results,
		Forced:        forced,
		IsLastRound:   !room.HasNextQuestion(),
		Room:          room.Snapshot(),
	}, "")
}

// addScore saturates at math.MaxInt so a score never wraps negative.
func addScore(score, points int) int {
	if points > math.MaxInt-score {
		return math.MaxInt
	}
	return score + points
}
