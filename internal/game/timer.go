package game

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/quizroom-backend/internal"
)

// =============================================================================
// ROUND TIMER
// =============================================================================

// startRoundTimer arms the server countdown for the current question, replacing any previous
// one. A zero limit leaves the round client-driven. Caller holds room.Mu.
func (c *Coordinator) startRoundTimer(room *internal.Room) {
	cancelRoundTimer(room)

	limit := time.Duration(room.Settings.RoundTimeLimit) * time.Second
	if limit <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), limit)
	room.Timer = &internal.RoundTimer{
		QuestionIndex: room.CurrentQuestionIndex,
		StartTime:     c.opts.Now(),
		Duration:      limit,
		Context:       ctx,
		Cancel:        cancel,
	}

	log.Debug().Str("room", room.Code).Int("question", room.CurrentQuestionIndex).Dur("limit", limit).
		Msg("[StartRoundTimer] countdown armed")

	go func() {
		<-ctx.Done()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.expireRound(room, ctx)
		}
	}()
}

// expireRound force-resolves the round the timer was armed for, unless it already moved on.
func (c *Coordinator) expireRound(room *internal.Room, ctx context.Context) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Closed || room.Timer == nil || room.Timer.Context != ctx {
		return
	}
	room.Timer = nil

	if room.Status != internal.StatusPlaying || room.RoundResolved {
		return
	}
	log.Info().Str("room", room.Code).Int("question", room.CurrentQuestionIndex).
		Int("answered", len(room.PendingAnswers)).Msg("[ExpireRound] time is up")
	c.resolveRound(room, true)
}

// cancelRoundTimer stops the countdown, if any. Caller holds room.Mu.
func cancelRoundTimer(room *internal.Room) {
	if room.Timer == nil {
		return
	}
	if room.Timer.Cancel != nil {
		room.Timer.Cancel()
	}
	room.Timer = nil
}

// timerFields returns the limit in seconds and the deadline in unix millis, zero when unarmed.
func timerFields(room *internal.Room) (int, int64) {
	if room.Timer == nil {
		return 0, 0
	}
	return int(room.Timer.Duration / time.Second), room.Timer.Deadline().UnixMilli()
}
