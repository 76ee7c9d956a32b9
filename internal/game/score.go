package game

import (
	"cmp"
	"slices"

	"github.com/scythe504/quizroom-backend/internal"
)

type FinalStandings struct {
	Standings []internal.Standing
	Winner    *internal.Standing
	IsDraw    bool
	TiedNames []string
}

// CalculateFinalStandings ranks players by score, highest first. Equal scores share a rank
// and keep join order. Two or more players on the top score make a draw with no winner.
// Caller holds room.Mu.
func CalculateFinalStandings(room *internal.Room) FinalStandings {
	players := room.OrderedPlayers()
	standings := make([]internal.Standing, 0, len(players))
	for _, p := range players {
		standings = append(standings, internal.Standing{
			PlayerId: p.Id,
			Name:     p.Name,
			AvatarId: p.AvatarId,
			Score:    p.Score,
		})
	}

	slices.SortStableFunc(standings, func(a, b internal.Standing) int {
		return cmp.Compare(b.Score, a.Score)
	})

	for i := range standings {
		if i > 0 && standings[i].Score == standings[i-1].Score {
			standings[i].Rank = standings[i-1].Rank
		} else {
			standings[i].Rank = i + 1
		}
	}

	result := FinalStandings{Standings: standings}
	if len(standings) == 0 {
		return result
	}

	top := standings[0].Score
	for _, s := range standings {
		if s.Score == top {
			result.TiedNames = append(result.TiedNames, s.Name)
		}
	}

	if len(result.TiedNames) >= 2 {
		result.IsDraw = true
	} else {
		winner := standings[0]
		result.Winner = &winner
		result.TiedNames = nil
	}
	return result
}
