package internal

import (
	"fmt"
	"strings"
)

const (
	VariantTrivia = "trivia"
	VariantPanel  = "panel"

	MinQuestionCount = 1
	MaxQuestionCount = 50

	// MaxRoundTimeLimit caps the server countdown, in seconds
	MaxRoundTimeLimit = 600
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Settings is the lobby configuration. Which fields are meaningful depends on the variant.
type Settings struct {
	Difficulty     Difficulty `json:"difficulty,omitempty"`
	Category       string     `json:"category,omitempty"`
	QuestionCount  int        `json:"questionCount,omitempty"`
	PanelId        string     `json:"panelId,omitempty"`
	PanelName      string     `json:"panelName,omitempty"`
	RoundTimeLimit int        `json:"roundTimeLimit"`
}

// SettingsPatch carries a partial update; nil fields are left untouched.
type SettingsPatch struct {
	Difficulty     *Difficulty `json:"difficulty,omitempty"`
	Category       *string     `json:"category,omitempty"`
	QuestionCount  *int        `json:"questionCount,omitempty"`
	RoundTimeLimit *int        `json:"roundTimeLimit,omitempty"`
}

// Variant parameterises the coordinator for one flavour of quiz.
type Variant struct {
	Name            string
	DefaultSettings Settings
	// UsesSettings enables UPDATE_SETTINGS, UsesPanels enables SELECT_PANEL
	UsesSettings bool
	UsesPanels   bool
}

var Variants = map[string]Variant{
	VariantTrivia: {
		Name: VariantTrivia,
		DefaultSettings: Settings{
			Difficulty:    DifficultyMedium,
			Category:      "general",
			QuestionCount: 10,
		},
		UsesSettings: true,
	},
	VariantPanel: {
		Name:       VariantPanel,
		UsesPanels: true,
	},
}

// LookupVariant falls back to trivia for unknown or empty names.
func LookupVariant(name string) Variant {
	if v, ok := Variants[strings.ToLower(strings.TrimSpace(name))]; ok {
		return v
	}
	return Variants[VariantTrivia]
}

func (v Variant) Apply(current Settings, patch SettingsPatch) (Settings, error) {
	next := current

	if patch.Difficulty != nil {
		switch d := Difficulty(strings.ToLower(string(*patch.Difficulty))); d {
		case DifficultyEasy, DifficultyMedium, DifficultyHard:
			next.Difficulty = d
		default:
			return current, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidSettings, *patch.Difficulty)
		}
	}
	if patch.Category != nil {
		next.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.QuestionCount != nil {
		n := *patch.QuestionCount
		if n < MinQuestionCount || n > MaxQuestionCount {
			return current, fmt.Errorf("%w: question count must be between %d and %d",
				ErrInvalidSettings, MinQuestionCount, MaxQuestionCount)
		}
		next.QuestionCount = n
	}
	if patch.RoundTimeLimit != nil {
		n := *patch.RoundTimeLimit
		if n < 0 || n > MaxRoundTimeLimit {
			return current, fmt.Errorf("%w: round time limit must be between 0 and %d seconds",
				ErrInvalidSettings, MaxRoundTimeLimit)
		}
		next.RoundTimeLimit = n
	}

	return next, nil
}
