package domain

import "strings"

// Pace controls retrieval depth and explanation verbosity. It never affects
// ingestion, embeddings or retrieval correctness.
type Pace string

const (
	PaceSlow   Pace = "slow"
	PaceMedium Pace = "medium"
	PaceFast   Pace = "fast"
)

// PaceProfile maps a pace label to its behavior.
type PaceProfile struct {
	TheoryRatio    float64 `yaml:"theory" json:"theory_ratio"`
	PracticeRatio  float64 `yaml:"practice" json:"practice_ratio"`
	RetrievalDepth int     `yaml:"depth" json:"retrieval_depth"`
	MaxTokens      int     `yaml:"max_tokens" json:"max_tokens"`
	Description    string  `yaml:"description" json:"description"`
}

// QuestionCounts is the per-type practice question budget for a pace.
type QuestionCounts struct {
	Conceptual  int `yaml:"conceptual" json:"conceptual"`
	Application int `yaml:"application" json:"application"`
	Numerical   int `yaml:"numerical" json:"numerical"`
}

// DefaultPaceProfiles returns the built-in pace table. A deployment may
// override it from a YAML file (see config).
func DefaultPaceProfiles() map[Pace]PaceProfile {
	return map[Pace]PaceProfile{
		PaceSlow: {
			TheoryRatio:    0.7,
			PracticeRatio:  0.3,
			RetrievalDepth: 20,
			MaxTokens:      3000,
			Description:    "Deep learning mode",
		},
		PaceMedium: {
			TheoryRatio:    0.5,
			PracticeRatio:  0.5,
			RetrievalDepth: 12,
			MaxTokens:      2000,
			Description:    "Balanced mode",
		},
		PaceFast: {
			TheoryRatio:    0.3,
			PracticeRatio:  0.7,
			RetrievalDepth: 6,
			MaxTokens:      1500,
			Description:    "Revision mode",
		},
	}
}

// DefaultQuestionCounts returns the built-in practice question budgets.
func DefaultQuestionCounts() map[Pace]QuestionCounts {
	return map[Pace]QuestionCounts{
		PaceSlow:   {Conceptual: 1, Application: 1, Numerical: 1},
		PaceMedium: {Conceptual: 2, Application: 2, Numerical: 1},
		PaceFast:   {Conceptual: 2, Application: 3, Numerical: 2},
	}
}

// NormalizePace maps arbitrary input to a recognized pace label. Unknown
// values normalize to medium.
func NormalizePace(raw string) Pace {
	switch Pace(strings.ToLower(strings.TrimSpace(raw))) {
	case PaceSlow:
		return PaceSlow
	case PaceFast:
		return PaceFast
	case PaceMedium:
		return PaceMedium
	default:
		return PaceMedium
	}
}
