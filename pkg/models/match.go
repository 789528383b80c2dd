package models

// ConfidenceTier is the coarse bucket derived from a numeric match score for display
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
)

// Tier thresholds partition [0,1] with no gaps or overlaps
const (
	HighConfidenceThreshold   = 0.75
	MediumConfidenceThreshold = 0.5
)

// TierForScore maps a score to its confidence tier. Monotonic in score.
func TierForScore(score float64) ConfidenceTier {
	switch {
	case score >= HighConfidenceThreshold:
		return ConfidenceHigh
	case score >= MediumConfidenceThreshold:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// MatchCandidate pairs a lost and a found report with a similarity score.
// Ephemeral: computed on demand, never persisted as primary truth.
type MatchCandidate struct {
	LostID          string             `json:"lost_id"`
	FoundID         string             `json:"found_id"`
	Item            *ItemRecord        `json:"item"`
	Score           float64            `json:"score"`
	ScorePercentage int                `json:"score_percentage"`
	Confidence      ConfidenceTier     `json:"confidence"`
	FieldScores     map[string]float64 `json:"field_scores,omitempty"`
}

// MatchResult is the ranked output for one target record
type MatchResult struct {
	TargetID     string           `json:"target_id"`
	TargetType   ItemType         `json:"target_type"`
	AIApplied    bool             `json:"ai_applied"`
	Matches      []MatchCandidate `json:"matches"`
	TotalMatches int              `json:"total_matches"`
}
