package app

import "codequest-quiz-service/internal/domain"

const (
	highScorePercentage = 80
	passPercentage      = 50
)

// ComputeScore counts the questions whose recorded answer matches the correct option.
// Indices without an answer count as incorrect.
func ComputeScore(questions []domain.Question, answers map[int]string) int {
	score := 0
	for i, q := range questions {
		if answer, ok := answers[i]; ok && answer == q.CorrectOption {
			score++
		}
	}
	return score
}

// Classify maps a score to its percentage and tier. An empty quiz gets the neutral tier.
func Classify(score, total int) domain.Result {
	if total <= 0 {
		return domain.Result{
			Score:   score,
			Total:   0,
			Tier:    domain.TierNone,
			Message: "No questions available",
			Color:   "gray",
		}
	}

	res := domain.Result{
		Score:      score,
		Total:      total,
		Percentage: float64(score) / float64(total) * 100,
	}
	switch {
	case res.Percentage >= highScorePercentage:
		res.Tier, res.Message, res.Color = domain.TierTop, "Congratulations! You passed with flying colors!", "green"
	case res.Percentage >= passPercentage:
		res.Tier, res.Message, res.Color = domain.TierPass, "Great job! You passed!", "yellow"
	default:
		res.Tier, res.Message, res.Color = domain.TierFail, "Oops! You failed. Try again.", "red"
	}
	return res
}
