package domain

import "time"

// DefaultCategory is used when a question record carries no category.
const DefaultCategory = "General"

// Question models a multiple-choice question with one correct option.
type Question struct {
	Prompt        string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correctAnswer"`
	Category      string   `json:"category"`
}

// HasOption reports whether option is one of the question's choices.
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Tier is the score band used to pick a results message and color.
type Tier string

const (
	TierTop  Tier = "top"
	TierPass Tier = "pass"
	TierFail Tier = "fail"
	// TierNone is the neutral tier for an attempt without questions.
	TierNone Tier = "none"
)

// Result is the classified outcome of a finished attempt.
type Result struct {
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Tier       Tier    `json:"tier"`
	Message    string  `json:"message"`
	Color      string  `json:"color"`
}

// ScoreRecord is one saved score for a subject. Records are append-only.
type ScoreRecord struct {
	Subject   string    `json:"subject"`
	Username  string    `json:"username"`
	Score     int       `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// Date returns the record day as YYYY-MM-DD.
func (r ScoreRecord) Date() string {
	return r.Timestamp.Format("2006-01-02")
}

// Clock returns the record time of day as HH:MM:SS.
func (r ScoreRecord) Clock() string {
	return r.Timestamp.Format("15:04:05")
}

// LeaderboardEntry is a ranked, read-only view of a ScoreRecord.
type LeaderboardEntry struct {
	Rank      int       `json:"rank"`
	Username  string    `json:"username"`
	Score     int       `json:"score"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Timestamp time.Time `json:"timestamp"`
}

// Leaderboard captures the ordered scoreboard for a subject.
type Leaderboard struct {
	Subject string             `json:"subject"`
	Entries []LeaderboardEntry `json:"entries"`
}
