package models

import "time"

const (
	// DefaultEaseFactor is the ease factor of a never reviewed card
	DefaultEaseFactor = 2.5
	// MinEaseFactor is the lowest ease factor a card can reach
	MinEaseFactor = 1.3
)

// SchedulingState represents the spaced repetition progress of a user for one card in one direction
type SchedulingState struct {
	UserID       int        `json:"userId"`
	CardID       int        `json:"cardId"`
	Direction    Direction  `json:"direction"`
	EaseFactor   float64    `json:"easeFactor"`
	Interval     int        `json:"interval"` // Days
	Repetitions  int        `json:"repetitions"`
	NextDue      time.Time  `json:"nextDue"` // Calendar date (midnight UTC)
	LastReviewed *time.Time `json:"lastReviewed,omitempty"`
}

// DefaultSchedulingState returns the state of a card the user never reviewed in the given direction.
// Such a card is due on "today".
func DefaultSchedulingState(userID, cardID int, direction Direction, today time.Time) SchedulingState {
	return SchedulingState{
		UserID:      userID,
		CardID:      cardID,
		Direction:   direction,
		EaseFactor:  DefaultEaseFactor,
		Interval:    1,
		Repetitions: 0,
		NextDue:     today,
	}
}

// IsDue reports whether the state is due on the given calendar date
func (s *SchedulingState) IsDue(today time.Time) bool {
	return !s.NextDue.After(today)
}

// ReviewHistory represents one append-only audit row written for every recorded review
type ReviewHistory struct {
	ID          int       `json:"id"`
	UserID      int       `json:"userId"`
	CardID      int       `json:"cardId"`
	Direction   Direction `json:"direction"`
	SessionID   string    `json:"sessionId,omitempty"`
	Quality     int       `json:"quality"`
	TimeSpent   int       `json:"timeSpent"` // Seconds
	EaseFactor  float64   `json:"easeFactor"`
	Interval    int       `json:"interval"`
	Repetitions int       `json:"repetitions"`
	ReviewedAt  time.Time `json:"reviewedAt"`
}
