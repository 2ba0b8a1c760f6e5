package models

import "time"

// SessionStatus represents the state of a study session
type SessionStatus string

const (
	SessionStatusCreated    SessionStatus = "CREATED"
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
)

// StudySession represents a frozen study pass over the due cards of a deck
type StudySession struct {
	ID        string           `json:"id"`
	UserID    int              `json:"userId"`
	DeckID    int              `json:"deckId"`
	Policy    DirectionPolicy  `json:"policy"`
	Status    SessionStatus    `json:"status"`
	StartedAt time.Time        `json:"startedAt"`
	EndedAt   *time.Time       `json:"endedAt,omitempty"`
	Cards     []SessionCard    `json:"cards"`
	Outcomes  []SessionOutcome `json:"outcomes"`
}

// SessionCard represents one (card, direction) pair of a session list
type SessionCard struct {
	Position  int       `json:"position"`
	CardID    int       `json:"cardId"`
	Direction Direction `json:"direction"`
}

// SessionOutcome represents a submitted review inside a session
type SessionOutcome struct {
	CardID     int       `json:"cardId"`
	Direction  Direction `json:"direction"`
	Quality    int       `json:"quality"`
	TimeSpent  int       `json:"timeSpent"` // Seconds
	ReviewedAt time.Time `json:"reviewedAt"`
}

// StudyCard represents a session card with its question and answer resolved by direction
type StudyCard struct {
	CardID    int       `json:"cardId"`
	Direction Direction `json:"direction"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Context   string    `json:"context,omitempty"`
}

// SessionStart is the result of starting a study session.
//
// NoCardsDue is set (and SessionID is empty) when nothing was due; no session is created in that case.
type SessionStart struct {
	NoCardsDue bool        `json:"noCardsDue"`
	SessionID  string      `json:"sessionId,omitempty"`
	DeckID     int         `json:"deckId"`
	StartedAt  *time.Time  `json:"startedAt,omitempty"`
	Cards      []StudyCard `json:"cards"`
}

// ReviewRequest represents a review submission inside a session
type ReviewRequest struct {
	CardID    int  `json:"cardId" validate:"required,gt=0"`
	Quality   *int `json:"quality" validate:"required"`
	TimeSpent int  `json:"timeSpent" validate:"gte=0"`
}

// ReviewResult is returned after a review was applied
type ReviewResult struct {
	State            SchedulingState `json:"state"`
	SessionCompleted bool            `json:"sessionCompleted"`
	Remaining        int             `json:"remaining"`
}

// SessionSummary summarizes a completed session
type SessionSummary struct {
	SessionID    string        `json:"sessionId"`
	CardsStudied int           `json:"cardsStudied"`
	Elapsed      time.Duration `json:"-"`
	ElapsedSecs  int64         `json:"elapsedSeconds"`
	MeanQuality  float64       `json:"meanQuality"`
}

// StartSessionRequest represents a study session start request
type StartSessionRequest struct {
	Policy DirectionPolicy `json:"policy" validate:"required,oneof=A_TO_B B_TO_A RANDOM"`
}

// DueCardsResponse lists the cards due today in one direction
type DueCardsResponse struct {
	DeckID    int       `json:"deckId"`
	Direction Direction `json:"direction"`
	CardIDs   []int     `json:"cardIds"`
}
