package models

// UserStats represents study statistics of a user
type UserStats struct {
	TotalReviews   int     `json:"totalReviews"`
	CardsStudied   int     `json:"cardsStudied"`
	AverageQuality float64 `json:"averageQuality"`
	StudyStreak    int     `json:"studyStreak"` // Days
	CardsDueToday  int     `json:"cardsDueToday"`
}

// DeckStats represents study statistics of a user for one deck
type DeckStats struct {
	DeckID         int               `json:"deckId"`
	TotalCards     int               `json:"totalCards"`
	DueToday       map[Direction]int `json:"dueToday"`
	TotalReviews   int               `json:"totalReviews"`
	AverageQuality float64           `json:"averageQuality"`
}

// ReviewAggregate holds aggregated review history values
type ReviewAggregate struct {
	TotalReviews   int
	CardsStudied   int
	AverageQuality float64
}
