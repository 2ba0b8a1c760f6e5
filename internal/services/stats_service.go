package services

import (
	"context"
	"time"

	"github.com/flashpair/backend/internal/models"
	"github.com/flashpair/backend/internal/scheduler"
	"golang.org/x/sync/errgroup"
)

// streakWindowDays bounds how far back the study streak is computed
const streakWindowDays = 366

// StatsRepository is the interface that wraps the aggregate queries used for statistics
type StatsRepository interface {
	// Method ReviewAggregate aggregates the review history of the user; "deckID" 0 means all decks.
	ReviewAggregate(ctx context.Context, userID, deckID int) (*models.ReviewAggregate, error)
	// Method ReviewTimes returns the review moments since "since", newest first.
	ReviewTimes(ctx context.Context, userID int, since time.Time) ([]time.Time, error)
	// Method CountDue counts due (card, direction) pairs per direction over the user's decks and the
	// shared decks of "partnerID"; "deckID" 0 means all of them.
	CountDue(ctx context.Context, userID, partnerID, deckID int, today time.Time) (map[models.Direction]int, error)
	CountCards(ctx context.Context, deckID int) (int, error)
}

type statsService struct {
	repo     StatsRepository
	access   DeckViewer
	partners PartnerLookup
	clock    Clock
}

// NewStatsService creates a new statistics service
func NewStatsService(repo StatsRepository, access DeckViewer, partners PartnerLookup, clock Clock) *statsService {
	return &statsService{
		repo:     repo,
		access:   access,
		partners: partners,
		clock:    clock,
	}
}

// UserStats returns the study statistics of the user across all viewable decks
func (s *statsService) UserStats(ctx context.Context, userID int) (*models.UserStats, error) {
	partnerID, _, err := s.partners.PartnerOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := s.clock.Today()
	var (
		aggregate *models.ReviewAggregate
		times     []time.Time
		due       map[models.Direction]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		aggregate, err = s.repo.ReviewAggregate(gctx, userID, 0)
		return err
	})
	g.Go(func() error {
		var err error
		times, err = s.repo.ReviewTimes(gctx, userID, today.AddDate(0, 0, -streakWindowDays))
		return err
	})
	g.Go(func() error {
		var err error
		due, err = s.repo.CountDue(gctx, userID, partnerID, 0, today)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.UserStats{
		TotalReviews:   aggregate.TotalReviews,
		CardsStudied:   aggregate.CardsStudied,
		AverageQuality: aggregate.AverageQuality,
		StudyStreak:    studyStreak(times, today, s.clock.Location),
		CardsDueToday:  due[models.DirectionAToB] + due[models.DirectionBToA],
	}, nil
}

// DeckStats returns the study statistics of the user for one viewable deck
func (s *statsService) DeckStats(ctx context.Context, userID, deckID int) (*models.DeckStats, error) {
	deck, err := s.access.ViewableDeck(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}

	// A viewable deck of another user is a shared deck of the partner
	partnerID := 0
	if deck.OwnerID != userID {
		partnerID = deck.OwnerID
	}

	stats := &models.DeckStats{DeckID: deckID}
	var aggregate *models.ReviewAggregate

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.TotalCards, err = s.repo.CountCards(gctx, deckID)
		return err
	})
	g.Go(func() error {
		var err error
		stats.DueToday, err = s.repo.CountDue(gctx, userID, partnerID, deckID, s.clock.Today())
		return err
	})
	g.Go(func() error {
		var err error
		aggregate, err = s.repo.ReviewAggregate(gctx, userID, deckID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.TotalReviews = aggregate.TotalReviews
	stats.AverageQuality = aggregate.AverageQuality
	return stats, nil
}

// studyStreak counts consecutive study days ending today, or yesterday if nothing was studied today yet
func studyStreak(times []time.Time, today time.Time, loc *time.Location) int {
	days := make(map[time.Time]bool, len(times))
	for _, t := range times {
		days[scheduler.Today(t, loc)] = true
	}

	day := today
	if !days[day] {
		day = scheduler.AddDays(today, -1)
	}

	streak := 0
	for days[day] {
		streak++
		day = scheduler.AddDays(day, -1)
	}
	return streak
}
