package services

import (
	"context"
	"fmt"
	"time"

	"github.com/flashpair/backend/internal/models"
	"github.com/flashpair/backend/internal/scheduler"
	"go.uber.org/zap"
)

// ProgressRepository is the interface that wraps methods for scheduling_states and review_history data access
type ProgressRepository interface {
	// Method Get retrieves the scheduling state of a card for a user in one direction.
	//
	// Returns "nil" without error if the user never reviewed the card in that direction.
	Get(ctx context.Context, userID, cardID int, direction models.Direction) (*models.SchedulingState, error)
	// Method RecordReview locks the current state (creating the default one with "today" as due date if needed),
	// passes it to "apply", stores the result and appends "entry" to the review history in one transaction.
	//
	// An error returned by "apply" is returned unchanged and nothing is stored.
	RecordReview(ctx context.Context, entry models.ReviewHistory, today time.Time, apply func(models.SchedulingState) (models.SchedulingState, error)) (models.SchedulingState, error)
	// Method DueCardIDs retrieves IDs of the deck cards due on "today", most overdue first.
	DueCardIDs(ctx context.Context, userID, deckID int, direction models.Direction, today time.Time) ([]int, error)
}

type progressService struct {
	repo   ProgressRepository
	clock  Clock
	logger *zap.Logger
}

// NewProgressService creates a new progress store
func NewProgressService(repo ProgressRepository, clock Clock, logger *zap.Logger) *progressService {
	return &progressService{
		repo:   repo,
		clock:  clock,
		logger: logger,
	}
}

// Get returns the scheduling state of a card for the user in one direction
//
// A card the user never reviewed gets the default state, due today.
func (s *progressService) Get(ctx context.Context, userID, cardID int, direction models.Direction) (models.SchedulingState, error) {
	if !direction.IsValid() {
		return models.SchedulingState{}, fmt.Errorf("%w: %q", models.ErrInvalidDirection, direction)
	}

	state, err := s.repo.Get(ctx, userID, cardID, direction)
	if err != nil {
		return models.SchedulingState{}, err
	}
	if state == nil {
		return models.DefaultSchedulingState(userID, cardID, direction, s.clock.Today()), nil
	}

	return *state, nil
}

// RecordReview applies a review outside of any session and persists the new state atomically
//
// "quality" must be within [0, 5]; "timeSpent" is in seconds.
func (s *progressService) RecordReview(ctx context.Context, userID, cardID int, direction models.Direction, quality, timeSpent int) (models.SchedulingState, error) {
	if err := scheduler.ValidateQuality(quality); err != nil {
		return models.SchedulingState{}, err
	}
	if !direction.IsValid() {
		return models.SchedulingState{}, fmt.Errorf("%w: %q", models.ErrInvalidDirection, direction)
	}
	if timeSpent < 0 {
		return models.SchedulingState{}, fmt.Errorf("%w: time spent must not be negative", models.ErrInvalidInput)
	}

	now := s.clock.Now()
	today := scheduler.Today(now, s.clock.Location)
	entry := models.ReviewHistory{
		UserID:     userID,
		CardID:     cardID,
		Direction:  direction,
		Quality:    quality,
		TimeSpent:  timeSpent,
		ReviewedAt: now.UTC(),
	}

	state, err := s.repo.RecordReview(ctx, entry, today, reviewApplier(quality, today, now))
	if err != nil {
		return models.SchedulingState{}, err
	}

	s.logger.Debug("review recorded",
		zap.Int("userId", userID),
		zap.Int("cardId", cardID),
		zap.String("direction", string(direction)),
		zap.Int("quality", quality),
		zap.Int("interval", state.Interval),
	)
	return state, nil
}

// DueCards returns IDs of the deck cards due today for the user in one direction
//
// Cards never reviewed in that direction are always due.
func (s *progressService) DueCards(ctx context.Context, userID, deckID int, direction models.Direction) ([]int, error) {
	if !direction.IsValid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidDirection, direction)
	}

	return s.repo.DueCardIDs(ctx, userID, deckID, direction, s.clock.Today())
}

// reviewApplier returns the state transition used inside the locked read-modify-write of a review
func reviewApplier(quality int, today, now time.Time) func(models.SchedulingState) (models.SchedulingState, error) {
	return func(current models.SchedulingState) (models.SchedulingState, error) {
		next, err := scheduler.ApplyReview(current, quality, today)
		if err != nil {
			return current, err
		}
		reviewedAt := now.UTC()
		next.LastReviewed = &reviewedAt
		return next, nil
	}
}
