package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/flashpair/backend/internal/models"
	"github.com/flashpair/backend/internal/scheduler"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SessionRepository is the interface that wraps methods for study_sessions data access
type SessionRepository interface {
	// Method Create stores the session and its frozen card list.
	Create(ctx context.Context, session *models.StudySession) error
	// Method GetByID returns the session with its card list and outcomes, or models.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.StudySession, error)
	// Method SubmitReview records one outcome and the progress update in one transaction with the session locked.
	//
	// The direction is taken from the session card list. Returns models.ErrNotFound, models.ErrNotInSession
	// or models.ErrAlreadyReviewed when the review is rejected; "apply" errors are returned unchanged.
	SubmitReview(ctx context.Context, entry models.ReviewHistory, today time.Time, apply func(models.SchedulingState) (models.SchedulingState, error)) (*models.ReviewResult, error)
}

// DueCardFinder is the interface that wraps the due card lookup of the progress store
type DueCardFinder interface {
	DueCards(ctx context.Context, userID, deckID int, direction models.Direction) ([]int, error)
}

// CardLister is the interface that wraps deck card listing
type CardLister interface {
	ListByDeck(ctx context.Context, deckID int) ([]models.Card, error)
}

// DeckViewer is the interface that wraps the view access check
type DeckViewer interface {
	ViewableDeck(ctx context.Context, userID, deckID int) (*models.Deck, error)
}

type studySessionService struct {
	sessions      SessionRepository
	progress      DueCardFinder
	cards         CardLister
	access        DeckViewer
	clock         Clock
	rollDirection func() models.Direction
	newID         func() string
	logger        *zap.Logger
}

// NewStudySessionService creates a new study session manager
func NewStudySessionService(sessions SessionRepository, progress DueCardFinder, cards CardLister, access DeckViewer, clock Clock, logger *zap.Logger) *studySessionService {
	return &studySessionService{
		sessions:      sessions,
		progress:      progress,
		cards:         cards,
		access:        access,
		clock:         clock,
		rollDirection: randomDirection,
		newID:         uuid.NewString,
		logger:        logger,
	}
}

// Start freezes the cards due in the deck into a new session
//
// For a fixed policy the session holds the cards due in that direction, most overdue first.
// For models.PolicyRandom the session holds every card due in at least one direction, in deck order.
// A card due in both directions gets a random one, otherwise the direction it is due in. If nothing is due, no session is created and NoCardsDue is set.
func (s *studySessionService) Start(ctx context.Context, userID, deckID int, policy models.DirectionPolicy) (*models.SessionStart, error) {
	if !policy.IsValid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidDirection, policy)
	}

	if _, err := s.access.ViewableDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}

	cards, err := s.cards.ListByDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}

	var sessionCards []models.SessionCard
	if direction, fixed := policy.Direction(); fixed {
		sessionCards, err = s.fixedCards(ctx, userID, deckID, direction)
	} else {
		sessionCards, err = s.randomCards(ctx, userID, deckID, cards)
	}
	if err != nil {
		return nil, err
	}

	if len(sessionCards) == 0 {
		return &models.SessionStart{NoCardsDue: true, DeckID: deckID, Cards: []models.StudyCard{}}, nil
	}

	startedAt := s.clock.Now().UTC()
	session := &models.StudySession{
		ID:        s.newID(),
		UserID:    userID,
		DeckID:    deckID,
		Policy:    policy,
		Status:    models.SessionStatusInProgress,
		StartedAt: startedAt,
		Cards:     sessionCards,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	byID := make(map[int]models.Card, len(cards))
	for _, card := range cards {
		byID[card.ID] = card
	}
	studyCards := make([]models.StudyCard, 0, len(sessionCards))
	for _, sc := range sessionCards {
		card := byID[sc.CardID]
		question, answer := card.Prompt(sc.Direction)
		studyCards = append(studyCards, models.StudyCard{
			CardID:    sc.CardID,
			Direction: sc.Direction,
			Question:  question,
			Answer:    answer,
			Context:   card.Context,
		})
	}

	s.logger.Info("study session started",
		zap.String("sessionId", session.ID),
		zap.Int("userId", userID),
		zap.Int("deckId", deckID),
		zap.String("policy", string(policy)),
		zap.Int("cards", len(sessionCards)),
	)
	return &models.SessionStart{
		SessionID: session.ID,
		DeckID:    deckID,
		StartedAt: &startedAt,
		Cards:     studyCards,
	}, nil
}

func (s *studySessionService) fixedCards(ctx context.Context, userID, deckID int, direction models.Direction) ([]models.SessionCard, error) {
	ids, err := s.progress.DueCards(ctx, userID, deckID, direction)
	if err != nil {
		return nil, err
	}

	sessionCards := make([]models.SessionCard, 0, len(ids))
	for i, id := range ids {
		sessionCards = append(sessionCards, models.SessionCard{Position: i, CardID: id, Direction: direction})
	}
	return sessionCards, nil
}

func (s *studySessionService) randomCards(ctx context.Context, userID, deckID int, cards []models.Card) ([]models.SessionCard, error) {
	due := make(map[models.Direction]map[int]bool, len(models.Directions))
	results := make([][]int, len(models.Directions))

	g, gctx := errgroup.WithContext(ctx)
	for i, direction := range models.Directions {
		g.Go(func() error {
			ids, err := s.progress.DueCards(gctx, userID, deckID, direction)
			results[i] = ids
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, direction := range models.Directions {
		set := make(map[int]bool, len(results[i]))
		for _, id := range results[i] {
			set[id] = true
		}
		due[direction] = set
	}

	var sessionCards []models.SessionCard
	for _, card := range cards {
		var dueIn []models.Direction
		for _, direction := range models.Directions {
			if due[direction][card.ID] {
				dueIn = append(dueIn, direction)
			}
		}

		var direction models.Direction
		switch len(dueIn) {
		case 0:
			continue
		case 1:
			direction = dueIn[0]
		default:
			direction = s.rollDirection()
		}
		sessionCards = append(sessionCards, models.SessionCard{Position: len(sessionCards), CardID: card.ID, Direction: direction})
	}
	return sessionCards, nil
}

// DueCards returns IDs of the deck cards due today in one direction, if the user may view the deck
func (s *studySessionService) DueCards(ctx context.Context, userID, deckID int, direction models.Direction) ([]int, error) {
	if !direction.IsValid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidDirection, direction)
	}
	if _, err := s.access.ViewableDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}

	return s.progress.DueCards(ctx, userID, deckID, direction)
}

// SubmitReview records the review of one session card
//
// The quality is validated before anything else. The card direction is the one frozen in the session.
// When the last pending card is reviewed the session becomes COMPLETED.
func (s *studySessionService) SubmitReview(ctx context.Context, userID int, sessionID string, cardID, quality, timeSpent int) (*models.ReviewResult, error) {
	if err := scheduler.ValidateQuality(quality); err != nil {
		return nil, err
	}
	if timeSpent < 0 {
		return nil, fmt.Errorf("%w: time spent must not be negative", models.ErrInvalidInput)
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, models.ErrNotFound
	}

	now := s.clock.Now()
	today := scheduler.Today(now, s.clock.Location)
	entry := models.ReviewHistory{
		UserID:     userID,
		CardID:     cardID,
		SessionID:  sessionID,
		Quality:    quality,
		TimeSpent:  timeSpent,
		ReviewedAt: now.UTC(),
	}

	result, err := s.sessions.SubmitReview(ctx, entry, today, reviewApplier(quality, today, now))
	if err != nil {
		return nil, err
	}

	if result.SessionCompleted {
		s.logger.Info("study session completed", zap.String("sessionId", sessionID), zap.Int("userId", userID))
	}
	return result, nil
}

// Get returns a session of the user with its frozen card list and submitted outcomes
func (s *studySessionService) Get(ctx context.Context, userID int, sessionID string) (*models.StudySession, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, models.ErrNotFound
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, models.ErrNotFound
	}

	return session, nil
}

// Summary returns the result of a completed session
//
// Returns models.ErrSessionNotCompleted while cards are still pending.
func (s *studySessionService) Summary(ctx context.Context, userID int, sessionID string) (*models.SessionSummary, error) {
	session, err := s.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusCompleted {
		return nil, models.ErrSessionNotCompleted
	}

	end := s.clock.Now()
	if session.EndedAt != nil {
		end = *session.EndedAt
	}
	elapsed := max(end.Sub(session.StartedAt), 0)

	summary := &models.SessionSummary{
		SessionID:    session.ID,
		CardsStudied: len(session.Outcomes),
		Elapsed:      elapsed,
		ElapsedSecs:  int64(elapsed / time.Second),
	}
	if len(session.Outcomes) > 0 {
		total := 0
		for _, outcome := range session.Outcomes {
			total += outcome.Quality
		}
		summary.MeanQuality = float64(total) / float64(len(session.Outcomes))
	}

	return summary, nil
}

func randomDirection() models.Direction {
	return models.Directions[rand.IntN(len(models.Directions))]
}
