package services

import (
	"context"
	"sync"
	"time"

	"github.com/flashpair/backend/internal/models"
)

var (
	testNow   = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	testToday = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
)

func testClock() Clock {
	return Clock{Now: func() time.Time { return testNow }, Location: time.UTC}
}

// mockProgressRepository is a mock implementation of ProgressRepository
type mockProgressRepository struct {
	state       *models.SchedulingState
	current     models.SchedulingState
	due         map[models.Direction][]int
	err         error
	recordCalls int
	gotEntry    models.ReviewHistory
	gotToday    time.Time
	mu          sync.Mutex
}

func (m *mockProgressRepository) Get(ctx context.Context, userID, cardID int, direction models.Direction) (*models.SchedulingState, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.state, nil
}

func (m *mockProgressRepository) RecordReview(ctx context.Context, entry models.ReviewHistory, today time.Time, apply func(models.SchedulingState) (models.SchedulingState, error)) (models.SchedulingState, error) {
	m.recordCalls++
	m.gotEntry = entry
	m.gotToday = today
	if m.err != nil {
		return models.SchedulingState{}, m.err
	}
	return apply(m.current)
}

func (m *mockProgressRepository) DueCardIDs(ctx context.Context, userID, deckID int, direction models.Direction, today time.Time) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotToday = today
	if m.err != nil {
		return nil, m.err
	}
	return m.due[direction], nil
}

// mockDeckRepository is a mock implementation of DeckRepository
type mockDeckRepository struct {
	decks         map[int]*models.Deck
	list          []models.DeckListItem
	err           error
	gotPartnerID  int
	setSharedCall *bool
}

func (m *mockDeckRepository) Create(ctx context.Context, deck *models.Deck) error {
	if m.err != nil {
		return m.err
	}
	deck.ID = 100
	return nil
}

func (m *mockDeckRepository) GetByID(ctx context.Context, id int) (*models.Deck, error) {
	if m.err != nil {
		return nil, m.err
	}
	deck, ok := m.decks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *deck
	return &copied, nil
}

func (m *mockDeckRepository) ListVisible(ctx context.Context, userID, partnerID int) ([]models.DeckListItem, error) {
	m.gotPartnerID = partnerID
	if m.err != nil {
		return nil, m.err
	}
	return m.list, nil
}

func (m *mockDeckRepository) SetShared(ctx context.Context, id int, shared bool, now time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.setSharedCall = &shared
	if deck, ok := m.decks[id]; ok {
		deck.Shared = shared
	}
	return nil
}

// mockCardRepository is a mock implementation of CardRepository
type mockCardRepository struct {
	cards   []models.Card
	err     error
	created *models.Card
	updated *models.Card
}

func (m *mockCardRepository) Create(ctx context.Context, card *models.Card) error {
	if m.err != nil {
		return m.err
	}
	card.ID = 200
	m.created = card
	return nil
}

func (m *mockCardRepository) GetByID(ctx context.Context, id int) (*models.Card, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, card := range m.cards {
		if card.ID == id {
			copied := card
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *mockCardRepository) Update(ctx context.Context, card *models.Card) error {
	if m.err != nil {
		return m.err
	}
	m.updated = card
	return nil
}

func (m *mockCardRepository) ListByDeck(ctx context.Context, deckID int) ([]models.Card, error) {
	if m.err != nil {
		return nil, m.err
	}
	var cards []models.Card
	for _, card := range m.cards {
		if card.DeckID == deckID {
			cards = append(cards, card)
		}
	}
	return cards, nil
}

// mockPartnerLookup is a mock implementation of PartnerLookup backed by a pair of users
type mockPartnerLookup struct {
	pairs map[int]int
	err   error
	calls int
}

func (m *mockPartnerLookup) PartnerOf(ctx context.Context, userID int) (int, bool, error) {
	m.calls++
	if m.err != nil {
		return 0, false, m.err
	}
	partnerID, ok := m.pairs[userID]
	return partnerID, ok, nil
}

// mockDeckAccess is a mock implementation of DeckAccess
type mockDeckAccess struct {
	deck *models.Deck
	err  error
}

func (m *mockDeckAccess) ViewableDeck(ctx context.Context, userID, deckID int) (*models.Deck, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.deck, nil
}

func (m *mockDeckAccess) EditableDeck(ctx context.Context, userID, deckID int) (*models.Deck, error) {
	return m.ViewableDeck(ctx, userID, deckID)
}

// mockPartnershipRepository is a mock implementation of PartnershipRepository
type mockPartnershipRepository struct {
	active       *models.Partnership
	accepted     *models.Partnership
	err          error
	acceptErr    error
	gotCode      string
	dissolved    *models.Partnership
	dissolveTime time.Time
}

func (m *mockPartnershipRepository) GetActiveByUser(ctx context.Context, userID int) (*models.Partnership, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.active, nil
}

func (m *mockPartnershipRepository) AcceptInvitation(ctx context.Context, code string, userID int, now time.Time) (*models.Partnership, error) {
	m.gotCode = code
	if m.acceptErr != nil {
		return nil, m.acceptErr
	}
	return m.accepted, nil
}

func (m *mockPartnershipRepository) Dissolve(ctx context.Context, partnership *models.Partnership, now time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.dissolved = partnership
	m.dissolveTime = now
	return nil
}

// mockInvitationRepository is a mock implementation of InvitationRepository
type mockInvitationRepository struct {
	usedCodes map[string]bool
	created   *models.PartnershipInvitation
	checks    int
	err       error
}

func (m *mockInvitationRepository) Create(ctx context.Context, invitation *models.PartnershipInvitation) error {
	if m.err != nil {
		return m.err
	}
	invitation.ID = 1
	m.created = invitation
	return nil
}

func (m *mockInvitationRepository) ActiveCodeExists(ctx context.Context, code string, now time.Time) (bool, error) {
	m.checks++
	if m.err != nil {
		return false, m.err
	}
	return m.usedCodes[code], nil
}

// mockSessionRepository is a mock implementation of SessionRepository
type mockSessionRepository struct {
	session   *models.StudySession
	created   *models.StudySession
	result    *models.ReviewResult
	current   models.SchedulingState
	err       error
	gotEntry  models.ReviewHistory
	submitted int
}

func (m *mockSessionRepository) Create(ctx context.Context, session *models.StudySession) error {
	if m.err != nil {
		return m.err
	}
	m.created = session
	return nil
}

func (m *mockSessionRepository) GetByID(ctx context.Context, id string) (*models.StudySession, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.session == nil || m.session.ID != id {
		return nil, models.ErrNotFound
	}
	return m.session, nil
}

func (m *mockSessionRepository) SubmitReview(ctx context.Context, entry models.ReviewHistory, today time.Time, apply func(models.SchedulingState) (models.SchedulingState, error)) (*models.ReviewResult, error) {
	m.submitted++
	m.gotEntry = entry
	if m.err != nil {
		return nil, m.err
	}
	state, err := apply(m.current)
	if err != nil {
		return nil, err
	}
	var result models.ReviewResult
	if m.result != nil {
		result = *m.result
	} else if m.created != nil {
		result.Remaining = len(m.created.Cards) - m.submitted
	}
	result.State = state
	return &result, nil
}

// mockStatsRepository is a mock implementation of StatsRepository
type mockStatsRepository struct {
	aggregate    *models.ReviewAggregate
	times        []time.Time
	due          map[models.Direction]int
	cards        int
	err          error
	mu           sync.Mutex
	gotPartnerID int
	gotDeckID    int
}

func (m *mockStatsRepository) ReviewAggregate(ctx context.Context, userID, deckID int) (*models.ReviewAggregate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.aggregate, nil
}

func (m *mockStatsRepository) ReviewTimes(ctx context.Context, userID int, since time.Time) ([]time.Time, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.times, nil
}

func (m *mockStatsRepository) CountDue(ctx context.Context, userID, partnerID, deckID int, today time.Time) (map[models.Direction]int, error) {
	m.mu.Lock()
	m.gotPartnerID = partnerID
	m.gotDeckID = deckID
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.due, nil
}

func (m *mockStatsRepository) CountCards(ctx context.Context, deckID int) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.cards, nil
}
