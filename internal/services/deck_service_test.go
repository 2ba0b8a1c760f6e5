package services

import (
	"context"
	"testing"

	"github.com/flashpair/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDeckService(decks *mockDeckRepository, cards *mockCardRepository, partners *mockPartnerLookup) *deckService {
	access := NewAccessService(decks, partners)
	return NewDeckService(decks, cards, access, partners, testClock(), zap.NewNop())
}

func TestDeckService_Create(t *testing.T) {
	svc := newTestDeckService(&mockDeckRepository{}, &mockCardRepository{}, &mockPartnerLookup{})

	deck, err := svc.Create(context.Background(), 1, &models.CreateDeckRequest{Title: "  Verbs ", Description: "irregular"})

	require.NoError(t, err)
	assert.Equal(t, 100, deck.ID)
	assert.Equal(t, "Verbs", deck.Title)
	assert.Equal(t, 1, deck.OwnerID)
	assert.False(t, deck.Shared)

	_, err = svc.Create(context.Background(), 1, &models.CreateDeckRequest{Title: "   "})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestDeckService_List(t *testing.T) {
	decks := &mockDeckRepository{list: []models.DeckListItem{{Deck: models.Deck{ID: 1}, Owned: true}}}
	svc := newTestDeckService(decks, &mockCardRepository{}, &mockPartnerLookup{pairs: map[int]int{1: 2}})

	list, err := svc.List(context.Background(), 1)

	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 2, decks.gotPartnerID)
}

func TestDeckService_SetShared(t *testing.T) {
	tests := []struct {
		name        string
		userID      int
		shared      bool
		pairs       map[int]int
		deck        models.Deck
		expectedErr error
	}{
		{name: "owner shares with partner", userID: 1, shared: true, pairs: map[int]int{1: 2, 2: 1}, deck: models.Deck{ID: 3, OwnerID: 1}},
		{name: "owner without partner cannot share", userID: 1, shared: true, deck: models.Deck{ID: 3, OwnerID: 1}, expectedErr: models.ErrNotPartnered},
		{name: "owner without partner can unshare", userID: 1, shared: false, deck: models.Deck{ID: 3, OwnerID: 1, Shared: true}},
		{name: "partner cannot change sharing", userID: 2, shared: false, pairs: map[int]int{1: 2, 2: 1}, deck: models.Deck{ID: 3, OwnerID: 1, Shared: true}, expectedErr: models.ErrForbidden},
		{name: "stranger gets not found", userID: 9, shared: true, deck: models.Deck{ID: 3, OwnerID: 1}, expectedErr: models.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deck := tt.deck
			decks := &mockDeckRepository{decks: map[int]*models.Deck{3: &deck}}
			svc := newTestDeckService(decks, &mockCardRepository{}, &mockPartnerLookup{pairs: tt.pairs})

			updated, err := svc.SetShared(context.Background(), tt.userID, 3, tt.shared)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, decks.setSharedCall)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.shared, updated.Shared)
			require.NotNil(t, decks.setSharedCall)
			assert.Equal(t, tt.shared, *decks.setSharedCall)
		})
	}
}

func TestDeckService_Cards(t *testing.T) {
	decks := &mockDeckRepository{decks: map[int]*models.Deck{
		3: {ID: 3, OwnerID: 1, Shared: true},
		4: {ID: 4, OwnerID: 1},
	}}
	cards := &mockCardRepository{cards: []models.Card{
		{ID: 30, DeckID: 3, LanguageA: "gato", LanguageB: "cat"},
		{ID: 40, DeckID: 4, LanguageA: "perro", LanguageB: "dog"},
	}}
	partners := &mockPartnerLookup{pairs: map[int]int{1: 2, 2: 1}}
	svc := newTestDeckService(decks, cards, partners)
	ctx := context.Background()

	t.Run("partner adds card to shared deck", func(t *testing.T) {
		card, err := svc.AddCard(ctx, 2, 3, &models.CardRequest{LanguageA: "casa", LanguageB: "house"})
		require.NoError(t, err)
		assert.Equal(t, 200, card.ID)
		assert.Equal(t, 3, card.DeckID)
	})

	t.Run("partner cannot add to personal deck", func(t *testing.T) {
		_, err := svc.AddCard(ctx, 2, 4, &models.CardRequest{LanguageA: "casa", LanguageB: "house"})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("blank side rejected", func(t *testing.T) {
		_, err := svc.AddCard(ctx, 1, 4, &models.CardRequest{LanguageA: "casa", LanguageB: " "})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("partner edits card of shared deck", func(t *testing.T) {
		card, err := svc.UpdateCard(ctx, 2, 30, &models.CardRequest{LanguageA: "gata", LanguageB: "cat (f)"})
		require.NoError(t, err)
		assert.Equal(t, "gata", card.LanguageA)
		assert.Same(t, card, cards.updated)
	})

	t.Run("partner cannot edit card of personal deck", func(t *testing.T) {
		_, err := svc.UpdateCard(ctx, 2, 40, &models.CardRequest{LanguageA: "x", LanguageB: "y"})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("list cards", func(t *testing.T) {
		list, err := svc.ListCards(ctx, 1, 4)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "perro", list[0].LanguageA)
	})
}
