package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flashpair/backend/internal/middleware"
	"github.com/flashpair/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

const testUserID = 1

// routeRegistrar is implemented by every handler
type routeRegistrar interface {
	RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler)
}

// fakeAuth authenticates every request as testUserID
func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(middleware.WithUserID(r.Context(), testUserID)))
	})
}

// noAuth passes requests through without a user in the context
func noAuth(next http.Handler) http.Handler {
	return next
}

func newTestRouter(h routeRegistrar, auth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		h.RegisterRoutes(r, auth)
	})
	return r
}

// doRequest sends a request with an optional JSON body and decodes the response envelope
func doRequest(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

// decodeData re-decodes the envelope data into dst
func decodeData(t *testing.T, resp Response, dst any) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dst))
}

// mockDeckService is a mock implementation of DeckService
type mockDeckService struct {
	deck       *models.Deck
	decks      []models.DeckListItem
	card       *models.Card
	cards      []models.Card
	err        error
	gotDeckReq *models.CreateDeckRequest
	gotCardReq *models.CardRequest
	gotShared  *bool
	gotID      int
}

func (m *mockDeckService) Create(ctx context.Context, userID int, req *models.CreateDeckRequest) (*models.Deck, error) {
	m.gotDeckReq = req
	return m.deck, m.err
}

func (m *mockDeckService) List(ctx context.Context, userID int) ([]models.DeckListItem, error) {
	return m.decks, m.err
}

func (m *mockDeckService) Get(ctx context.Context, userID, deckID int) (*models.Deck, error) {
	m.gotID = deckID
	return m.deck, m.err
}

func (m *mockDeckService) SetShared(ctx context.Context, userID, deckID int, shared bool) (*models.Deck, error) {
	m.gotID = deckID
	m.gotShared = &shared
	return m.deck, m.err
}

func (m *mockDeckService) AddCard(ctx context.Context, userID, deckID int, req *models.CardRequest) (*models.Card, error) {
	m.gotID = deckID
	m.gotCardReq = req
	return m.card, m.err
}

func (m *mockDeckService) UpdateCard(ctx context.Context, userID, cardID int, req *models.CardRequest) (*models.Card, error) {
	m.gotID = cardID
	m.gotCardReq = req
	return m.card, m.err
}

func (m *mockDeckService) ListCards(ctx context.Context, userID, deckID int) ([]models.Card, error) {
	m.gotID = deckID
	return m.cards, m.err
}

// mockStudyService is a mock implementation of StudyService
type mockStudyService struct {
	start        *models.SessionStart
	result       *models.ReviewResult
	session      *models.StudySession
	summary      *models.SessionSummary
	due          []int
	err          error
	gotPolicy    models.DirectionPolicy
	gotDirection models.Direction
	gotSession   string
	gotCard      int
	gotQuality   int
	gotTime      int
}

func (m *mockStudyService) Start(ctx context.Context, userID, deckID int, policy models.DirectionPolicy) (*models.SessionStart, error) {
	m.gotPolicy = policy
	return m.start, m.err
}

func (m *mockStudyService) SubmitReview(ctx context.Context, userID int, sessionID string, cardID, quality, timeSpent int) (*models.ReviewResult, error) {
	m.gotSession = sessionID
	m.gotCard = cardID
	m.gotQuality = quality
	m.gotTime = timeSpent
	return m.result, m.err
}

func (m *mockStudyService) Get(ctx context.Context, userID int, sessionID string) (*models.StudySession, error) {
	m.gotSession = sessionID
	return m.session, m.err
}

func (m *mockStudyService) Summary(ctx context.Context, userID int, sessionID string) (*models.SessionSummary, error) {
	m.gotSession = sessionID
	return m.summary, m.err
}

func (m *mockStudyService) DueCards(ctx context.Context, userID, deckID int, direction models.Direction) ([]int, error) {
	m.gotDirection = direction
	return m.due, m.err
}

// mockPartnershipService is a mock implementation of PartnershipService
type mockPartnershipService struct {
	invitation  *models.PartnershipInvitation
	partnership *models.Partnership
	view        *models.PartnershipView
	err         error
	gotCode     string
	dissolved   bool
}

func (m *mockPartnershipService) Invite(ctx context.Context, userID int) (*models.PartnershipInvitation, error) {
	return m.invitation, m.err
}

func (m *mockPartnershipService) Accept(ctx context.Context, userID int, code string) (*models.Partnership, error) {
	m.gotCode = code
	return m.partnership, m.err
}

func (m *mockPartnershipService) Dissolve(ctx context.Context, userID int) error {
	m.dissolved = m.err == nil
	return m.err
}

func (m *mockPartnershipService) Get(ctx context.Context, userID int) (*models.PartnershipView, error) {
	return m.view, m.err
}

// mockStatsService is a mock implementation of StatsService
type mockStatsService struct {
	user      *models.UserStats
	deck      *models.DeckStats
	err       error
	gotDeckID int
}

func (m *mockStatsService) UserStats(ctx context.Context, userID int) (*models.UserStats, error) {
	return m.user, m.err
}

func (m *mockStatsService) DeckStats(ctx context.Context, userID, deckID int) (*models.DeckStats, error) {
	m.gotDeckID = deckID
	return m.deck, m.err
}
