package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/flashpair/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupInvitationTestRepository creates an invitation repository with a mock database
func setupInvitationTestRepository(t *testing.T) (*invitationRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, logger, cleanup := setupTestDB(t)
	return NewInvitationRepository(db, logger), mock, cleanup
}

func TestInvitationRepository_Create(t *testing.T) {
	repo, mock, cleanup := setupInvitationTestRepository(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO partnership_invitations").
		WithArgs("Q7W8E9", 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(4, 1))

	invitation := &models.PartnershipInvitation{Code: "Q7W8E9", InviterID: 1, CreatedAt: testNow, ExpiresAt: testNow.Add(7 * 24 * time.Hour)}
	err := repo.Create(context.Background(), invitation)

	require.NoError(t, err)
	assert.Equal(t, 4, invitation.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationRepository_ActiveCodeExists(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(sqlmock.Sqlmock)
		expected  bool
		wantErr   bool
	}{
		{
			name: "code in use",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM partnership_invitations")).
					WithArgs("Q7W8E9", sqlmock.AnyArg()).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
			},
			expected: true,
		},
		{
			name: "code free",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM partnership_invitations")).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
			},
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT").WillReturnError(errors.New("boom"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupInvitationTestRepository(t)
			defer cleanup()
			tt.setupMock(mock)

			exists, err := repo.ActiveCodeExists(context.Background(), "Q7W8E9", testNow)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, exists)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestInvitationRepository_DeleteExpired(t *testing.T) {
	repo, mock, cleanup := setupInvitationTestRepository(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM partnership_invitations WHERE accepted_by IS NULL").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	deleted, err := repo.DeleteExpired(context.Background(), testNow)

	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
