package repositories

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/flashpair/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupProgressTestRepository creates a progress repository with a mock database
func setupProgressTestRepository(t *testing.T) (*progressRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, logger, cleanup := setupTestDB(t)
	return NewProgressRepository(db, logger), mock, cleanup
}

var stateColumns = []string{"ease_factor", "interval_days", "repetitions", "next_due", "last_reviewed"}

func TestProgressRepository_Get(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(sqlmock.Sqlmock)
		wantNil   bool
		wantErr   bool
	}{
		{
			name: "existing state",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM scheduling_states").
					WithArgs(1, 10, "B_TO_A").
					WillReturnRows(sqlmock.NewRows(stateColumns).AddRow(2.36, 6, 2, testToday, testNow))
			},
		},
		{
			name: "never reviewed",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM scheduling_states").WillReturnError(sql.ErrNoRows)
			},
			wantNil: true,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM scheduling_states").WillReturnError(errors.New("boom"))
			},
			wantNil: true,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupProgressTestRepository(t)
			defer cleanup()
			tt.setupMock(mock)

			state, err := repo.Get(context.Background(), 1, 10, models.DirectionBToA)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, state)
			} else {
				require.NotNil(t, state)
				assert.Equal(t, 6, state.Interval)
				assert.Equal(t, 2, state.Repetitions)
				assert.Equal(t, models.DirectionBToA, state.Direction)
				require.NotNil(t, state.LastReviewed)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// expectApplyReview registers the statements of applyReviewTx for user 1, card 10, A_TO_B
func expectApplyReview(mock sqlmock.Sqlmock, current []driver.Value) {
	mock.ExpectExec("INSERT IGNORE INTO scheduling_states").
		WithArgs(1, 10, "A_TO_B", models.DefaultEaseFactor, 1, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM scheduling_states (.+) FOR UPDATE").
		WithArgs(1, 10, "A_TO_B").
		WillReturnRows(sqlmock.NewRows(stateColumns).AddRow(current...))
}

func TestProgressRepository_RecordReview(t *testing.T) {
	entry := models.ReviewHistory{UserID: 1, CardID: 10, Direction: models.DirectionAToB, Quality: 4, TimeSpent: 7, ReviewedAt: testNow}

	t.Run("success", func(t *testing.T) {
		repo, mock, cleanup := setupProgressTestRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		expectApplyReview(mock, []driver.Value{2.5, 1, 0, testToday, nil})
		mock.ExpectExec("UPDATE scheduling_states").
			WithArgs(2.5, 1, 1, sqlmock.AnyArg(), sqlmock.AnyArg(), 1, 10, "A_TO_B").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO review_history").
			WithArgs(1, 10, "A_TO_B", nil, 4, 7, 2.5, 1, 1, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		var seen models.SchedulingState
		state, err := repo.RecordReview(context.Background(), entry, testToday, func(current models.SchedulingState) (models.SchedulingState, error) {
			seen = current
			next := current
			next.Repetitions = 1
			next.NextDue = testToday.AddDate(0, 0, 1)
			reviewed := testNow
			next.LastReviewed = &reviewed
			return next, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 0, seen.Repetitions)
		assert.Nil(t, seen.LastReviewed)
		assert.Equal(t, 1, state.Repetitions)
		assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), state.NextDue)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("apply error rolls back", func(t *testing.T) {
		repo, mock, cleanup := setupProgressTestRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		expectApplyReview(mock, []driver.Value{2.5, 1, 0, testToday, nil})
		mock.ExpectRollback()

		_, err := repo.RecordReview(context.Background(), entry, testToday, func(current models.SchedulingState) (models.SchedulingState, error) {
			return current, models.ErrInvalidQuality
		})

		assert.ErrorIs(t, err, models.ErrInvalidQuality)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("history insert failure rolls back", func(t *testing.T) {
		repo, mock, cleanup := setupProgressTestRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		expectApplyReview(mock, []driver.Value{2.5, 1, 0, testToday, nil})
		mock.ExpectExec("UPDATE scheduling_states").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO review_history").WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		_, err := repo.RecordReview(context.Background(), entry, testToday, func(current models.SchedulingState) (models.SchedulingState, error) {
			return current, nil
		})

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProgressRepository_DueCardIDs(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(sqlmock.Sqlmock)
		expected  []int
		wantErr   bool
	}{
		{
			name: "due cards",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT c.id FROM cards c LEFT JOIN scheduling_states s").
					WithArgs(1, "A_TO_B", 4, sqlmock.AnyArg(), sqlmock.AnyArg()).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3).AddRow(1).AddRow(2))
			},
			expected: []int{3, 1, 2},
		},
		{
			name: "nothing due",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT c.id FROM cards c").WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			expected: []int{},
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT c.id FROM cards c").WillReturnError(errors.New("boom"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupProgressTestRepository(t)
			defer cleanup()
			tt.setupMock(mock)

			ids, err := repo.DueCardIDs(context.Background(), 1, 4, models.DirectionAToB, testToday)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, ids)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
