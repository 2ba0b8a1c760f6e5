package repositories

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testToday = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	testNow   = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
)

// setupTestDB creates a mock database and a logger shared by the repository tests
func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *zap.Logger, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}

	return db, mock, logger, cleanup
}
