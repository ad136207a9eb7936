package repositories

import (
	"testing"

	"designhub_backend/internal/models"
	"designhub_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestForUpdate_PostgresLocksRow(t *testing.T) {
	pg, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=designhub dbname=designhub sslmode=disable"}),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	stmt := forUpdate(pg).Select("id").First(&models.Portfolio{}, "id = ?", "p1").Statement
	assert.Contains(t, stmt.SQL.String(), "FOR UPDATE")
}

func TestForUpdate_SQLiteSkipsLock(t *testing.T) {
	db := testutil.NewTestDB(t).Session(&gorm.Session{DryRun: true})

	stmt := forUpdate(db).Select("id").First(&models.Portfolio{}, "id = ?", "p1").Statement
	assert.NotContains(t, stmt.SQL.String(), "FOR UPDATE")
}

func TestPortfolioLockForUpdate_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPortfolioRepository()

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.LockForUpdate(tx, "missing")
	})
	assert.ErrorIs(t, err, ErrPortfolioNotFound)
}
