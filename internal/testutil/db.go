package testutil

import (
	"fmt"
	"testing"

	"github.com/Skotchmaster/online_cinema/internal/db"
	"github.com/Skotchmaster/online_cinema/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens an isolated in-memory sqlite database with every model migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", uuid.NewString())
	cfg := db.GormConfig()
	cfg.PrepareStmt = false
	cfg.Logger = logger.Default.LogMode(logger.Silent)

	gdb, err := gorm.Open(sqlite.Open(dsn), cfg)
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func SeedUser(t *testing.T, gdb *gorm.DB, email string) models.User {
	t.Helper()
	u := models.User{Email: email, Role: "user"}
	require.NoError(t, gdb.Create(&u).Error)
	return u
}

func SeedMovie(t *testing.T, gdb *gorm.DB, name, price string) models.Movie {
	t.Helper()
	m := models.Movie{Name: name, Price: decimal.RequireFromString(price)}
	require.NoError(t, gdb.Create(&m).Error)
	return m
}
