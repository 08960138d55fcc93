package services

import (
	"testing"
	"time"

	"github.com/calltrackhq/calltrack-backend/internal/config"
	"github.com/calltrackhq/calltrack-backend/internal/dto"
	"github.com/calltrackhq/calltrack-backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database pinned to a single
// connection, so every query in a test sees the same schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.PhoneNumber{},
		&models.Call{},
		&models.RefreshToken{},
	))
	return db
}

func newTestUserService(t *testing.T, db *gorm.DB) *UserService {
	t.Helper()
	return NewUserService(db, NewAvatarService(t.TempDir()))
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: time.Hour,
	}
}

const testPassword = "Sup3rSecret!"

// registerUser creates a fully valid account with one primary number.
func registerUser(t *testing.T, users *UserService, username, phone string) *models.User {
	t.Helper()

	user, err := users.Register(&dto.RegisterRequest{
		Username:  username,
		Password:  testPassword,
		FirstName: "Test",
		LastName:  "User",
		Phone:     phone,
	})
	require.NoError(t, err)
	return user
}
