package dao

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database. The pool is capped at
// one connection because every sqlite :memory: connection is its own
// database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, InitTables(db))

	return db
}

func seedUser(t *testing.T, db *gorm.DB, name, email string) User {
	t.Helper()

	user := User{
		Email:    email,
		Password: "hashed",
		Name:     name,
		Role:     "driver",
	}
	require.NoError(t, db.Create(&user).Error)

	return user
}

func seedLinkedUser(t *testing.T, db *gorm.DB, name, email, driverName string) User {
	t.Helper()

	now := time.Now().UTC()
	user := User{
		Email:      email,
		Password:   "hashed",
		Name:       name,
		Role:       "driver",
		DriverName: &driverName,
		LinkStatus: "linked",
		LinkedAt:   &now,
	}
	require.NoError(t, db.Create(&user).Error)

	return user
}

func seedSession(t *testing.T, db *gorm.DB, sessionID string, date time.Time, results []DriverResult) RaceSession {
	t.Helper()

	session := RaceSession{
		SessionID:   sessionID,
		SessionName: "Session " + sessionID,
		SessionDate: date,
		SessionType: "race",
		Results:     results,
	}
	require.NoError(t, db.Create(&session).Error)

	return session
}
