package dao

import "gorm.io/gorm"

func InitTables(db *gorm.DB) error {
	err := db.AutoMigrate(
		&User{},
		&RaceSession{},
		&DriverResult{},
		&Lap{},
		&LinkageRequest{},
		&UserStatistics{},
		&StatisticsRecentSession{},
		&Squadron{},
		&SquadronMember{},
		&SquadronPointsHistory{},
		&SquadronInvite{},
	)
	if err != nil {
		return err
	}

	return createPartialIndexes(db)
}

// createPartialIndexes adds the uniqueness constraints AutoMigrate
// cannot express: one linked account per driver name, and one pending
// linkage request per user. Both hold under concurrent writers because
// the database enforces them, not the application.
func createPartialIndexes(db *gorm.DB) error {
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uni_users_linked_driver_name
			ON users (LOWER(driver_name)) WHERE link_status = 'linked'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uni_linkage_requests_pending
			ON linkage_requests (web_user_id) WHERE status = 'pending'`,
	}

	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}

	return nil
}
