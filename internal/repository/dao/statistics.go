package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrStatisticsNotFound = errors.New("user statistics not found")

// UserStatistics is a materialized view over race sessions for the
// account's linked driver name, one row per account. State tracks
// whether the row may be served ("ready") or must be recomputed first.
type UserStatistics struct {
	UserID uint `gorm:"primaryKey"`

	TotalRaces     int `gorm:"not null;default:0"`
	BestTimeMS     int `gorm:"column:best_time_ms;not null;default:0"`
	AverageTimeMS  int `gorm:"column:average_time_ms;not null;default:0"`
	PodiumFinishes int `gorm:"not null;default:0"`
	FirstRaceAt    *time.Time
	LastRaceAt     *time.Time

	State      string    `gorm:"not null;default:stale"`
	ComputedAt time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// StatisticsRecentSession is one line of the bounded recent-sessions
// window, replaced wholesale on every recompute.
type StatisticsRecentSession struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"not null;index"`

	SessionID     string    `gorm:"not null"`
	SessionName   string    `gorm:"not null"`
	SessionDate   time.Time `gorm:"not null"`
	SessionType   string    `gorm:"not null"`
	FinalPosition int       `gorm:"not null"`
	BestTimeMS    int       `gorm:"column:best_time_ms;not null"`
}

type StatisticsDAO struct {
	db *gorm.DB
}

func NewStatisticsDAO(db *gorm.DB) *StatisticsDAO {
	return &StatisticsDAO{
		db: db,
	}
}

func (d *StatisticsDAO) FindByUserID(ctx context.Context, userID uint) (UserStatistics, []StatisticsRecentSession, error) {
	var stats UserStatistics

	result := d.db.WithContext(ctx).First(&stats, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return UserStatistics{}, nil, ErrStatisticsNotFound
		}

		return UserStatistics{}, nil, result.Error
	}

	var recent []StatisticsRecentSession
	result = d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("session_date DESC").
		Find(&recent)
	if result.Error != nil {
		return UserStatistics{}, nil, result.Error
	}

	return stats, recent, nil
}

// Replace swaps the stored view for a freshly computed one in a single
// transaction, so readers never observe a half-written recompute.
func (d *StatisticsDAO) Replace(ctx context.Context, stats UserStatistics, recent []StatisticsRecentSession) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("user_id = ?", stats.UserID).
			Delete(&StatisticsRecentSession{}).Error; err != nil {
			return err
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).Create(&stats).Error; err != nil {
			return err
		}

		if len(recent) == 0 {
			return nil
		}

		return tx.Create(&recent).Error
	})
}

// MarkStale flags the account's view as needing a recompute, creating
// the row if the account never had one.
func (d *StatisticsDAO) MarkStale(ctx context.Context, userID uint) error {
	return d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"state": "stale"}),
	}).Create(&UserStatistics{UserID: userID, State: "stale"}).Error
}
