package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrSessionNotFound    = errors.New("race session not found")
	ErrDuplicateSessionID = errors.New("race session already ingested")
)

// RaceSession rows come from the external timing system and are
// append-only; Processed is the single mutable column.
type RaceSession struct {
	ID uint `gorm:"primaryKey"`

	SessionID   string    `gorm:"uniqueIndex;not null"`
	SessionName string    `gorm:"not null"`
	SessionDate time.Time `gorm:"not null;index"`
	SessionType string    `gorm:"not null"` // "practice", "qualifying", "race" or "other"
	Processed   bool      `gorm:"not null;default:false"`

	Results []DriverResult `gorm:"foreignKey:RaceSessionID"`

	CreatedAt time.Time `gorm:"not null"`
}

type DriverResult struct {
	ID            uint `gorm:"primaryKey"`
	RaceSessionID uint `gorm:"not null;index"`

	DriverName    string `gorm:"not null;index"`
	KartNumber    int    `gorm:"not null"`
	FinalPosition int    `gorm:"not null"`
	BestTimeMS    int    `gorm:"column:best_time_ms;not null"`
	LastTimeMS    int    `gorm:"column:last_time_ms;not null"`
	TotalLaps     int    `gorm:"not null"`

	Laps []Lap `gorm:"foreignKey:DriverResultID"`
}

type Lap struct {
	ID             uint `gorm:"primaryKey"`
	DriverResultID uint `gorm:"not null;index"`

	LapNumber int `gorm:"not null"`
	TimeMS    int `gorm:"column:time_ms;not null"`
	Position  int `gorm:"not null"`
}

// DriverSessionRow is one driver's result joined with its session
// header, as scanned by FindResultsByDriverName.
type DriverSessionRow struct {
	SessionID     string
	SessionName   string
	SessionDate   time.Time
	SessionType   string
	DriverName    string
	KartNumber    int
	FinalPosition int
	BestTimeMS    int `gorm:"column:best_time_ms"`
	TotalLaps     int
}

type SessionDAO struct {
	db *gorm.DB
}

func NewSessionDAO(db *gorm.DB) *SessionDAO {
	return &SessionDAO{
		db: db,
	}
}

func (d *SessionDAO) Insert(ctx context.Context, session RaceSession) (RaceSession, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&RaceSession{}).
			Where("session_id = ?", session.SessionID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateSessionID
		}

		return tx.Create(&session).Error
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return RaceSession{}, ErrDuplicateSessionID
		}

		return RaceSession{}, err
	}

	return session, nil
}

func (d *SessionDAO) FindBySessionID(ctx context.Context, sessionID string) (RaceSession, error) {
	var session RaceSession

	result := d.db.WithContext(ctx).
		Preload("Results.Laps").
		Preload("Results").
		First(&session, "session_id = ?", sessionID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return RaceSession{}, ErrSessionNotFound
		}

		return RaceSession{}, result.Error
	}

	return session, nil
}

func (d *SessionDAO) FindAll(ctx context.Context) ([]RaceSession, error) {
	var sessions []RaceSession

	result := d.db.WithContext(ctx).
		Order("session_date DESC").
		Find(&sessions)
	if result.Error != nil {
		return nil, result.Error
	}

	return sessions, nil
}

func (d *SessionDAO) MarkProcessed(ctx context.Context, sessionID string) error {
	result := d.db.WithContext(ctx).
		Model(&RaceSession{}).
		Where("session_id = ?", sessionID).
		Update("processed", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// FindResultsByDriverName joins driver results with their session
// headers, matching the free-text name case-insensitively, ordered by
// session date ascending.
func (d *SessionDAO) FindResultsByDriverName(ctx context.Context, driverName string) ([]DriverSessionRow, error) {
	var rows []DriverSessionRow

	result := d.db.WithContext(ctx).
		Table("driver_results").
		Select("race_sessions.session_id, race_sessions.session_name, race_sessions.session_date, race_sessions.session_type, " +
			"driver_results.driver_name, driver_results.kart_number, driver_results.final_position, " +
			"driver_results.best_time_ms, driver_results.total_laps").
		Joins("JOIN race_sessions ON race_sessions.id = driver_results.race_session_id").
		Where("LOWER(driver_results.driver_name) = LOWER(?)", driverName).
		Order("race_sessions.session_date ASC").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

// HasDriverInSession reports whether the named driver appears in the
// given session. Used to validate the proof session on linkage requests.
func (d *SessionDAO) HasDriverInSession(ctx context.Context, sessionID, driverName string) (bool, error) {
	var count int64

	result := d.db.WithContext(ctx).
		Table("driver_results").
		Joins("JOIN race_sessions ON race_sessions.id = driver_results.race_session_id").
		Where("race_sessions.session_id = ? AND LOWER(driver_results.driver_name) = LOWER(?)", sessionID, driverName).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}
