package domain

import "time"

const (
	StatisticsStateReady       = "ready"
	StatisticsStateStale       = "stale"
	StatisticsStateRecomputing = "recomputing"
)

// RecentSessionLimit bounds the rolling window kept for display.
const RecentSessionLimit = 10

// UserStatistics is a materialized view over RaceSession for the
// account's linked driver name. It must always be reproducible by a
// full rescan; State marks whether the stored row is servable.
type UserStatistics struct {
	UserID         uint            `json:"user_id"`
	TotalRaces     int             `json:"total_races"`
	BestTimeMS     int             `json:"best_time_ms"`
	AverageTimeMS  int             `json:"average_time_ms"`
	PodiumFinishes int             `json:"podium_finishes"`
	FirstRaceAt    *time.Time      `json:"first_race_at,omitempty"`
	LastRaceAt     *time.Time      `json:"last_race_at,omitempty"`
	State          string          `json:"state"`
	RecentSessions []RecentSession `json:"recent_sessions"`
	ComputedAt     time.Time       `json:"computed_at"`
}

type RecentSession struct {
	SessionID     string    `json:"session_id"`
	SessionName   string    `json:"session_name"`
	SessionDate   time.Time `json:"session_date"`
	SessionType   string    `json:"session_type"`
	FinalPosition int       `json:"final_position"`
	BestTimeMS    int       `json:"best_time_ms"`
}
