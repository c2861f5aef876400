package domain

import "time"

const (
	SessionTypePractice   = "practice"
	SessionTypeQualifying = "qualifying"
	SessionTypeRace       = "race"
	SessionTypeOther      = "other"
)

// RaceSession is one sitting recorded by the external timing system.
// Driver names inside it are free text typed at the kiosk, not account
// references. Sessions are append-only; only Processed ever changes.
type RaceSession struct {
	ID          uint           `json:"id"`
	SessionID   string         `json:"session_id"`
	SessionName string         `json:"session_name"`
	SessionDate time.Time      `json:"session_date"`
	SessionType string         `json:"session_type"`
	Processed   bool           `json:"processed"`
	Results     []DriverResult `json:"results"`
	CreatedAt   time.Time      `json:"created_at"`
}

type DriverResult struct {
	DriverName    string `json:"driver_name"`
	KartNumber    int    `json:"kart_number"`
	FinalPosition int    `json:"final_position"`
	BestTimeMS    int    `json:"best_time_ms"`
	LastTimeMS    int    `json:"last_time_ms"`
	TotalLaps     int    `json:"total_laps"`
	Laps          []Lap  `json:"laps,omitempty"`
}

type Lap struct {
	LapNumber int `json:"lap_number"`
	TimeMS    int `json:"time_ms"`
	Position  int `json:"position"`
}

// DriverSessionResult is one driver's line in one session, joined with
// the session header. This is what the statistics aggregator folds over.
type DriverSessionResult struct {
	SessionID     string    `json:"session_id"`
	SessionName   string    `json:"session_name"`
	SessionDate   time.Time `json:"session_date"`
	SessionType   string    `json:"session_type"`
	DriverName    string    `json:"driver_name"`
	KartNumber    int       `json:"kart_number"`
	FinalPosition int       `json:"final_position"`
	BestTimeMS    int       `json:"best_time_ms"`
	TotalLaps     int       `json:"total_laps"`
}
