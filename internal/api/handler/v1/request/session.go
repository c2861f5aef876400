package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

type IngestSessionRequest struct {
	SessionID   string                `json:"session_id"`
	SessionName string                `json:"session_name"`
	SessionDate time.Time             `json:"session_date"`
	SessionType string                `json:"session_type"`
	Results     []DriverResultRequest `json:"results"`
}

type DriverResultRequest struct {
	DriverName    string       `json:"driver_name"`
	KartNumber    int          `json:"kart_number"`
	FinalPosition int          `json:"final_position"`
	BestTimeMS    int          `json:"best_time_ms"`
	LastTimeMS    int          `json:"last_time_ms"`
	TotalLaps     int          `json:"total_laps"`
	Laps          []LapRequest `json:"laps"`
}

type LapRequest struct {
	LapNumber int `json:"lap_number"`
	TimeMS    int `json:"time_ms"`
	Position  int `json:"position"`
}

func (req *IngestSessionRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.SessionID, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.SessionName, validation.Required),
		validation.Field(&req.SessionDate, validation.Required),
		validation.Field(&req.SessionType,
			validation.In("practice", "qualifying", "race", "other")),
		validation.Field(&req.Results, validation.Required),
	)
	if err != nil {
		return err
	}

	for _, result := range req.Results {
		if err = validation.ValidateStruct(
			&result,
			validation.Field(&result.DriverName, validation.Required, validation.Length(1, 100)),
		); err != nil {
			return err
		}
	}

	return nil
}
