package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type CreateSquadronRequest struct {
	Name string `json:"name"`
}

func (req *CreateSquadronRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 50)),
	)
}

type InviteRequest struct {
	InviteeID uint `json:"invitee_id"`
}

func (req *InviteRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.InviteeID, validation.Required),
	)
}

type TransferCaptaincyRequest struct {
	NewCaptainID uint `json:"new_captain_id"`
}

func (req *TransferCaptaincyRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.NewCaptainID, validation.Required),
	)
}

type ApplyPointsRequest struct {
	PointsChange int    `json:"points_change"`
	ChangeType   string `json:"change_type"`
	Reason       string `json:"reason"`
	RaceEventID  string `json:"race_event_id"`
}

func (req *ApplyPointsRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.PointsChange, validation.Required),
		validation.Field(&req.ChangeType, validation.Required,
			validation.In("race_event", "manual_adjustment", "penalty", "bonus", "revert")),
		validation.Field(&req.Reason, validation.Length(0, 500)),
	)
}

type FairRacingScoreRequest struct {
	Score int `json:"score"`
}

func (req *FairRacingScoreRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Score, validation.Min(0), validation.Max(100)),
	)
}
