package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type SubmitLinkageRequest struct {
	SearchedName       string `json:"searched_name"`
	SelectedDriverName string `json:"selected_driver_name"`
	SelectedSessionID  string `json:"selected_session_id"`
}

func (req *SubmitLinkageRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.SearchedName, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.SelectedDriverName, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.SelectedSessionID, validation.Required, validation.Length(1, 100)),
	)
}

type RejectLinkageRequest struct {
	Reason string `json:"reason"`
}

func (req *RejectLinkageRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Reason, validation.Required, validation.Length(1, 500)),
	)
}
