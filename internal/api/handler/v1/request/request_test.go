package request

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignupRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     SignupRequest
		wantErr bool
	}{
		{
			name: "valid",
			req:  SignupRequest{Email: "diego@example.com", Password: "passw0rd", Name: "Diego"},
		},
		{
			name:    "invalid email",
			req:     SignupRequest{Email: "not-an-email", Password: "passw0rd", Name: "Diego"},
			wantErr: true,
		},
		{
			name:    "password too short",
			req:     SignupRequest{Email: "diego@example.com", Password: "pw1", Name: "Diego"},
			wantErr: true,
		},
		{
			name:    "password without digit",
			req:     SignupRequest{Email: "diego@example.com", Password: "passwords", Name: "Diego"},
			wantErr: true,
		},
		{
			name:    "password without letter",
			req:     SignupRequest{Email: "diego@example.com", Password: "12345678", Name: "Diego"},
			wantErr: true,
		},
		{
			name:    "name too short",
			req:     SignupRequest{Email: "diego@example.com", Password: "passw0rd", Name: "D"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIngestSessionRequest_Validate(t *testing.T) {
	valid := IngestSessionRequest{
		SessionID:   "S-100",
		SessionName: "Friday Night Heat 1",
		SessionDate: time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC),
		SessionType: "race",
		Results: []DriverResultRequest{
			{DriverName: "Diego R", KartNumber: 7, FinalPosition: 2, BestTimeMS: 41000},
		},
	}
	assert.NoError(t, valid.Validate())

	noResults := valid
	noResults.Results = nil
	assert.Error(t, noResults.Validate())

	unknownType := valid
	unknownType.SessionType = "endurance"
	assert.Error(t, unknownType.Validate())

	blankDriver := valid
	blankDriver.Results = []DriverResultRequest{{DriverName: ""}}
	assert.Error(t, blankDriver.Validate())
}

func TestSubmitLinkageRequest_Validate(t *testing.T) {
	valid := SubmitLinkageRequest{
		SearchedName:       "Diego",
		SelectedDriverName: "Diego R",
		SelectedSessionID:  "S-100",
	}
	assert.NoError(t, valid.Validate())

	missingSession := valid
	missingSession.SelectedSessionID = ""
	assert.Error(t, missingSession.Validate())
}

func TestRejectLinkageRequest_Validate(t *testing.T) {
	assert.NoError(t, (&RejectLinkageRequest{Reason: "name belongs to another regular"}).Validate())
	assert.Error(t, (&RejectLinkageRequest{}).Validate())
}

func TestApplyPointsRequest_Validate(t *testing.T) {
	valid := ApplyPointsRequest{PointsChange: 25, ChangeType: "race_event"}
	assert.NoError(t, valid.Validate())

	negative := ApplyPointsRequest{PointsChange: -10, ChangeType: "penalty", Reason: "contact at turn 2"}
	assert.NoError(t, negative.Validate())

	zero := ApplyPointsRequest{PointsChange: 0, ChangeType: "race_event"}
	assert.Error(t, zero.Validate())

	unknownType := ApplyPointsRequest{PointsChange: 5, ChangeType: "promotion"}
	assert.Error(t, unknownType.Validate())
}

func TestFairRacingScoreRequest_Validate(t *testing.T) {
	assert.NoError(t, (&FairRacingScoreRequest{Score: 85}).Validate())
	assert.NoError(t, (&FairRacingScoreRequest{Score: 0}).Validate())
	assert.Error(t, (&FairRacingScoreRequest{Score: 101}).Validate())
	assert.Error(t, (&FairRacingScoreRequest{Score: -1}).Validate())
}

func TestCreateSquadronRequest_Validate(t *testing.T) {
	assert.NoError(t, (&CreateSquadronRequest{Name: "Apex Hunters"}).Validate())
	assert.Error(t, (&CreateSquadronRequest{}).Validate())
	assert.Error(t, (&CreateSquadronRequest{Name: "A"}).Validate())
}
