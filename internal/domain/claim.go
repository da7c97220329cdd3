package domain

import "time"

type ClaimStatus string

const (
	ClaimSubmitted    ClaimStatus = "submitted"
	ClaimUnderReview  ClaimStatus = "under_review"
	ClaimManualReview ClaimStatus = "manual_review"
	ClaimApproved     ClaimStatus = "approved"
	ClaimRejected     ClaimStatus = "rejected"
	ClaimPaid         ClaimStatus = "paid"
)

type Region string

const (
	RegionEU Region = "EU"
	RegionUS Region = "US"
	RegionCA Region = "CA"
)

type IncidentType string

const (
	IncidentDelay          IncidentType = "delay"
	IncidentCancellation   IncidentType = "cancellation"
	IncidentDeniedBoarding IncidentType = "denied_boarding"
	IncidentBaggageDelay   IncidentType = "baggage_delay"
)

type Claim struct {
	ID             string       `json:"id"`
	FlightID       string       `json:"flight_id"`
	PassengerName  string       `json:"passenger_name"`
	PassengerEmail string       `json:"passenger_email"`
	Region         Region       `json:"region"`
	IncidentType   IncidentType `json:"incident_type"`

	// Reviewer-controlled extraordinary-circumstances veto. Cause is the
	// free-text category (weather, strike, security) when known.
	Extraordinary      bool   `json:"extraordinary_circumstances"`
	ExtraordinaryCause string `json:"extraordinary_cause,omitempty"`

	// Passenger-supplied facts used when the flight row has no actuals yet.
	ReportedDelayMinutes      *int `json:"reported_delay_minutes,omitempty"`
	NoticeDaysBeforeDeparture *int `json:"notice_days_before_departure,omitempty"`

	Status ClaimStatus `json:"status"`

	// Set by an admin review; overrides any engine amount.
	ManualAmount *float64 `json:"manual_amount,omitempty"`

	// Set when an admin records an approve/reject decision. A rejection with
	// ReviewedAt is a human call and stays closed; one without came from the
	// engine and a fact refresh may still reopen it.
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
