package domain

import "time"

type Regulation string

const (
	RegulationEU261 Regulation = "EU261"
	RegulationDOT   Regulation = "DOT"
	RegulationCTA   Regulation = "CTA"
)

// EligibilityVerdict is the engine's sole product: a pure derivation of the
// flight facts and customer region, with no lifecycle of its own.
//
// Invariants: Eligible == false implies CompensationAmount == nil, and
// RequiresManualReview == true implies CompensationAmount == nil even when a
// tentative Eligible == true is returned.
type EligibilityVerdict struct {
	Eligible             bool       `json:"eligible"`
	CompensationAmount   *float64   `json:"compensation_amount"`
	Currency             string     `json:"currency"`
	Regulation           Regulation `json:"regulation"`
	Reasons              []string   `json:"reasons"`
	Requirements         []string   `json:"requirements,omitempty"`
	RequiresManualReview bool       `json:"requires_manual_review"`
}

type AssessmentTrigger string

const (
	TriggerSubmission AssessmentTrigger = "submission"
	TriggerRefresh    AssessmentTrigger = "refresh"
	TriggerReview     AssessmentTrigger = "review"
)

// Assessment is a persisted snapshot of one verdict for a claim. Snapshots
// are append-only; re-deriving after a flight-fact refresh adds a new one.
type Assessment struct {
	ID      string            `json:"id"`
	ClaimID string            `json:"claim_id"`
	Trigger AssessmentTrigger `json:"trigger"`

	Verdict EligibilityVerdict `json:"verdict"`

	EvaluatedAt time.Time `json:"evaluated_at"`
}

// StatusReport records one ingested flight status report file.
type StatusReport struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Format      string    `json:"format"`
	FileHash    string    `json:"file_hash"`
	RecordCount int       `json:"record_count"`
	IngestedAt  time.Time `json:"ingested_at"`
}
