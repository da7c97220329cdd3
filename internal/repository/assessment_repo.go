package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/davidvv/claimplane/internal/domain"
)

// evaluatedAtLayout keeps the fractional seconds fixed width so the stored
// strings sort in timestamp order. RFC3339Nano trims trailing zeros, which
// breaks lexicographic ordering within a second.
const evaluatedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

type AssessmentRepo struct {
	db *sql.DB
}

func NewAssessmentRepo(db *sql.DB) *AssessmentRepo {
	return &AssessmentRepo{db: db}
}

func (r *AssessmentRepo) Insert(a *domain.Assessment) error {
	reasons, err := json.Marshal(a.Verdict.Reasons)
	if err != nil {
		return fmt.Errorf("marshal reasons: %w", err)
	}
	requirements, err := json.Marshal(a.Verdict.Requirements)
	if err != nil {
		return fmt.Errorf("marshal requirements: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO assessments
		(id, claim_id, trigger_kind, eligible, compensation_amount, currency,
		 regulation, reasons, requirements, requires_manual_review, evaluated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.ClaimID, string(a.Trigger), boolToInt(a.Verdict.Eligible),
		nullableFloat(a.Verdict.CompensationAmount), a.Verdict.Currency,
		string(a.Verdict.Regulation), string(reasons), string(requirements),
		boolToInt(a.Verdict.RequiresManualReview),
		a.EvaluatedAt.Format(evaluatedAtLayout),
	)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

// GetByClaimID returns a claim's assessment history, newest first.
func (r *AssessmentRepo) GetByClaimID(claimID string) ([]domain.Assessment, error) {
	rows, err := r.db.Query(
		"SELECT * FROM assessments WHERE claim_id = ? ORDER BY evaluated_at DESC, id DESC",
		claimID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var assessments []domain.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		assessments = append(assessments, *a)
	}
	return assessments, rows.Err()
}

// GetLatestByClaimID returns the most recent assessment, or nil when the
// claim has none.
func (r *AssessmentRepo) GetLatestByClaimID(claimID string) (*domain.Assessment, error) {
	row := r.db.QueryRow(
		"SELECT * FROM assessments WHERE claim_id = ? ORDER BY evaluated_at DESC, id DESC LIMIT 1",
		claimID,
	)
	a, err := scanAssessment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func scanAssessment(s flightScanner) (*domain.Assessment, error) {
	var a domain.Assessment
	var trigger, regulation, reasons, requirements, evaluatedAt string
	var eligible, manualReview int
	var amount sql.NullFloat64

	err := s.Scan(
		&a.ID, &a.ClaimID, &trigger, &eligible, &amount, &a.Verdict.Currency,
		&regulation, &reasons, &requirements, &manualReview, &evaluatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Trigger = domain.AssessmentTrigger(trigger)
	a.Verdict.Eligible = eligible != 0
	a.Verdict.RequiresManualReview = manualReview != 0
	a.Verdict.Regulation = domain.Regulation(regulation)
	a.EvaluatedAt, _ = time.Parse(time.RFC3339, evaluatedAt)

	if amount.Valid {
		v := amount.Float64
		a.Verdict.CompensationAmount = &v
	}
	if err := json.Unmarshal([]byte(reasons), &a.Verdict.Reasons); err != nil {
		return nil, fmt.Errorf("unmarshal reasons: %w", err)
	}
	if err := json.Unmarshal([]byte(requirements), &a.Verdict.Requirements); err != nil {
		return nil, fmt.Errorf("unmarshal requirements: %w", err)
	}

	return &a, nil
}
