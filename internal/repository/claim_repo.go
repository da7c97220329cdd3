package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/davidvv/claimplane/internal/domain"
)

type ClaimRepo struct {
	db *sql.DB
}

func NewClaimRepo(db *sql.DB) *ClaimRepo {
	return &ClaimRepo{db: db}
}

func (r *ClaimRepo) Insert(c *domain.Claim) error {
	_, err := r.db.Exec(
		`INSERT INTO claims
		(id, flight_id, passenger_name, passenger_email, region, incident_type,
		 extraordinary, extraordinary_cause, reported_delay_minutes,
		 notice_days_before_departure, status, manual_amount, reviewed_at,
		 created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.FlightID, c.PassengerName, c.PassengerEmail, string(c.Region),
		string(c.IncidentType), boolToInt(c.Extraordinary), c.ExtraordinaryCause,
		nullableInt(c.ReportedDelayMinutes), nullableInt(c.NoticeDaysBeforeDeparture),
		string(c.Status), nullableFloat(c.ManualAmount), formatNullableTime(c.ReviewedAt),
		c.CreatedAt.Format(time.RFC3339), c.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

func (r *ClaimRepo) GetByID(id string) (*domain.Claim, error) {
	row := r.db.QueryRow("SELECT * FROM claims WHERE id = ?", id)
	return scanClaim(row)
}

// GetOpenByFlightID returns claims on a flight that a fact refresh can still
// move: anything not yet decided by an admin. Engine rejections (no
// reviewed_at) stay open so refreshed actuals can reopen them; a human
// rejection is final.
func (r *ClaimRepo) GetOpenByFlightID(flightID string) ([]domain.Claim, error) {
	rows, err := r.db.Query(
		`SELECT * FROM claims WHERE flight_id = ?
		 AND (status IN ('submitted','under_review','manual_review')
		      OR (status = 'rejected' AND reviewed_at IS NULL))
		 ORDER BY created_at`,
		flightID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var claims []domain.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		claims = append(claims, *c)
	}
	return claims, rows.Err()
}

type ClaimFilter struct {
	Status   string
	Region   string
	Incident string
	FlightID string
	From     *time.Time
	To       *time.Time
	Page     int
	Limit    int
}

func (r *ClaimRepo) List(f ClaimFilter) ([]domain.Claim, int, error) {
	where, args := buildClaimWhere(f)

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM claims"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	rows, err := r.db.Query(
		"SELECT * FROM claims"+where+" ORDER BY created_at DESC LIMIT ? OFFSET ?",
		append(args, f.Limit, offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var claims []domain.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		claims = append(claims, *c)
	}
	return claims, total, rows.Err()
}

func (r *ClaimRepo) UpdateStatus(id string, status domain.ClaimStatus) error {
	_, err := r.db.Exec(
		"UPDATE claims SET status = ?, updated_at = ? WHERE id = ?",
		string(status), time.Now().UTC().Format(time.RFC3339), id,
	)
	return err
}

// UpdateReview records an admin decision, including an optional manual
// compensation amount and an extraordinary-circumstances override.
func (r *ClaimRepo) UpdateReview(c *domain.Claim) error {
	_, err := r.db.Exec(
		`UPDATE claims SET status = ?, manual_amount = ?, extraordinary = ?,
		 extraordinary_cause = ?, reviewed_at = ?, updated_at = ? WHERE id = ?`,
		string(c.Status), nullableFloat(c.ManualAmount), boolToInt(c.Extraordinary),
		c.ExtraordinaryCause, formatNullableTime(c.ReviewedAt),
		time.Now().UTC().Format(time.RFC3339), c.ID,
	)
	return err
}

// ClaimStats holds aggregate claim counts for the dashboard.
type ClaimStats struct {
	Total        int
	UnderReview  int
	ManualReview int
	Approved     int
	Rejected     int
	Paid         int
}

func (r *ClaimRepo) GetDashboardStats() (*ClaimStats, error) {
	s := &ClaimStats{}
	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status='under_review' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status='manual_review' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status='approved' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status='rejected' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status='paid' THEN 1 ELSE 0 END), 0)
		FROM claims
	`).Scan(&s.Total, &s.UnderReview, &s.ManualReview, &s.Approved, &s.Rejected, &s.Paid)
	return s, err
}

type CurrencyExposure struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

// GetApprovedExposure sums payable amounts per currency across approved and
// paid claims, preferring the admin's manual amount over the latest
// automatic assessment.
func (r *ClaimRepo) GetApprovedExposure() ([]CurrencyExposure, error) {
	rows, err := r.db.Query(`
		SELECT a.currency, COALESCE(SUM(COALESCE(c.manual_amount, a.compensation_amount)), 0)
		FROM claims c
		JOIN assessments a ON a.claim_id = c.id
		WHERE c.status IN ('approved','paid')
		  AND a.evaluated_at = (
			SELECT MAX(evaluated_at) FROM assessments WHERE claim_id = c.id
		  )
		GROUP BY a.currency
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CurrencyExposure
	for rows.Next() {
		var ce CurrencyExposure
		if err := rows.Scan(&ce.Currency, &ce.Amount); err != nil {
			return nil, err
		}
		result = append(result, ce)
	}
	return result, rows.Err()
}

// --- helpers ---

func buildClaimWhere(f ClaimFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if f.Region != "" {
		clauses = append(clauses, "region = ?")
		args = append(args, f.Region)
	}
	if f.Incident != "" {
		clauses = append(clauses, "incident_type = ?")
		args = append(args, f.Incident)
	}
	if f.FlightID != "" {
		clauses = append(clauses, "flight_id = ?")
		args = append(args, f.FlightID)
	}
	if f.From != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, f.From.Format(time.RFC3339))
	}
	if f.To != nil {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, f.To.Format(time.RFC3339))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func scanClaim(s flightScanner) (*domain.Claim, error) {
	var c domain.Claim
	var region, incident, status, createdAt, updatedAt string
	var extraordinary int
	var reportedDelay, noticeDays sql.NullInt64
	var manualAmount sql.NullFloat64
	var reviewedAt sql.NullString

	err := s.Scan(
		&c.ID, &c.FlightID, &c.PassengerName, &c.PassengerEmail, &region,
		&incident, &extraordinary, &c.ExtraordinaryCause, &reportedDelay,
		&noticeDays, &status, &manualAmount, &reviewedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Region = domain.Region(region)
	c.IncidentType = domain.IncidentType(incident)
	c.Status = domain.ClaimStatus(status)
	c.Extraordinary = extraordinary != 0
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	if reportedDelay.Valid {
		n := int(reportedDelay.Int64)
		c.ReportedDelayMinutes = &n
	}
	if noticeDays.Valid {
		n := int(noticeDays.Int64)
		c.NoticeDaysBeforeDeparture = &n
	}
	if manualAmount.Valid {
		a := manualAmount.Float64
		c.ManualAmount = &a
	}
	if reviewedAt.Valid {
		if t, err := time.Parse(time.RFC3339, reviewedAt.String); err == nil {
			c.ReviewedAt = &t
		}
	}

	return &c, nil
}
