package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/davidvv/claimplane/internal/domain"
)

type FlightRepo struct {
	db *sql.DB
}

func NewFlightRepo(db *sql.DB) *FlightRepo {
	return &FlightRepo{db: db}
}

func (r *FlightRepo) Insert(f *domain.Flight) error {
	_, err := r.db.Exec(
		`INSERT OR IGNORE INTO flights
		(id, flight_number, departure_airport, arrival_airport,
		 scheduled_departure, scheduled_arrival, actual_departure, actual_arrival,
		 distance_km, status, disruption_cause, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		f.ID, f.FlightNumber, f.DepartureAirport, f.ArrivalAirport,
		f.ScheduledDeparture.Format(time.RFC3339), f.ScheduledArrival.Format(time.RFC3339),
		formatNullableTime(f.ActualDeparture), formatNullableTime(f.ActualArrival),
		nullableFloat(f.DistanceKM), string(f.Status), f.DisruptionCause,
		f.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert flight: %w", err)
	}
	return nil
}

func (r *FlightRepo) BulkInsert(flights []domain.Flight) (int, error) {
	sqlTx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	stmt, err := sqlTx.Prepare(
		`INSERT OR IGNORE INTO flights
		(id, flight_number, departure_airport, arrival_airport,
		 scheduled_departure, scheduled_arrival, actual_departure, actual_arrival,
		 distance_km, status, disruption_cause, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range flights {
		f := &flights[i]
		res, err := stmt.Exec(
			f.ID, f.FlightNumber, f.DepartureAirport, f.ArrivalAirport,
			f.ScheduledDeparture.Format(time.RFC3339), f.ScheduledArrival.Format(time.RFC3339),
			formatNullableTime(f.ActualDeparture), formatNullableTime(f.ActualArrival),
			nullableFloat(f.DistanceKM), string(f.Status), f.DisruptionCause,
			f.UpdatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return inserted, fmt.Errorf("insert row %d: %w", i, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (r *FlightRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM flights").Scan(&count)
	return count, err
}

func (r *FlightRepo) GetByID(id string) (*domain.Flight, error) {
	row := r.db.QueryRow("SELECT * FROM flights WHERE id = ?", id)
	return scanFlightRow(row)
}

// GetByNumberAndDay finds the flight operating a flight number on the UTC day
// of the given departure time. Status feeds key on this pair.
func (r *FlightRepo) GetByNumberAndDay(number string, day time.Time) (*domain.Flight, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)
	row := r.db.QueryRow(
		`SELECT * FROM flights
		 WHERE flight_number = ? AND scheduled_departure >= ? AND scheduled_departure < ?`,
		number, dayStart.Format(time.RFC3339), dayEnd.Format(time.RFC3339),
	)
	return scanFlightRow(row)
}

type FlightFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

func (r *FlightRepo) List(f FlightFilter) ([]domain.Flight, int, error) {
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if f.From != nil {
		clauses = append(clauses, "scheduled_departure >= ?")
		args = append(args, f.From.Format(time.RFC3339))
	}
	if f.To != nil {
		clauses = append(clauses, "scheduled_departure <= ?")
		args = append(args, f.To.Format(time.RFC3339))
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM flights"+where, args...).Scan(&total); err != nil {
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
		"SELECT * FROM flights"+where+" ORDER BY scheduled_departure DESC LIMIT ? OFFSET ?",
		append(args, f.Limit, offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var flights []domain.Flight
	for rows.Next() {
		fl, err := scanFlightRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		flights = append(flights, *fl)
	}
	return flights, total, rows.Err()
}

// UpdateActuals records refreshed actual times and disruption status from an
// ingested status report.
func (r *FlightRepo) UpdateActuals(id string, actualDep, actualArr *time.Time, status domain.FlightStatus, cause string) error {
	_, err := r.db.Exec(
		`UPDATE flights SET actual_departure = ?, actual_arrival = ?, status = ?,
		 disruption_cause = ?, updated_at = ? WHERE id = ?`,
		formatNullableTime(actualDep), formatNullableTime(actualArr),
		string(status), cause, time.Now().UTC().Format(time.RFC3339), id,
	)
	return err
}

// --- status reports ---

// ReportExistsByHash checks whether a report with the given file hash has
// already been ingested (idempotency check).
func (r *FlightRepo) ReportExistsByHash(hash string) (bool, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM flight_reports WHERE file_hash = ?", hash,
	).Scan(&count)
	return count > 0, err
}

func (r *FlightRepo) InsertReport(rpt *domain.StatusReport) error {
	_, err := r.db.Exec(
		`INSERT INTO flight_reports
		(id, source, format, file_hash, record_count, ingested_at)
		VALUES (?,?,?,?,?,?)`,
		rpt.ID, rpt.Source, rpt.Format, rpt.FileHash, rpt.RecordCount,
		rpt.IngestedAt.Format(time.RFC3339),
	)
	return err
}

// --- helpers ---

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

type flightScanner interface {
	Scan(dest ...any) error
}

func scanFlight(s flightScanner) (*domain.Flight, error) {
	var f domain.Flight
	var status, schedDep, schedArr, updatedAt string
	var actualDep, actualArr sql.NullString
	var distance sql.NullFloat64

	err := s.Scan(
		&f.ID, &f.FlightNumber, &f.DepartureAirport, &f.ArrivalAirport,
		&schedDep, &schedArr, &actualDep, &actualArr,
		&distance, &status, &f.DisruptionCause, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	f.Status = domain.FlightStatus(status)
	f.ScheduledDeparture, _ = time.Parse(time.RFC3339, schedDep)
	f.ScheduledArrival, _ = time.Parse(time.RFC3339, schedArr)
	f.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	if actualDep.Valid {
		t, _ := time.Parse(time.RFC3339, actualDep.String)
		f.ActualDeparture = &t
	}
	if actualArr.Valid {
		t, _ := time.Parse(time.RFC3339, actualArr.String)
		f.ActualArrival = &t
	}
	if distance.Valid {
		d := distance.Float64
		f.DistanceKM = &d
	}

	return &f, nil
}

func scanFlightRow(row *sql.Row) (*domain.Flight, error) {
	return scanFlight(row)
}

func scanFlightRows(rows *sql.Rows) (*domain.Flight, error) {
	return scanFlight(rows)
}
