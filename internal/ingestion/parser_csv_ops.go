package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/davidvv/claimplane/internal/domain"
)

// StatusRecord is one flight's refreshed facts from a status report, matched
// to a stored flight by number and scheduled-departure day.
type StatusRecord struct {
	FlightNumber       string
	ScheduledDeparture time.Time
	ActualDeparture    *time.Time
	ActualArrival      *time.Time
	Status             domain.FlightStatus
	Cause              string
}

// ParseOpsCSV parses the airline operations CSV feed.
//
// Expected header:
//
//	flight_number,scheduled_departure,actual_departure,actual_arrival,status,cause
//
// Actual-time columns may be empty when the flight has not yet operated.
func ParseOpsCSV(data []byte) ([]StatusRecord, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 6 {
		return nil, fmt.Errorf("expected 6 columns, got %d", len(header))
	}

	var records []StatusRecord
	lineNum := 1

	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if len(row) < 6 {
			continue
		}

		schedDep, err := parseOpsTime(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d scheduled_departure: %w", lineNum, err)
		}

		actualDep, err := parseOptionalOpsTime(strings.TrimSpace(row[2]))
		if err != nil {
			return nil, fmt.Errorf("line %d actual_departure: %w", lineNum, err)
		}
		actualArr, err := parseOptionalOpsTime(strings.TrimSpace(row[3]))
		if err != nil {
			return nil, fmt.Errorf("line %d actual_arrival: %w", lineNum, err)
		}

		status, err := parseFlightStatus(strings.TrimSpace(row[4]))
		if err != nil {
			return nil, fmt.Errorf("line %d status: %w", lineNum, err)
		}

		records = append(records, StatusRecord{
			FlightNumber:       strings.TrimSpace(row[0]),
			ScheduledDeparture: schedDep,
			ActualDeparture:    actualDep,
			ActualArrival:      actualArr,
			Status:             status,
			Cause:              strings.TrimSpace(row[5]),
		})
	}

	return records, nil
}

func parseOpsTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02 15:04", s)
		if err != nil {
			return time.Time{}, err
		}
		t = t.UTC()
	}
	return t, nil
}

func parseOptionalOpsTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseOpsTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseFlightStatus(s string) (domain.FlightStatus, error) {
	switch domain.FlightStatus(strings.ToLower(s)) {
	case domain.FlightScheduled:
		return domain.FlightScheduled, nil
	case domain.FlightLanded:
		return domain.FlightLanded, nil
	case domain.FlightDelayed:
		return domain.FlightDelayed, nil
	case domain.FlightCancelled:
		return domain.FlightCancelled, nil
	case domain.FlightDiverted:
		return domain.FlightDiverted, nil
	default:
		return "", fmt.Errorf("unknown status: %s", s)
	}
}
