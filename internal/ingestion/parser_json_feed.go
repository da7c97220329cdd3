package ingestion

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/davidvv/claimplane/internal/domain"
)

// feedFile represents the top-level JSON structure from the flight data
// provider's batch feed.
type feedFile struct {
	BatchID string      `json:"batch_id"`
	Flights []feedEntry `json:"flights"`
}

type feedEntry struct {
	Flight           string `json:"flight"`
	ScheduledOut     string `json:"scheduled_out"`
	ActualOut        string `json:"actual_out,omitempty"`
	ActualIn         string `json:"actual_in,omitempty"`
	State            string `json:"state"`
	DisruptionReason string `json:"disruption_reason,omitempty"`
}

// Provider feed states and their domain equivalents.
var feedStates = map[string]domain.FlightStatus{
	"SKD": domain.FlightScheduled,
	"ARR": domain.FlightLanded,
	"DLY": domain.FlightDelayed,
	"CNL": domain.FlightCancelled,
	"DVT": domain.FlightDiverted,
}

// ParseFeedJSON parses the flight data provider JSON batch format.
func ParseFeedJSON(data []byte) ([]StatusRecord, error) {
	var file feedFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	var records []StatusRecord

	for i, entry := range file.Flights {
		schedOut, err := time.Parse(time.RFC3339, entry.ScheduledOut)
		if err != nil {
			return nil, fmt.Errorf("flight %d scheduled_out: %w", i, err)
		}

		actualOut, err := parseOptionalOpsTime(entry.ActualOut)
		if err != nil {
			return nil, fmt.Errorf("flight %d actual_out: %w", i, err)
		}
		actualIn, err := parseOptionalOpsTime(entry.ActualIn)
		if err != nil {
			return nil, fmt.Errorf("flight %d actual_in: %w", i, err)
		}

		status, ok := feedStates[entry.State]
		if !ok {
			return nil, fmt.Errorf("flight %d: unknown state %q", i, entry.State)
		}

		records = append(records, StatusRecord{
			FlightNumber:       entry.Flight,
			ScheduledDeparture: schedOut,
			ActualDeparture:    actualOut,
			ActualArrival:      actualIn,
			Status:             status,
			Cause:              entry.DisruptionReason,
		})
	}

	return records, nil
}
