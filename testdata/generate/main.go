package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/davidvv/claimplane/internal/airports"
	"github.com/davidvv/claimplane/internal/domain"
)

func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	// Departure window: 2025-06-02 to 2025-06-15.
	startDate := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	dayRange := 14

	type route struct {
		number string
		from   string
		to     string
		hours  int // block time
	}

	routes := []route{
		{"CP101", "LHR", "CDG", 1},
		{"CP102", "CDG", "LHR", 1},
		{"CP210", "FRA", "MAD", 3},
		{"CP215", "AMS", "FCO", 2},
		{"CP220", "DUB", "ATH", 4},
		{"CP310", "LHR", "JFK", 8},
		{"CP311", "JFK", "LHR", 7},
		{"CP320", "CDG", "YUL", 7},
		{"CP330", "FRA", "ORD", 9},
		{"CP410", "YYZ", "YVR", 5},
		{"CP420", "LAX", "JFK", 5},
		{"CP510", "LHR", "SIN", 13},
		{"CP520", "AMS", "DXB", 7},
	}

	var flights []domain.Flight

	for _, rt := range routes {
		for day := 0; day < dayRange; day += 2 {
			dep := startDate.AddDate(0, 0, day).Add(
				time.Duration(6+rng.Intn(14)) * time.Hour,
			)
			arr := dep.Add(time.Duration(rt.hours) * time.Hour)

			f := domain.Flight{
				ID:                 fmt.Sprintf("FL-%s-%s", rt.number, dep.Format("20060102")),
				FlightNumber:       rt.number,
				DepartureAirport:   rt.from,
				ArrivalAirport:     rt.to,
				ScheduledDeparture: dep,
				ScheduledArrival:   arr,
				Status:             domain.FlightScheduled,
				UpdatedAt:          dep.AddDate(0, 0, -7),
			}

			if d, err := airports.Distance(rt.from, rt.to); err == nil {
				f.DistanceKM = &d
			}

			// Disruption distribution: 60% landed on time, 25% delayed,
			// 10% cancelled, 5% still scheduled (future).
			roll := rng.Float64()
			switch {
			case roll < 0.60:
				actDep := dep.Add(time.Duration(rng.Intn(20)) * time.Minute)
				actArr := arr.Add(time.Duration(rng.Intn(25)-10) * time.Minute)
				f.ActualDeparture = &actDep
				f.ActualArrival = &actArr
				f.Status = domain.FlightLanded
			case roll < 0.85:
				delay := time.Duration(45+rng.Intn(360)) * time.Minute
				actDep := dep.Add(delay)
				actArr := arr.Add(delay)
				f.ActualDeparture = &actDep
				f.ActualArrival = &actArr
				f.Status = domain.FlightDelayed
				if rng.Float64() < 0.2 {
					f.DisruptionCause = "weather"
				}
			case roll < 0.95:
				f.Status = domain.FlightCancelled
				f.DisruptionCause = "operational"
			}

			flights = append(flights, f)
		}
	}

	writeJSONFile(filepath.Join(baseDir, "flights.json"), flights)
	fmt.Printf("Generated %d flights -> flights.json\n", len(flights))

	generateOpsCSV(flights, baseDir)
	generateFeedJSON(flights, baseDir)

	fmt.Println("Test data generation complete.")
}

// generateOpsCSV writes an airline ops status report covering the disrupted
// flights, in the csv_ops ingestion format.
func generateOpsCSV(flights []domain.Flight, baseDir string) {
	filePath := filepath.Join(baseDir, "ops_report.csv")
	f, err := os.Create(filePath)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	w.Write([]string{
		"flight_number", "scheduled_departure", "actual_departure",
		"actual_arrival", "status", "cause",
	})

	count := 0
	for _, fl := range flights {
		if fl.Status != domain.FlightDelayed && fl.Status != domain.FlightCancelled {
			continue
		}
		w.Write([]string{
			fl.FlightNumber,
			fl.ScheduledDeparture.Format(time.RFC3339),
			formatOptional(fl.ActualDeparture),
			formatOptional(fl.ActualArrival),
			string(fl.Status),
			fl.DisruptionCause,
		})
		count++
	}

	fmt.Printf("Generated %d ops CSV records -> ops_report.csv\n", count)
}

// generateFeedJSON writes the same disruptions in the provider json_feed
// ingestion format.
func generateFeedJSON(flights []domain.Flight, baseDir string) {
	type entry struct {
		Flight           string `json:"flight"`
		ScheduledOut     string `json:"scheduled_out"`
		ActualOut        string `json:"actual_out,omitempty"`
		ActualIn         string `json:"actual_in,omitempty"`
		State            string `json:"state"`
		DisruptionReason string `json:"disruption_reason,omitempty"`
	}

	states := map[domain.FlightStatus]string{
		domain.FlightDelayed:   "DLY",
		domain.FlightCancelled: "CNL",
	}

	var entries []entry
	for _, fl := range flights {
		state, ok := states[fl.Status]
		if !ok {
			continue
		}
		entries = append(entries, entry{
			Flight:           fl.FlightNumber,
			ScheduledOut:     fl.ScheduledDeparture.Format(time.RFC3339),
			ActualOut:        formatOptional(fl.ActualDeparture),
			ActualIn:         formatOptional(fl.ActualArrival),
			State:            state,
			DisruptionReason: fl.DisruptionCause,
		})
	}

	output := map[string]any{
		"batch_id": "FEED-BATCH-001",
		"flights":  entries,
	}

	writeJSONFile(filepath.Join(baseDir, "provider_feed.json"), output)
	fmt.Printf("Generated %d feed JSON records -> provider_feed.json\n", len(entries))
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func writeJSONFile(path string, v any) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		panic(err)
	}
}

func findTestdataDir() string {
	// Look for the testdata directory relative to common locations.
	candidates := []string{
		"testdata",
		"./testdata",
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	// Fallback.
	return "testdata"
}
