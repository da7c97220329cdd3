package ingestion

import (
	"crypto/sha256"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/davidvv/claimplane/internal/claims"
	"github.com/davidvv/claimplane/internal/domain"
	"github.com/davidvv/claimplane/internal/repository"
)

// IngestResult is returned from a successful ingestion.
type IngestResult struct {
	ReportID          string `json:"report_id"`
	RecordsApplied    int    `json:"records_applied"`
	UnknownFlights    int    `json:"unknown_flights"`
	ClaimsReevaluated int    `json:"claims_reevaluated"`
}

// Service handles ingestion of flight status reports from airline ops feeds
// and the flight data provider.
type Service struct {
	flightRepo *repository.FlightRepo
	claimsSvc  *claims.Service
}

// NewService creates a new ingestion service.
func NewService(flightRepo *repository.FlightRepo, claimsSvc *claims.Service) *Service {
	return &Service{
		flightRepo: flightRepo,
		claimsSvc:  claimsSvc,
	}
}

// IngestReport parses a status report file, applies refreshed actual times to
// the matching flights, and re-evaluates open claims on every flight touched.
//
// format must be one of: csv_ops, json_feed
func (s *Service) IngestReport(data []byte, source string, format string) (*IngestResult, error) {
	// Idempotency check via file hash.
	hash := fmt.Sprintf("%x", sha256.Sum256(data))
	exists, err := s.flightRepo.ReportExistsByHash(hash)
	if err != nil {
		return nil, fmt.Errorf("check hash: %w", err)
	}
	if exists {
		return &IngestResult{ReportID: "already-ingested"}, nil
	}

	var records []StatusRecord
	switch format {
	case "csv_ops":
		records, err = ParseOpsCSV(data)
	case "json_feed":
		records, err = ParseFeedJSON(data)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", format, err)
	}

	applied := 0
	unknown := 0
	touched := make(map[string]bool)

	for _, rec := range records {
		flight, err := s.flightRepo.GetByNumberAndDay(rec.FlightNumber, rec.ScheduledDeparture)
		if err != nil {
			if err != sql.ErrNoRows {
				log.Printf("[ingestion] WARNING: db error matching %s: %v", rec.FlightNumber, err)
			}
			unknown++
			continue
		}

		if err := s.flightRepo.UpdateActuals(
			flight.ID, rec.ActualDeparture, rec.ActualArrival, rec.Status, rec.Cause,
		); err != nil {
			log.Printf("[ingestion] WARNING: failed to update flight %s: %v", flight.ID, err)
			continue
		}

		applied++
		touched[flight.ID] = true
	}

	report := &domain.StatusReport{
		ID:          uuid.NewString(),
		Source:      source,
		Format:      format,
		FileHash:    hash,
		RecordCount: len(records),
		IngestedAt:  time.Now().UTC(),
	}
	if err := s.flightRepo.InsertReport(report); err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}

	// Re-derive verdicts now that actual times are known.
	reevaluated := 0
	for flightID := range touched {
		n, err := s.claimsSvc.ReevaluateOpenForFlight(flightID)
		if err != nil {
			log.Printf("[ingestion] WARNING: re-evaluation failed for flight %s: %v", flightID, err)
			continue
		}
		reevaluated += n
	}

	log.Printf("[ingestion] Ingested report %s from %s: %d records, %d applied, %d unknown, %d claims re-evaluated",
		report.ID, source, len(records), applied, unknown, reevaluated)

	return &IngestResult{
		ReportID:          report.ID,
		RecordsApplied:    applied,
		UnknownFlights:    unknown,
		ClaimsReevaluated: reevaluated,
	}, nil
}
