package claims

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/davidvv/claimplane/internal/airports"
	"github.com/davidvv/claimplane/internal/domain"
	"github.com/davidvv/claimplane/internal/eligibility"
	"github.com/davidvv/claimplane/internal/repository"
)

// Service drives the claim lifecycle around the eligibility engine: it maps
// persisted entities to flight facts at the boundary, invokes the engine, and
// stores the resulting verdict snapshots.
type Service struct {
	flightRepo     *repository.FlightRepo
	claimRepo      *repository.ClaimRepo
	assessmentRepo *repository.AssessmentRepo
}

// NewService creates a new claims service.
func NewService(
	flightRepo *repository.FlightRepo,
	claimRepo *repository.ClaimRepo,
	assessmentRepo *repository.AssessmentRepo,
) *Service {
	return &Service{
		flightRepo:     flightRepo,
		claimRepo:      claimRepo,
		assessmentRepo: assessmentRepo,
	}
}

// SubmitInput carries a customer's claim submission.
type SubmitInput struct {
	FlightID                  string              `json:"flight_id"`
	PassengerName             string              `json:"passenger_name"`
	PassengerEmail            string              `json:"passenger_email"`
	Region                    domain.Region       `json:"region"`
	IncidentType              domain.IncidentType `json:"incident_type"`
	ReportedDelayMinutes      *int                `json:"reported_delay_minutes,omitempty"`
	NoticeDaysBeforeDeparture *int                `json:"notice_days_before_departure,omitempty"`
}

// Submit evaluates eligibility for a new claim and persists the claim with
// its first assessment snapshot.
func (s *Service) Submit(in SubmitInput) (*domain.Claim, *domain.EligibilityVerdict, error) {
	flight, err := s.flightRepo.GetByID(in.FlightID)
	if err != nil {
		return nil, nil, fmt.Errorf("flight %s: %w", in.FlightID, err)
	}

	now := time.Now().UTC()
	claim := &domain.Claim{
		ID:                        uuid.NewString(),
		FlightID:                  flight.ID,
		PassengerName:             in.PassengerName,
		PassengerEmail:            in.PassengerEmail,
		Region:                    in.Region,
		IncidentType:              in.IncidentType,
		ReportedDelayMinutes:      in.ReportedDelayMinutes,
		NoticeDaysBeforeDeparture: in.NoticeDaysBeforeDeparture,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}

	verdict, err := eligibility.Evaluate(buildFacts(flight, claim), domain.CustomerContext{Region: in.Region})
	if err != nil {
		return nil, nil, fmt.Errorf("evaluate: %w", err)
	}

	claim.Status = statusFromVerdict(verdict)

	if err := s.claimRepo.Insert(claim); err != nil {
		return nil, nil, fmt.Errorf("insert claim: %w", err)
	}
	if err := s.storeAssessment(claim.ID, verdict, domain.TriggerSubmission); err != nil {
		return nil, nil, err
	}

	log.Printf("[claims] Submitted %s for flight %s: eligible=%t manual_review=%t status=%s",
		claim.ID, flight.FlightNumber, verdict.Eligible, verdict.RequiresManualReview, claim.Status)

	return claim, &verdict, nil
}

// Reevaluate re-derives the verdict from the current flight facts and appends
// a new assessment. Claims already decided by an admin keep their status; the
// fresh assessment is still recorded for the audit trail.
func (s *Service) Reevaluate(claimID string, trigger domain.AssessmentTrigger) (*domain.Assessment, error) {
	claim, err := s.claimRepo.GetByID(claimID)
	if err != nil {
		return nil, fmt.Errorf("claim %s: %w", claimID, err)
	}
	flight, err := s.flightRepo.GetByID(claim.FlightID)
	if err != nil {
		return nil, fmt.Errorf("flight %s: %w", claim.FlightID, err)
	}

	verdict, err := eligibility.Evaluate(buildFacts(flight, claim), domain.CustomerContext{Region: claim.Region})
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	assessment := &domain.Assessment{
		ID:          uuid.NewString(),
		ClaimID:     claim.ID,
		Trigger:     trigger,
		Verdict:     verdict,
		EvaluatedAt: time.Now().UTC(),
	}
	if err := s.assessmentRepo.Insert(assessment); err != nil {
		return nil, fmt.Errorf("insert assessment: %w", err)
	}

	if !decided(claim) {
		next := statusFromVerdict(verdict)
		if next != claim.Status {
			if err := s.claimRepo.UpdateStatus(claim.ID, next); err != nil {
				return nil, fmt.Errorf("update status: %w", err)
			}
			log.Printf("[claims] Reevaluated %s: %s -> %s", claim.ID, claim.Status, next)
		}
	}

	return assessment, nil
}

// ReviewInput carries an admin decision. The engine's verdict is advisory;
// the reviewer may approve with a manual amount or override the
// extraordinary-circumstances flag, which forces a re-evaluation first.
type ReviewInput struct {
	Approve               bool     `json:"approve"`
	ManualAmount          *float64 `json:"manual_amount,omitempty"`
	OverrideExtraordinary *bool    `json:"override_extraordinary,omitempty"`
	ExtraordinaryCause    string   `json:"extraordinary_cause,omitempty"`
}

// Review applies an admin decision to a claim.
func (s *Service) Review(claimID string, in ReviewInput) (*domain.Claim, error) {
	claim, err := s.claimRepo.GetByID(claimID)
	if err != nil {
		return nil, fmt.Errorf("claim %s: %w", claimID, err)
	}

	if in.OverrideExtraordinary != nil {
		claim.Extraordinary = *in.OverrideExtraordinary
		claim.ExtraordinaryCause = in.ExtraordinaryCause
		if err := s.claimRepo.UpdateReview(claim); err != nil {
			return nil, fmt.Errorf("apply override: %w", err)
		}
		if _, err := s.Reevaluate(claimID, domain.TriggerReview); err != nil {
			log.Printf("[claims] WARNING: re-evaluation after override failed for %s: %v", claimID, err)
		}
	}

	if in.Approve {
		claim.Status = domain.ClaimApproved
	} else {
		claim.Status = domain.ClaimRejected
	}
	claim.ManualAmount = in.ManualAmount
	now := time.Now().UTC()
	claim.ReviewedAt = &now

	if err := s.claimRepo.UpdateReview(claim); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	log.Printf("[claims] Reviewed %s: status=%s manual_amount=%v", claim.ID, claim.Status, in.ManualAmount)
	return claim, nil
}

// MarkPaid records payout of an approved claim.
func (s *Service) MarkPaid(claimID string) (*domain.Claim, error) {
	claim, err := s.claimRepo.GetByID(claimID)
	if err != nil {
		return nil, fmt.Errorf("claim %s: %w", claimID, err)
	}
	if claim.Status != domain.ClaimApproved {
		return nil, fmt.Errorf("claim %s is %s, only approved claims can be paid", claimID, claim.Status)
	}
	if err := s.claimRepo.UpdateStatus(claimID, domain.ClaimPaid); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	claim.Status = domain.ClaimPaid
	return claim, nil
}

// ReevaluateOpenForFlight re-runs the engine for every undecided claim on a
// flight. Called after a status report refreshes the flight's actual times.
func (s *Service) ReevaluateOpenForFlight(flightID string) (int, error) {
	open, err := s.claimRepo.GetOpenByFlightID(flightID)
	if err != nil {
		return 0, fmt.Errorf("open claims: %w", err)
	}

	count := 0
	for _, c := range open {
		if _, err := s.Reevaluate(c.ID, domain.TriggerRefresh); err != nil {
			log.Printf("[claims] WARNING: re-evaluation failed for %s: %v", c.ID, err)
			continue
		}
		count++
	}
	return count, nil
}

// --- helpers ---

// buildFacts maps the persisted flight and claim rows to the engine's value
// types. Distance falls back to the great-circle lookup when the flight data
// provider did not supply one.
func buildFacts(flight *domain.Flight, claim *domain.Claim) domain.FlightFacts {
	facts := domain.FlightFacts{
		DepartureAirport:          flight.DepartureAirport,
		ArrivalAirport:            flight.ArrivalAirport,
		ScheduledDeparture:        flight.ScheduledDeparture,
		ScheduledArrival:          flight.ScheduledArrival,
		ActualDeparture:           flight.ActualDeparture,
		ActualArrival:             flight.ActualArrival,
		DistanceKM:                flight.DistanceKM,
		IncidentType:              claim.IncidentType,
		Extraordinary:             claim.Extraordinary,
		ExtraordinaryCause:        claim.ExtraordinaryCause,
		DelayMinutes:              claim.ReportedDelayMinutes,
		NoticeDaysBeforeDeparture: claim.NoticeDaysBeforeDeparture,
	}

	if facts.DistanceKM == nil {
		if d, err := airports.Distance(flight.DepartureAirport, flight.ArrivalAirport); err == nil {
			facts.DistanceKM = &d
		}
	}

	return facts
}

func (s *Service) storeAssessment(claimID string, verdict domain.EligibilityVerdict, trigger domain.AssessmentTrigger) error {
	a := &domain.Assessment{
		ID:          uuid.NewString(),
		ClaimID:     claimID,
		Trigger:     trigger,
		Verdict:     verdict,
		EvaluatedAt: time.Now().UTC(),
	}
	if err := s.assessmentRepo.Insert(a); err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

func statusFromVerdict(v domain.EligibilityVerdict) domain.ClaimStatus {
	switch {
	case v.RequiresManualReview:
		return domain.ClaimManualReview
	case v.Eligible:
		return domain.ClaimUnderReview
	default:
		return domain.ClaimRejected
	}
}

// decided reports whether a human has settled the claim. Approvals and
// payouts always are; a rejection only when an admin recorded it, since the
// engine's own rejections must stay open to refreshed flight facts.
func decided(c *domain.Claim) bool {
	switch c.Status {
	case domain.ClaimApproved, domain.ClaimPaid:
		return true
	case domain.ClaimRejected:
		return c.ReviewedAt != nil
	}
	return false
}
