package eligibility

import (
	"fmt"

	"github.com/davidvv/claimplane/internal/domain"
)

// Evidence the customer must still provide on an eligible claim.
const (
	RequirementBoardingPass   = "boarding pass"
	RequirementProofOfBooking = "proof of booking"
	RequirementAirlineConfirm = "delay/cancellation confirmation from airline"
)

// Estimated delays this close under the threshold are flagged for manual
// review: the estimate may be off by enough to cross it.
const borderlineEstimateMinutes = 15

// InvalidFlightFactsError signals structurally invalid input that upstream
// schema validation should have rejected. It marks an integration bug, never
// a business outcome.
type InvalidFlightFactsError struct {
	Field  string
	Detail string
}

func (e *InvalidFlightFactsError) Error() string {
	return fmt.Sprintf("invalid flight facts: %s: %s", e.Field, e.Detail)
}

// Evaluate applies the regulation governing the customer's region to the
// flight facts and returns a verdict. It is deterministic, performs no I/O,
// and is safe to call concurrently. Business non-eligibility is a normal
// verdict, never an error.
func Evaluate(facts domain.FlightFacts, cust domain.CustomerContext) (domain.EligibilityVerdict, error) {
	table, err := TableForRegion(cust.Region)
	if err != nil {
		return domain.EligibilityVerdict{}, &InvalidFlightFactsError{Field: "region", Detail: string(cust.Region)}
	}
	return EvaluateWithTable(facts, table)
}

// EvaluateWithTable is Evaluate with an explicit regulation table, used by
// tests and by callers carrying amended tables.
//
// Rules run as an ordered list; the first veto wins and later rules are not
// evaluated, so a vetoed verdict carries exactly one disqualifying reason.
func EvaluateWithTable(facts domain.FlightFacts, table RegulationTable) (domain.EligibilityVerdict, error) {
	if err := validate(facts); err != nil {
		return domain.EligibilityVerdict{}, err
	}

	v := domain.EligibilityVerdict{
		Currency:   table.Currency,
		Regulation: table.Regulation,
	}

	// Rule 1: extraordinary-circumstances veto. Absolute, checked first.
	if facts.Extraordinary {
		v.Reasons = append(v.Reasons, extraordinaryReason(facts.ExtraordinaryCause))
		return v, nil
	}

	// Rule 2: incident gate.
	delay, delayKnown, estimated := delayMinutes(facts)

	switch facts.IncidentType {
	case domain.IncidentBaggageDelay:
		v.Reasons = append(v.Reasons,
			"baggage delay is handled under a separate liability regime, not flight compensation")
		return v, nil

	case domain.IncidentDeniedBoarding:
		v.Eligible = true
		v.Reasons = append(v.Reasons, "denied boarding is compensable regardless of delay length")

	case domain.IncidentCancellation:
		if facts.NoticeDaysBeforeDeparture == nil {
			v.Eligible = true
			v.RequiresManualReview = true
			v.Reasons = append(v.Reasons,
				"cancellation notice period not provided; tentatively eligible pending manual review")
		} else if *facts.NoticeDaysBeforeDeparture < table.CancellationNoticeDays {
			v.Eligible = true
			v.Reasons = append(v.Reasons, fmt.Sprintf(
				"cancellation notified %d days before departure, under the %d-day notice period",
				*facts.NoticeDaysBeforeDeparture, table.CancellationNoticeDays))
		} else {
			v.Reasons = append(v.Reasons, fmt.Sprintf(
				"cancellation notified %d days before departure, at or beyond the %d-day notice period",
				*facts.NoticeDaysBeforeDeparture, table.CancellationNoticeDays))
			return v, nil
		}

	case domain.IncidentDelay:
		if !delayKnown {
			v.Eligible = true
			v.RequiresManualReview = true
			v.Reasons = append(v.Reasons,
				"arrival delay unknown: no actual arrival time and no reported estimate")
			break
		}
		if delay <= 0 {
			v.Reasons = append(v.Reasons, "flight arrived on time or early; no compensable delay")
			return v, nil
		}
		if delay < table.DelayThresholdMinutes {
			v.Reasons = append(v.Reasons, fmt.Sprintf(
				"arrival delay of %d minutes is under the %d-minute threshold",
				delay, table.DelayThresholdMinutes))
			if estimated && table.DelayThresholdMinutes-delay <= borderlineEstimateMinutes {
				v.RequiresManualReview = true
				v.Reasons = append(v.Reasons,
					"reported delay is borderline; manual review against airline records recommended")
			}
			return v, nil
		}
		v.Eligible = true
		v.Reasons = append(v.Reasons, fmt.Sprintf(
			"arrival delay of %d minutes meets the %d-minute threshold",
			delay, table.DelayThresholdMinutes))
	}

	// Rule 3: distance-banded amount. Manual-review verdicts never carry an
	// automatic amount, even when tentatively eligible.
	if !v.RequiresManualReview {
		if facts.DistanceKM == nil {
			v.RequiresManualReview = true
			v.Reasons = append(v.Reasons, "flight distance could not be determined")
		} else {
			band := table.bandFor(*facts.DistanceKM)
			amount := band.Amount
			if facts.IncidentType == domain.IncidentDelay &&
				table.ReducedWindowMinutes > 0 &&
				delay < table.ReducedWindowMinutes &&
				*facts.DistanceKM > table.LongHaulKM {
				amount = band.Reduced
				v.Reasons = append(v.Reasons, fmt.Sprintf(
					"long-haul delay under %d minutes: reduced amount applies", table.ReducedWindowMinutes))
			}
			v.CompensationAmount = &amount
		}
	}

	// Rule 4: outstanding evidence.
	v.Requirements = append(v.Requirements, RequirementBoardingPass, RequirementProofOfBooking)
	if facts.ActualArrival == nil {
		v.Requirements = append(v.Requirements, RequirementAirlineConfirm)
	}

	return v, nil
}

// --- helpers ---

func validate(facts domain.FlightFacts) error {
	if facts.DistanceKM != nil && *facts.DistanceKM < 0 {
		return &InvalidFlightFactsError{Field: "distance_km", Detail: fmt.Sprintf("%f is negative", *facts.DistanceKM)}
	}
	switch facts.IncidentType {
	case domain.IncidentDelay, domain.IncidentCancellation,
		domain.IncidentDeniedBoarding, domain.IncidentBaggageDelay:
	default:
		return &InvalidFlightFactsError{Field: "incident_type", Detail: string(facts.IncidentType)}
	}
	return nil
}

// delayMinutes resolves the arrival delay: actual minus scheduled arrival
// when both are known, otherwise the caller-supplied estimate.
func delayMinutes(facts domain.FlightFacts) (mins int, known, estimated bool) {
	if facts.ActualArrival != nil {
		return int(facts.ActualArrival.Sub(facts.ScheduledArrival).Minutes()), true, false
	}
	if facts.DelayMinutes != nil {
		return *facts.DelayMinutes, true, true
	}
	return 0, false, false
}

func extraordinaryReason(cause string) string {
	if cause == "" {
		return "extraordinary circumstances: cause not categorized"
	}
	return "extraordinary circumstances: " + cause
}
