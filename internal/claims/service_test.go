package claims

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidvv/claimplane/internal/domain"
	"github.com/davidvv/claimplane/internal/repository"
)

func newTestService(t *testing.T) (*Service, *repository.FlightRepo, *repository.AssessmentRepo, *repository.ClaimRepo) {
	t.Helper()

	db, err := repository.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	flightRepo := repository.NewFlightRepo(db)
	claimRepo := repository.NewClaimRepo(db)
	assessmentRepo := repository.NewAssessmentRepo(db)
	svc := NewService(flightRepo, claimRepo, assessmentRepo)

	return svc, flightRepo, assessmentRepo, claimRepo
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

// seedFlight inserts a flight with the given arrival delay in minutes; pass a
// negative delay for a flight with no actuals yet.
func seedFlight(t *testing.T, repo *repository.FlightRepo, id string, distanceKM *float64, delayMin int) *domain.Flight {
	t.Helper()

	schedDep := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)
	schedArr := schedDep.Add(2 * time.Hour)

	f := &domain.Flight{
		ID:                 id,
		FlightNumber:       "CP101",
		DepartureAirport:   "LHR",
		ArrivalAirport:     "CDG",
		ScheduledDeparture: schedDep,
		ScheduledArrival:   schedArr,
		DistanceKM:         distanceKM,
		Status:             domain.FlightScheduled,
		UpdatedAt:          schedDep,
	}
	if delayMin >= 0 {
		actDep := schedDep.Add(time.Duration(delayMin) * time.Minute)
		actArr := schedArr.Add(time.Duration(delayMin) * time.Minute)
		f.ActualDeparture = &actDep
		f.ActualArrival = &actArr
		f.Status = domain.FlightLanded
		if delayMin > 0 {
			f.Status = domain.FlightDelayed
		}
	}

	require.NoError(t, repo.Insert(f))
	return f
}

func submitInput(flightID string) SubmitInput {
	return SubmitInput{
		FlightID:       flightID,
		PassengerName:  "Ada Lovelace",
		PassengerEmail: "ada@example.com",
		Region:         domain.RegionEU,
		IncidentType:   domain.IncidentDelay,
	}
}

func TestSubmitEligibleDelay(t *testing.T) {
	svc, flightRepo, assessmentRepo, _ := newTestService(t)
	seedFlight(t, flightRepo, "FL-1", fptr(1200), 240)

	claim, verdict, err := svc.Submit(submitInput("FL-1"))
	require.NoError(t, err)

	assert.Equal(t, domain.ClaimUnderReview, claim.Status)
	assert.True(t, verdict.Eligible)
	require.NotNil(t, verdict.CompensationAmount)
	assert.Equal(t, 250.0, *verdict.CompensationAmount)

	// First assessment snapshot is persisted.
	assessments, err := assessmentRepo.GetByClaimID(claim.ID)
	require.NoError(t, err)
	require.Len(t, assessments, 1)
	assert.Equal(t, domain.TriggerSubmission, assessments[0].Trigger)
	assert.Equal(t, *verdict.CompensationAmount, *assessments[0].Verdict.CompensationAmount)
	assert.Equal(t, verdict.Reasons, assessments[0].Verdict.Reasons)
}

func TestSubmitOnTimeFlightRejected(t *testing.T) {
	svc, flightRepo, _, _ := newTestService(t)
	seedFlight(t, flightRepo, "FL-2", fptr(1200), 0)

	claim, verdict, err := svc.Submit(submitInput("FL-2"))
	require.NoError(t, err)

	assert.False(t, verdict.Eligible)
	assert.Equal(t, domain.ClaimRejected, claim.Status)
}

func TestSubmitCancellationWithoutNoticeGoesToManualReview(t *testing.T) {
	svc, flightRepo, _, _ := newTestService(t)
	seedFlight(t, flightRepo, "FL-3", fptr(900), -1)

	in := submitInput("FL-3")
	in.IncidentType = domain.IncidentCancellation

	claim, verdict, err := svc.Submit(in)
	require.NoError(t, err)

	assert.True(t, verdict.RequiresManualReview)
	assert.Nil(t, verdict.CompensationAmount)
	assert.Equal(t, domain.ClaimManualReview, claim.Status)
}

func TestSubmitUnknownFlight(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, _, err := svc.Submit(submitInput("missing"))
	require.Error(t, err)
}

func TestSubmitFillsDistanceFromAirportLookup(t *testing.T) {
	svc, flightRepo, _, _ := newTestService(t)
	// No distance on the flight row: LHR-CDG resolves via coordinates.
	seedFlight(t, flightRepo, "FL-4", nil, 240)

	claim, verdict, err := svc.Submit(submitInput("FL-4"))
	require.NoError(t, err)

	assert.True(t, verdict.Eligible)
	assert.False(t, verdict.RequiresManualReview)
	require.NotNil(t, verdict.CompensationAmount)
	assert.Equal(t, 250.0, *verdict.CompensationAmount) // ~350 km, short-haul band
	assert.Equal(t, domain.ClaimUnderReview, claim.Status)
}

func TestReevaluateAfterActualsLand(t *testing.T) {
	svc, flightRepo, assessmentRepo, claimRepo := newTestService(t)
	f := seedFlight(t, flightRepo, "FL-5", fptr(1200), -1) // not yet operated

	claim, verdict, err := svc.Submit(submitInput("FL-5"))
	require.NoError(t, err)
	assert.True(t, verdict.RequiresManualReview) // no delay info at all
	assert.Equal(t, domain.ClaimManualReview, claim.Status)

	// Actual times land: 4 hours late.
	actDep := f.ScheduledDeparture.Add(4 * time.Hour)
	actArr := f.ScheduledArrival.Add(4 * time.Hour)
	require.NoError(t, flightRepo.UpdateActuals(f.ID, &actDep, &actArr, domain.FlightDelayed, ""))

	assessment, err := svc.Reevaluate(claim.ID, domain.TriggerRefresh)
	require.NoError(t, err)

	assert.True(t, assessment.Verdict.Eligible)
	assert.False(t, assessment.Verdict.RequiresManualReview)
	require.NotNil(t, assessment.Verdict.CompensationAmount)
	assert.Equal(t, 250.0, *assessment.Verdict.CompensationAmount)

	updated, err := claimRepo.GetByID(claim.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimUnderReview, updated.Status)

	history, err := assessmentRepo.GetByClaimID(claim.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestReviewApproveAndPay(t *testing.T) {
	svc, flightRepo, _, _ := newTestService(t)
	seedFlight(t, flightRepo, "FL-6", fptr(1200), 240)

	claim, _, err := svc.Submit(submitInput("FL-6"))
	require.NoError(t, err)

	reviewed, err := svc.Review(claim.ID, ReviewInput{Approve: true, ManualAmount: fptr(300)})
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimApproved, reviewed.Status)
	require.NotNil(t, reviewed.ManualAmount)
	assert.Equal(t, 300.0, *reviewed.ManualAmount)

	paid, err := svc.MarkPaid(claim.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimPaid, paid.Status)
}

func TestMarkPaidRequiresApproval(t *testing.T) {
	svc, flightRepo, _, _ := newTestService(t)
	seedFlight(t, flightRepo, "FL-7", fptr(1200), 240)

	claim, _, err := svc.Submit(submitInput("FL-7"))
	require.NoError(t, err)

	_, err = svc.MarkPaid(claim.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only approved")
}

func TestReviewExtraordinaryOverride(t *testing.T) {
	svc, flightRepo, assessmentRepo, _ := newTestService(t)
	seedFlight(t, flightRepo, "FL-8", fptr(1200), 240)

	claim, verdict, err := svc.Submit(submitInput("FL-8"))
	require.NoError(t, err)
	assert.True(t, verdict.Eligible)

	override := true
	reviewed, err := svc.Review(claim.ID, ReviewInput{
		Approve:               false,
		OverrideExtraordinary: &override,
		ExtraordinaryCause:    "strike",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimRejected, reviewed.Status)
	assert.True(t, reviewed.Extraordinary)

	// The override re-ran the engine before the decision.
	history, err := assessmentRepo.GetByClaimID(claim.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	latest := history[0]
	assert.Equal(t, domain.TriggerReview, latest.Trigger)
	assert.False(t, latest.Verdict.Eligible)
	require.Len(t, latest.Verdict.Reasons, 1)
	assert.Contains(t, latest.Verdict.Reasons[0], "strike")
}

func TestReviewRejectionSurvivesFactRefresh(t *testing.T) {
	svc, flightRepo, assessmentRepo, claimRepo := newTestService(t)
	f := seedFlight(t, flightRepo, "FL-10", fptr(1200), -1)

	in := submitInput("FL-10")
	in.ReportedDelayMinutes = iptr(200)
	claim, _, err := svc.Submit(in)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimUnderReview, claim.Status)

	// Admin rejects despite the eligible verdict.
	reviewed, err := svc.Review(claim.ID, ReviewInput{Approve: false})
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimRejected, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedAt)

	// Actual times land and confirm a qualifying delay.
	actDep := f.ScheduledDeparture.Add(4 * time.Hour)
	actArr := f.ScheduledArrival.Add(4 * time.Hour)
	require.NoError(t, flightRepo.UpdateActuals(f.ID, &actDep, &actArr, domain.FlightDelayed, ""))

	// The human rejection is final: the refresh must not touch it.
	n, err := svc.ReevaluateOpenForFlight(f.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	updated, err := claimRepo.GetByID(claim.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimRejected, updated.Status)

	// An explicit re-evaluation still records the verdict for the audit
	// trail, but the status stays put.
	assessment, err := svc.Reevaluate(claim.ID, domain.TriggerRefresh)
	require.NoError(t, err)
	assert.True(t, assessment.Verdict.Eligible)

	updated, err = claimRepo.GetByID(claim.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimRejected, updated.Status)

	history, err := assessmentRepo.GetByClaimID(claim.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestEngineRejectionReopensOnFactRefresh(t *testing.T) {
	svc, flightRepo, _, claimRepo := newTestService(t)
	f := seedFlight(t, flightRepo, "FL-11", fptr(1200), 100) // under threshold

	claim, verdict, err := svc.Submit(submitInput("FL-11"))
	require.NoError(t, err)
	assert.False(t, verdict.Eligible)
	assert.Equal(t, domain.ClaimRejected, claim.Status)
	assert.Nil(t, claim.ReviewedAt)

	// Corrected actuals arrive: the delay was 4 hours after all.
	actDep := f.ScheduledDeparture.Add(4 * time.Hour)
	actArr := f.ScheduledArrival.Add(4 * time.Hour)
	require.NoError(t, flightRepo.UpdateActuals(f.ID, &actDep, &actArr, domain.FlightDelayed, ""))

	n, err := svc.ReevaluateOpenForFlight(f.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	updated, err := claimRepo.GetByID(claim.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimUnderReview, updated.Status)
}

func TestReevaluateOpenForFlight(t *testing.T) {
	svc, flightRepo, _, claimRepo := newTestService(t)
	f := seedFlight(t, flightRepo, "FL-9", fptr(1200), -1)

	for i := 0; i < 3; i++ {
		in := submitInput("FL-9")
		in.ReportedDelayMinutes = iptr(200)
		_, _, err := svc.Submit(in)
		require.NoError(t, err)
	}

	actDep := f.ScheduledDeparture.Add(4 * time.Hour)
	actArr := f.ScheduledArrival.Add(4 * time.Hour)
	require.NoError(t, flightRepo.UpdateActuals(f.ID, &actDep, &actArr, domain.FlightDelayed, ""))

	n, err := svc.ReevaluateOpenForFlight(f.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	open, err := claimRepo.GetOpenByFlightID(f.ID)
	require.NoError(t, err)
	for _, c := range open {
		assert.Equal(t, domain.ClaimUnderReview, c.Status)
	}
}
