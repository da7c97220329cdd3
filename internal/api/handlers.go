package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/davidvv/claimplane/internal/airports"
	"github.com/davidvv/claimplane/internal/claims"
	"github.com/davidvv/claimplane/internal/domain"
	"github.com/davidvv/claimplane/internal/eligibility"
	"github.com/davidvv/claimplane/internal/ingestion"
	"github.com/davidvv/claimplane/internal/repository"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	flightRepo     *repository.FlightRepo
	claimRepo      *repository.ClaimRepo
	assessmentRepo *repository.AssessmentRepo
	claimsSvc      *claims.Service
	ingestionSvc   *ingestion.Service
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil
		}
	}
	return &t
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// --- CheckEligibility ---

type eligibilityCheckRequest struct {
	DepartureAirport          string              `json:"departure_airport"`
	ArrivalAirport            string              `json:"arrival_airport"`
	ScheduledDeparture        time.Time           `json:"scheduled_departure"`
	ScheduledArrival          time.Time           `json:"scheduled_arrival"`
	ActualDeparture           *time.Time          `json:"actual_departure,omitempty"`
	ActualArrival             *time.Time          `json:"actual_arrival,omitempty"`
	DistanceKM                *float64            `json:"distance_km,omitempty"`
	IncidentType              domain.IncidentType `json:"incident_type"`
	Extraordinary             bool                `json:"extraordinary_circumstances"`
	ExtraordinaryCause        string              `json:"extraordinary_cause,omitempty"`
	DelayMinutes              *int                `json:"delay_minutes,omitempty"`
	NoticeDaysBeforeDeparture *int                `json:"notice_days_before_departure,omitempty"`
	Region                    domain.Region       `json:"region"`
}

// CheckEligibility runs the engine against caller-supplied facts without
// touching any claim record. Used by the pre-submission wizard.
func (h *Handlers) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	var req eligibilityCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	facts := domain.FlightFacts{
		DepartureAirport:          req.DepartureAirport,
		ArrivalAirport:            req.ArrivalAirport,
		ScheduledDeparture:        req.ScheduledDeparture,
		ScheduledArrival:          req.ScheduledArrival,
		ActualDeparture:           req.ActualDeparture,
		ActualArrival:             req.ActualArrival,
		DistanceKM:                req.DistanceKM,
		IncidentType:              req.IncidentType,
		Extraordinary:             req.Extraordinary,
		ExtraordinaryCause:        req.ExtraordinaryCause,
		DelayMinutes:              req.DelayMinutes,
		NoticeDaysBeforeDeparture: req.NoticeDaysBeforeDeparture,
	}

	if facts.DistanceKM == nil {
		if d, err := airports.Distance(req.DepartureAirport, req.ArrivalAirport); err == nil {
			facts.DistanceKM = &d
		}
	}

	verdict, err := eligibility.Evaluate(facts, domain.CustomerContext{Region: req.Region})
	if err != nil {
		var inverr *eligibility.InvalidFlightFactsError
		if errors.As(err, &inverr) {
			writeError(w, http.StatusBadRequest, inverr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, verdict)
}

// --- SubmitClaim ---

func (h *Handlers) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	var in claims.SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if in.FlightID == "" || in.PassengerName == "" || in.PassengerEmail == "" {
		writeError(w, http.StatusBadRequest, "flight_id, passenger_name and passenger_email are required")
		return
	}

	claim, verdict, err := h.claimsSvc.Submit(in)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "flight not found")
			return
		}
		var inverr *eligibility.InvalidFlightFactsError
		if errors.As(err, &inverr) {
			writeError(w, http.StatusBadRequest, inverr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"claim":   claim,
		"verdict": verdict,
	})
}

// --- ListClaims ---

func (h *Handlers) ListClaims(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ClaimFilter{
		Status:   q.Get("status"),
		Region:   q.Get("region"),
		Incident: q.Get("incident_type"),
		FlightID: q.Get("flight_id"),
		From:     parseTime(q.Get("from")),
		To:       parseTime(q.Get("to")),
		Page:     parseIntDefault(q.Get("page"), 1),
		Limit:    parseIntDefault(q.Get("limit"), 50),
	}

	list, total, err := h.claimRepo.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"claims": list,
		"total":  total,
		"page":   filter.Page,
		"limit":  filter.Limit,
	})
}

// --- GetClaim ---

func (h *Handlers) GetClaim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	claim, err := h.claimRepo.GetByID(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "claim not found")
		return
	}

	flight, err := h.flightRepo.GetByID(claim.FlightID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	assessments, err := h.assessmentRepo.GetByClaimID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"claim":       claim,
		"flight":      flight,
		"assessments": assessments,
	})
}

// --- ReviewClaim ---

func (h *Handlers) ReviewClaim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in claims.ReviewInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	claim, err := h.claimsSvc.Review(id, in)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "claim not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, claim)
}

// --- ReevaluateClaim ---

func (h *Handlers) ReevaluateClaim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	assessment, err := h.claimsSvc.Reevaluate(id, domain.TriggerRefresh)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "claim not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, assessment)
}

// --- PayClaim ---

func (h *Handlers) PayClaim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	claim, err := h.claimsSvc.MarkPaid(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "claim not found")
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, claim)
}

// --- IngestReport ---

func (h *Handlers) IngestReport(w http.ResponseWriter, r *http.Request) {
	// Accept multipart form.
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	source := r.FormValue("source")
	format := r.FormValue("format")
	if source == "" || format == "" {
		writeError(w, http.StatusBadRequest, "source and format are required")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read file: "+err.Error())
		return
	}

	result, err := h.ingestionSvc.IngestReport(data, source, format)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// --- ListFlights ---

func (h *Handlers) ListFlights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.FlightFilter{
		Status: q.Get("status"),
		From:   parseTime(q.Get("from")),
		To:     parseTime(q.Get("to")),
		Page:   parseIntDefault(q.Get("page"), 1),
		Limit:  parseIntDefault(q.Get("limit"), 50),
	}

	flights, total, err := h.flightRepo.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"flights": flights,
		"total":   total,
		"page":    filter.Page,
		"limit":   filter.Limit,
	})
}

// --- GetDashboard ---

func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.claimRepo.GetDashboardStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	exposure, err := h.claimRepo.GetApprovedExposure()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	flightCount, err := h.flightRepo.Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	dashboard := map[string]any{
		"claims": map[string]int{
			"total":         stats.Total,
			"under_review":  stats.UnderReview,
			"manual_review": stats.ManualReview,
			"approved":      stats.Approved,
			"rejected":      stats.Rejected,
			"paid":          stats.Paid,
		},
		"approved_exposure": exposure,
		"flights":           flightCount,
	}

	writeJSON(w, http.StatusOK, dashboard)
}
