package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/davidvv/claimplane/internal/claims"
	"github.com/davidvv/claimplane/internal/ingestion"
	"github.com/davidvv/claimplane/internal/repository"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	flightRepo *repository.FlightRepo,
	claimRepo *repository.ClaimRepo,
	assessmentRepo *repository.AssessmentRepo,
	claimsSvc *claims.Service,
	ingestionSvc *ingestion.Service,
) http.Handler {
	h := &Handlers{
		flightRepo:     flightRepo,
		claimRepo:      claimRepo,
		assessmentRepo: assessmentRepo,
		claimsSvc:      claimsSvc,
		ingestionSvc:   ingestionSvc,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Route("/api/v1", func(r chi.Router) {
		// Eligibility check (pure, no persistence).
		r.Post("/eligibility/check", h.CheckEligibility)

		// Claims.
		r.Post("/claims", h.SubmitClaim)
		r.Get("/claims", h.ListClaims)
		r.Get("/claims/{id}", h.GetClaim)
		r.Post("/claims/{id}/review", h.ReviewClaim)
		r.Post("/claims/{id}/reevaluate", h.ReevaluateClaim)
		r.Post("/claims/{id}/pay", h.PayClaim)

		// Ingestion.
		r.Post("/reports/ingest", h.IngestReport)

		// Flights.
		r.Get("/flights", h.ListFlights)

		// Dashboard.
		r.Get("/dashboard", h.GetDashboard)
	})

	return r
}
