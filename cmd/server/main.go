package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/davidvv/claimplane/internal/api"
	"github.com/davidvv/claimplane/internal/claims"
	"github.com/davidvv/claimplane/internal/domain"
	"github.com/davidvv/claimplane/internal/ingestion"
	"github.com/davidvv/claimplane/internal/repository"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "claimplane.db"
	}

	log.Printf("Initializing database at %s", dbPath)
	db, err := repository.InitDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to init DB: %v", err)
	}
	defer db.Close()

	// Create repositories.
	flightRepo := repository.NewFlightRepo(db)
	claimRepo := repository.NewClaimRepo(db)
	assessmentRepo := repository.NewAssessmentRepo(db)

	// Create services.
	claimsSvc := claims.NewService(flightRepo, claimRepo, assessmentRepo)
	ingestionSvc := ingestion.NewService(flightRepo, claimsSvc)

	// Seed flights if DB is empty.
	count, err := flightRepo.Count()
	if err != nil {
		log.Fatalf("Failed to count flights: %v", err)
	}
	if count == 0 {
		log.Println("Database is empty, seeding flights from testdata...")
		if err := seedFlights(flightRepo); err != nil {
			log.Printf("WARNING: Failed to seed flights: %v", err)
		}
	} else {
		log.Printf("Database already has %d flights, skipping seed", count)
	}

	// Create router.
	router := api.NewRouter(flightRepo, claimRepo, assessmentRepo, claimsSvc, ingestionSvc)

	log.Printf("ClaimPlane Flight Compensation Service")
	log.Printf("Listening on http://localhost:%s", port)
	log.Printf("API base: http://localhost:%s/api/v1", port)
	log.Printf("")
	log.Printf("Endpoints:")
	log.Printf("  POST   /api/v1/eligibility/check")
	log.Printf("  POST   /api/v1/claims")
	log.Printf("  GET    /api/v1/claims")
	log.Printf("  GET    /api/v1/claims/{id}")
	log.Printf("  POST   /api/v1/claims/{id}/review")
	log.Printf("  POST   /api/v1/claims/{id}/reevaluate")
	log.Printf("  POST   /api/v1/claims/{id}/pay")
	log.Printf("  POST   /api/v1/reports/ingest")
	log.Printf("  GET    /api/v1/flights")
	log.Printf("  GET    /api/v1/dashboard")

	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func seedFlights(repo *repository.FlightRepo) error {
	// Try multiple possible locations for testdata.
	candidates := []string{
		"testdata/flights.json",
		filepath.Join(".", "testdata", "flights.json"),
	}

	// Also try to find relative to the executable.
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, "testdata", "flights.json"),
			filepath.Join(dir, "..", "..", "testdata", "flights.json"),
		)
	}

	var data []byte
	var loadErr error
	for _, path := range candidates {
		data, loadErr = os.ReadFile(path)
		if loadErr == nil {
			log.Printf("Loaded flights from %s", path)
			break
		}
	}
	if loadErr != nil {
		return fmt.Errorf("could not find flights.json in any candidate path: %w", loadErr)
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return fmt.Errorf("unmarshal flights: %w", err)
	}

	inserted, err := repo.BulkInsert(flights)
	if err != nil {
		return fmt.Errorf("bulk insert: %w", err)
	}

	log.Printf("Seeded %d flights (out of %d in file)", inserted, len(flights))
	return nil
}
