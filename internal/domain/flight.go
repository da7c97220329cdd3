package domain

import "time"

type FlightStatus string

const (
	FlightScheduled FlightStatus = "scheduled"
	FlightLanded    FlightStatus = "landed"
	FlightDelayed   FlightStatus = "delayed"
	FlightCancelled FlightStatus = "cancelled"
	FlightDiverted  FlightStatus = "diverted"
)

type Flight struct {
	ID                 string       `json:"id"`
	FlightNumber       string       `json:"flight_number"`
	DepartureAirport   string       `json:"departure_airport"`
	ArrivalAirport     string       `json:"arrival_airport"`
	ScheduledDeparture time.Time    `json:"scheduled_departure"`
	ScheduledArrival   time.Time    `json:"scheduled_arrival"`
	ActualDeparture    *time.Time   `json:"actual_departure,omitempty"`
	ActualArrival      *time.Time   `json:"actual_arrival,omitempty"`
	DistanceKM         *float64     `json:"distance_km,omitempty"`
	Status             FlightStatus `json:"status"`
	DisruptionCause    string       `json:"disruption_cause,omitempty"`
	UpdatedAt          time.Time    `json:"updated_at"`
}
