package domain

import "time"

// FlightFacts is the immutable input to one eligibility evaluation. It is a
// plain value type with no ownership relationship to a persisted row; the
// claims service maps between its entities and these facts at the boundary.
type FlightFacts struct {
	DepartureAirport string
	ArrivalAirport   string

	ScheduledDeparture time.Time
	ScheduledArrival   time.Time
	ActualDeparture    *time.Time
	ActualArrival      *time.Time

	// DistanceKM is supplied by an external lookup, never computed by the
	// engine. Nil means unknown.
	DistanceKM *float64

	IncidentType IncidentType

	// Absolute veto set by a human reviewer upstream.
	Extraordinary      bool
	ExtraordinaryCause string

	// Caller-supplied estimate, used only when ActualArrival is nil.
	DelayMinutes *int

	// Cancellation notice period, when the airline communicated one.
	NoticeDaysBeforeDeparture *int
}

// CustomerContext selects which regulation applies.
type CustomerContext struct {
	Region Region
}
