package airports

import (
	"fmt"
	"math"
)

type coordinate struct {
	Lat float64
	Lon float64
}

// coordinates maps IATA codes to airport positions. Covers the hubs seen in
// seeded flight data; the flight data provider supplies distance directly for
// anything not listed here.
var coordinates = map[string]coordinate{
	"LHR": {51.4700, -0.4543},   // London Heathrow
	"CDG": {49.0097, 2.5479},    // Paris Charles de Gaulle
	"FRA": {50.0379, 8.5622},    // Frankfurt
	"AMS": {52.3105, 4.7683},    // Amsterdam Schiphol
	"MAD": {40.4983, -3.5676},   // Madrid Barajas
	"FCO": {41.8003, 12.2389},   // Rome Fiumicino
	"LIS": {38.7742, -9.1342},   // Lisbon
	"ATH": {37.9364, 23.9445},   // Athens
	"ARN": {59.6498, 17.9238},   // Stockholm Arlanda
	"DUB": {53.4264, -6.2499},   // Dublin
	"JFK": {40.6413, -73.7781},  // New York JFK
	"EWR": {40.6895, -74.1745},  // Newark
	"ORD": {41.9742, -87.9073},  // Chicago O'Hare
	"LAX": {33.9416, -118.4085}, // Los Angeles
	"MIA": {25.7959, -80.2870},  // Miami
	"SFO": {37.6213, -122.3790}, // San Francisco
	"YYZ": {43.6777, -79.6248},  // Toronto Pearson
	"YUL": {45.4706, -73.7408},  // Montreal Trudeau
	"YVR": {49.1967, -123.1815}, // Vancouver
	"DXB": {25.2532, 55.3657},   // Dubai
	"IST": {41.2753, 28.7519},   // Istanbul
	"SIN": {1.3644, 103.9915},   // Singapore Changi
}

const earthRadiusKM = 6371.0

// Distance returns the great-circle distance in km between two IATA airports.
func Distance(from, to string) (float64, error) {
	a, ok := coordinates[from]
	if !ok {
		return 0, fmt.Errorf("unknown airport: %s", from)
	}
	b, ok := coordinates[to]
	if !ok {
		return 0, fmt.Errorf("unknown airport: %s", to)
	}
	return haversine(a, b), nil
}

// Known reports whether an airport's coordinates are on file.
func Known(code string) bool {
	_, ok := coordinates[code]
	return ok
}

func haversine(a, b coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
