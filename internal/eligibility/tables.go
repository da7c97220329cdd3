package eligibility

import (
	"fmt"

	"github.com/davidvv/claimplane/internal/domain"
)

// DistanceBand maps a distance range to a compensation amount. UpperKM is an
// inclusive upper bound; the last band of a table has UpperKM == 0 meaning
// unbounded.
type DistanceBand struct {
	UpperKM float64
	Amount  float64
	Reduced float64
}

// RegulationTable holds the published parameters of one compensation regime.
// It is an explicit value passed through the evaluation rather than global
// config, so tests and regulatory updates can swap it wholesale.
type RegulationTable struct {
	Regulation domain.Regulation
	Currency   string

	// Minimum arrival delay, in minutes, for delay compensation. Inclusive.
	DelayThresholdMinutes int

	// Delays in [DelayThresholdMinutes, ReducedWindowMinutes) on flights
	// longer than LongHaulKM pay the band's Reduced amount. Zero disables
	// the reduction for the regime.
	ReducedWindowMinutes int
	LongHaulKM           float64

	// Cancellations with notice at or beyond this many days are not
	// compensable.
	CancellationNoticeDays int

	Bands []DistanceBand
}

// EU261Table is the EU261/2004 compensation table.
var EU261Table = RegulationTable{
	Regulation:             domain.RegulationEU261,
	Currency:               "EUR",
	DelayThresholdMinutes:  180,
	ReducedWindowMinutes:   240,
	LongHaulKM:             3500,
	CancellationNoticeDays: 14,
	Bands: []DistanceBand{
		{UpperKM: 1500, Amount: 250, Reduced: 125},
		{UpperKM: 3500, Amount: 400, Reduced: 200},
		{UpperKM: 0, Amount: 600, Reduced: 300},
	},
}

// DOTTable models the US DOT regime in the same banded shape. Amounts are
// provisional pending legal confirmation; the table is data, not logic.
var DOTTable = RegulationTable{
	Regulation:             domain.RegulationDOT,
	Currency:               "USD",
	DelayThresholdMinutes:  180,
	CancellationNoticeDays: 14,
	Bands: []DistanceBand{
		{UpperKM: 1500, Amount: 200},
		{UpperKM: 3500, Amount: 400},
		{UpperKM: 0, Amount: 700},
	},
}

// CTATable models the Canadian APPR regime administered by the CTA.
var CTATable = RegulationTable{
	Regulation:             domain.RegulationCTA,
	Currency:               "CAD",
	DelayThresholdMinutes:  180,
	CancellationNoticeDays: 14,
	Bands: []DistanceBand{
		{UpperKM: 1500, Amount: 400},
		{UpperKM: 3500, Amount: 700},
		{UpperKM: 0, Amount: 1000},
	},
}

// TableForRegion returns the compiled-in table governing a customer region.
func TableForRegion(region domain.Region) (RegulationTable, error) {
	switch region {
	case domain.RegionEU:
		return EU261Table, nil
	case domain.RegionUS:
		return DOTTable, nil
	case domain.RegionCA:
		return CTATable, nil
	default:
		return RegulationTable{}, fmt.Errorf("unsupported region: %s", region)
	}
}

// bandFor returns the band covering a distance. Boundaries are inclusive
// upper bounds: exactly 1500 km belongs to the short-haul band.
func (t RegulationTable) bandFor(distanceKM float64) DistanceBand {
	for _, b := range t.Bands {
		if b.UpperKM > 0 && distanceKM <= b.UpperKM {
			return b
		}
	}
	return t.Bands[len(t.Bands)-1]
}
