package portfolio

import (
	"errors"
	"math"
)

// ErrNoHoldings is returned when metrics are requested for an empty portfolio.
var ErrNoHoldings = errors.New("portfolio has no holdings")

// Metrics summarises how far the portfolio has drifted from its target
// allocation. Drift figures are percentage points.
type Metrics struct {
	TotalTarget             float64
	TotalCurrent            float64
	TotalDriftPct           float64
	MaxPositionDrift        float64
	AvgPositionDrift        float64
	PositionsOutOfTolerance int
	TotalPositions          int
}

// SleeveMetrics is the drift picture for one sleeve.
type SleeveMetrics struct {
	SleeveName       string
	SleeveCode       string
	TargetPct        float64
	TargetValue      float64
	CurrentValue     float64
	CurrentPct       float64
	DriftPct         float64
	IsOutOfTolerance bool
}

// CalculateMetrics computes portfolio-level drift statistics across all
// holdings.
func CalculateMetrics(p *Portfolio) (*Metrics, error) {
	if len(p.Holdings) == 0 {
		return nil, ErrNoHoldings
	}

	var totalCurrent float64
	for _, h := range p.Holdings {
		totalCurrent += h.CurrentValue
	}

	var maxDrift, sumDrift float64
	outOfTolerance := 0
	for _, h := range p.Holdings {
		currentPct := 0.0
		if totalCurrent > 0 {
			currentPct = h.CurrentValue / totalCurrent * 100
		}
		drift := math.Abs(currentPct - h.TargetPct)
		sumDrift += drift
		if drift > maxDrift {
			maxDrift = drift
		}
		if drift > p.TolerancePct {
			outOfTolerance++
		}
	}

	totalDriftPct := 0.0
	if p.TotalTarget > 0 {
		totalDriftPct = (totalCurrent - p.TotalTarget) / p.TotalTarget * 100
	}

	return &Metrics{
		TotalTarget:             p.TotalTarget,
		TotalCurrent:            totalCurrent,
		TotalDriftPct:           totalDriftPct,
		MaxPositionDrift:        maxDrift,
		AvgPositionDrift:        sumDrift / float64(len(p.Holdings)),
		PositionsOutOfTolerance: outOfTolerance,
		TotalPositions:          len(p.Holdings),
	}, nil
}

// CalculateSleeveMetrics computes drift per sleeve. Sleeves with no holdings
// are skipped.
func CalculateSleeveMetrics(p *Portfolio) []SleeveMetrics {
	var out []SleeveMetrics

	for _, sleeve := range p.Sleeves {
		holdings := p.sleeveHoldings(sleeve.ID)
		if len(holdings) == 0 {
			continue
		}

		var sleeveCurrent float64
		for _, h := range holdings {
			sleeveCurrent += h.CurrentValue
		}

		sleeveTarget := p.TotalTarget * sleeve.TargetPct / 100

		driftPct := 0.0
		if sleeveTarget > 0 {
			driftPct = (sleeveCurrent - sleeveTarget) / sleeveTarget * 100
		}

		currentPct := 0.0
		if p.TotalTarget > 0 {
			currentPct = sleeveCurrent / p.TotalTarget * 100
		}

		out = append(out, SleeveMetrics{
			SleeveName:       sleeve.Name,
			SleeveCode:       sleeve.Code,
			TargetPct:        sleeve.TargetPct,
			TargetValue:      sleeveTarget,
			CurrentValue:     sleeveCurrent,
			CurrentPct:       currentPct,
			DriftPct:         driftPct,
			IsOutOfTolerance: math.Abs(driftPct) > p.TolerancePct,
		})
	}

	return out
}
