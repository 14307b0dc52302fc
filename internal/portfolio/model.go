// Package portfolio computes allocation metrics and validates sleeve
// constraints for a target-allocation portfolio. All computation is in-memory;
// callers load the portfolio and pass it in.
package portfolio

// Sleeve codes recognised by the constraint validator.
const (
	SleeveDefensive = "defensive"
	SleeveEquity    = "equity"
	SleeveReal      = "real"
	SleeveCash      = "cash"
)

type Portfolio struct {
	Name           string
	BaseCurrency   string
	TotalTarget    float64
	TolerancePct   float64
	Sleeves        []Sleeve
	Holdings       []Holding
	StockPositions []StockPosition
	IncomeRecords  []IncomeRecord
}

type Sleeve struct {
	ID        int64
	Name      string
	Code      string
	TargetPct float64
}

type Holding struct {
	SleeveID     int64
	Ticker       string
	Name         string
	TargetPct    float64
	CurrentValue float64
}

// StockPosition is one name inside the direct-stock basket, the holding with
// ticker "STOCKS".
type StockPosition struct {
	Ticker             string
	CompanyName        string
	Exchange           string
	Country            string
	Sector             string
	BasketWeightPct    float64
	PortfolioWeightPct float64
	CurrentValue       float64
}

type IncomeRecord struct {
	Source string
	Ticker string
	Amount float64
}

// sleeveHoldings filters the portfolio's holdings down to one sleeve.
func (p *Portfolio) sleeveHoldings(sleeveID int64) []Holding {
	var out []Holding
	for _, h := range p.Holdings {
		if h.SleeveID == sleeveID {
			out = append(out, h)
		}
	}
	return out
}
