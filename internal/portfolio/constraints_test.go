package portfolio

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// compliantPortfolio satisfies every sleeve rule and the income policy.
func compliantPortfolio() *Portfolio {
	p := &Portfolio{
		Name:         "Retirement",
		BaseCurrency: "GBP",
		TotalTarget:  750000,
		TolerancePct: 5.0,
		Sleeves: []Sleeve{
			{ID: 1, Name: "Defensive Income", Code: SleeveDefensive, TargetPct: 40},
			{ID: 2, Name: "Equity Income & Growth", Code: SleeveEquity, TargetPct: 45},
			{ID: 3, Name: "Cash Buffer", Code: SleeveCash, TargetPct: 7},
		},
		IncomeRecords: []IncomeRecord{
			{Source: "dividend", Amount: 18000},
			{Source: "coupon", Amount: 11500},
		},
	}

	// Five bond funds at 20% of sleeve each.
	for i := 0; i < 5; i++ {
		p.Holdings = append(p.Holdings, Holding{
			SleeveID: 1, Ticker: fmt.Sprintf("BOND%d", i), Name: "IG Bond Fund", CurrentValue: 60000,
		})
	}

	// Five equity funds at 17% of sleeve each plus a 15% stock basket.
	for i := 0; i < 5; i++ {
		p.Holdings = append(p.Holdings, Holding{
			SleeveID: 2, Ticker: fmt.Sprintf("EQ%d", i), Name: "Equity Fund", CurrentValue: 57375,
		})
	}
	p.Holdings = append(p.Holdings, Holding{
		SleeveID: 2, Ticker: "STOCKS", Name: "Direct Stock Basket", CurrentValue: 50625,
	})
	for i := 0; i < 12; i++ {
		p.StockPositions = append(p.StockPositions, StockPosition{
			Ticker:             fmt.Sprintf("STK%d", i),
			BasketWeightPct:    100.0 / 12,
			PortfolioWeightPct: 0.42,
		})
	}

	p.Holdings = append(p.Holdings, Holding{
		SleeveID: 3, Ticker: "CSH2-GBP", Name: "Sterling Cash", CurrentValue: 50000,
	})

	return p
}

func findViolation(violations []Violation, rule string) *Violation {
	for i := range violations {
		if violations[i].Rule == rule {
			return &violations[i]
		}
	}
	return nil
}

func TestValidateConstraints_CompliantPortfolio(t *testing.T) {
	result := ValidateConstraints(compliantPortfolio())

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Violations)
	assert.Empty(t, result.Warnings)
}

func TestValidateConstraints_DefensiveInstrumentTooLarge(t *testing.T) {
	p := compliantPortfolio()
	p.Holdings[0].CurrentValue = 200000 // well over 20% of sleeve

	result := ValidateConstraints(p)

	assert.False(t, result.IsValid)
	v := findViolation(result.Violations, "Max 20% per instrument")
	require.NotNil(t, v)
	assert.Equal(t, SeverityError, v.Severity)
	assert.Equal(t, "Defensive Income", v.Sleeve)
	assert.Contains(t, v.Message, "BOND0")
}

func TestValidateConstraints_EquityFundTooLarge(t *testing.T) {
	p := compliantPortfolio()
	p.Holdings[5].CurrentValue = 200000

	result := ValidateConstraints(p)

	assert.False(t, result.IsValid)
	v := findViolation(result.Violations, "Max 20% per ETF/fund")
	require.NotNil(t, v)
	assert.Contains(t, v.Message, "EQ0")
}

func TestValidateConstraints_StockBasketTooLarge(t *testing.T) {
	p := compliantPortfolio()
	// Basket grows to roughly 23% of the sleeve.
	p.Holdings[10].CurrentValue = 85000

	result := ValidateConstraints(p)

	assert.False(t, result.IsValid)
	assert.NotNil(t, findViolation(result.Violations, "Max 15% in individual stocks"))
}

func TestValidateConstraints_TooFewStocks(t *testing.T) {
	p := compliantPortfolio()
	p.StockPositions = p.StockPositions[:8]

	result := ValidateConstraints(p)

	assert.False(t, result.IsValid)
	v := findViolation(result.Violations, "Min 12 stock holdings")
	require.NotNil(t, v)
	assert.Contains(t, v.Message, "8 stocks")
}

func TestValidateConstraints_StockPositionTooLarge(t *testing.T) {
	p := compliantPortfolio()
	p.StockPositions[0].PortfolioWeightPct = 4.5

	result := ValidateConstraints(p)

	assert.False(t, result.IsValid)
	v := findViolation(result.Violations, "Max 3% per stock")
	require.NotNil(t, v)
	assert.Contains(t, v.Message, "STK0")
}

func TestValidateConstraints_RealAssetsConcentration(t *testing.T) {
	p := compliantPortfolio()
	p.Sleeves = append(p.Sleeves, Sleeve{ID: 4, Name: "Real Assets", Code: SleeveReal, TargetPct: 8})
	p.Holdings = append(p.Holdings,
		Holding{SleeveID: 4, Ticker: "TRIG", Name: "Renewables Infrastructure", CurrentValue: 30000},
		Holding{SleeveID: 4, Ticker: "SUPR", Name: "Supermarket REIT", CurrentValue: 12000},
		Holding{SleeveID: 4, Ticker: "GABI", Name: "Asset-Backed Credit", CurrentValue: 30000},
	)

	result := ValidateConstraints(p)

	assert.False(t, result.IsValid)
	assert.NotNil(t, findViolation(result.Violations, "Max 10% REITs"))
	assert.NotNil(t, findViolation(result.Violations, "Max 10% Infrastructure"))
	assert.NotNil(t, findViolation(result.Violations, "Max 10% Credit/asset-backed"))
}

func TestValidateConstraints_CashBufferTooSmallIsWarning(t *testing.T) {
	p := compliantPortfolio()
	p.Holdings[11].CurrentValue = 20000

	result := ValidateConstraints(p)

	// A thin buffer warns but never invalidates the portfolio.
	assert.True(t, result.IsValid)
	v := findViolation(result.Warnings, "Min 1.5 years income buffer")
	require.NotNil(t, v)
	assert.Equal(t, SeverityWarning, v.Severity)
}

func TestValidateConstraints_NonGBPCashWarning(t *testing.T) {
	p := compliantPortfolio()
	p.Holdings[11].Ticker = "USDT-BILL"

	result := ValidateConstraints(p)

	assert.True(t, result.IsValid)
	assert.NotNil(t, findViolation(result.Warnings, "GBP-only instruments"))
}

func TestValidateConstraints_WithdrawalCeiling(t *testing.T) {
	p := compliantPortfolio()
	p.TotalTarget = 600000 // 4.25% ceiling = 25500, below the 30k target income

	result := ValidateConstraints(p)

	assert.False(t, result.IsValid)
	v := findViolation(result.Violations, "Max 4.25% withdrawal rate")
	require.NotNil(t, v)
	assert.Equal(t, "Portfolio", v.Sleeve)
}

func TestValidateConstraints_IncomeBelowTarget(t *testing.T) {
	p := compliantPortfolio()
	p.IncomeRecords = []IncomeRecord{{Source: "dividend", Amount: 20000}}

	result := ValidateConstraints(p)

	assert.True(t, result.IsValid)
	assert.NotNil(t, findViolation(result.Warnings, "Target annual income"))
}

func TestValidateConstraints_EmptySleevesSkipped(t *testing.T) {
	p := &Portfolio{
		TotalTarget:  750000,
		TolerancePct: 5.0,
		Sleeves: []Sleeve{
			{ID: 1, Name: "Defensive Income", Code: SleeveDefensive, TargetPct: 40},
			{ID: 3, Name: "Cash Buffer", Code: SleeveCash, TargetPct: 7},
		},
	}

	result := ValidateConstraints(p)

	// An empty cash sleeve still warns on buffer size; nothing errors.
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Violations)
	assert.NotNil(t, findViolation(result.Warnings, "Min 1.5 years income buffer"))
}
